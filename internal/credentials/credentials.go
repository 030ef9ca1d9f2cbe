// Package credentials handles secure storage and retrieval of the API keys
// the clients need: the Google Maps key for lead generation and the
// optional TED API key for EU tender search.
//
// Keys live in the OS credential store (keychain, libsecret, wincred) via
// go-keyring; environment variables act as a fallback so headless
// deployments can skip the keyring entirely.
package credentials

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for the OS credential store
	credentialService = "ihalemcp"

	mapsAPIKeyName = "google_maps_api_key"
	tedAPIKeyName  = "ted_api_key"

	// Environment fallbacks, matching the names the Google and TED
	// clients have historically used.
	EnvMapsAPIKey = "GOOGLE_MAPS_API_KEY"
	EnvTEDAPIKey  = "TED_API_KEY"
)

// Manager handles secure storage and retrieval of API credentials.
type Manager struct {
	service string
}

// NewManager creates a new credential manager instance
func NewManager() *Manager {
	return &Manager{service: credentialService}
}

// StoreMapsAPIKey stores the Google Maps API key in the OS credential store.
func (m *Manager) StoreMapsAPIKey(key string) error {
	return m.store(mapsAPIKeyName, key)
}

// MapsAPIKey returns the Google Maps API key, preferring the credential
// store and falling back to the GOOGLE_MAPS_API_KEY environment variable.
func (m *Manager) MapsAPIKey() (string, error) {
	key, err := m.lookup(mapsAPIKeyName, EnvMapsAPIKey)
	if err != nil {
		return "", fmt.Errorf("no Google Maps API key configured - run setup or set %s: %w", EnvMapsAPIKey, err)
	}
	return key, nil
}

// StoreTEDAPIKey stores the TED API key in the OS credential store.
func (m *Manager) StoreTEDAPIKey(key string) error {
	return m.store(tedAPIKeyName, key)
}

// TEDAPIKey returns the TED API key, or an empty string when none is
// configured. TED works without a key at reduced rate limits, so absence
// is not an error.
func (m *Manager) TEDAPIKey() string {
	key, err := m.lookup(tedAPIKeyName, EnvTEDAPIKey)
	if err != nil {
		return ""
	}
	return key
}

// HasMapsAPIKey checks whether a Maps key is available without returning it.
func (m *Manager) HasMapsAPIKey() bool {
	_, err := m.lookup(mapsAPIKeyName, EnvMapsAPIKey)
	return err == nil
}

// DeleteMapsAPIKey removes the stored Maps key. Missing keys are not an error.
func (m *Manager) DeleteMapsAPIKey() error {
	return m.delete(mapsAPIKeyName)
}

// DeleteTEDAPIKey removes the stored TED key. Missing keys are not an error.
func (m *Manager) DeleteTEDAPIKey() error {
	return m.delete(tedAPIKeyName)
}

func (m *Manager) store(name, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if strings.ContainsAny(value, " \t\n") {
		return fmt.Errorf("key must not contain whitespace")
	}

	if err := keyring.Set(m.service, name, value); err != nil {
		return fmt.Errorf("failed to store key in credential store: %w", err)
	}
	return nil
}

func (m *Manager) lookup(name, envVar string) (string, error) {
	value, err := keyring.Get(m.service, name)
	if err == nil && strings.TrimSpace(value) != "" {
		return value, nil
	}

	if env := strings.TrimSpace(os.Getenv(envVar)); env != "" {
		return env, nil
	}

	if err == nil {
		return "", keyring.ErrNotFound
	}
	return "", err
}

func (m *Manager) delete(name string) error {
	err := keyring.Delete(m.service, name)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete key from credential store: %w", err)
	}
	return nil
}
