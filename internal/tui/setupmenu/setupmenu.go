// Package setupmenu provides the first-time setup flow for ihalemcp.
//
// The wizard walks through the settings the MCP servers need before
// first use: the watchlist storage directory, the Google Maps API key
// for lead generation, the optional TED API key and the default Google
// Sheets spreadsheet for lead export. API keys go to the OS keyring and
// are only written at final confirmation; everything else lands in the
// YAML config.
package setupmenu

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ihalemcp/internal/config"
	"ihalemcp/internal/credentials"
	"ihalemcp/internal/logging"
	"ihalemcp/internal/tui/components"
	"ihalemcp/internal/tui/helpers"
	"ihalemcp/internal/tui/styles"
)

// SetupState represents the current state of the setup process
type SetupState int

const (
	SetupStateWelcome      SetupState = iota // Initial welcome screen
	SetupStateStorageInput                   // Watchlist storage directory input
	SetupStateMapsKey                        // Google Maps API key input (password-masked)
	SetupStateTEDKey                         // TED API key input, optional (password-masked)
	SetupStateSpreadsheet                    // Default spreadsheet id input, optional
	SetupStateConfirmation                   // Review and confirm configuration
	SetupStateComplete                       // Setup successfully completed
	SetupStateCancelled                      // Setup was cancelled by user
)

// Custom messages for internal state transitions
type (
	setupErrorMsg    struct{ err error }
	setupCompleteMsg struct{}
)

// credentialStore is the slice of the credential manager the wizard
// needs; tests substitute an in-memory implementation.
type credentialStore interface {
	StoreMapsAPIKey(key string) error
	StoreTEDAPIKey(key string) error
}

// SetupModel manages the first-time setup wizard state and user
// interactions. It implements tea.Model, using pointer receivers so
// state changes propagate across the event loop.
type SetupModel struct {
	state SetupState

	// Collected configuration, keys stay in memory until confirmation
	StorageDir    string
	MapsAPIKey    string
	TEDAPIKey     string
	SpreadsheetID string

	Cancelled bool
	logger    *logging.AppLogger

	creds credentialStore

	textInput textinput.Model
	layout    components.LayoutModel
}

// NewSetupModel creates the wizard with initial state and UI components.
func NewSetupModel(ctx helpers.UIContext) *SetupModel {
	ti := textinput.New()
	ti.Placeholder = config.DefaultStorageDir()
	ti.Focus()
	ti.CharLimit = 256

	layout := components.NewLayout(components.LayoutConfig{
		MarginX:  2,
		MarginY:  1,
		MaxWidth: 100,
	})

	if ctx.HasValidDimensions() {
		windowMsg := tea.WindowSizeMsg{Width: ctx.Width, Height: ctx.Height}
		layout, _ = layout.Update(windowMsg)
		ti.Width = layout.InputWidth()
	}

	return &SetupModel{
		state:     SetupStateWelcome,
		textInput: ti,
		layout:    layout,
		logger:    ctx.Logger,
		creds:     credentials.NewManager(),
	}
}

// Init starts the text input cursor blinking.
func (m *SetupModel) Init() tea.Cmd {
	m.logger.Info("Setup wizard initialized")
	return textinput.Blink
}

// Update handles all incoming messages and delegates to the
// state-specific handlers.
func (m *SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.logger.LogMessage(msg)
	m.layout, _ = m.layout.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.textInput.Width = m.layout.InputWidth()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case setupErrorMsg:
		m.layout = m.layout.SetError(msg.err)
		return m, nil

	case setupCompleteMsg:
		m.state = SetupStateComplete
		m.layout = m.layout.ClearError()
		return m, nil
	}

	return m, nil
}

// updateTextInput forwards keyboard input to the text field and clears
// any displayed error.
func (m *SetupModel) updateTextInput(msg tea.Msg) (*SetupModel, tea.Cmd) {
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	if m.layout.GetError() != nil {
		m.layout = m.layout.ClearError()
	}
	return m, cmd
}

func (m *SetupModel) handleKeyPress(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	// Ctrl+C always quits; plain q only works outside text inputs.
	if msg.String() == "ctrl+c" {
		return m.handleQuit()
	}

	switch m.state {
	case SetupStateWelcome:
		return m.handleWelcomeKeys(msg)
	case SetupStateStorageInput:
		return m.handleStorageInputKeys(msg)
	case SetupStateMapsKey:
		return m.handleMapsKeyKeys(msg)
	case SetupStateTEDKey:
		return m.handleTEDKeyKeys(msg)
	case SetupStateSpreadsheet:
		return m.handleSpreadsheetKeys(msg)
	case SetupStateConfirmation:
		return m.handleConfirmationKeys(msg)
	default:
		// Complete and Cancelled exit on any key.
		return m, tea.Quit
	}
}

// handleWelcomeKeys handles input on the welcome screen.
// Enter/Space: proceed to storage input. Esc/q: quit setup.
func (m *SetupModel) handleWelcomeKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "enter", " ":
		defaultPath := config.DefaultStorageDir()
		return m, m.resetTextInputForState(SetupStateStorageInput, defaultPath, defaultPath, textinput.EchoNormal)
	case "esc", "q":
		return m.handleQuit()
	}
	return m, nil
}

// handleStorageInputKeys handles the watchlist storage directory screen.
// Enter: validate path and proceed. Esc: back to welcome.
func (m *SetupModel) handleStorageInputKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		input := strings.TrimSpace(m.textInput.Value())
		m.logger.Debug("Validating storage directory", "path", input)

		if err := validateStoragePath(input); err != nil {
			m.logger.Warn("Storage directory validation failed", "error", err)
			return m, func() tea.Msg { return setupErrorMsg{err} }
		}

		m.StorageDir = expandPath(input)
		return m, m.resetTextInputForState(SetupStateMapsKey, "", "AIzaSy...", textinput.EchoPassword)

	case "esc":
		m.state = SetupStateWelcome
		m.layout = m.layout.ClearError()
		return m, nil
	default:
		return m.updateTextInput(msg)
	}
}

// handleMapsKeyKeys handles the Google Maps API key screen.
// Enter: validate key format and proceed (empty skips lead generation).
// Esc: back to storage input.
func (m *SetupModel) handleMapsKeyKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		input := strings.TrimSpace(m.textInput.Value())
		if err := validateAPIKey(input); err != nil {
			m.logger.Warn("Maps API key validation failed", "error", err)
			return m, func() tea.Msg { return setupErrorMsg{err} }
		}

		m.MapsAPIKey = input
		return m, m.resetTextInputForState(SetupStateTEDKey, "", "leave empty for anonymous access", textinput.EchoPassword)

	case "esc":
		defaultPath := config.DefaultStorageDir()
		return m, m.resetTextInputForState(SetupStateStorageInput, m.StorageDir, defaultPath, textinput.EchoNormal)
	default:
		return m.updateTextInput(msg)
	}
}

// handleTEDKeyKeys handles the optional TED API key screen.
// Enter: accept (empty means anonymous TED access). Esc: back to Maps key.
func (m *SetupModel) handleTEDKeyKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		input := strings.TrimSpace(m.textInput.Value())
		if err := validateAPIKey(input); err != nil {
			m.logger.Warn("TED API key validation failed", "error", err)
			return m, func() tea.Msg { return setupErrorMsg{err} }
		}

		m.TEDAPIKey = input
		return m, m.resetTextInputForState(SetupStateSpreadsheet, "", "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", textinput.EchoNormal)

	case "esc":
		return m, m.resetTextInputForState(SetupStateMapsKey, "", "AIzaSy...", textinput.EchoPassword)
	default:
		return m.updateTextInput(msg)
	}
}

// handleSpreadsheetKeys handles the optional spreadsheet id screen.
// Enter: accept and proceed to confirmation. Esc: back to TED key.
func (m *SetupModel) handleSpreadsheetKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.SpreadsheetID = strings.TrimSpace(m.textInput.Value())
		m.state = SetupStateConfirmation
		m.layout = m.layout.ClearError()
		return m, nil

	case "esc":
		return m, m.resetTextInputForState(SetupStateTEDKey, "", "leave empty for anonymous access", textinput.EchoPassword)
	default:
		return m.updateTextInput(msg)
	}
}

// handleConfirmationKeys handles the confirmation screen.
// y/Enter: write config and keys. n/Esc: back to storage input. q: cancel.
func (m *SetupModel) handleConfirmationKeys(msg tea.KeyMsg) (*SetupModel, tea.Cmd) {
	switch msg.String() {
	case "n", "N", "esc":
		defaultPath := config.DefaultStorageDir()
		return m, m.resetTextInputForState(SetupStateStorageInput, m.StorageDir, defaultPath, textinput.EchoNormal)
	case "y", "Y", "enter":
		return m, m.createConfig()
	case "q":
		return m.handleQuit()
	}
	return m, nil
}

// createConfig returns a command that writes configuration and keys
// asynchronously so file and keyring operations never block the UI.
func (m *SetupModel) createConfig() tea.Cmd {
	return func() tea.Msg {
		m.logger.Info("Creating configuration", "storage_dir", m.StorageDir)
		if err := m.performSetup(); err != nil {
			m.logger.Error("Configuration creation failed", "error", err)
			return setupErrorMsg{err}
		}
		m.logger.Info("Configuration created successfully")
		return setupCompleteMsg{}
	}
}

func (m *SetupModel) handleQuit() (*SetupModel, tea.Cmd) {
	m.logger.Warn("Setup cancelled by user")
	m.Cancelled = true
	m.state = SetupStateCancelled
	return m, nil
}

// performSetup writes the YAML config and stores the API keys in the OS
// keyring. Keys are only persisted here, at final confirmation.
func (m *SetupModel) performSetup() error {
	if err := config.CreateNewConfig(m.StorageDir, m.SpreadsheetID); err != nil {
		return err
	}

	if m.MapsAPIKey != "" {
		m.logger.Debug("Storing Google Maps API key in keyring")
		if err := m.creds.StoreMapsAPIKey(m.MapsAPIKey); err != nil {
			return fmt.Errorf("failed to store Google Maps API key: %w", err)
		}
	}
	if m.TEDAPIKey != "" {
		m.logger.Debug("Storing TED API key in keyring")
		if err := m.creds.StoreTEDAPIKey(m.TEDAPIKey); err != nil {
			return fmt.Errorf("failed to store TED API key: %w", err)
		}
	}

	return nil
}

// View renders the appropriate screen based on the current setup state.
func (m *SetupModel) View() string {
	switch m.state {
	case SetupStateWelcome:
		return m.viewWelcome()
	case SetupStateStorageInput:
		return m.viewStorageInput()
	case SetupStateMapsKey:
		return m.viewMapsKey()
	case SetupStateTEDKey:
		return m.viewTEDKey()
	case SetupStateSpreadsheet:
		return m.viewSpreadsheet()
	case SetupStateConfirmation:
		return m.viewConfirmation()
	case SetupStateComplete:
		return m.viewComplete()
	case SetupStateCancelled:
		return m.viewCancelled()
	}
	return ""
}

func (m *SetupModel) viewWelcome() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🔧 Welcome to ihalemcp!",
		Subtitle: "Let's set up your configuration.",
		HelpText: "Press Enter to continue, or Esc to cancel",
	})

	content := `This is your first time running ihalemcp. We need to configure a few settings to get you started.

We'll set up:
• Storage directory for saved tender searches
• Google Maps API key for business lead generation
• TED API key for EU tender search (optional)
• Default Google Sheets spreadsheet for lead export (optional)

API keys are stored in your OS keyring, never in plain text.`

	return m.layout.Render(content)
}

func (m *SetupModel) viewStorageInput() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📁 Storage Directory",
		Subtitle: "Where should we store your saved tender searches?",
		HelpText: "Press Enter to continue • Esc to go back • Use ~ for home directory",
	})

	explanation := `Saved searches are markdown files with a frontmatter description. The ihale-mcp server exposes them as resources so your MCP client can re-run them.`

	prompt := "Enter storage directory path:"
	input := styles.InputStyle.Render(m.textInput.View())

	return m.layout.Render(fmt.Sprintf("%s\n\n%s\n%s", explanation, prompt, input))
}

func (m *SetupModel) viewMapsKey() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🗺️  Google Maps API Key",
		Subtitle: "Enter your Google Maps API key",
		HelpText: "Press Enter to continue • Esc to go back • Leave empty to skip lead generation",
	})

	explanation := `The maps-mcp server uses the Places and Geocoding APIs to find business leads. The key needs the Places API and Geocoding API enabled.

🔒 The key is stored in your OS keyring (Keychain/Credential Manager), never in plain text.

Get a key at: https://console.cloud.google.com/apis/credentials`

	prompt := "Google Maps API key:"
	input := styles.InputStyle.Render(m.textInput.View())

	return m.layout.Render(fmt.Sprintf("%s\n\n%s\n%s", explanation, prompt, input))
}

func (m *SetupModel) viewTEDKey() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🇪🇺 TED API Key",
		Subtitle: "Enter your TED API key (optional)",
		HelpText: "Press Enter to continue • Esc to go back • Leave empty for anonymous access",
	})

	explanation := `Tenders Electronic Daily (TED) works without a key at reduced rate limits. Provide one if you search EU tenders heavily.

Get a key at: https://ted.europa.eu/en/developer-corner`

	prompt := "TED API key (optional):"
	input := styles.InputStyle.Render(m.textInput.View())

	return m.layout.Render(fmt.Sprintf("%s\n\n%s\n%s", explanation, prompt, input))
}

func (m *SetupModel) viewSpreadsheet() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📊 Google Sheets Export",
		Subtitle: "Default spreadsheet for lead export (optional)",
		HelpText: "Press Enter to continue • Esc to go back • Leave empty to configure later",
	})

	explanation := `Business leads can be appended to a Google Sheets spreadsheet. Paste the spreadsheet id from the sheet URL, the long token between /d/ and /edit.

The spreadsheet needs a tab named "Leads" and must be shared with your service account.`

	prompt := "Spreadsheet id (optional):"
	input := styles.InputStyle.Render(m.textInput.View())

	return m.layout.Render(fmt.Sprintf("%s\n\n%s\n%s", explanation, prompt, input))
}

func (m *SetupModel) viewConfirmation() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "✅ Confirm Configuration",
		Subtitle: "Please review your settings:",
		HelpText: "Press y to confirm • n to go back • q to cancel",
	})

	settings := fmt.Sprintf(`Storage Directory: %s
Google Maps API Key: %s
TED API Key: %s
Spreadsheet ID: %s`,
		m.StorageDir,
		maskedOrSkipped(m.MapsAPIKey),
		maskedOrSkipped(m.TEDAPIKey),
		orNotSet(m.SpreadsheetID))

	return m.layout.Render(fmt.Sprintf("%s\n\nIs this correct? (Y/n)", settings))
}

func (m *SetupModel) viewComplete() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "🎉 Setup Complete!",
		Subtitle: "ihalemcp has been configured successfully.",
		HelpText: "Press any key to exit",
	})

	content := fmt.Sprintf(`Configuration saved successfully!

Storage Directory: %s

Start the servers with:
• ihalemcp serve    — Turkish public tenders (EKAP)
• ihalemcp ted      — EU tenders (TED)
• ihalemcp leads    — business lead generation`, m.StorageDir)

	return m.layout.Render(content)
}

func (m *SetupModel) viewCancelled() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "❌ Setup Cancelled",
		Subtitle: "ihalemcp will not be configured.",
		HelpText: "Press any key to exit",
	})

	return m.layout.Render(`Setup was cancelled. ihalemcp has not been configured and will need to be set up before the MCP servers can run.`)
}

// resetTextInputForState resets the text input and transitions to a new
// state, returning the blink command.
func (m *SetupModel) resetTextInputForState(state SetupState, value, placeholder string, echoMode textinput.EchoMode) tea.Cmd {
	m.state = state
	m.textInput.Reset()
	m.textInput.SetValue(value)
	m.textInput.Placeholder = placeholder
	m.textInput.EchoMode = echoMode
	m.textInput.Focus()
	m.layout = m.layout.ClearError()
	return textinput.Blink
}

// validateStoragePath rejects empty or clearly unusable paths before
// any directory is created.
func validateStoragePath(path string) error {
	if path == "" {
		return fmt.Errorf("storage directory cannot be empty")
	}
	expanded := expandPath(path)
	if !filepath.IsAbs(expanded) {
		return fmt.Errorf("storage directory must be an absolute path")
	}
	if info, err := os.Stat(expanded); err == nil && !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", expanded)
	}
	return nil
}

// expandPath resolves a leading ~ against the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return filepath.Clean(path)
}

// validateAPIKey checks key format; empty keys are allowed and mean skip.
func validateAPIKey(key string) error {
	if key == "" {
		return nil
	}
	if strings.ContainsAny(key, " \t\n") {
		return fmt.Errorf("API key must not contain whitespace")
	}
	if len(key) < 8 {
		return fmt.Errorf("API key looks too short")
	}
	return nil
}

func maskedOrSkipped(key string) string {
	if key == "" {
		return "(skipped)"
	}
	return "[stored in OS keyring]"
}

func orNotSet(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}
