// Package watchlist manages saved tender searches: markdown files with
// YAML frontmatter living in the storage directory.
package watchlist

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"

	"ihalemcp/internal/logging"
)

// entryFrontmatter is the YAML header expected at the top of a saved
// search file. Only description is mandatory.
type entryFrontmatter struct {
	Description string `yaml:"description"`
	Name        string `yaml:"name,omitempty"`
	Query       string `yaml:"query,omitempty"`
}

// Entry is one parsed saved search.
type Entry struct {
	FileName    string `json:"file_name"`
	Description string `json:"description"`
	Name        string `json:"name,omitempty"`
	Query       string `json:"query,omitempty"`
	// Body is the markdown notes below the frontmatter.
	Body string `json:"body,omitempty"`
}

// Store scans a directory for saved searches.
type Store struct {
	dir    string
	logger *logging.AppLogger
}

// NewStore builds a store rooted at dir.
func NewStore(dir string, logger *logging.AppLogger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Dir returns the directory the store scans.
func (s *Store) Dir() string {
	return s.dir
}

// List parses every saved search in the directory. The scan is shallow
// and skips hidden entries; files without valid frontmatter are logged
// and skipped rather than failing the listing.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading watchlist directory: %w", err)
	}

	var entries []Entry
	var skipped int
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		if !strings.HasSuffix(de.Name(), ".md") {
			continue
		}

		entry, err := s.parseFile(de.Name())
		if err != nil {
			s.logger.Debug("skipping watchlist file", "name", de.Name(), "reason", err)
			skipped++
			continue
		}
		entries = append(entries, *entry)
	}

	s.logger.Info("watchlist scan completed",
		"entries", len(entries), "skipped", skipped)
	return entries, nil
}

// Get parses a single saved search by file name. The name must not
// escape the storage directory.
func (s *Store) Get(fileName string) (*Entry, error) {
	if fileName != filepath.Base(fileName) || strings.HasPrefix(fileName, ".") {
		return nil, fmt.Errorf("invalid watchlist file name %q", fileName)
	}
	return s.parseFile(fileName)
}

func (s *Store) parseFile(fileName string) (*Entry, error) {
	content, err := os.ReadFile(filepath.Join(s.dir, fileName))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var matter entryFrontmatter
	body, err := frontmatter.Parse(bytes.NewReader(content), &matter)
	if err != nil {
		return nil, fmt.Errorf("no valid frontmatter: %w", err)
	}
	if strings.TrimSpace(matter.Description) == "" {
		return nil, fmt.Errorf("frontmatter missing description")
	}

	return &Entry{
		FileName:    fileName,
		Description: strings.TrimSpace(matter.Description),
		Name:        strings.TrimSpace(matter.Name),
		Query:       strings.TrimSpace(matter.Query),
		Body:        strings.TrimSpace(string(body)),
	}, nil
}

// Save writes a new saved search with the given frontmatter and body.
// Existing files are not overwritten.
func (s *Store) Save(fileName, description, name, query, body string) error {
	if fileName != filepath.Base(fileName) || strings.HasPrefix(fileName, ".") {
		return fmt.Errorf("invalid watchlist file name %q", fileName)
	}
	if !strings.HasSuffix(fileName, ".md") {
		fileName += ".md"
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("description is required")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating watchlist directory: %w", err)
	}

	path := filepath.Join(s.dir, fileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("watchlist file %q already exists", fileName)
		}
		return fmt.Errorf("creating watchlist file: %w", err)
	}
	defer f.Close()

	if err := writeEntry(f, description, name, query, body); err != nil {
		return fmt.Errorf("writing watchlist file: %w", err)
	}
	return nil
}

func writeEntry(w io.Writer, description, name, query, body string) error {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "description: %s\n", yamlScalar(description))
	if name != "" {
		fmt.Fprintf(&b, "name: %s\n", yamlScalar(name))
	}
	if query != "" {
		fmt.Fprintf(&b, "query: %s\n", yamlScalar(query))
	}
	b.WriteString("---\n")
	if body != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(body))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// yamlScalar quotes values that would otherwise need escaping.
func yamlScalar(s string) string {
	if strings.ContainsAny(s, ":#\"'\n") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
