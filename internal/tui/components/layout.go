package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"ihalemcp/internal/tui/styles"
)

type LayoutConfig struct {
	Title    string
	Subtitle string
	HelpText string
	MarginX  int
	MarginY  int
	MaxWidth int
}

// LayoutModel renders titled screens with consistent margins, wrapping
// and an optional error line. Screens reconfigure it per state instead
// of assembling lipgloss sections themselves.
type LayoutModel struct {
	config LayoutConfig
	width  int
	height int
	err    error
}

func NewLayout(config LayoutConfig) LayoutModel {
	if config.MarginX == 0 {
		config.MarginX = 2
	}
	if config.MarginY == 0 {
		config.MarginY = 1
	}
	if config.MaxWidth == 0 {
		config.MaxWidth = 100
	}

	return LayoutModel{config: config}
}

func (m LayoutModel) Update(msg tea.Msg) (LayoutModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m LayoutModel) SetError(err error) LayoutModel {
	if err != nil {
		m.err = err
	}
	return m
}

func (m LayoutModel) ClearError() LayoutModel {
	m.err = nil
	return m
}

func (m LayoutModel) GetError() error {
	return m.err
}

// SetConfig swaps the screen configuration, preserving margin and width
// defaults for zero values.
func (m LayoutModel) SetConfig(config LayoutConfig) LayoutModel {
	if config.MarginX == 0 {
		config.MarginX = m.config.MarginX
	}
	if config.MarginY == 0 {
		config.MarginY = m.config.MarginY
	}
	if config.MaxWidth == 0 {
		config.MaxWidth = m.config.MaxWidth
	}
	m.config = config
	return m
}

// Render assembles title, subtitle, content, error and help sections
// into the final screen.
func (m LayoutModel) Render(content string) string {
	sections := []string{}
	contentWidth := m.ContentWidth()

	if m.config.Title != "" {
		sections = append(sections, styles.TitleStyle.Render(m.wrapText(m.config.Title, contentWidth)))
	}
	if m.config.Subtitle != "" {
		sections = append(sections, styles.SubtitleStyle.Render(m.wrapText(m.config.Subtitle, contentWidth)))
	}
	if content != "" {
		sections = append(sections, styles.NormalTextStyle.Render(m.wrapText(content, contentWidth)))
	}
	if m.err != nil {
		sections = append(sections, styles.ErrorStyle.Render(m.wrapText("Error: "+m.err.Error(), contentWidth)))
	}
	if m.config.HelpText != "" {
		sections = append(sections, styles.HelpStyle.Render(m.wrapText(m.config.HelpText, contentWidth)))
	}

	return m.addMargins(strings.Join(sections, "\n\n"))
}

// wrapText word-wraps while preserving manual line and paragraph breaks.
func (m LayoutModel) wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	paragraphs := strings.Split(text, "\n\n")
	wrapped := make([]string, 0, len(paragraphs))

	for _, paragraph := range paragraphs {
		lines := strings.Split(paragraph, "\n")
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				lines[i] = ""
				continue
			}
			lines[i] = wordwrap.String(line, width)
		}
		wrapped = append(wrapped, strings.Join(lines, "\n"))
	}

	return strings.Join(wrapped, "\n\n")
}

func (m LayoutModel) addMargins(content string) string {
	lines := strings.Split(content, "\n")
	marginLeft := strings.Repeat(" ", m.config.MarginX)

	for i, line := range lines {
		lines[i] = marginLeft + line
	}

	margin := strings.Repeat("\n", m.config.MarginY)
	return margin + strings.Join(lines, "\n") + margin
}

func (m LayoutModel) ContentWidth() int {
	available := m.width - (m.config.MarginX * 2)
	if available > m.config.MaxWidth {
		return m.config.MaxWidth
	}
	if available < 40 {
		return 40
	}
	return available
}

func (m LayoutModel) ContentHeight() int {
	return m.height - (m.config.MarginY * 2) - 6
}

// InputWidth sizes text inputs relative to the content area.
func (m LayoutModel) InputWidth() int {
	inputWidth := m.ContentWidth() - 8

	if inputWidth > 80 {
		return 80
	}
	if inputWidth < 30 {
		return 30
	}
	return inputWidth
}

func (m LayoutModel) GetConfig() LayoutConfig {
	return m.config
}
