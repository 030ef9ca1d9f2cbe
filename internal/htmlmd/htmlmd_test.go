package htmlmd

import (
	"strings"
	"testing"
)

func TestToMarkdown(t *testing.T) {
	c := NewConverter()

	tests := []struct {
		name string
		html string
		want []string // substrings expected in the output
	}{
		{
			name: "headings and emphasis",
			html: "<h1>İhale İlanı</h1><p>Ankara <strong>mal alımı</strong></p>",
			want: []string{"İhale İlanı", "**mal alımı**"},
		},
		{
			name: "tables keep cell text",
			html: "<table><tr><td>IKN</td><td>2025/12345</td></tr></table>",
			want: []string{"2025/12345"},
		},
		{
			name: "empty input",
			html: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ToMarkdown(tt.html)
			if tt.want == nil {
				if got != "" {
					t.Errorf("expected empty output, got %q", got)
				}
				return
			}
			for _, sub := range tt.want {
				if !strings.Contains(got, sub) {
					t.Errorf("output missing %q:\n%s", sub, got)
				}
			}
		})
	}
}

func TestConverterPreview(t *testing.T) {
	c := NewConverter()
	if got := c.Preview("<p>Sonuç   İlanı</p>", 200); got != "Sonuç İlanı" {
		t.Errorf("Converter.Preview() = %q, want %q", got, "Sonuç İlanı")
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		maxLen int
		want   string
	}{
		{
			name:   "strips tags and collapses whitespace",
			html:   "<p>Sonuç   İlanı</p>\n<p>detay</p>",
			maxLen: 200,
			want:   "Sonuç İlanı detay",
		},
		{
			name:   "truncates long text at rune boundary",
			html:   "<p>çok uzun bir ilan metni</p>",
			maxLen: 8,
			want:   "çok uzun...",
		},
		{
			name:   "empty input",
			html:   "",
			maxLen: 200,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.html, tt.maxLen); got != tt.want {
				t.Errorf("Preview() = %q, want %q", got, tt.want)
			}
		})
	}
}
