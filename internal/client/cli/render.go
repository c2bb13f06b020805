package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/cmsclient/internal/client/apierror"
)

type styles struct {
	prompt lipgloss.Style
	ok     lipgloss.Style
	danger lipgloss.Style
	label  lipgloss.Style
	muted  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		prompt: r.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Bold(true),
		ok:     r.NewStyle().Foreground(lipgloss.Color("#9ece6a")),
		danger: r.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true),
		label:  r.NewStyle().Foreground(lipgloss.Color("#e0af68")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#565f89")),
	}
}

// renderError prints the summary line followed by one line per field error.
func (s styles) renderError(err error) string {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		return s.danger.Render(apierror.Text(err))
	}

	var b strings.Builder
	b.WriteString(s.danger.Render(apiErr.Summary))
	for _, fe := range apiErr.FieldErrors {
		b.WriteString("\n  - ")
		if fe.Label != "" {
			b.WriteString(s.label.Render(fe.Label + ":"))
			b.WriteString(" ")
		}
		b.WriteString(fe.Message)
	}
	return b.String()
}

// prettyJSON indents data; anything that is not JSON is returned as is.
func prettyJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}
