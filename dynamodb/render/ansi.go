package render

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

// Theme holds the terminal styles used by the ANSI renderer.
type Theme struct {
	Title   lipgloss.Style
	Key     lipgloss.Style
	Match   lipgloss.Style
	String  lipgloss.Style
	Number  lipgloss.Style
	Boolean lipgloss.Style
	Null    lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultTheme mirrors the web stylesheet colours on a 256-colour terminal.
func DefaultTheme() Theme {
	return Theme{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
		Match:   lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("220")).Bold(true),
		String:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		Number:  lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
		Boolean: lipgloss.NewStyle().Foreground(lipgloss.Color("176")),
		Null:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

// ANSIDecorator styles tree pieces with a Theme.
type ANSIDecorator struct {
	Theme Theme
}

func (d ANSIDecorator) Key(quoted string, match bool) string {
	if match {
		return d.Theme.Match.Render(quoted)
	}
	return d.Theme.Key.Render(quoted)
}

func (d ANSIDecorator) Scalar(kind record.Kind, literal string) string {
	switch kind {
	case record.KindString:
		return d.Theme.String.Render(literal)
	case record.KindNumber:
		return d.Theme.Number.Render(literal)
	case record.KindBool:
		return d.Theme.Boolean.Render(literal)
	case record.KindNull:
		return d.Theme.Null.Render(literal)
	case record.KindList, record.KindMap:
	}
	return literal
}

// Text renders a presentation for a terminal. A nil theme produces plain
// text without escape sequences.
func Text(p Presentation, theme *Theme) string {
	var d Decorator = Plain{}
	title := func(s string) string { return s }
	muted := title
	if theme != nil {
		d = ANSIDecorator{Theme: *theme}
		title = func(s string) string { return theme.Title.Render(s) }
		muted = func(s string) string { return theme.Muted.Render(s) }
	}

	if p.Empty() {
		return muted("No results found")
	}
	if p.Mode == ModeRaw {
		return p.Raw
	}

	var b strings.Builder
	for i, u := range p.Units {
		if i > 0 {
			b.WriteString("\n")
		}
		marker := "▶"
		if u.Expanded {
			marker = "▼"
		}
		b.WriteString(muted(marker+" ") + title(u.Title) + muted(" #"+strconv.Itoa(u.Index)))
		b.WriteString("\n")
		if !u.Expanded {
			continue
		}
		if u.Tree != nil {
			b.WriteString(Format(u.Tree, d))
		} else {
			b.WriteString(u.Compact)
		}
		b.WriteString("\n")
	}
	return b.String()
}
