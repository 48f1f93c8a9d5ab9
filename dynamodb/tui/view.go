package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/deletion"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/explorer"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/render"
)

type styles struct {
	header     lipgloss.Style
	envActive  lipgloss.Style
	envProd    lipgloss.Style
	envIdle    lipgloss.Style
	label      lipgloss.Style
	muted      lipgloss.Style
	cursor     lipgloss.Style
	errorText  lipgloss.Style
	success    lipgloss.Style
	warning    lipgloss.Style
	prodBanner lipgloss.Style
}

func (m *Model) styles() styles {
	plain := lipgloss.NewStyle()
	if m.theme == nil {
		return styles{plain, plain, plain, plain, plain, plain, plain, plain, plain, plain, plain}
	}
	return styles{
		header:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		envActive:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("214")).Padding(0, 1),
		envProd:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Padding(0, 1),
		envIdle:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Padding(0, 1),
		label:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		muted:      m.theme.Muted,
		cursor:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		errorText:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		success:    lipgloss.NewStyle().Foreground(lipgloss.Color("76")),
		warning:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		prodBanner: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")),
	}
}

func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render builds the screen contents.
func (m *Model) render() string {
	st := m.styles()
	if m.state.Fatal != "" {
		return st.errorText.Render(m.state.Fatal) + "\n\n" + st.muted.Render("press q to quit")
	}

	var b strings.Builder
	b.WriteString(m.headerView(st))
	b.WriteString("\n")

	switch {
	case m.state.Edit != nil:
		b.WriteString(m.editView(st))
	case m.state.Delete != nil:
		b.WriteString(m.deleteView(st))
	default:
		b.WriteString(m.queryView(st))
		b.WriteString(m.toolbarView(st))
		b.WriteString(st.muted.Render(strings.Repeat("─", max(1, m.width))))
		b.WriteString("\n")
		b.WriteString(strings.Join(m.bodyLines(st), "\n"))
		b.WriteString("\n")
	}

	b.WriteString(m.footerView(st))
	return b.String()
}

func (m *Model) headerView(st styles) string {
	parts := []string{st.header.Render("DynamoDB Record Explorer")}
	for _, env := range m.state.Catalog.Environments {
		style := st.envIdle
		switch {
		case env.Name == m.state.Environment && env.Production:
			style = st.envProd
		case env.Name == m.state.Environment:
			style = st.envActive
		}
		label := env.Name
		if m.theme == nil && env.Name == m.state.Environment {
			label = "[" + label + "]"
		}
		parts = append(parts, style.Render(label))
	}
	if m.state.Busy {
		parts = append(parts, st.warning.Render("Loading..."))
	}
	return strings.Join(parts, " ")
}

func (m *Model) queryView(st styles) string {
	var b strings.Builder
	tableName, indexName := "-", "-"
	if t, ok := m.state.CurrentTable(); ok {
		tableName = t.DisplayName
	}
	if idx, ok := m.state.CurrentIndex(); ok {
		indexName = idx.DisplayName
	}
	fmt.Fprintf(&b, "%s %s  %s %s\n",
		st.label.Render("Table (t):"), m.truncate(tableName, 40),
		st.label.Render("Index (i):"), m.truncate(indexName, 40))

	for i, name := range m.fieldNames {
		marker := "  "
		if m.focus == focusFields && i == m.fieldIdx {
			marker = st.cursor.Render("› ")
		}
		label := name
		if i == 0 {
			label += " *"
		} else {
			label += " (optional)"
		}
		fmt.Fprintf(&b, "%s%s %s\n", marker, st.label.Render(label+":"), m.fields[i].View())
	}
	return b.String()
}

func (m *Model) toolbarView(st styles) string {
	if !m.state.HasResults() {
		return "\n"
	}
	p := explorer.View(m.state)
	normalize := "off"
	if m.state.Normalize {
		normalize = "on"
	}
	marker := "  "
	if m.focus == focusSearch {
		marker = st.cursor.Render("› ")
	}
	return fmt.Sprintf("%s  %s %s  %s %s  %s%s %s\n",
		st.header.Render(p.CountLabel),
		st.label.Render("view (m):"), p.Mode,
		st.label.Render("decode (n):"), normalize,
		marker, st.label.Render("search (/):"), m.search.View())
}

// bodyLines returns the visible slice of the results area.
func (m *Model) bodyLines(st styles) []string {
	height := m.bodyHeight()
	var lines []string
	anchor := 0

	switch {
	case m.state.Err != "":
		lines = []string{st.errorText.Render(m.state.Err)}
	case m.state.Results == nil:
		lines = []string{st.muted.Render("Enter key values and press enter to query.")}
	default:
		lines, anchor = m.resultLines(explorer.View(m.state), st)
	}

	start := 0
	if anchor >= height {
		start = anchor - height/3
	}
	start = min(start+m.scroll, max(0, len(lines)-1))
	end := min(len(lines), start+height)

	out := make([]string, 0, height)
	for _, line := range lines[start:end] {
		out = append(out, m.truncate(line, m.width))
	}
	for len(out) < height {
		out = append(out, "")
	}
	return out
}

// resultLines renders the presentation and reports the line of the unit
// under the cursor.
func (m *Model) resultLines(p render.Presentation, st styles) ([]string, int) {
	if p.Empty() || p.Mode == render.ModeRaw {
		return strings.Split(render.Text(p, m.theme), "\n"), 0
	}

	var d render.Decorator = render.Plain{}
	if m.theme != nil {
		d = render.ANSIDecorator{Theme: *m.theme}
	}

	var lines []string
	anchor := 0
	for _, u := range p.Units {
		marker := "  "
		if u.Index == m.cursor {
			marker = st.cursor.Render("› ")
			anchor = len(lines)
		}
		fold := "▶"
		if u.Expanded {
			fold = "▼"
		}
		title := runewidth.Truncate(u.Title, max(10, m.width-16), "…")
		if m.theme != nil {
			title = m.theme.Title.Render(title)
		}
		lines = append(lines, fmt.Sprintf("%s%s %s %s", marker, st.muted.Render(fold), title, st.muted.Render(fmt.Sprintf("#%d", u.Index))))
		if !u.Expanded {
			continue
		}
		body := u.Compact
		if u.Tree != nil {
			body = render.Format(u.Tree, d)
		}
		for _, line := range strings.Split(body, "\n") {
			lines = append(lines, "    "+line)
		}
	}
	return lines, anchor
}

func (m *Model) editView(st styles) string {
	e := m.state.Edit
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", st.header.Render("Edit item"), st.muted.Render(fmt.Sprintf("#%d %s/%s", e.Index, m.state.Environment, m.state.Table)))
	b.WriteString(m.editor.View())
	b.WriteString("\n")
	if e.Err != "" {
		b.WriteString(st.errorText.Render(e.Err))
	}
	b.WriteString("\n")
	b.WriteString(st.muted.Render("ctrl+s save · ctrl+f format · esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) deleteView(st styles) string {
	c := m.state.Delete
	var b strings.Builder
	b.WriteString(st.header.Render("Delete item"))
	b.WriteString("\n\n")
	if c.Warning() == deletion.WarningProduction {
		b.WriteString(st.prodBanner.Render(c.WarningText()))
	} else {
		b.WriteString(st.warning.Render(c.WarningText()))
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  %s %s\n", st.label.Render("Environment:"), c.Environment)
	fmt.Fprintf(&b, "  %s %s\n", st.label.Render("Table:"), c.Table)
	fmt.Fprintf(&b, "  %s %s\n\n", st.label.Render(c.Key.Field+":"), m.truncate(c.Key.Value, max(10, m.width-20)))

	fmt.Fprintf(&b, "Type %s to confirm: %s\n", deletion.ConfirmPhrase, m.phrase.View())
	check := "[ ]"
	if c.Acknowledged {
		check = "[x]"
	}
	fmt.Fprintf(&b, "%s I understand this cannot be undone %s\n\n", check, st.muted.Render("(tab)"))

	action := st.muted.Render("enter delete")
	if c.Ready() {
		action = st.errorText.Render("enter delete")
	}
	b.WriteString(action + st.muted.Render(" · esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) footerView(st styles) string {
	if t := m.state.Toast; t != nil {
		switch t.Kind {
		case explorer.ToastError:
			return st.errorText.Render(t.Message)
		case explorer.ToastSuccess:
			return st.success.Render(t.Message)
		case explorer.ToastInfo:
		}
		return t.Message
	}
	if m.state.Edit != nil || m.state.Delete != nil {
		return ""
	}
	return st.muted.Render(m.truncate("[ ] env · tab fields · r query · j/k move · enter fold · E/C all · y/Y copy · e edit · d delete · q quit", m.width))
}

// bodyHeight is the number of result lines that fit on screen.
func (m *Model) bodyHeight() int {
	return max(3, m.height-6-len(m.fieldNames))
}

// truncate fits s into width cells. Styled text is cut by lipgloss so escape
// sequences stay balanced.
func (m *Model) truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	if m.theme == nil {
		return runewidth.Truncate(s, width, "…")
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
