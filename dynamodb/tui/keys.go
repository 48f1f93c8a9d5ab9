package tui

import (
	"slices"

	tea "charm.land/bubbletea/v2"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/explorer"
)

func (m *Model) updateResults(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "f":
		m.setFocus(focusFields)
	case "/":
		m.setFocus(focusSearch)
	case "r", "ctrl+r":
		return m, m.executeQuery()

	case "[":
		m.cycleEnvironment(-1)
	case "]":
		m.cycleEnvironment(1)
	case "t":
		m.cycleTable()
	case "i":
		m.cycleIndex()

	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "ctrl+d", "pgdown":
		m.scroll += max(1, m.bodyHeight()/2)
	case "ctrl+u", "pgup":
		m.scroll = max(0, m.scroll-max(1, m.bodyHeight()/2))
	case "enter", "space":
		if m.state.HasResults() {
			m.state = m.state.Toggle(m.cursor)
		}
	case "E":
		m.state = m.state.ExpandAll()
	case "C":
		m.state = m.state.CollapseAll()
	case "m":
		m.state = m.state.CycleMode()
	case "n":
		m.state = m.state.SetNormalize(!m.state.Normalize)

	case "y":
		text, err := m.state.CopyItem(m.cursor)
		if err != nil {
			m.state = m.state.Notify(explorer.ToastError, err.Error())
			return m, m.toastTimer()
		}
		return m, m.copyText(text)
	case "Y":
		if m.state.HasResults() {
			return m, m.copyText(m.state.CopyAll())
		}
	case "e":
		if !m.state.HasResults() {
			return m, nil
		}
		m.state = m.state.OpenEdit(m.cursor)
		if m.state.Edit != nil {
			m.editor.SetValue(m.state.Edit.Text)
			return m, m.editor.Focus()
		}
		return m, m.toastTimer()
	case "d":
		if !m.state.HasResults() {
			return m, nil
		}
		m.state = m.state.OpenDelete(m.cursor)
		if m.state.Delete != nil {
			m.phrase.SetValue("")
			return m, m.phrase.Focus()
		}
		return m, m.toastTimer()
	}
	return m, nil
}

func (m *Model) updateFields(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.setFocus(focusResults)
		return m, nil
	case "enter", "ctrl+r":
		m.setFocus(focusResults)
		return m, m.executeQuery()
	case "tab", "down":
		if m.fieldIdx+1 < len(m.fields) {
			m.focusField(m.fieldIdx + 1)
		} else {
			m.setFocus(focusSearch)
		}
		return m, nil
	case "shift+tab", "up":
		if m.fieldIdx > 0 {
			m.focusField(m.fieldIdx - 1)
		} else {
			m.setFocus(focusResults)
		}
		return m, nil
	}

	if len(m.fields) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.fields[m.fieldIdx], cmd = m.fields[m.fieldIdx].Update(msg)
	m.state = m.state.SetField(m.fieldNames[m.fieldIdx], m.fields[m.fieldIdx].Value())
	return m, cmd
}

func (m *Model) updateSearch(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.state = m.state.FlushSearch()
		m.setFocus(focusResults)
		return m, nil
	case "esc", "tab":
		m.setFocus(focusResults)
		return m, nil
	case "shift+tab":
		m.setFocus(focusFields)
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.typeSearch(m.search.Value()))
}

func (m *Model) updateEdit(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = m.state.CancelEdit()
		m.editor.Blur()
		return m, nil
	case "ctrl+s":
		cmd := m.saveEdit()
		if m.state.Edit == nil {
			m.editor.Blur()
		}
		return m, cmd
	case "ctrl+f":
		m.state = m.state.EditText(m.editor.Value()).Reformat()
		if m.state.Edit != nil && m.state.Edit.Err == "" {
			m.editor.SetValue(m.state.Edit.Text)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.state = m.state.EditText(m.editor.Value())
	return m, cmd
}

func (m *Model) updateDelete(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = m.state.CancelDelete()
		m.phrase.Blur()
		return m, nil
	case "tab":
		m.state = m.state.SetDeleteAcknowledged(!m.state.Delete.Acknowledged)
		return m, nil
	case "enter":
		if !m.state.Delete.Ready() {
			return m, nil
		}
		cmd := m.confirmDelete()
		if m.state.Delete == nil {
			m.phrase.Blur()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.phrase, cmd = m.phrase.Update(msg)
	m.state = m.state.SetDeletePhrase(m.phrase.Value())
	return m, cmd
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.search.Blur()
	for i := range m.fields {
		m.fields[i].Blur()
	}
	switch f {
	case focusSearch:
		m.search.Focus()
	case focusFields:
		if len(m.fields) == 0 {
			m.focus = focusResults
			return
		}
		m.focusField(0)
	case focusResults:
	}
}

func (m *Model) focusField(i int) {
	m.fields[m.fieldIdx].Blur()
	m.fieldIdx = i
	m.fields[i].Focus()
}

func (m *Model) moveCursor(delta int) {
	n := len(m.state.Results)
	if !m.state.HasResults() || n == 0 {
		return
	}
	m.cursor = (m.cursor + delta + n) % n
	m.scroll = 0
}

func (m *Model) cycleEnvironment(delta int) {
	names := m.state.Catalog.EnvironmentNames()
	if len(names) == 0 {
		return
	}
	i := slices.Index(names, m.state.Environment)
	i = (i + delta + len(names)) % len(names)
	m.state = m.selectFirstTable(m.state.SelectEnvironment(names[i]))
	m.afterSelection()
}

func (m *Model) cycleTable() {
	keys := m.state.Catalog.TableKeys(m.state.Environment)
	if len(keys) == 0 {
		return
	}
	i := (slices.Index(keys, m.state.Table) + 1) % len(keys)
	m.state = m.state.SelectTable(keys[i])
	m.afterSelection()
}

func (m *Model) cycleIndex() {
	t, ok := m.state.CurrentTable()
	if !ok || len(t.Indexes) == 0 {
		return
	}
	i := 0
	for j, idx := range t.Indexes {
		if idx.Name == m.state.IndexName {
			i = (j + 1) % len(t.Indexes)
		}
	}
	m.state = m.state.SelectIndex(t.Indexes[i].Name)
	m.syncFields()
}

func (m *Model) afterSelection() {
	m.cursor, m.scroll = 0, 0
	m.syncFields()
}
