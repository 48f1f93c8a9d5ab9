package tui

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/catalog"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/deletion"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/explorer"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/query"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

type fakeService struct {
	mu      sync.Mutex
	items   []record.Record
	err     error
	queries []query.Params
	updated []record.Record
	deleted []deletion.Request
}

func (f *fakeService) Execute(_ context.Context, p query.Params) ([]record.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, p)
	return f.items, f.err
}

func (f *fakeService) Update(_ context.Context, _, _ string, item record.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, item)
	return f.err
}

func (f *fakeService) Delete(_ context.Context, req deletion.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, req)
	return f.err
}

func newTestModel(svc *fakeService) *Model {
	m := New(context.Background(), explorer.New(catalog.Default()), svc, Options{NoColor: true, Debounce: time.Millisecond})
	m.copy = func(string) error { return nil }
	return m
}

func key(s string) tea.KeyPressMsg {
	switch s {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEsc}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl}
	case "ctrl+f":
		return tea.KeyPressMsg{Code: 'f', Mod: tea.ModCtrl}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}
	return cmd
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(key(string(r)))
	}
}

// deliver runs cmd and feeds its message back into the model.
func deliver(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func progressItems() []record.Record {
	return []record.Record{
		{"onboard_id": "OB-1", "phone_number": "0901", "step": json.Number("3")},
	}
}

func queryOB1(t *testing.T, m *Model) tea.Cmd {
	t.Helper()
	press(m, "tab")
	typeText(m, "OB-1")
	require.Equal(t, "OB-1", m.State().Values["onboard_id"])
	return press(m, "enter")
}

func TestNew_SelectsFirstTable(t *testing.T) {
	m := newTestModel(&fakeService{})

	s := m.State()
	assert.Equal(t, catalog.NonProdUAT, s.Environment)
	assert.Equal(t, "progress", s.Table)
	assert.Equal(t, "", s.IndexName)
	assert.Equal(t, []string{"onboard_id"}, m.fieldNames)
}

func TestQuery(t *testing.T) {
	svc := &fakeService{items: progressItems()}
	m := newTestModel(svc)

	cmd := queryOB1(t, m)
	assert.True(t, m.State().Busy)
	assert.Equal(t, focusResults, m.focus)

	deliver(t, m, cmd)
	s := m.State()
	assert.False(t, s.Busy)
	require.Len(t, s.Results, 1)
	require.Len(t, svc.queries, 1)
	assert.Equal(t, query.Params{
		Environment: catalog.NonProdUAT,
		Table:       "progress",
		Values:      map[string]string{"onboard_id": "OB-1"},
	}, svc.queries[0])

	view := m.render()
	assert.Contains(t, view, "1 item")
	assert.Contains(t, view, "#0")
}

func TestQuery_RequiresHashKey(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)

	press(m, "r")
	assert.Empty(t, svc.queries)
	assert.False(t, m.State().Busy)
	require.NotNil(t, m.State().Toast)
}

func TestQuery_Failure(t *testing.T) {
	svc := &fakeService{err: errors.New("ResourceNotFoundException")}
	m := newTestModel(svc)

	deliver(t, m, queryOB1(t, m))
	assert.Nil(t, m.State().Results)
	assert.Contains(t, m.render(), "ResourceNotFoundException")
}

func TestQuery_NotResentWhileInFlight(t *testing.T) {
	svc := &fakeService{items: progressItems()}
	m := newTestModel(svc)

	cmd := queryOB1(t, m)
	assert.Nil(t, press(m, "r"), "a second query waits for the first")

	deliver(t, m, cmd)
	assert.Len(t, svc.queries, 1)
	assert.False(t, m.State().Busy)
	assert.NotNil(t, press(m, "r"))
}

func TestQuery_StaleResponseDropped(t *testing.T) {
	svc := &fakeService{items: progressItems()}
	m := newTestModel(svc)

	stale := queryOB1(t, m)

	press(m, "]")
	assert.Equal(t, catalog.Prod, m.State().Environment)
	assert.Equal(t, "progress", m.State().Table)
	assert.False(t, m.State().Busy, "switching environment abandons the query")

	deliver(t, m, stale)
	assert.Nil(t, m.State().Results)
}

func TestCycleTableAndIndex(t *testing.T) {
	m := newTestModel(&fakeService{})

	press(m, "i")
	assert.Equal(t, "phone_number_device_id", m.State().IndexName)
	assert.Equal(t, []string{"phone_number", "device_id"}, m.fieldNames)

	press(m, "t")
	assert.Equal(t, "prospect", m.State().Table)
	assert.Equal(t, []string{"phone_number"}, m.fieldNames)

	press(m, "[")
	assert.Equal(t, catalog.Prod, m.State().Environment)
	press(m, "[")
	assert.Equal(t, catalog.NonProdUAT, m.State().Environment)
}

func TestSearchDebounce(t *testing.T) {
	svc := &fakeService{items: progressItems()}
	m := newTestModel(svc)
	deliver(t, m, queryOB1(t, m))

	first := m.typeSearch("p")
	second := m.typeSearch("ph")
	require.NotNil(t, first)

	m.Update(first())
	assert.Equal(t, "", m.State().Search, "an older ticket is ignored")
	m.Update(second())
	assert.Equal(t, "ph", m.State().Search)

	press(m, "/")
	assert.Equal(t, focusSearch, m.focus)
	typeText(m, "X")
	press(m, "enter")
	assert.Equal(t, "x", m.State().Search, "enter applies the search immediately")
	assert.Equal(t, focusResults, m.focus)
}

func TestToggleAndModes(t *testing.T) {
	svc := &fakeService{items: progressItems()}
	m := newTestModel(svc)
	deliver(t, m, queryOB1(t, m))

	require.True(t, m.State().Expanded.IsExpanded(0))
	press(m, "enter")
	assert.False(t, m.State().Expanded.IsExpanded(0))
	press(m, "E")
	assert.True(t, m.State().Expanded.IsExpanded(0))
	press(m, "C")
	assert.False(t, m.State().Expanded.IsExpanded(0))

	mode := m.State().Mode
	press(m, "m")
	assert.Equal(t, mode.Next(), m.State().Mode)

	press(m, "n")
	assert.False(t, m.State().Normalize)
}

func TestCopy(t *testing.T) {
	svc := &fakeService{items: progressItems()}
	m := newTestModel(svc)
	deliver(t, m, queryOB1(t, m))

	var copied string
	m.copy = func(s string) error { copied = s; return nil }

	press(m, "y")
	want, err := m.State().CopyItem(0)
	require.NoError(t, err)
	assert.Equal(t, want, copied)
	assert.Equal(t, "Copied to clipboard", m.State().Toast.Message)

	press(m, "Y")
	assert.Equal(t, m.State().CopyAll(), copied)

	m.copy = func(string) error { return errors.New("no clipboard") }
	press(m, "y")
	assert.Equal(t, "Copy failed: no clipboard", m.State().Toast.Message)
}

func TestEdit(t *testing.T) {
	svc := &fakeService{items: progressItems()}
	m := newTestModel(svc)
	deliver(t, m, queryOB1(t, m))

	press(m, "e")
	require.NotNil(t, m.State().Edit)
	assert.Contains(t, m.editor.Value(), "OB-1")

	m.editor.SetValue(`{"onboard_id": "OB-1",`)
	press(m, "ctrl+s")
	require.NotNil(t, m.State().Edit, "a parse error keeps the editor open")
	assert.NotEmpty(t, m.State().Edit.Err)
	assert.Empty(t, svc.updated)

	m.editor.SetValue(`{"onboard_id":"OB-1","step":4}`)
	press(m, "ctrl+f")
	assert.Contains(t, m.editor.Value(), "\n", "format pretty-prints the text")

	cmd := press(m, "ctrl+s")
	assert.Nil(t, m.State().Edit)
	assert.True(t, m.State().Busy)
	deliver(t, m, cmd)

	require.Len(t, svc.updated, 1)
	assert.Equal(t, json.Number("4"), svc.updated[0]["step"])
	assert.Equal(t, json.Number("4"), m.State().Results[0]["step"])
	assert.Equal(t, "Item updated successfully", m.State().Toast.Message)
}

func TestEdit_Cancel(t *testing.T) {
	svc := &fakeService{items: progressItems()}
	m := newTestModel(svc)
	deliver(t, m, queryOB1(t, m))

	press(m, "e", "esc")
	assert.Nil(t, m.State().Edit)
	assert.Empty(t, svc.updated)
}

func TestDelete(t *testing.T) {
	svc := &fakeService{items: progressItems()}
	m := newTestModel(svc)
	deliver(t, m, queryOB1(t, m))

	press(m, "d")
	require.NotNil(t, m.State().Delete)
	assert.Contains(t, m.render(), "NON-PROD-UAT")

	press(m, "enter")
	assert.Empty(t, svc.deleted, "not confirmed yet")

	typeText(m, "delete")
	assert.True(t, m.State().Delete.PhraseValid())
	press(m, "tab")
	assert.True(t, m.State().Delete.Ready())

	cmd := press(m, "enter")
	assert.Nil(t, m.State().Delete)
	deliver(t, m, cmd)

	require.Len(t, svc.deleted, 1)
	assert.Equal(t, deletion.Token(catalog.NonProdUAT, "progress", "OB-1"), svc.deleted[0].ConfirmationToken)
	assert.Empty(t, m.State().Results)
	assert.Equal(t, "Item deleted successfully", m.State().Toast.Message)
}

func TestDelete_ProductionWarning(t *testing.T) {
	svc := &fakeService{items: progressItems()}
	m := newTestModel(svc)
	press(m, "]")
	deliver(t, m, queryOB1(t, m))

	press(m, "d")
	require.NotNil(t, m.State().Delete)
	assert.Contains(t, m.render(), "PRODUCTION ENVIRONMENT")
}

func TestToastExpires(t *testing.T) {
	svc := &fakeService{items: progressItems()}
	m := newTestModel(svc)
	deliver(t, m, queryOB1(t, m))

	press(m, "y")
	toast := m.State().Toast
	require.NotNil(t, toast)

	press(m, "y")
	m.Update(toastExpiredMsg{toast: toast})
	assert.NotNil(t, m.State().Toast, "a newer toast stays")

	m.Update(toastExpiredMsg{toast: m.State().Toast})
	assert.Nil(t, m.State().Toast)
}

func TestFatal(t *testing.T) {
	m := New(context.Background(), explorer.Failed(errors.New("bad yaml")), &fakeService{}, Options{NoColor: true})

	view := m.render()
	assert.Contains(t, view, "Failed to load table configuration: bad yaml")

	cmd := press(m, "r")
	assert.Nil(t, cmd)
	cmd = press(m, "q")
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestWindowSize(t *testing.T) {
	m := newTestModel(&fakeService{})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40-6-1, m.bodyHeight())
	assert.Len(t, m.bodyLines(m.styles()), m.bodyHeight())
}
