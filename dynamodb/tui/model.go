// Package tui is a terminal front end for the record explorer. It drives an
// explorer.State with Bubble Tea messages and runs collaborator calls as
// commands whose results carry the request tag they were dispatched with.
package tui

import (
	"context"
	"slices"
	"time"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/deletion"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/explorer"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/query"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/render"
)

const (
	// DefaultDebounce is the quiet period before typed search text applies.
	DefaultDebounce = 300 * time.Millisecond
	toastDuration   = 3 * time.Second
)

// Service runs the query, update and delete operations. *query.Service
// implements it.
type Service interface {
	Execute(ctx context.Context, p query.Params) ([]record.Record, error)
	Update(ctx context.Context, env, table string, item record.Record) error
	Delete(ctx context.Context, req deletion.Request) error
}

var _ Service = (*query.Service)(nil)

type focus int

const (
	focusResults focus = iota
	focusFields
	focusSearch
)

type queryResultMsg struct {
	tag   explorer.RequestTag
	items []record.Record
	err   error
}

type updateResultMsg struct {
	tag explorer.RequestTag
	err error
}

type deleteResultMsg struct {
	tag explorer.RequestTag
	err error
}

// searchDebounceMsg fires once the search box has been quiet for the
// debounce interval. Only the latest ticket applies.
type searchDebounceMsg struct {
	ticket explorer.SearchTicket
}

type toastExpiredMsg struct {
	toast *explorer.Toast
}

// Options configures a Model.
type Options struct {
	// NoColor renders without ANSI styling.
	NoColor bool
	// Debounce overrides DefaultDebounce.
	Debounce time.Duration
}

// Model is the Bubble Tea model of the explorer.
type Model struct {
	ctx   context.Context
	svc   Service
	state explorer.State

	theme    *render.Theme
	debounce time.Duration
	copy     func(string) error

	focus  focus
	cursor int
	scroll int

	fieldNames []string
	fields     []textinput.Model
	fieldIdx   int
	search     textinput.Model
	editor     textarea.Model
	phrase     textinput.Model

	width  int
	height int
}

// New returns a model over state. When no table is selected the first table
// of the current environment is.
func New(ctx context.Context, state explorer.State, svc Service, opts Options) *Model {
	m := &Model{
		ctx:      ctx,
		svc:      svc,
		state:    state,
		debounce: opts.Debounce,
		copy:     clipboard.WriteAll,
		width:    80,
		height:   24,
	}
	if m.debounce <= 0 {
		m.debounce = DefaultDebounce
	}
	if !opts.NoColor {
		theme := render.DefaultTheme()
		m.theme = &theme
	}

	m.search = textinput.New()
	m.search.Prompt = ""
	m.search.Placeholder = "search keys"
	m.search.CharLimit = 200
	m.search.SetWidth(30)

	m.editor = textarea.New()
	m.editor.ShowLineNumbers = false
	m.editor.CharLimit = 0
	m.editor.MaxHeight = 0
	m.editor.SetWidth(76)
	m.editor.SetHeight(16)

	m.phrase = textinput.New()
	m.phrase.Prompt = ""
	m.phrase.Placeholder = deletion.ConfirmPhrase
	m.phrase.CharLimit = 20
	m.phrase.SetWidth(20)

	if m.state.Fatal == "" && m.state.Table == "" {
		m.state = m.selectFirstTable(m.state)
	}
	m.syncFields()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, state explorer.State, svc Service, opts Options) error {
	m := New(ctx, state, svc, opts)
	_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}

// State returns the current explorer state.
func (m *Model) State() explorer.State {
	return m.state
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.search.SetWidth(max(10, m.width/3))
		m.editor.SetWidth(max(20, m.width-4))
		m.editor.SetHeight(max(5, m.height-8))
		return m, nil

	case queryResultMsg:
		m.state = m.state.ApplyQueryResult(msg.tag, msg.items, msg.err)
		m.cursor, m.scroll = 0, 0
		return m, nil

	case updateResultMsg:
		m.state = m.state.ApplyUpdateResult(msg.tag, msg.err)
		return m, m.toastTimer()

	case deleteResultMsg:
		m.state = m.state.ApplyDeleteResult(msg.tag, msg.err)
		m.clampCursor()
		return m, m.toastTimer()

	case searchDebounceMsg:
		m.state = m.state.ApplySearch(msg.ticket)
		return m, nil

	case toastExpiredMsg:
		if m.state.Toast == msg.toast {
			m.state = m.state.DismissToast()
		}
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state.Fatal != "" {
			if msg.String() == "q" || msg.String() == "esc" {
				return m, tea.Quit
			}
			return m, nil
		}
		switch {
		case m.state.Edit != nil:
			return m.updateEdit(msg)
		case m.state.Delete != nil:
			return m.updateDelete(msg)
		}
		switch m.focus {
		case focusFields:
			return m.updateFields(msg)
		case focusSearch:
			return m.updateSearch(msg)
		default:
			return m.updateResults(msg)
		}
	}

	return m, nil
}

// executeQuery dispatches the current query.
func (m *Model) executeQuery() tea.Cmd {
	next, req, ok := m.state.BeginQuery()
	m.state = next
	if !ok {
		return m.toastTimer()
	}
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		items, err := svc.Execute(ctx, query.Params{
			Environment: req.Environment,
			Table:       req.Table,
			IndexName:   req.IndexName,
			Values:      req.Values,
		})
		return queryResultMsg{tag: req.Tag, items: items, err: err}
	}
}

func (m *Model) saveEdit() tea.Cmd {
	m.state = m.state.EditText(m.editor.Value())
	next, req, ok := m.state.SaveEdit()
	m.state = next
	if !ok {
		return m.toastTimer()
	}
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return updateResultMsg{tag: req.Tag, err: svc.Update(ctx, req.Environment, req.Table, req.Item)}
	}
}

func (m *Model) confirmDelete() tea.Cmd {
	next, req, ok := m.state.ConfirmDelete()
	m.state = next
	if !ok {
		return m.toastTimer()
	}
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return deleteResultMsg{tag: req.Tag, err: svc.Delete(ctx, req.Request)}
	}
}

// typeSearch records the search box contents and schedules the debounced
// apply.
func (m *Model) typeSearch(q string) tea.Cmd {
	next, ticket := m.state.TypeSearch(q)
	m.state = next
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{ticket: ticket}
	})
}

// toastTimer schedules the dismissal of the current toast.
func (m *Model) toastTimer() tea.Cmd {
	toast := m.state.Toast
	if toast == nil {
		return nil
	}
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{toast: toast}
	})
}

func (m *Model) copyText(text string) tea.Cmd {
	if err := m.copy(text); err != nil {
		m.state = m.state.Notify(explorer.ToastError, "Copy failed: "+err.Error())
	} else {
		m.state = m.state.Notify(explorer.ToastSuccess, "Copied to clipboard")
	}
	return m.toastTimer()
}

func (m *Model) selectFirstTable(s explorer.State) explorer.State {
	if keys := s.Catalog.TableKeys(s.Environment); len(keys) > 0 {
		return s.SelectTable(keys[0])
	}
	return s
}

// syncFields rebuilds the key inputs when the selected index changes.
func (m *Model) syncFields() {
	idx, ok := m.state.CurrentIndex()
	var names []string
	if ok {
		names = idx.Fields()
	}
	if slices.Equal(names, m.fieldNames) {
		for i, name := range names {
			if m.fields[i].Value() != m.state.Values[name] {
				m.fields[i].SetValue(m.state.Values[name])
			}
		}
		return
	}

	m.fieldNames = names
	m.fields = make([]textinput.Model, len(names))
	m.fieldIdx = 0
	for i, name := range names {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = name
		ti.CharLimit = 256
		ti.SetWidth(30)
		ti.SetValue(m.state.Values[name])
		m.fields[i] = ti
	}
	if m.focus == focusFields && len(m.fields) > 0 {
		m.fields[0].Focus()
	}
}

func (m *Model) clampCursor() {
	n := len(m.state.Results)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
