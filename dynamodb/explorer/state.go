// Package explorer holds the application state of a record explorer and the
// pure transitions between states. Front ends (the TUI and tests) feed user
// input and collaborator responses in, and render the returned state.
//
// Every method has a value receiver and returns the next State; the receiver
// is never modified.
package explorer

import (
	"maps"
	"strings"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/catalog"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/deletion"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/edit"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/render"
)

// RequestTag identifies one dispatched collaborator request. Responses
// carrying a tag other than the pending one are dropped.
type RequestTag uint64

// ToastKind styles a transient notification.
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastSuccess
	ToastError
)

// Toast is a transient notification.
type Toast struct {
	Kind    ToastKind
	Message string
}

// State is the whole explorer state.
type State struct {
	Catalog *catalog.Catalog
	// Fatal is set when the catalog could not be loaded. No transition
	// applies while it is set.
	Fatal string

	Environment string
	Table       string
	IndexName   string
	Values      map[string]string

	Results []record.Record
	// Err replaces the results after a failed query.
	Err string

	Mode        render.Mode
	Normalize   bool
	SearchInput string
	// Search is the applied query, lowercased.
	Search   string
	Expanded render.ExpandState

	// Busy is set while a query, update or delete is in flight.
	Busy  bool
	Toast *Toast

	Edit   *edit.Session
	Delete *deletion.Confirmation

	seq           uint64
	generation    uint64
	pendingQuery  RequestTag
	pendingUpdate *pendingUpdate
	pendingDelete *pendingDelete
	searchTicket  SearchTicket
}

type pendingUpdate struct {
	tag    RequestTag
	handle Handle
	item   record.Record
}

type pendingDelete struct {
	tag    RequestTag
	handle Handle
}

// New returns the initial state for cat, with its first environment selected.
func New(cat *catalog.Catalog) State {
	s := State{
		Catalog:   cat,
		Mode:      render.ModeFormatted,
		Normalize: true,
	}
	if names := cat.EnvironmentNames(); len(names) > 0 {
		s = s.SelectEnvironment(names[0])
	}
	return s
}

// Failed returns the terminal state shown when the catalog failed to load.
func Failed(err error) State {
	return State{Fatal: "Failed to load table configuration: " + err.Error()}
}

// SelectEnvironment switches environment. The table, index, key values and
// results are reset and any in-flight query is abandoned.
func (s State) SelectEnvironment(env string) State {
	if s.Fatal != "" {
		return s
	}
	s = s.resetSelection()
	s.Environment = env
	return s
}

// SelectTable selects a table of the current environment and its primary
// index.
func (s State) SelectTable(key string) State {
	if s.Fatal != "" {
		return s
	}
	env := s.Environment
	s = s.resetSelection()
	s.Environment = env
	t, err := s.Catalog.Table(env, key)
	if err != nil {
		return s
	}
	s.Table = key
	if len(t.Indexes) > 0 {
		s.IndexName = t.Indexes[0].Name
	}
	return s
}

// SelectIndex selects an access pattern of the current table. Key values are
// kept for fields the new index shares.
func (s State) SelectIndex(name string) State {
	if s.Fatal != "" || s.Table == "" {
		return s
	}
	idx, err := s.Catalog.Index(s.Environment, s.Table, name)
	if err != nil {
		return s
	}
	values := make(map[string]string)
	for _, f := range idx.Fields() {
		if v, ok := s.Values[f]; ok {
			values[f] = v
		}
	}
	s.IndexName = name
	s.Values = values
	return s
}

// SetField sets the value typed for a key field.
func (s State) SetField(field, value string) State {
	if s.Fatal != "" {
		return s
	}
	values := maps.Clone(s.Values)
	if values == nil {
		values = make(map[string]string)
	}
	values[field] = value
	s.Values = values
	return s
}

// CurrentTable returns the selected table.
func (s State) CurrentTable() (catalog.Table, bool) {
	if s.Catalog == nil || s.Table == "" {
		return catalog.Table{}, false
	}
	t, err := s.Catalog.Table(s.Environment, s.Table)
	return t, err == nil
}

// CurrentIndex returns the selected index.
func (s State) CurrentIndex() (catalog.Index, bool) {
	t, ok := s.CurrentTable()
	if !ok {
		return catalog.Index{}, false
	}
	return t.Index(s.IndexName)
}

// Production reports whether the selected environment is production.
func (s State) Production() bool {
	return s.Catalog != nil && s.Catalog.IsProduction(s.Environment)
}

// HasResults reports whether a query succeeded and its results are shown.
func (s State) HasResults() bool {
	return s.Results != nil && s.Err == ""
}

// Notify shows a toast.
func (s State) Notify(kind ToastKind, msg string) State {
	s.Toast = &Toast{Kind: kind, Message: msg}
	return s
}

// DismissToast hides the toast.
func (s State) DismissToast() State {
	s.Toast = nil
	return s
}

// View renders the current results.
func View(s State) render.Presentation {
	return render.Render(s.Results, render.Options{
		Mode:      s.Mode,
		Search:    s.Search,
		Expanded:  s.Expanded,
		Normalize: s.Normalize,
	})
}

func (s State) resetSelection() State {
	s.Environment = ""
	s.Table = ""
	s.IndexName = ""
	s.Values = nil
	s.Results = nil
	s.Err = ""
	s.Expanded = render.ExpandState{}
	s.Edit = nil
	s.Delete = nil
	s.pendingQuery = 0
	s.generation++
	return s.syncBusy()
}

// syncBusy derives Busy from the requests still in flight.
func (s State) syncBusy() State {
	s.Busy = s.pendingQuery != 0 || s.pendingUpdate != nil || s.pendingDelete != nil
	return s
}

func (s State) nextTag() (State, RequestTag) {
	s.seq++
	return s, RequestTag(s.seq)
}

func trimmed(values map[string]string, field string) string {
	return strings.TrimSpace(values[field])
}
