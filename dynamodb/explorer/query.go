package explorer

import (
	"errors"
	"fmt"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/render"
)

// QueryRequest is a query to dispatch to the query collaborator.
type QueryRequest struct {
	Tag         RequestTag        `json:"-"`
	Environment string            `json:"environment"`
	Table       string            `json:"table"`
	IndexName   string            `json:"indexName"`
	Values      map[string]string `json:"values"`
}

// CanExecute reports whether a query can be dispatched: a table and index
// are selected, the hash key has a value and nothing is in flight.
func (s State) CanExecute() bool {
	return s.validate() == nil && !s.Busy
}

func (s State) validate() error {
	if s.Fatal != "" {
		return errors.New(s.Fatal)
	}
	idx, ok := s.CurrentIndex()
	if !ok {
		return errors.New("please select a table and index")
	}
	if trimmed(s.Values, idx.HashKey) == "" {
		return fmt.Errorf("please enter a value for %s", idx.HashKey)
	}
	return nil
}

// BeginQuery tags and returns the query for the current selection and marks
// the state busy. ok is false while another request is in flight, and false
// with a toast set when the selection is incomplete.
func (s State) BeginQuery() (next State, req QueryRequest, ok bool) {
	if s.Busy {
		return s, QueryRequest{}, false
	}
	if err := s.validate(); err != nil {
		return s.Notify(ToastError, err.Error()), QueryRequest{}, false
	}
	idx, _ := s.CurrentIndex()

	values := map[string]string{idx.HashKey: trimmed(s.Values, idx.HashKey)}
	if idx.RangeKey != "" {
		if v := trimmed(s.Values, idx.RangeKey); v != "" {
			values[idx.RangeKey] = v
		}
	}

	s, tag := s.nextTag()
	s.pendingQuery = tag
	s = s.syncBusy()
	return s, QueryRequest{
		Tag:         tag,
		Environment: s.Environment,
		Table:       s.Table,
		IndexName:   s.IndexName,
		Values:      values,
	}, true
}

// ApplyQueryResult installs the response of the query tagged tag. Responses
// to superseded queries leave the state untouched. A failed query replaces
// the results with err; the form keeps its values.
func (s State) ApplyQueryResult(tag RequestTag, items []record.Record, err error) State {
	if tag == 0 || tag != s.pendingQuery {
		return s
	}
	s.pendingQuery = 0
	s = s.syncBusy()
	s.generation++
	s.Edit = nil
	s.Delete = nil
	s.Expanded = render.ExpandState{}

	if err != nil {
		s.Results = nil
		s.Err = err.Error()
		return s
	}
	if items == nil {
		items = []record.Record{}
	}
	s.Results = items
	s.Err = ""
	return s
}
