package explorer

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/render"
)

// ErrNoSuchResult is returned for an index outside the current result set.
var ErrNoSuchResult = errors.New("no such result")

// Handle is a position in the result set it was taken from. It stops being
// valid once another query result is installed.
type Handle struct {
	Index      int
	generation uint64
}

// At validates i against the current result set.
func At[I constraints.Integer](s State, i I) (Handle, error) {
	if i < 0 || uint64(i) >= uint64(len(s.Results)) {
		return Handle{}, fmt.Errorf("%w: index %d of %d", ErrNoSuchResult, i, len(s.Results))
	}
	return Handle{Index: int(i), generation: s.generation}, nil
}

// Valid reports whether h still addresses a result of s.
func (s State) Valid(h Handle) bool {
	return h.generation == s.generation && h.Index >= 0 && h.Index < len(s.Results)
}

// Result returns the record at h.
func (s State) Result(h Handle) (record.Record, bool) {
	if !s.Valid(h) {
		return nil, false
	}
	return s.Results[h.Index], true
}

// SearchTicket identifies one keystroke of the search box. Only the latest
// ticket applies, so a burst of keystrokes collapses into one render that
// uses the final value.
type SearchTicket uint64

// TypeSearch records the search box contents and returns the ticket to apply
// once input has been quiet for the debounce interval.
func (s State) TypeSearch(q string) (State, SearchTicket) {
	s.SearchInput = q
	s.searchTicket++
	return s, s.searchTicket
}

// ApplySearch applies the search box contents if ticket is the latest one.
func (s State) ApplySearch(ticket SearchTicket) State {
	if ticket != s.searchTicket {
		return s
	}
	s.Search = strings.ToLower(s.SearchInput)
	return s
}

// FlushSearch applies the search box contents immediately.
func (s State) FlushSearch() State {
	s.searchTicket++
	s.Search = strings.ToLower(s.SearchInput)
	return s
}

// SetMode selects the view mode.
func (s State) SetMode(m render.Mode) State {
	s.Mode = m
	return s
}

// CycleMode selects the next view mode.
func (s State) CycleMode() State {
	s.Mode = s.Mode.Next()
	return s
}

// SetNormalize switches decoding of string-encoded JSON on or off.
func (s State) SetNormalize(on bool) State {
	s.Normalize = on
	return s
}

// Toggle expands or collapses the result at i.
func (s State) Toggle(i int) State {
	h, err := At(s, i)
	if err != nil {
		return s
	}
	s.Expanded = s.Expanded.Toggle(h.Index)
	return s
}

// ExpandAll expands every result.
func (s State) ExpandAll() State {
	s.Expanded = s.Expanded.ExpandAll()
	return s
}

// CollapseAll collapses every result.
func (s State) CollapseAll() State {
	s.Expanded = s.Expanded.CollapseAll(len(s.Results))
	return s
}

// CopyItem returns the clipboard payload for the result at i.
func (s State) CopyItem(i int) (string, error) {
	h, err := At(s, i)
	if err != nil {
		return "", err
	}
	return render.CopyItem(s.Results[h.Index]), nil
}

// CopyAll returns the clipboard payload for the whole result set.
func (s State) CopyAll() string {
	return render.CopyAll(s.Results)
}
