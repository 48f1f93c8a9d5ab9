// Package render turns query results into presentations for the explorer
// front ends. A presentation is a pure function of the records, the view
// mode, the search query and the expand state.
package render

import (
	"fmt"
	"strings"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/normalize"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

// Mode selects how results are presented.
type Mode string

const (
	ModeFormatted Mode = "formatted"
	ModeCompact   Mode = "compact"
	ModeRaw       Mode = "raw"
)

// Modes lists the view modes in menu order.
var Modes = []Mode{ModeFormatted, ModeCompact, ModeRaw}

// ParseMode validates a view mode name. Empty selects ModeFormatted.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFormatted:
		return ModeFormatted, nil
	case ModeCompact:
		return ModeCompact, nil
	case ModeRaw:
		return ModeRaw, nil
	}
	return "", fmt.Errorf("invalid view mode %q: valid values are formatted, compact, raw", s)
}

// Next cycles to the following mode.
func (m Mode) Next() Mode {
	for i, mode := range Modes {
		if mode == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return ModeFormatted
}

// Options controls a render pass.
type Options struct {
	Mode Mode
	// Search is matched case-insensitively against keys in formatted mode.
	Search   string
	Expanded ExpandState
	// Normalize expands string-encoded JSON before rendering.
	Normalize bool
}

// Unit is the presentation of one result.
type Unit struct {
	// Index is the position of the result in the current result set and the
	// only handle copy, edit and delete actions use.
	Index    int
	Title    string
	Expanded bool
	// Tree is set in formatted mode.
	Tree *Node
	// Compact is set in compact mode.
	Compact string
}

// Presentation is the rendered form of a result set.
type Presentation struct {
	Mode       Mode
	Count      int
	CountLabel string
	// Units is empty in raw mode.
	Units []Unit
	// Raw holds the whole result set as indented JSON in raw mode.
	Raw string
}

// Empty reports whether there is nothing to show.
func (p Presentation) Empty() bool {
	return p.Count == 0
}

// Render builds the presentation of records.
func Render(records []record.Record, opts Options) Presentation {
	mode := opts.Mode
	if mode == "" {
		mode = ModeFormatted
	}
	p := Presentation{
		Mode:       mode,
		Count:      len(records),
		CountLabel: CountLabel(len(records)),
	}
	if len(records) == 0 {
		return p
	}

	body := records
	if opts.Normalize {
		body = normalize.All(records)
	}

	if mode == ModeRaw {
		p.Raw = Raw(body)
		return p
	}

	query := strings.ToLower(opts.Search)
	p.Units = make([]Unit, len(records))
	for i, r := range records {
		u := Unit{
			Index:    i,
			Title:    Title(r),
			Expanded: opts.Expanded.IsExpanded(i),
		}
		switch mode {
		case ModeCompact:
			u.Compact = Compact(body[i])
		case ModeFormatted, ModeRaw:
			u.Tree = Tree(body[i], query)
		}
		p.Units[i] = u
	}
	return p
}

// Compact serializes a record on one line.
func Compact(r record.Record) string {
	s, err := record.MarshalCompact(r)
	if err != nil {
		return fmt.Sprintf("%v", r)
	}
	return s
}

// Raw serializes a whole result set with two-space indentation.
func Raw(records []record.Record) string {
	if records == nil {
		records = []record.Record{}
	}
	s, err := record.MarshalIndent(records)
	if err != nil {
		return fmt.Sprintf("%v", records)
	}
	return s
}

// CopyItem is the clipboard payload for a single result.
func CopyItem(r record.Record) string {
	s, err := record.MarshalIndent(r)
	if err != nil {
		return Compact(r)
	}
	return s
}

// CopyAll is the clipboard payload for the whole result set. It is never
// normalized, so it matches what the store returned.
func CopyAll(records []record.Record) string {
	return Raw(records)
}
