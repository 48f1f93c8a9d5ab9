// Package edit implements the text round trip used to modify a result:
// a record is pretty-printed into editable text, and text is parsed back into
// a record. A failed parse never discards what the user typed.
package edit

import (
	"fmt"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/normalize"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

// ParseError reports editable text that is not a valid JSON object.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Begin returns the normalized record as indented, editable text.
func Begin(r record.Record) (string, error) {
	text, err := record.MarshalIndent(normalize.Record(r))
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return text, nil
}

// Commit parses edited text into the record to persist.
func Commit(text string) (record.Record, error) {
	r, err := record.DecodeRecord([]byte(text))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return r, nil
}

// Reformat pretty-prints text without committing it.
func Reformat(text string) (string, error) {
	r, err := Commit(text)
	if err != nil {
		return "", err
	}
	return record.MarshalIndent(r)
}

// Session is an open edit dialog bound to one result.
//
// Index is the position of the result when the dialog was opened. Text is
// what the user typed; it only changes through SetText or a successful
// Reformat.
type Session struct {
	Index    int
	Original record.Record
	Text     string
	// Err is the message of the last failed save or reformat.
	Err string
}

// Open starts a session for the record at index.
func Open(index int, r record.Record) (Session, error) {
	text, err := Begin(r)
	if err != nil {
		return Session{}, err
	}
	return Session{Index: index, Original: r, Text: text}, nil
}

// SetText replaces the editable text and clears any previous error.
func (s Session) SetText(text string) Session {
	s.Text = text
	s.Err = ""
	return s
}

// Reformat pretty-prints the text in place. On failure the text is kept and
// Err is set.
func (s Session) Reformat() Session {
	text, err := Reformat(s.Text)
	if err != nil {
		s.Err = err.Error()
		return s
	}
	s.Text = text
	s.Err = ""
	return s
}

// Save parses the text. On failure the text is kept, Err is set and the
// returned record is nil.
func (s Session) Save() (Session, record.Record) {
	r, err := Commit(s.Text)
	if err != nil {
		s.Err = err.Error()
		return s, nil
	}
	s.Err = ""
	return s, r
}
