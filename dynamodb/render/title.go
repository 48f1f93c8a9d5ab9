package render

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

// TitleFields are the identifier attributes tried, in order, when titling a
// result. The first one holding a non-empty, non-zero value wins regardless
// of key order in the record.
var TitleFields = []string{"onboard_id", "phone_number", "prospect_id", "id"}

// DefaultTitle is used when none of TitleFields is present.
const DefaultTitle = "Item"

var titleCaser = cases.Title(language.Und, cases.NoLower)

// Humanize turns an attribute name such as "phone_number" into "Phone Number".
// Letters after the first of each word keep their case.
func Humanize(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// Title derives the display title of a record.
func Title(r record.Record) string {
	for _, field := range TitleFields {
		v, ok := r[field]
		if !ok || isEmpty(v) {
			continue
		}
		return Humanize(field) + ": " + titleValue(v)
	}
	return DefaultTitle
}

// isEmpty reports values that cannot identify a record: null, "", false and
// zero.
func isEmpty(v any) bool {
	switch record.KindOf(v) {
	case record.KindNull:
		return true
	case record.KindString:
		return record.ScalarText(v) == ""
	case record.KindBool:
		return !v.(bool)
	case record.KindNumber:
		f, err := strconv.ParseFloat(record.NumberText(v), 64)
		return err == nil && f == 0
	case record.KindList, record.KindMap:
		return false
	}
	return false
}

func titleValue(v any) string {
	switch record.KindOf(v) {
	case record.KindList, record.KindMap:
		s, err := record.MarshalCompact(v)
		if err == nil {
			return s
		}
	case record.KindNull, record.KindBool, record.KindNumber, record.KindString:
	}
	return record.ScalarText(v)
}

// CountLabel formats the result counter shown above the results.
func CountLabel(n int) string {
	if n == 1 {
		return "1 item"
	}
	return strconv.Itoa(n) + " items"
}
