package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

// HTMLDecorator emits span-wrapped, escaped markup using the json-* classes
// of the web UI stylesheet.
type HTMLDecorator struct{}

func (HTMLDecorator) Key(quoted string, match bool) string {
	class := "json-key"
	if match {
		class += " search-match"
	}
	return `<span class="` + class + `">` + html.EscapeString(quoted) + `</span>`
}

func (HTMLDecorator) Scalar(kind record.Kind, literal string) string {
	return `<span class="json-` + kind.String() + `">` + html.EscapeString(literal) + `</span>`
}

// HTML writes the markup of a presentation.
func HTML(w io.Writer, p Presentation) error {
	_, err := io.WriteString(w, HTMLString(p))
	return err
}

// HTMLString returns the markup of a presentation.
func HTMLString(p Presentation) string {
	if p.Empty() {
		return `<div class="empty-state"><p>No results found</p></div>`
	}

	if p.Mode == ModeRaw {
		return `<div class="raw-json-view"><pre>` + html.EscapeString(p.Raw) + `</pre></div>`
	}

	var b strings.Builder
	for _, u := range p.Units {
		writeHTMLUnit(&b, u)
	}
	return b.String()
}

func writeHTMLUnit(b *strings.Builder, u Unit) {
	class := "result-item"
	toggle := "&#9654;"
	if u.Expanded {
		class += " expanded"
		toggle = "&#9660;"
	}

	fmt.Fprintf(b, `<div class="%s" data-index="%d">`, class, u.Index)
	fmt.Fprintf(b, `<div class="result-item-header" data-action="toggle" data-index="%d">`, u.Index)
	fmt.Fprintf(b, `<span class="result-item-title">%s</span>`, html.EscapeString(u.Title))
	b.WriteString(`<div class="result-item-actions">`)
	for _, action := range []string{"copy", "edit", "delete"} {
		fmt.Fprintf(b, `<button class="%s-item-btn" data-action="%s" data-index="%d">%s</button>`,
			action, action, u.Index, Humanize(action))
	}
	fmt.Fprintf(b, `<span class="result-item-toggle">%s</span>`, toggle)
	b.WriteString(`</div></div>`)

	b.WriteString(`<div class="result-item-body"><div class="json-viewer">`)
	if u.Tree != nil {
		b.WriteString(Format(u.Tree, HTMLDecorator{}))
	} else {
		b.WriteString(html.EscapeString(u.Compact))
	}
	b.WriteString(`</div></div></div>`)
}
