package render

import (
	"strings"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

// Decorator styles the pieces of a formatted tree for a target surface.
type Decorator interface {
	// Key decorates a quoted key. match marks a search hit.
	Key(quoted string, match bool) string
	// Scalar decorates a scalar literal of the given kind.
	Scalar(kind record.Kind, literal string) string
}

// Plain is the undecorated Decorator.
type Plain struct{}

func (Plain) Key(quoted string, _ bool) string { return quoted }

func (Plain) Scalar(_ record.Kind, literal string) string { return literal }

// Format writes the tree as indented JSON-like text, two spaces per level.
func Format(n *Node, d Decorator) string {
	var b strings.Builder
	writeNode(&b, n, d, 0)
	return b.String()
}

func writeNode(b *strings.Builder, n *Node, d Decorator, indent int) {
	if n == nil {
		b.WriteString(d.Scalar(record.KindNull, "null"))
		return
	}
	spaces := strings.Repeat("  ", indent)

	switch n.Kind {
	case record.KindMap:
		if len(n.Children) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		for i, c := range n.Children {
			b.WriteString(spaces)
			b.WriteString("  ")
			b.WriteString(d.Key(quote(c.Key), c.Match))
			b.WriteString(": ")
			writeNode(b, c, d, indent+1)
			if i < len(n.Children)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(spaces)
		b.WriteString("}")

	case record.KindList:
		if len(n.Children) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for i, c := range n.Children {
			b.WriteString(spaces)
			b.WriteString("  ")
			writeNode(b, c, d, indent+1)
			if i < len(n.Children)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(spaces)
		b.WriteString("]")

	case record.KindNull, record.KindBool, record.KindNumber, record.KindString:
		b.WriteString(d.Scalar(n.Kind, n.Literal))
	}
}
