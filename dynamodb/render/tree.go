package render

import (
	"maps"
	"slices"
	"strings"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

// Node is one element of a formatted record tree.
type Node struct {
	// Key is the attribute name for object members. Array elements and the
	// root have no key.
	Key    string
	HasKey bool
	// Match is set when the key contains the active search query.
	Match bool

	Kind record.Kind
	// Literal is the JSON text of a scalar: strings are quoted and escaped.
	Literal string

	Children []*Node
	Depth    int
}

// Tree builds the formatted tree for v. Object members are ordered by key so
// that identical input always yields an identical tree. query must already be
// lowercased; an empty query marks nothing.
func Tree(v any, query string) *Node {
	return buildNode(v, "", false, query, 0)
}

func buildNode(v any, key string, hasKey bool, query string, depth int) *Node {
	n := &Node{
		Key:    key,
		HasKey: hasKey,
		Match:  hasKey && keyMatches(key, query),
		Kind:   record.KindOf(v),
		Depth:  depth,
	}

	switch n.Kind {
	case record.KindMap:
		m := v.(map[string]any)
		keys := slices.Sorted(maps.Keys(m))
		n.Children = make([]*Node, 0, len(keys))
		for _, k := range keys {
			n.Children = append(n.Children, buildNode(m[k], k, true, query, depth+1))
		}
	case record.KindList:
		l := v.([]any)
		n.Children = make([]*Node, 0, len(l))
		for _, elem := range l {
			n.Children = append(n.Children, buildNode(elem, "", false, query, depth+1))
		}
	case record.KindString:
		n.Literal = quote(record.ScalarText(v))
	case record.KindNull, record.KindBool, record.KindNumber:
		n.Literal = record.ScalarText(v)
	}
	return n
}

func keyMatches(key, query string) bool {
	if query == "" {
		return false
	}
	return strings.Contains(strings.ToLower(key), query)
}

// quote renders s as a JSON string literal without HTML escaping.
func quote(s string) string {
	out, err := record.MarshalCompact(s)
	if err != nil {
		return `"` + s + `"`
	}
	return out
}

// Matches counts the keys marked as search matches under n.
func (n *Node) Matches() int {
	if n == nil {
		return 0
	}
	count := 0
	if n.Match {
		count++
	}
	for _, c := range n.Children {
		count += c.Matches()
	}
	return count
}

// Walk visits n and its descendants depth first.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
