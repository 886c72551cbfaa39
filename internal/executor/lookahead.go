package executor

import (
	"sort"

	language "github.com/graphyne/graphyne/internal/language"
)

// lookaheadMaxDepth caps the snapshot depth to preclude pathological
// recursion through fragment cycles.
const lookaheadMaxDepth = 32

// Lookahead is an immutable snapshot of the nested selection set below a
// field, keyed by field name. Resolvers use it to decide what to prefetch.
type Lookahead struct {
	children map[string]*Lookahead
}

// Requests reports whether the selection set asks for the named subfield.
func (l *Lookahead) Requests(name string) bool {
	if l == nil {
		return false
	}
	_, ok := l.children[name]
	return ok
}

// Peek returns the snapshot below the named subfield, or nil when the
// subfield is not selected.
func (l *Lookahead) Peek(name string) *Lookahead {
	if l == nil {
		return nil
	}
	return l.children[name]
}

// Fields lists the selected subfield names in lexicographic order.
func (l *Lookahead) Fields() []string {
	if l == nil || len(l.children) == 0 {
		return nil
	}
	names := make([]string, 0, len(l.children))
	for name := range l.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookaheadBuilder returns a lazy constructor for the snapshot below the
// given field group. The AST is immutable, so the builder is safe to call
// from any goroutine.
func lookaheadBuilder(document *language.QueryDocument, fields []*language.Field) func() *Lookahead {
	return func() *Lookahead {
		sub := mergeSelectionSets(fields)
		return buildLookahead(document, sub, lookaheadMaxDepth, make(map[string]bool))
	}
}

func buildLookahead(document *language.QueryDocument, selectionSet language.SelectionSet, depth int, visited map[string]bool) *Lookahead {
	if depth <= 0 || len(selectionSet) == 0 {
		return &Lookahead{}
	}
	node := &Lookahead{children: make(map[string]*Lookahead)}
	addLookaheadSelections(document, selectionSet, node, depth, visited)
	return node
}

func addLookaheadSelections(document *language.QueryDocument, selectionSet language.SelectionSet, node *Lookahead, depth int, visited map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			child := buildLookahead(document, sel.SelectionSet, depth-1, visited)
			if existing, ok := node.children[sel.Name]; ok {
				child = mergeLookahead(existing, child)
			}
			node.children[sel.Name] = child
		case *language.InlineFragment:
			// Type conditions are ignored; the snapshot is a superset.
			addLookaheadSelections(document, sel.SelectionSet, node, depth, visited)
		case *language.FragmentSpread:
			if visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true
			if def := document.Fragments.ForName(sel.Name); def != nil {
				addLookaheadSelections(document, def.SelectionSet, node, depth, visited)
			}
		}
	}
}

func mergeLookahead(a, b *Lookahead) *Lookahead {
	if a == nil || len(a.children) == 0 {
		return b
	}
	if b == nil || len(b.children) == 0 {
		return a
	}
	merged := &Lookahead{children: make(map[string]*Lookahead, len(a.children)+len(b.children))}
	for name, child := range a.children {
		merged.children[name] = child
	}
	for name, child := range b.children {
		if existing, ok := merged.children[name]; ok {
			merged.children[name] = mergeLookahead(existing, child)
		} else {
			merged.children[name] = child
		}
	}
	return merged
}
