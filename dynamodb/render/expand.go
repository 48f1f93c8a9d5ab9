package render

// ExpandState records which result bodies are collapsed. Results are
// expanded unless collapsed explicitly. The zero value expands everything.
//
// Methods never modify the receiver; they return an updated copy.
type ExpandState struct {
	collapsed map[int]bool
}

// IsExpanded reports whether the result at index i shows its body.
func (e ExpandState) IsExpanded(i int) bool {
	return !e.collapsed[i]
}

// Toggle flips the state of index i only.
func (e ExpandState) Toggle(i int) ExpandState {
	next := e.clone()
	if next.collapsed[i] {
		delete(next.collapsed, i)
	} else {
		next.collapsed[i] = true
	}
	return next
}

// ExpandAll expands every result.
func (e ExpandState) ExpandAll() ExpandState {
	return ExpandState{}
}

// CollapseAll collapses results 0..n-1.
func (e ExpandState) CollapseAll(n int) ExpandState {
	next := ExpandState{collapsed: make(map[int]bool, n)}
	for i := 0; i < n; i++ {
		next.collapsed[i] = true
	}
	return next
}

// Remove drops index i and shifts the state of later results down by one,
// mirroring removal of a result from the result set.
func (e ExpandState) Remove(i int) ExpandState {
	next := ExpandState{collapsed: make(map[int]bool, len(e.collapsed))}
	for idx, c := range e.collapsed {
		switch {
		case idx < i:
			next.collapsed[idx] = c
		case idx > i:
			next.collapsed[idx-1] = c
		}
	}
	return next
}

func (e ExpandState) clone() ExpandState {
	next := ExpandState{collapsed: make(map[int]bool, len(e.collapsed)+1)}
	for k, v := range e.collapsed {
		next.collapsed[k] = v
	}
	return next
}
