package maze

// Frontier is the multiset of open sockets waiting to be extended.
type Frontier struct {
	refs []PointRef
}

// Len returns the number of open sockets.
func (f *Frontier) Len() int { return len(f.refs) }

// Add appends sockets to the frontier.
func (f *Frontier) Add(refs ...PointRef) {
	f.refs = append(f.refs, refs...)
}

// Pop removes and returns a uniformly chosen socket. The frontier must not
// be empty.
func (f *Frontier) Pop(r Rand) PointRef {
	i := r.IntN(len(f.refs))
	ref := f.refs[i]
	last := len(f.refs) - 1
	f.refs[i] = f.refs[last]
	f.refs = f.refs[:last]
	return ref
}

// Contains reports whether ref is open.
func (f *Frontier) Contains(ref PointRef) bool {
	for _, r := range f.refs {
		if r == ref {
			return true
		}
	}
	return false
}

// Refs returns a copy of the open sockets.
func (f *Frontier) Refs() []PointRef {
	return append([]PointRef(nil), f.refs...)
}

func (f *Frontier) clear() { f.refs = f.refs[:0] }
