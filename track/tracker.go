// Package track maintains the property-provenance table threaded
// through every stage of query compilation: the mapping from a logical
// property name (or dotted path, or wildcard "name.*") to the table
// alias and column it resolves to.
package track

// Provenance records where a logical field comes from: a column in a
// joined or source table, optionally reached through a nested path.
type Provenance struct {
	Alias  string
	Column string
	Path   []string // non-nil for nested shapes registered via a path
}

// Tracker is the mapping {logical name -> Provenance}, with insertion
// order preserved so spread-projection expansion (package translate)
// is deterministic.
type Tracker struct {
	order   []string
	entries map[string]Provenance
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{entries: make(map[string]Provenance)}
}

// Register declares that name maps to a column in alias.
func (t *Tracker) Register(name, alias, column string) {
	if _, exists := t.entries[name]; !exists {
		t.order = append(t.order, name)
	}
	t.entries[name] = Provenance{Alias: alias, Column: column}
}

// RegisterPath declares that a nested logical name maps to a column,
// recording the dotted path it was reached through (e.g. "u.address.city").
func (t *Tracker) RegisterPath(name, alias, column string, path []string) {
	if _, exists := t.entries[name]; !exists {
		t.order = append(t.order, name)
	}
	t.entries[name] = Provenance{Alias: alias, Column: column, Path: path}
}

// RegisterWildcard declares that a whole logical object corresponds to
// a table: name + ".*" maps to alias with no specific column.
func (t *Tracker) RegisterWildcard(name, alias string) {
	t.Register(name+".*", alias, "*")
}

// Lookup returns the provenance registered directly under name.
func (t *Tracker) Lookup(name string) (Provenance, bool) {
	p, ok := t.entries[name]
	return p, ok
}

// LookupWildcard returns the provenance registered for name+".*".
func (t *Tracker) LookupWildcard(name string) (Provenance, bool) {
	return t.Lookup(name + ".*")
}

// ScanByPathSegment returns the first registered provenance (in
// insertion order) whose Path contains segment — §4.4 strategy (c):
// "scan all tracker entries: any entry whose path includes the
// intermediate name".
func (t *Tracker) ScanByPathSegment(segment string) (Provenance, bool) {
	for _, name := range t.order {
		p := t.entries[name]
		for _, seg := range p.Path {
			if seg == segment {
				return p, true
			}
		}
	}
	return Provenance{}, false
}

// Names returns the registered logical names in insertion order.
func (t *Tracker) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Entries returns a snapshot of name -> Provenance pairs in insertion
// order, for callers that need to rebuild projections (e.g. select()'s
// spread expansion, §4.4 "every registered column whose provenance's
// path starts with x").
func (t *Tracker) Entries() []struct {
	Name       string
	Provenance Provenance
} {
	out := make([]struct {
		Name       string
		Provenance Provenance
	}, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, struct {
			Name       string
			Provenance Provenance
		}{Name: name, Provenance: t.entries[name]})
	}
	return out
}

// Clone returns a deep copy. Every Plan clone starts from a copy of its
// predecessor's Tracker (spec §5: copy-on-write is permitted internally,
// but observed semantics must be deep-copy).
func (t *Tracker) Clone() *Tracker {
	clone := &Tracker{
		order:   append([]string{}, t.order...),
		entries: make(map[string]Provenance, len(t.entries)),
	}
	for k, v := range t.entries {
		path := append([]string{}, v.Path...)
		clone.entries[k] = Provenance{Alias: v.Alias, Column: v.Column, Path: path}
	}
	return clone
}
