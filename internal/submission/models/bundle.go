package models

// Bundle is the ordered set of candidate records of one submission.
type Bundle struct {
	Entries []Resource
}

func NewBundle(entries ...Resource) Bundle {
	return Bundle{Entries: entries}
}

func (b *Bundle) Add(r ...Resource) {
	b.Entries = append(b.Entries, r...)
}

func (b Bundle) Len() int      { return len(b.Entries) }
func (b Bundle) IsEmpty() bool { return len(b.Entries) == 0 }

// FirstOfType returns the first entry of type t.
func (b Bundle) FirstOfType(t ResourceType) (Resource, bool) {
	for _, r := range b.Entries {
		if r.ResourceType() == t {
			return r, true
		}
	}
	return nil, false
}

// References lists entry references in bundle order.
func (b Bundle) References() []Reference {
	out := make([]Reference, 0, len(b.Entries))
	for _, r := range b.Entries {
		out = append(out, r.AsReference())
	}
	return out
}

// ByType groups entries by their type tag.
func (b Bundle) ByType() map[ResourceType][]Resource {
	out := make(map[ResourceType][]Resource)
	for _, r := range b.Entries {
		out[r.ResourceType()] = append(out[r.ResourceType()], r)
	}
	return out
}
