package sources

import "fmt"

// Descriptor is the static metadata of one source for the current run.
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RequiresKey bool   `json:"requires_key"`
	KeyPresent  bool   `json:"key_present"`
}

// Eligible reports whether the source may be selected this run.
func (d Descriptor) Eligible() bool {
	return !d.RequiresKey || d.KeyPresent
}

// Describe builds the descriptor for cfg using the key lookup.
func Describe(cfg Source, key func(env string) (string, bool)) Descriptor {
	d := Descriptor{ID: cfg.ID, Name: cfg.Name, RequiresKey: cfg.RequiresKey}
	if cfg.KeyEnv != "" && key != nil {
		v, ok := key(cfg.KeyEnv)
		d.KeyPresent = ok && v != ""
	}
	return d
}

// Entry pairs a descriptor with its adapter.
type Entry struct {
	Descriptor Descriptor
	Adapter    Adapter
}

// Catalog is the immutable set of sources available to one run.
type Catalog struct {
	entries []Entry
}

// NewCatalog wraps prebuilt entries.
func NewCatalog(entries ...Entry) *Catalog {
	cp := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Adapter == nil {
			continue
		}
		cp = append(cp, e)
	}
	return &Catalog{entries: cp}
}

// BuildCatalog instantiates adapters for every source using the builder registry.
func BuildCatalog(reg *BuilderRegistry, cfgs []Source, deps Deps) (*Catalog, error) {
	entries := make([]Entry, 0, len(cfgs))
	for _, cfg := range cfgs {
		adapter, err := reg.AdapterFor(cfg, deps)
		if err != nil {
			return nil, fmt.Errorf("build adapter %s: %w", cfg.ID, err)
		}
		entries = append(entries, Entry{Descriptor: Describe(cfg, deps.Key), Adapter: adapter})
	}
	return NewCatalog(entries...), nil
}

// Candidates returns every registered entry.
func (c *Catalog) Candidates() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Eligible returns entries whose required key, if any, is present.
func (c *Catalog) Eligible() []Entry {
	all := c.Candidates()
	out := make([]Entry, 0, len(all))
	for _, e := range all {
		if e.Descriptor.Eligible() {
			out = append(out, e)
		}
	}
	return out
}

// Descriptors lists the descriptors of every entry.
func (c *Catalog) Descriptors() []Descriptor {
	all := c.Candidates()
	out := make([]Descriptor, 0, len(all))
	for _, e := range all {
		out = append(out, e.Descriptor)
	}
	return out
}
