package shortcut

import (
	"sort"
	"strings"
)

// Catalog is an immutable snapshot of every loaded group keyed by source file.
// A new Catalog is built on each reload; existing snapshots never change.
type Catalog struct {
	groups []Group
	bySrc  map[string]int
	byID   map[string]Definition
}

// NewCatalog builds a catalog from groups, ordering them by source name.
// When two groups share a source the later one wins.
func NewCatalog(groups []Group) *Catalog {
	dedup := make(map[string]Group, len(groups))
	for _, g := range groups {
		dedup[g.Source] = g
	}

	sorted := make([]Group, 0, len(dedup))
	for _, g := range dedup {
		sorted = append(sorted, g)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Source < sorted[j].Source
	})

	c := &Catalog{
		groups: sorted,
		bySrc:  make(map[string]int, len(sorted)),
		byID:   make(map[string]Definition),
	}
	for i, g := range sorted {
		c.bySrc[g.Source] = i
		for _, d := range g.Shortcuts {
			if d.ID != "" {
				c.byID[d.ID] = d
			}
		}
	}
	return c
}

// EmptyCatalog returns a catalog with no groups.
func EmptyCatalog() *Catalog {
	return NewCatalog(nil)
}

// Groups returns the groups in catalog order.
// The returned slice must not be modified.
func (c *Catalog) Groups() []Group {
	if c == nil {
		return nil
	}
	return c.groups
}

// Group returns the group loaded from source.
func (c *Catalog) Group(source string) (Group, bool) {
	if c == nil {
		return Group{}, false
	}
	i, ok := c.bySrc[source]
	if !ok {
		return Group{}, false
	}
	return c.groups[i], true
}

// Sources returns the source names in catalog order.
func (c *Catalog) Sources() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.groups))
	for i, g := range c.groups {
		out[i] = g.Source
	}
	return out
}

// Len returns the total number of shortcuts across all groups.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, g := range c.groups {
		n += len(g.Shortcuts)
	}
	return n
}

// Lookup returns the definition with the given ID.
func (c *Catalog) Lookup(id string) (Definition, bool) {
	if c == nil {
		return Definition{}, false
	}
	d, ok := c.byID[id]
	return d, ok
}

// FindByDescription returns the first definition, in catalog order,
// whose description equals desc ignoring case.
func (c *Catalog) FindByDescription(desc string) (Definition, bool) {
	if c == nil {
		return Definition{}, false
	}
	desc = strings.TrimSpace(desc)
	for _, g := range c.groups {
		for _, d := range g.Shortcuts {
			if strings.EqualFold(d.Description, desc) {
				return d, true
			}
		}
	}
	return Definition{}, false
}

// Each calls fn for every definition in catalog order until fn returns false.
func (c *Catalog) Each(fn func(g Group, d Definition) bool) {
	if c == nil {
		return
	}
	for _, g := range c.groups {
		for _, d := range g.Shortcuts {
			if !fn(g, d) {
				return
			}
		}
	}
}
