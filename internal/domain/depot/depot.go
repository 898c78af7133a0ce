package depot

import (
	"errors"
	"sort"
	"strings"
)

var ErrDepotNotFound = errors.New("depot not found")

// Depot is a fixed, named location with a containment radius, used as a
// loading or offloading point.
type Depot struct {
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// Catalog resolves the depot display names carried on loads.
type Catalog interface {
	Lookup(name string) (*Depot, error)
	All() []*Depot
}

// StaticCatalog is a Catalog backed by a fixed configuration-supplied list.
// Lookup is case-insensitive on the display name.
type StaticCatalog struct {
	byName  map[string]*Depot
	ordered []*Depot
}

func NewStaticCatalog(depots []Depot) *StaticCatalog {
	c := &StaticCatalog{
		byName:  make(map[string]*Depot, len(depots)),
		ordered: make([]*Depot, 0, len(depots)),
	}
	for i := range depots {
		d := depots[i]
		c.byName[normalizeName(d.Name)] = &d
		c.ordered = append(c.ordered, &d)
	}
	sort.Slice(c.ordered, func(i, j int) bool {
		return c.ordered[i].Name < c.ordered[j].Name
	})
	return c
}

func (c *StaticCatalog) Lookup(name string) (*Depot, error) {
	d, ok := c.byName[normalizeName(name)]
	if !ok {
		return nil, ErrDepotNotFound
	}
	return d, nil
}

func (c *StaticCatalog) All() []*Depot {
	out := make([]*Depot, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
