// Package mapping implements the mapping reconstructor (spec §4.F): after
// all redistribution cycles finish, each rank knows only where its own
// boxes currently sit, not the global picture. Reconstruct performs one
// semilocal exchange so that the rank owning each original box learns
// every fragment's current holder and geometry, producing the
// unbalanced->balanced connector a downstream data mover would use.
package mapping

import "github.com/notargets/treeload/box"

// Placement is one fragment of an original box: which rank currently
// holds it, and its current (possibly cut-down) geometry.
type Placement struct {
	Rank    int32
	Current box.Box
}

// Connector maps an original (pre-balance) box id to every fragment it
// was divided into across the cluster.
type Connector struct {
	rel map[box.ID][]Placement
}

// NewConnector returns an empty Connector.
func NewConnector() *Connector {
	return &Connector{rel: make(map[box.ID][]Placement)}
}

func (c *Connector) add(origin box.ID, rank int32, current box.Box) {
	c.rel[origin] = append(c.rel[origin], Placement{Rank: rank, Current: current})
}

// AddPlacement records an additional fragment placement for origin. Exported
// for callers (e.g. balancer) that merge several per-rank connectors built
// by separate Reconstruct calls into one global view.
func (c *Connector) AddPlacement(origin box.ID, rank int32, current box.Box) {
	c.add(origin, rank, current)
}

// Lookup returns every known placement of the original box identified by
// origin, in the order they were recorded.
func (c *Connector) Lookup(origin box.ID) []Placement {
	return c.rel[origin]
}

// OriginIDs returns every original box id the connector has placements
// for, in no particular order.
func (c *Connector) OriginIDs() []box.ID {
	ids := make([]box.ID, 0, len(c.rel))
	for id := range c.rel {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of distinct original boxes tracked.
func (c *Connector) Len() int { return len(c.rel) }
