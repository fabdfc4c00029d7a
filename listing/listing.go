// Package listing supplies the work items for a harvest run: an ordered set
// of groups, each carrying an ordered list of item names.
package listing

import "context"

// Group is one named partition of items, e.g. a rarity tier.
type Group struct {
	Label string
	Items []string
}

// Source produces the run's listing. The harvester treats it as opaque and
// fails the run only when the listing comes back empty.
type Source interface {
	Listing(ctx context.Context) ([]Group, error)
}

// Static is a fixed in-memory Source, mainly for tests and small manual runs.
type Static []Group

func (s Static) Listing(ctx context.Context) ([]Group, error) {
	return s, nil
}
