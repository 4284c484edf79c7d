package introspect

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"pgnative/types"
)

// Cache collapses concurrent Resolve calls for the same OID into a
// single catalog round trip, which matters when a pool hands out
// several connections at once and each independently meets a type its
// registry layer hasn't seen yet.
type Cache struct {
	group singleflight.Group
}

// NewCache returns a ready-to-use Cache.
func NewCache() *Cache {
	return &Cache{}
}

// Resolve behaves like the package-level Resolve, but deduplicates
// concurrent calls for the same oid via singleflight.
func (c *Cache) Resolve(ctx context.Context, q Querier, reg *types.Registry, oid types.OID) error {
	if _, ok := reg.Lookup(oid); ok {
		return nil
	}
	_, err, _ := c.group.Do(strconv.FormatUint(uint64(oid), 10), func() (any, error) {
		return nil, Resolve(ctx, q, reg, oid)
	})
	return err
}
