package glyphcache

// The low-memory handler pair. The memory manager solicits an offer of
// reclaimable bytes and, if it chooses this handler, releases the chosen
// amount. Both calls happen on the interpreter goroutine between
// operators.

// Offer is a low-memory reclaim offer.
type Offer struct {
	Size int     // bytes reclaimable
	Cost float64 // relative cost of reclaiming
}

// Solicit returns the cache's reclaim offer, or nil if nothing can be
// freed: a construction is in progress, the cache is empty, or
// compression has already been exhausted.
func (c *Cache) Solicit() *Offer {
	if c.Building() || c.CurFontCache == 0 || c.compressing {
		return nil
	}
	return &Offer{Size: c.CurFontCache, Cost: 1.0}
}

// Release reclaims the given number of bytes from a previously solicited
// offer by purging. Purging is best-effort; the reclaim target may not
// be met.
func (c *Cache) Release(taken int) {
	c.purge(taken, nil)
}

// LowMemHandler bundles the solicit/release pair for registration with a
// memory manager.
type LowMemHandler struct {
	Name    string
	Solicit func() *Offer
	Release func(taken int)
}

// Handler returns the cache's low-memory handler, named after the cache.
func (c *Cache) Handler() LowMemHandler {
	return LowMemHandler{
		Name:    "font glyph cache",
		Solicit: c.Solicit,
		Release: c.Release,
	}
}
