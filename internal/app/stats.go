package app

import "sync/atomic"

// Counters are process-wide totals persisted alongside the ledger.
type Counters struct {
	classifications atomic.Int64
	cacheHits       atomic.Int64
	votes           atomic.Int64
}

// CounterValues is a point-in-time copy of Counters.
type CounterValues struct {
	Classifications int64
	CacheHits       int64
	Votes           int64
}

func (c *Counters) Values() CounterValues {
	return CounterValues{
		Classifications: c.classifications.Load(),
		CacheHits:       c.cacheHits.Load(),
		Votes:           c.votes.Load(),
	}
}

func (c *Counters) Restore(v CounterValues) {
	c.classifications.Store(v.Classifications)
	c.cacheHits.Store(v.CacheHits)
	c.votes.Store(v.Votes)
}
