package chartsync

import (
	"context"

	"github.com/chartnote/chartnote/internal/domain/chart"
)

// mutation is one optimistic write against a single cached query.
type mutation struct {
	key QueryKey

	// validate runs first, before any cache or network activity. A failure
	// here means the mutation never happened: no speculative write, no
	// request, no invalidation.
	validate func(current *chart.Chart) error

	// apply rewrites the cached chart to what the client expects the server
	// state to become. It receives a deep copy and may return nil to clear
	// the entry.
	apply func(current *chart.Chart) *chart.Chart

	// send performs the network call.
	send func(ctx context.Context) error
}

// run drives a mutation through its full lifecycle: cancel any in-flight
// refetch for the key, snapshot the entry, write the speculative state, send
// the request, roll back to the snapshot on failure, and mark the key stale
// once the request settles either way.
func (c *Client) run(ctx context.Context, m mutation) error {
	if m.validate != nil {
		if err := m.validate(c.cache.Get(m.key)); err != nil {
			return err
		}
	}

	c.cache.CancelRefetch(m.key)
	snap := c.cache.Snapshot(m.key)
	c.cache.Update(m.key, m.apply)

	err := m.send(ctx)
	if err != nil {
		c.log.Warn().Str("key", string(m.key)).Err(err).Msg("mutation failed, rolling back")
		c.cache.Restore(m.key, snap)
	}
	c.cache.Invalidate(m.key)
	return err
}
