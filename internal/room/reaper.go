package room

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Reaper bounds store memory by deleting rooms whose last activity is older
// than the TTL. Joining, voting and timer ticks all count as activity, so a
// room is only reaped once everyone has walked away.
type Reaper struct {
	store    *MemoryStore
	ttl      time.Duration
	interval time.Duration
	clock    clockwork.Clock
}

// NewReaper creates a reaper sweeping the store every interval.
func NewReaper(store *MemoryStore, ttl, interval time.Duration, clock clockwork.Clock) *Reaper {
	return &Reaper{
		store:    store,
		ttl:      ttl,
		interval: interval,
		clock:    clock,
	}
}

// Run sweeps until the context is cancelled.
func (rp *Reaper) Run(ctx context.Context) {
	log.Info().
		Dur("ttl", rp.ttl).
		Dur("interval", rp.interval).
		Msg("room reaper started")

	ticker := rp.clock.NewTicker(rp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("room reaper stopped")
			return
		case <-ticker.Chan():
			rp.Sweep()
		}
	}
}

// Sweep deletes every expired room and reports how many were removed.
func (rp *Reaper) Sweep() int {
	deadline := rp.clock.Now().Add(-rp.ttl)

	var expired []string
	rp.store.ForEach(func(r *Room) {
		if r.LastActivity().Before(deadline) {
			expired = append(expired, r.ID)
		}
	})

	for _, id := range expired {
		rp.store.Delete(id)
		log.Info().Str("room_id", id).Msg("reaped idle room")
	}
	return len(expired)
}
