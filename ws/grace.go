package ws

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// graceEntry pairs a pending timer with a channel that aborts its waiter
// goroutine on cancellation.
type graceEntry struct {
	timer     clockwork.Timer
	cancelled chan struct{}
}

// GraceTable tracks the disconnect grace-period timers, keyed by player id.
// Scheduling replaces any earlier timer for the same player, cancellation is
// idempotent, and a timer that loses the race against cancellation never
// fires its callback.
type GraceTable struct {
	clock  clockwork.Clock
	mu     sync.Mutex
	timers map[string]*graceEntry
}

func NewGraceTable(clock clockwork.Clock) *GraceTable {
	return &GraceTable{
		clock:  clock,
		timers: make(map[string]*graceEntry),
	}
}

// Schedule arms a one-shot timer for playerId. When it fires, fire runs in
// its own goroutine; callers must make firing after the player is already
// gone a no-op.
func (g *GraceTable) Schedule(playerId string, d time.Duration, fire func()) {
	g.mu.Lock()
	if old, ok := g.timers[playerId]; ok {
		stopAndDrainTimer(old.timer)
		close(old.cancelled)
	}
	entry := &graceEntry{
		timer:     g.clock.NewTimer(d),
		cancelled: make(chan struct{}),
	}
	g.timers[playerId] = entry
	g.mu.Unlock()

	go func() {
		select {
		case <-entry.timer.Chan():
			g.mu.Lock()
			current, ok := g.timers[playerId]
			if !ok || current != entry {
				// replaced or cancelled between firing and locking
				g.mu.Unlock()
				return
			}
			delete(g.timers, playerId)
			g.mu.Unlock()
			fire()
		case <-entry.cancelled:
		}
	}()
}

// Cancel removes a pending timer. It reports whether a timer was pending and
// is safe to call for players that never had, or already lost, one.
func (g *GraceTable) Cancel(playerId string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.timers[playerId]
	if !ok {
		return false
	}
	stopAndDrainTimer(entry.timer)
	close(entry.cancelled)
	delete(g.timers, playerId)
	return true
}

// Pending reports whether a grace timer is armed for playerId.
func (g *GraceTable) Pending(playerId string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.timers[playerId]
	return ok
}

// stopAndDrainTimer stops a timer and drains its channel if it already
// fired, so no waiter is left behind.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
