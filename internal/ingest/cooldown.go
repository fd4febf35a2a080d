package ingest

import (
	"sync"
	"time"
)

// sweepThreshold bounds the cooldown map; stale entries are cleared inline
// once it grows past this.
const sweepThreshold = 16384

// CooldownGate enforces the minimum interval between message grants per
// (user, guild). The check and the stamp update happen under one lock so a
// burst of concurrent messages cannot all pass before the stamp moves.
type CooldownGate struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func NewCooldownGate(window time.Duration) *CooldownGate {
	return &CooldownGate{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// TryPass reports whether (userID, guildID) is off cooldown, stamping the
// current time when it is.
func (g *CooldownGate) TryPass(userID, guildID string) bool {
	key := userID + ":" + guildID

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.last[key]; ok && now.Sub(last) < g.window {
		return false
	}
	g.last[key] = now

	if len(g.last) > sweepThreshold {
		g.sweepLocked(now)
	}
	return true
}

// Release clears the stamp for (userID, guildID). Used when the event that
// passed the gate is dropped afterwards, so the user does not lose the
// window to an overloaded queue.
func (g *CooldownGate) Release(userID, guildID string) {
	key := userID + ":" + guildID

	g.mu.Lock()
	delete(g.last, key)
	g.mu.Unlock()
}

// Remaining returns how long (userID, guildID) stays on cooldown.
func (g *CooldownGate) Remaining(userID, guildID string) time.Duration {
	key := userID + ":" + guildID

	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.last[key]
	if !ok {
		return 0
	}
	remaining := g.window - g.now().Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (g *CooldownGate) sweepLocked(now time.Time) {
	for key, last := range g.last {
		if now.Sub(last) >= g.window {
			delete(g.last, key)
		}
	}
}
