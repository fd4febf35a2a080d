// Package voice tracks open voice sessions and converts elapsed time into
// XP on a fixed ticker, so a crash loses at most one tick's worth of
// unflushed minutes rather than a whole session.
package voice

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/accrual"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/ingest"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/metrics"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/settings"
)

type session struct {
	userID      string
	guildID     string
	channelID   string
	startedAt   time.Time
	lastAccrued time.Time
}

type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*session

	engine   *accrual.Engine
	settings *settings.Store
	notify   ingest.Notifier

	interval time.Duration
	now      func() time.Time

	running uint32
	ticking uint32
	stop    chan struct{}
	wg      sync.WaitGroup
}

func NewTracker(engine *accrual.Engine, cfg *settings.Store, notify ingest.Notifier, interval time.Duration) *Tracker {
	return &Tracker{
		sessions: make(map[string]*session),
		engine:   engine,
		settings: cfg,
		notify:   notify,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// HandleJoin opens a session for (userID, guildID) unless the settings gate
// is closed or the user/channel is exempt. Joining while a session is open
// (a channel move) just updates the channel; moving into a channel that does
// not accrue closes the open session instead, flushing its whole minutes.
func (t *Tracker) HandleJoin(userID, guildID, channelID string, roleIDs []string) {
	gs := t.settings.Get(guildID)
	if !gs.Enabled || !gs.Sources.Voice ||
		t.settings.ChannelExempt(guildID, channelID) || t.settings.RoleExempt(guildID, roleIDs) {
		t.HandleLeave(userID, guildID)
		return
	}

	key := userID + ":" + guildID

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.sessions[key]; ok {
		existing.channelID = channelID
		return
	}
	now := t.now()
	t.sessions[key] = &session{
		userID:      userID,
		guildID:     guildID,
		channelID:   channelID,
		startedAt:   now,
		lastAccrued: now,
	}
	logging.Debug("Voice: session opened for user %s in guild %s", userID, guildID)
}

// HandleLeave flushes the remaining whole minutes of the session and closes
// it. Sub-minute remainders at leave time are discarded.
func (t *Tracker) HandleLeave(userID, guildID string) {
	key := userID + ":" + guildID

	t.mu.Lock()
	sess, ok := t.sessions[key]
	if ok {
		delete(t.sessions, key)
	}
	t.mu.Unlock()
	if !ok {
		return
	}

	minutes := int64(t.now().Sub(sess.lastAccrued) / time.Minute)
	if minutes > 0 {
		t.grant(sess.userID, sess.guildID, minutes)
	}
	logging.Debug("Voice: session closed for user %s in guild %s", userID, guildID)
}

// ActiveSessions returns how many sessions are open.
func (t *Tracker) ActiveSessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Start launches the accrual ticker.
func (t *Tracker) Start() {
	if !atomic.CompareAndSwapUint32(&t.running, 0, 1) {
		return
	}
	t.wg.Add(1)
	go t.tickLoop()
	logging.Info("Voice tracker: started (tick %v)", t.interval)
}

// Stop halts the ticker and flushes every open session.
func (t *Tracker) Stop() {
	if !atomic.CompareAndSwapUint32(&t.running, 1, 0) {
		return
	}
	close(t.stop)
	t.wg.Wait()

	t.mu.Lock()
	remaining := make([]*session, 0, len(t.sessions))
	for key, sess := range t.sessions {
		remaining = append(remaining, sess)
		delete(t.sessions, key)
	}
	t.mu.Unlock()

	for _, sess := range remaining {
		minutes := int64(t.now().Sub(sess.lastAccrued) / time.Minute)
		if minutes > 0 {
			t.grant(sess.userID, sess.guildID, minutes)
		}
	}
	logging.Info("Voice tracker: stopped, flushed %d session(s)", len(remaining))
}

func (t *Tracker) tickLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Skip, never queue, if the previous tick still runs
			if !atomic.CompareAndSwapUint32(&t.ticking, 0, 1) {
				logging.Warn("Voice tracker: previous tick still running, skipping")
				continue
			}
			t.tick()
			atomic.StoreUint32(&t.ticking, 0)
		case <-t.stop:
			return
		}
	}
}

// tick scans all sessions, grants whole elapsed minutes and advances each
// session's accrual mark by exactly the minutes consumed, so fractional
// remainders carry into the next tick.
func (t *Tracker) tick() {
	type due struct {
		userID  string
		guildID string
		minutes int64
	}

	now := t.now()

	t.mu.Lock()
	var pending []due
	for _, sess := range t.sessions {
		minutes := int64(now.Sub(sess.lastAccrued) / time.Minute)
		if minutes < 1 {
			continue
		}
		sess.lastAccrued = sess.lastAccrued.Add(time.Duration(minutes) * time.Minute)
		pending = append(pending, due{userID: sess.userID, guildID: sess.guildID, minutes: minutes})
	}
	t.mu.Unlock()

	// Grants run outside the session lock; they hit the store's own
	// serialization point.
	for _, d := range pending {
		t.grant(d.userID, d.guildID, d.minutes)
	}
}

func (t *Tracker) grant(userID, guildID string, minutes int64) {
	result, err := t.engine.GrantVoice(userID, guildID, minutes)
	if err != nil {
		metrics.Get().IncGrantFailures()
		logging.Error("Voice tracker: grant of %d minute(s) failed for user %s in guild %s: %v", minutes, userID, guildID, err)
		return
	}
	metrics.Get().IncGrants()
	if result.LeveledUp {
		metrics.Get().IncLevelUps()
		if t.notify != nil {
			t.notify.LevelUp(guildID, userID, result.NewLevel)
		}
	}
}

// RunTickOnce is a maintenance entry point that forces one accrual pass.
func (t *Tracker) RunTickOnce() {
	if !atomic.CompareAndSwapUint32(&t.ticking, 0, 1) {
		return
	}
	t.tick()
	atomic.StoreUint32(&t.ticking, 0)
}
