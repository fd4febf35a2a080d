// Package ingest filters raw gateway events against guild settings,
// exemptions and the message cooldown, then funnels the survivors through
// one worker into the accrual engine.
package ingest

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/accrual"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/metrics"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/settings"
)

// Notifier is the level-up dispatch boundary. Delivery failures are the
// implementation's problem; committed XP never rolls back.
type Notifier interface {
	LevelUp(guildID, userID string, level int)
}

type Ingestor struct {
	queue    *Queue
	engine   *accrual.Engine
	settings *settings.Store
	notify   Notifier
	cooldown *CooldownGate

	running uint32
	wg      sync.WaitGroup
}

func NewIngestor(queue *Queue, engine *accrual.Engine, cfg *settings.Store, notify Notifier, cooldownWindow time.Duration) *Ingestor {
	return &Ingestor{
		queue:    queue,
		engine:   engine,
		settings: cfg,
		notify:   notify,
		cooldown: NewCooldownGate(cooldownWindow),
	}
}

// Start launches the accrual worker.
func (in *Ingestor) Start() {
	if !atomic.CompareAndSwapUint32(&in.running, 0, 1) {
		return
	}
	in.wg.Add(1)
	go in.workerLoop()
	logging.Info("Ingestor: accrual worker started (queue capacity %d)", in.queue.Capacity())
}

// Stop drains the queue and stops the worker.
func (in *Ingestor) Stop() {
	if !atomic.CompareAndSwapUint32(&in.running, 1, 0) {
		return
	}
	in.wg.Wait()
	logging.Info("Ingestor: accrual worker stopped")
}

// HandleMessage filters one messageCreate event and enqueues a grant when
// it survives the settings gate, exemptions and the cooldown.
func (in *Ingestor) HandleMessage(userID, guildID, channelID string, roleIDs []string, at time.Time) {
	metrics.Get().IncEvents()

	gs := in.settings.Get(guildID)
	if !gs.Enabled || !gs.Sources.Messages {
		return
	}
	if in.exempt(guildID, channelID, roleIDs) {
		metrics.Get().IncExempt()
		return
	}
	if !in.cooldown.TryPass(userID, guildID) {
		metrics.Get().IncCooldownHits()
		return
	}

	if !in.enqueue(Event{Kind: KindMessage, UserID: userID, GuildID: guildID, Timestamp: at}) {
		// The drop must not consume the user's window
		in.cooldown.Release(userID, guildID)
	}
}

// HandleReactionAdd filters one reaction event. The reacting user earns the
// "given" grant; the message author, when distinct and not a bot, earns the
// "received" grant. Neither is subject to a cooldown.
func (in *Ingestor) HandleReactionAdd(reactorID, authorID string, authorIsBot bool, guildID, channelID string, reactorRoleIDs []string, at time.Time) {
	metrics.Get().IncEvents()

	gs := in.settings.Get(guildID)
	if !gs.Enabled || !gs.Sources.Reactions {
		return
	}
	if in.exempt(guildID, channelID, reactorRoleIDs) {
		metrics.Get().IncExempt()
		return
	}

	in.enqueue(Event{Kind: KindReactionGiven, UserID: reactorID, GuildID: guildID, Timestamp: at})

	if authorID != "" && authorID != reactorID && !authorIsBot {
		in.enqueue(Event{Kind: KindReactionReceived, UserID: authorID, GuildID: guildID, Timestamp: at})
	}
}

// QueueLen reports how many events are waiting.
func (in *Ingestor) QueueLen() uint32 {
	return in.queue.Len()
}

func (in *Ingestor) exempt(guildID, channelID string, roleIDs []string) bool {
	if channelID != "" && in.settings.ChannelExempt(guildID, channelID) {
		return true
	}
	return in.settings.RoleExempt(guildID, roleIDs)
}

func (in *Ingestor) enqueue(ev Event) bool {
	if !in.queue.Enqueue(ev) {
		metrics.Get().IncDropped()
		logging.Warn("Ingestor: queue full, dropping %s event for user %s in guild %s", ev.Kind, ev.UserID, ev.GuildID)
		return false
	}
	return true
}

func (in *Ingestor) workerLoop() {
	defer in.wg.Done()

	for {
		ev, ok := in.queue.Dequeue()
		if !ok {
			if atomic.LoadUint32(&in.running) == 0 {
				return
			}
			time.Sleep(2 * time.Millisecond)
			continue
		}
		in.apply(ev)
	}
}

func (in *Ingestor) apply(ev Event) {
	var (
		result *accrual.GrantResult
		err    error
	)

	switch ev.Kind {
	case KindMessage:
		result, err = in.engine.GrantMessage(ev.UserID, ev.GuildID, ev.Timestamp)
	case KindReactionGiven:
		result, err = in.engine.GrantReaction(ev.UserID, ev.GuildID, false)
	case KindReactionReceived:
		result, err = in.engine.GrantReaction(ev.UserID, ev.GuildID, true)
	default:
		return
	}

	if err != nil {
		metrics.Get().IncGrantFailures()
		logging.Error("Ingestor: %s grant failed for user %s in guild %s, event dropped: %v", ev.Kind, ev.UserID, ev.GuildID, err)
		return
	}

	metrics.Get().IncGrants()
	if result.LeveledUp {
		metrics.Get().IncLevelUps()
		if in.notify != nil {
			in.notify.LevelUp(ev.GuildID, ev.UserID, result.NewLevel)
		}
	}
}
