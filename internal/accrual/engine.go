// Package accrual converts classified events into XP grants and applies
// them to the record store. It knows nothing about Discord roles or
// channels; exemption filtering happens before events reach it.
package accrual

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/leveling"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/settings"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/store"
)

var (
	ErrNegativeXP    = errors.New("xp amount must not be negative")
	ErrInvalidAmount = errors.New("invalid xp amount")
)

type Source uint8

const (
	SourceMessage Source = iota
	SourceReactionGiven
	SourceReactionReceived
	SourceVoice
	SourceAdmin
)

func (s Source) String() string {
	switch s {
	case SourceMessage:
		return "message"
	case SourceReactionGiven:
		return "reaction_given"
	case SourceReactionReceived:
		return "reaction_received"
	case SourceVoice:
		return "voice"
	case SourceAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// GrantResult reports what a committed mutation did to one record.
type GrantResult struct {
	UserID    string
	GuildID   string
	Source    Source
	Amount    int64
	XP        int64
	OldLevel  int
	NewLevel  int
	LeveledUp bool
}

type Engine struct {
	store    *store.Store
	settings *settings.Store
	rates    leveling.Rates

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewEngine(st *store.Store, cfg *settings.Store, rates leveling.Rates) *Engine {
	return &Engine{
		store:    st,
		settings: cfg,
		rates:    rates.Sanitize(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Rates returns the active rate table.
func (e *Engine) Rates() leveling.Rates {
	return e.rates
}

// GrantMessage rolls the message base XP, applies the guild multiplier and
// commits the grant, stamping the cooldown timestamp in the same mutation.
func (e *Engine) GrantMessage(userID, guildID string, at time.Time) (*GrantResult, error) {
	base := e.rollMessageXP()
	amount := e.effectiveAmount(guildID, base)
	return e.commit(userID, guildID, SourceMessage, amount, func(rec *store.Record) {
		rec.LastMessageTimestamp = at.UnixMilli()
	})
}

// GrantReaction grants reaction XP. received selects the message author's
// side of the event; otherwise the reacting user's.
func (e *Engine) GrantReaction(userID, guildID string, received bool) (*GrantResult, error) {
	src := SourceReactionGiven
	base := e.rates.ReactionGiven
	if received {
		src = SourceReactionReceived
		base = e.rates.ReactionReceived
	}
	amount := e.effectiveAmount(guildID, base)
	return e.commit(userID, guildID, src, amount, func(rec *store.Record) {
		if received {
			rec.ReactionsReceived++
		} else {
			rec.ReactionsGiven++
		}
	})
}

// GrantVoice grants XP for whole minutes of voice presence.
func (e *Engine) GrantVoice(userID, guildID string, minutes int64) (*GrantResult, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: %d voice minutes", ErrInvalidAmount, minutes)
	}
	amount := e.effectiveAmount(guildID, minutes*e.rates.VoicePerMinute)
	return e.commit(userID, guildID, SourceVoice, amount, func(rec *store.Record) {
		rec.VoiceMinutes += minutes
	})
}

// SetXP is the administrative override: the record's xp becomes exactly
// amount. Multiplier and cooldown do not apply.
func (e *Engine) SetXP(userID, guildID string, amount int64) (*GrantResult, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeXP, amount)
	}

	var result GrantResult
	rec, err := e.store.Update(userID, guildID, func(rec *store.Record) {
		result.OldLevel = rec.Level
		result.Amount = amount - rec.XP
		rec.XP = amount
		rec.Level = leveling.LevelForXP(rec.XP)
	})
	if err != nil {
		return nil, err
	}
	result.UserID = userID
	result.GuildID = guildID
	result.Source = SourceAdmin
	result.XP = rec.XP
	result.NewLevel = rec.Level
	result.LeveledUp = result.NewLevel > result.OldLevel
	return &result, nil
}

// AdjustXP applies a signed administrative delta, clamping the result at
// zero. Multiplier and cooldown do not apply.
func (e *Engine) AdjustXP(userID, guildID string, delta int64) (*GrantResult, error) {
	var result GrantResult
	rec, err := e.store.Update(userID, guildID, func(rec *store.Record) {
		result.OldLevel = rec.Level
		next := rec.XP + delta
		if next < 0 {
			next = 0
		}
		result.Amount = next - rec.XP
		rec.XP = next
		rec.Level = leveling.LevelForXP(rec.XP)
	})
	if err != nil {
		return nil, err
	}
	result.UserID = userID
	result.GuildID = guildID
	result.Source = SourceAdmin
	result.XP = rec.XP
	result.NewLevel = rec.Level
	result.LeveledUp = result.NewLevel > result.OldLevel
	return &result, nil
}

// commit applies one positive grant atomically: xp, derived level and the
// per-source extras all land in the same store update.
func (e *Engine) commit(userID, guildID string, src Source, amount int64, extra func(*store.Record)) (*GrantResult, error) {
	result := GrantResult{
		UserID:  userID,
		GuildID: guildID,
		Source:  src,
		Amount:  amount,
	}

	rec, err := e.store.Update(userID, guildID, func(rec *store.Record) {
		result.OldLevel = rec.Level
		rec.XP += amount
		rec.Level = leveling.LevelForXP(rec.XP)
		if extra != nil {
			extra(rec)
		}
	})
	if err != nil {
		return nil, err
	}

	result.XP = rec.XP
	result.NewLevel = rec.Level
	result.LeveledUp = result.NewLevel > result.OldLevel
	return &result, nil
}

// effectiveAmount applies the guild multiplier per discrete grant, flooring
// so every committed amount stays integral.
func (e *Engine) effectiveAmount(guildID string, base int64) int64 {
	mult := e.settings.Get(guildID).XPMultiplier
	amount := int64(math.Floor(float64(base) * mult))
	if amount < 0 {
		amount = 0
	}
	return amount
}

func (e *Engine) rollMessageXP() int64 {
	span := e.rates.MessageMax - e.rates.MessageMin + 1
	e.rngMu.Lock()
	roll := e.rng.Int63n(span)
	e.rngMu.Unlock()
	return e.rates.MessageMin + roll
}
