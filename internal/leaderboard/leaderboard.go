// Package leaderboard derives sorted, bounded views over the record store.
// It is read-only; display-name enrichment is the caller's concern.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/store"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var ErrUnknownDimension = errors.New("unknown leaderboard dimension")

type Dimension string

const (
	DimensionOverall   Dimension = "overall"
	DimensionVoice     Dimension = "voice"
	DimensionReactions Dimension = "reactions"
)

// ParseDimension maps a query value to a Dimension; empty means overall.
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(s) {
	case "", DimensionOverall:
		return DimensionOverall, nil
	case DimensionVoice:
		return DimensionVoice, nil
	case DimensionReactions:
		return DimensionReactions, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
	}
}

// Entry is one leaderboard row.
type Entry struct {
	Rank              int    `json:"rank"`
	UserID            string `json:"userId"`
	XP                int64  `json:"xp"`
	Level             int    `json:"level"`
	VoiceMinutes      int64  `json:"voiceMinutes"`
	ReactionsGiven    int64  `json:"reactionsGiven"`
	ReactionsReceived int64  `json:"reactionsReceived"`
	Value             int64  `json:"value"`
}

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Top returns up to limit entries for guildID ordered by dim descending,
// ties broken by ascending user ID. Only records with a positive value for
// the dimension appear. The limit is clamped to [1, MaxLimit]; zero or
// negative falls back to DefaultLimit.
func (s *Service) Top(guildID string, dim Dimension, limit int) ([]Entry, error) {
	if _, err := ParseDimension(string(dim)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	entries := s.rankedEntries(guildID, dim)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Position returns the entry and 1-based rank of userID in guildID for dim.
// ok is false when the user has no positive value for the dimension.
func (s *Service) Position(guildID, userID string, dim Dimension) (Entry, bool) {
	entries := s.rankedEntries(guildID, dim)
	for _, e := range entries {
		if e.UserID == userID {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *Service) rankedEntries(guildID string, dim Dimension) []Entry {
	records := s.store.GuildRecords(guildID)

	entries := make([]Entry, 0, len(records))
	for userID, rec := range records {
		value := dimensionValue(rec, dim)
		if value <= 0 {
			continue
		}
		entries = append(entries, Entry{
			UserID:            userID,
			XP:                rec.XP,
			Level:             rec.Level,
			VoiceMinutes:      rec.VoiceMinutes,
			ReactionsGiven:    rec.ReactionsGiven,
			ReactionsReceived: rec.ReactionsReceived,
			Value:             value,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].UserID < entries[j].UserID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func dimensionValue(rec store.Record, dim Dimension) int64 {
	switch dim {
	case DimensionVoice:
		return rec.VoiceMinutes
	case DimensionReactions:
		return rec.ReactionsGiven + rec.ReactionsReceived
	default:
		return rec.XP
	}
}
