// Package settings holds per-guild leveling configuration. It is read on
// every gateway event and written rarely from the admin surfaces, so the
// store favors cheap copies over clever sharing.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/pkg/util"
)

const (
	MinMultiplier = 0.1
	MaxMultiplier = 10.0

	DefaultLevelUpMessage = "GG {user}, you just reached level {level}!"
)

var ErrInvalidSettings = errors.New("invalid guild settings")

// XPSources is the set of event sources a guild accrues XP from.
type XPSources struct {
	Messages  bool `json:"messages"`
	Voice     bool `json:"voice"`
	Reactions bool `json:"reactions"`
}

type GuildSettings struct {
	Enabled          bool      `json:"enabled"`
	Sources          XPSources `json:"xpSources"`
	XPMultiplier     float64   `json:"xpMultiplier"`
	LevelUpChannelID string    `json:"levelUpChannelId"`
	LevelUpMessage   string    `json:"levelUpMessage"`
	ExemptRoleIDs    []string  `json:"exemptRoleIds"`
	ExemptChannelIDs []string  `json:"exemptChannelIds"`
}

// Defaults returns the settings a guild gets on first access: leveling on,
// all sources on, 1.0 multiplier, no notification channel.
func Defaults() GuildSettings {
	return GuildSettings{
		Enabled:          true,
		Sources:          XPSources{Messages: true, Voice: true, Reactions: true},
		XPMultiplier:     1.0,
		LevelUpMessage:   DefaultLevelUpMessage,
		ExemptRoleIDs:    []string{},
		ExemptChannelIDs: []string{},
	}
}

type Store struct {
	mu     sync.RWMutex
	path   string
	guilds map[string]*GuildSettings
}

// Open loads guild settings from path; a missing file starts empty and a
// corrupt one is moved aside.
func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		guilds: make(map[string]*GuildSettings),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var guilds map[string]*GuildSettings
	if err := json.Unmarshal(data, &guilds); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		os.Rename(path, aside)
		logging.Error("Settings store: CORRUPT file at %s, moved to %s, starting with defaults: %v", path, aside, err)
		return s, nil
	}

	for guildID, gs := range guilds {
		if gs == nil {
			continue
		}
		normalize(gs)
		s.guilds[guildID] = gs
	}

	logging.Info("Settings store: loaded %d guild(s) from %s", len(s.guilds), path)
	return s, nil
}

// Get returns a copy of the settings for guildID, creating defaults in
// memory on first access. The lazily created entry is persisted on the
// next settings write.
func (s *Store) Get(guildID string) GuildSettings {
	s.mu.RLock()
	gs, ok := s.guilds[guildID]
	s.mu.RUnlock()
	if ok {
		return copySettings(gs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gs, ok = s.guilds[guildID]; ok {
		return copySettings(gs)
	}
	def := Defaults()
	s.guilds[guildID] = &def
	return copySettings(&def)
}

// Update replaces guildID's settings wholesale after validation and
// persists the store. Invalid input is rejected with no partial mutation.
func (s *Store) Update(guildID string, gs GuildSettings) error {
	if err := Validate(&gs); err != nil {
		return err
	}
	normalize(&gs)

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.guilds[guildID]
	s.guilds[guildID] = &gs
	if err := s.saveLocked(); err != nil {
		if existed {
			s.guilds[guildID] = prev
		} else {
			delete(s.guilds, guildID)
		}
		return err
	}
	return nil
}

// RoleExempt reports whether any of roleIDs is exempt in guildID.
func (s *Store) RoleExempt(guildID string, roleIDs []string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gs, ok := s.guilds[guildID]
	if !ok {
		return false
	}
	for _, exempt := range gs.ExemptRoleIDs {
		for _, role := range roleIDs {
			if role == exempt {
				return true
			}
		}
	}
	return false
}

// ChannelExempt reports whether channelID is exempt in guildID.
func (s *Store) ChannelExempt(guildID, channelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gs, ok := s.guilds[guildID]
	if !ok {
		return false
	}
	for _, exempt := range gs.ExemptChannelIDs {
		if channelID == exempt {
			return true
		}
	}
	return false
}

// GuildCount returns how many guilds have settings loaded.
func (s *Store) GuildCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.guilds)
}

// Validate rejects settings the admin surfaces must not accept.
func Validate(gs *GuildSettings) error {
	if gs.XPMultiplier < MinMultiplier || gs.XPMultiplier > MaxMultiplier {
		return fmt.Errorf("%w: multiplier %.2f outside [%.1f, %.1f]",
			ErrInvalidSettings, gs.XPMultiplier, MinMultiplier, MaxMultiplier)
	}
	if gs.LevelUpChannelID != "" && !util.IsSnowflake(gs.LevelUpChannelID) {
		return fmt.Errorf("%w: level-up channel id %q is not a valid id", ErrInvalidSettings, gs.LevelUpChannelID)
	}
	for _, id := range gs.ExemptRoleIDs {
		if !util.IsSnowflake(id) {
			return fmt.Errorf("%w: exempt role id %q is not a valid id", ErrInvalidSettings, id)
		}
	}
	for _, id := range gs.ExemptChannelIDs {
		if !util.IsSnowflake(id) {
			return fmt.Errorf("%w: exempt channel id %q is not a valid id", ErrInvalidSettings, id)
		}
	}
	return nil
}

func normalize(gs *GuildSettings) {
	if gs.XPMultiplier == 0 {
		gs.XPMultiplier = 1.0
	}
	if gs.LevelUpMessage == "" {
		gs.LevelUpMessage = DefaultLevelUpMessage
	}
	if gs.ExemptRoleIDs == nil {
		gs.ExemptRoleIDs = []string{}
	}
	if gs.ExemptChannelIDs == nil {
		gs.ExemptChannelIDs = []string{}
	}
}

func copySettings(gs *GuildSettings) GuildSettings {
	out := *gs
	out.ExemptRoleIDs = append([]string{}, gs.ExemptRoleIDs...)
	out.ExemptChannelIDs = append([]string{}, gs.ExemptChannelIDs...)
	return out
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.guilds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return util.WriteFileAtomic(s.path, data, 0644)
}
