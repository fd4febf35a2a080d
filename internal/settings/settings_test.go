package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGuild = "222222222222222222"

func openTempSettings(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "level_settings.json"))
	require.NoError(t, err)
	return s
}

func TestGetReturnsDefaultsForUnknownGuild(t *testing.T) {
	s := openTempSettings(t)

	gs := s.Get(testGuild)
	assert.True(t, gs.Enabled)
	assert.True(t, gs.Sources.Messages)
	assert.True(t, gs.Sources.Voice)
	assert.True(t, gs.Sources.Reactions)
	assert.Equal(t, 1.0, gs.XPMultiplier)
	assert.Equal(t, DefaultLevelUpMessage, gs.LevelUpMessage)
	assert.Empty(t, gs.ExemptRoleIDs)
}

func TestUpdatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level_settings.json")
	s, err := Open(path)
	require.NoError(t, err)

	gs := s.Get(testGuild)
	gs.XPMultiplier = 2.5
	gs.Sources.Voice = false
	gs.ExemptChannelIDs = []string{"333333333333333333"}
	require.NoError(t, s.Update(testGuild, gs))

	reopened, err := Open(path)
	require.NoError(t, err)

	got := reopened.Get(testGuild)
	assert.Equal(t, 2.5, got.XPMultiplier)
	assert.False(t, got.Sources.Voice)
	assert.Equal(t, []string{"333333333333333333"}, got.ExemptChannelIDs)
}

func TestUpdateRejectsBadMultiplier(t *testing.T) {
	s := openTempSettings(t)

	gs := s.Get(testGuild)
	gs.XPMultiplier = 0.05
	assert.ErrorIs(t, s.Update(testGuild, gs), ErrInvalidSettings)

	gs.XPMultiplier = 11
	assert.ErrorIs(t, s.Update(testGuild, gs), ErrInvalidSettings)

	// Boundaries are inclusive
	gs.XPMultiplier = MinMultiplier
	assert.NoError(t, s.Update(testGuild, gs))
	gs.XPMultiplier = MaxMultiplier
	assert.NoError(t, s.Update(testGuild, gs))
}

func TestUpdateRejectsBadIDs(t *testing.T) {
	s := openTempSettings(t)

	gs := s.Get(testGuild)
	gs.LevelUpChannelID = "not-a-snowflake"
	assert.ErrorIs(t, s.Update(testGuild, gs), ErrInvalidSettings)

	gs = s.Get(testGuild)
	gs.ExemptRoleIDs = []string{"123"}
	assert.ErrorIs(t, s.Update(testGuild, gs), ErrInvalidSettings)

	// Rejected update left nothing behind
	assert.Empty(t, s.Get(testGuild).ExemptRoleIDs)
}

func TestExemptionChecks(t *testing.T) {
	s := openTempSettings(t)

	gs := s.Get(testGuild)
	gs.ExemptRoleIDs = []string{"444444444444444444"}
	gs.ExemptChannelIDs = []string{"555555555555555555"}
	require.NoError(t, s.Update(testGuild, gs))

	assert.True(t, s.RoleExempt(testGuild, []string{"999999999999999999", "444444444444444444"}))
	assert.False(t, s.RoleExempt(testGuild, []string{"999999999999999999"}))
	assert.False(t, s.RoleExempt(testGuild, nil))

	assert.True(t, s.ChannelExempt(testGuild, "555555555555555555"))
	assert.False(t, s.ChannelExempt(testGuild, "666666666666666666"))
}

func TestGetReturnsCopy(t *testing.T) {
	s := openTempSettings(t)

	gs := s.Get(testGuild)
	gs.Enabled = false
	gs.ExemptRoleIDs = append(gs.ExemptRoleIDs, "444444444444444444")

	// Mutating the returned value must not touch the stored settings
	assert.True(t, s.Get(testGuild).Enabled)
	assert.Empty(t, s.Get(testGuild).ExemptRoleIDs)
}

func TestNormalizeFillsEmptyTemplate(t *testing.T) {
	s := openTempSettings(t)

	gs := s.Get(testGuild)
	gs.LevelUpMessage = ""
	require.NoError(t, s.Update(testGuild, gs))

	assert.Equal(t, DefaultLevelUpMessage, s.Get(testGuild).LevelUpMessage)
}
