package accrual

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/leveling"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/settings"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/store"
)

const (
	testUser  = "111111111111111111"
	testGuild = "222222222222222222"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store, *settings.Store) {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "levels.json"))
	require.NoError(t, err)

	cfg, err := settings.Open(filepath.Join(dir, "level_settings.json"))
	require.NoError(t, err)

	return NewEngine(st, cfg, leveling.DefaultRates()), st, cfg
}

func setMultiplier(t *testing.T, cfg *settings.Store, guildID string, mult float64) {
	t.Helper()
	gs := cfg.Get(guildID)
	gs.XPMultiplier = mult
	require.NoError(t, cfg.Update(guildID, gs))
}

func TestGrantMessageRollsWithinBounds(t *testing.T) {
	e, st, _ := newTestEngine(t)

	at := time.Now()
	for i := 0; i < 50; i++ {
		result, err := e.GrantMessage(testUser, testGuild, at)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Amount, int64(15))
		assert.LessOrEqual(t, result.Amount, int64(25))
	}

	rec, ok := st.Get(testUser, testGuild)
	require.True(t, ok)
	assert.Equal(t, at.UnixMilli(), rec.LastMessageTimestamp)
	assert.Equal(t, leveling.LevelForXP(rec.XP), rec.Level)
}

func TestGrantReactionCounters(t *testing.T) {
	e, st, _ := newTestEngine(t)

	result, err := e.GrantReaction(testUser, testGuild, false)
	require.NoError(t, err)
	assert.Equal(t, SourceReactionGiven, result.Source)
	assert.Equal(t, int64(5), result.Amount)

	result, err = e.GrantReaction(testUser, testGuild, true)
	require.NoError(t, err)
	assert.Equal(t, SourceReactionReceived, result.Source)
	assert.Equal(t, int64(3), result.Amount)

	rec, ok := st.Get(testUser, testGuild)
	require.True(t, ok)
	assert.Equal(t, int64(8), rec.XP)
	assert.Equal(t, int64(1), rec.ReactionsGiven)
	assert.Equal(t, int64(1), rec.ReactionsReceived)
}

func TestGrantVoice(t *testing.T) {
	e, st, _ := newTestEngine(t)

	result, err := e.GrantVoice(testUser, testGuild, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(30), result.Amount)

	rec, _ := st.Get(testUser, testGuild)
	assert.Equal(t, int64(3), rec.VoiceMinutes)

	_, err = e.GrantVoice(testUser, testGuild, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = e.GrantVoice(testUser, testGuild, -2)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMultiplierFloorsPerGrant(t *testing.T) {
	e, _, cfg := newTestEngine(t)
	setMultiplier(t, cfg, testGuild, 1.5)

	// 3 xp received reaction * 1.5 = 4.5, floored to 4
	result, err := e.GrantReaction(testUser, testGuild, true)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.Amount)

	setMultiplier(t, cfg, testGuild, 0.1)

	// 5 * 0.1 = 0.5, floored to 0: the grant commits but adds nothing
	result, err = e.GrantReaction(testUser, testGuild, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Amount)
	assert.Equal(t, int64(4), result.XP)
}

func TestSetXP(t *testing.T) {
	e, _, _ := newTestEngine(t)

	result, err := e.SetXP(testUser, testGuild, 2500)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), result.XP)
	assert.Equal(t, 5, result.NewLevel)
	assert.True(t, result.LeveledUp)

	_, err = e.SetXP(testUser, testGuild, -1)
	assert.ErrorIs(t, err, ErrNegativeXP)

	// Failed set left the record alone
	result, err = e.SetXP(testUser, testGuild, 2500)
	require.NoError(t, err)
	assert.False(t, result.LeveledUp)
}

func TestAdjustXPClampsAtZero(t *testing.T) {
	e, st, _ := newTestEngine(t)

	_, err := e.SetXP(testUser, testGuild, 50)
	require.NoError(t, err)

	result, err := e.AdjustXP(testUser, testGuild, -200)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.XP)
	assert.Equal(t, 0, result.NewLevel)

	rec, _ := st.Get(testUser, testGuild)
	assert.Equal(t, int64(0), rec.XP)
}

func TestLevelUpDetection(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.SetXP(testUser, testGuild, 95)
	require.NoError(t, err)

	// The next grant crosses the 100 xp boundary into level 1
	result, err := e.GrantReaction(testUser, testGuild, false)
	require.NoError(t, err)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, 0, result.OldLevel)
	assert.Equal(t, 1, result.NewLevel)

	// A grant within the same level does not re-fire
	result, err = e.GrantReaction(testUser, testGuild, false)
	require.NoError(t, err)
	assert.False(t, result.LeveledUp)
}

func TestConcurrentGrantsLoseNothing(t *testing.T) {
	e, st, _ := newTestEngine(t)

	const workers = 10
	const perWorker = 20

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := e.GrantReaction(testUser, testGuild, false)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	rec, ok := st.Get(testUser, testGuild)
	require.True(t, ok)
	assert.Equal(t, int64(workers*perWorker*5), rec.XP)
	assert.Equal(t, int64(workers*perWorker), rec.ReactionsGiven)
	assert.Equal(t, leveling.LevelForXP(rec.XP), rec.Level)
}
