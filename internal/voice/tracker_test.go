package voice

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/accrual"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/leveling"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/settings"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/store"
)

const (
	testUser    = "111111111111111111"
	testGuild   = "222222222222222222"
	testChannel = "444444444444444444"
)

func newTestTracker(t *testing.T) (*Tracker, *store.Store, *settings.Store, *time.Time) {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "levels.json"))
	require.NoError(t, err)
	cfg, err := settings.Open(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)

	engine := accrual.NewEngine(st, cfg, leveling.DefaultRates())
	tr := NewTracker(engine, cfg, nil, time.Minute)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return clock }
	return tr, st, cfg, &clock
}

func TestTickGrantsWholeMinutes(t *testing.T) {
	tr, st, _, clock := newTestTracker(t)

	tr.HandleJoin(testUser, testGuild, testChannel, nil)
	require.Equal(t, 1, tr.ActiveSessions())

	// 150s elapsed: two whole minutes pay out, 30s carries
	*clock = clock.Add(150 * time.Second)
	tr.RunTickOnce()

	rec, ok := st.Get(testUser, testGuild)
	require.True(t, ok)
	assert.Equal(t, int64(20), rec.XP)
	assert.Equal(t, int64(2), rec.VoiceMinutes)

	// 30s more completes the carried minute
	*clock = clock.Add(30 * time.Second)
	tr.RunTickOnce()

	rec, _ = st.Get(testUser, testGuild)
	assert.Equal(t, int64(30), rec.XP)
	assert.Equal(t, int64(3), rec.VoiceMinutes)
}

func TestTickUnderOneMinuteGrantsNothing(t *testing.T) {
	tr, st, _, clock := newTestTracker(t)

	tr.HandleJoin(testUser, testGuild, testChannel, nil)
	*clock = clock.Add(59 * time.Second)
	tr.RunTickOnce()

	_, ok := st.Get(testUser, testGuild)
	assert.False(t, ok)
}

func TestLeaveFlushesWholeMinutesOnly(t *testing.T) {
	tr, st, _, clock := newTestTracker(t)

	tr.HandleJoin(testUser, testGuild, testChannel, nil)
	*clock = clock.Add(3*time.Minute + 45*time.Second)
	tr.HandleLeave(testUser, testGuild)

	assert.Equal(t, 0, tr.ActiveSessions())

	rec, ok := st.Get(testUser, testGuild)
	require.True(t, ok)
	assert.Equal(t, int64(3), rec.VoiceMinutes)
	assert.Equal(t, int64(30), rec.XP)

	// Leaving again is a no-op
	tr.HandleLeave(testUser, testGuild)
	rec, _ = st.Get(testUser, testGuild)
	assert.Equal(t, int64(3), rec.VoiceMinutes)
}

func TestLeaveSubMinuteDiscards(t *testing.T) {
	tr, st, _, clock := newTestTracker(t)

	tr.HandleJoin(testUser, testGuild, testChannel, nil)
	*clock = clock.Add(45 * time.Second)
	tr.HandleLeave(testUser, testGuild)

	_, ok := st.Get(testUser, testGuild)
	assert.False(t, ok)
}

func TestChannelMoveKeepsSession(t *testing.T) {
	tr, st, _, clock := newTestTracker(t)

	tr.HandleJoin(testUser, testGuild, testChannel, nil)
	*clock = clock.Add(90 * time.Second)

	// Moving channels must not reset the accrual mark
	tr.HandleJoin(testUser, testGuild, "555555555555555555", nil)
	require.Equal(t, 1, tr.ActiveSessions())

	*clock = clock.Add(30 * time.Second)
	tr.RunTickOnce()

	rec, ok := st.Get(testUser, testGuild)
	require.True(t, ok)
	assert.Equal(t, int64(2), rec.VoiceMinutes)
}

func TestMoveIntoExemptChannelClosesSession(t *testing.T) {
	tr, st, cfg, clock := newTestTracker(t)

	gs := cfg.Get(testGuild)
	gs.ExemptChannelIDs = []string{"666666666666666666"}
	require.NoError(t, cfg.Update(testGuild, gs))

	tr.HandleJoin(testUser, testGuild, testChannel, nil)
	*clock = clock.Add(2*time.Minute + 30*time.Second)

	// Moving into the exempt channel flushes the whole minutes and closes
	// the session, so nothing accrues from inside it
	tr.HandleJoin(testUser, testGuild, "666666666666666666", nil)
	assert.Equal(t, 0, tr.ActiveSessions())

	rec, ok := st.Get(testUser, testGuild)
	require.True(t, ok)
	assert.Equal(t, int64(2), rec.VoiceMinutes)

	*clock = clock.Add(5 * time.Minute)
	tr.RunTickOnce()

	rec, _ = st.Get(testUser, testGuild)
	assert.Equal(t, int64(2), rec.VoiceMinutes)
}

func TestJoinRespectsSettingsGate(t *testing.T) {
	tr, _, cfg, _ := newTestTracker(t)

	gs := cfg.Get(testGuild)
	gs.Sources.Voice = false
	require.NoError(t, cfg.Update(testGuild, gs))

	tr.HandleJoin(testUser, testGuild, testChannel, nil)
	assert.Equal(t, 0, tr.ActiveSessions())
}

func TestJoinRespectsExemptions(t *testing.T) {
	tr, _, cfg, _ := newTestTracker(t)

	gs := cfg.Get(testGuild)
	gs.ExemptChannelIDs = []string{testChannel}
	gs.ExemptRoleIDs = []string{"555555555555555555"}
	require.NoError(t, cfg.Update(testGuild, gs))

	tr.HandleJoin(testUser, testGuild, testChannel, nil)
	tr.HandleJoin(testUser, testGuild, "666666666666666666", []string{"555555555555555555"})
	assert.Equal(t, 0, tr.ActiveSessions())
}

func TestStopFlushesOpenSessions(t *testing.T) {
	tr, st, _, clock := newTestTracker(t)

	tr.Start()
	tr.HandleJoin(testUser, testGuild, testChannel, nil)
	*clock = clock.Add(2*time.Minute + 10*time.Second)
	tr.Stop()

	assert.Equal(t, 0, tr.ActiveSessions())

	rec, ok := st.Get(testUser, testGuild)
	require.True(t, ok)
	assert.Equal(t, int64(2), rec.VoiceMinutes)
	assert.Equal(t, int64(20), rec.XP)
}
