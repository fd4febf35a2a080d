package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/store"
)

const (
	testUser  = "111111111111111111"
	testGuild = "222222222222222222"
)

func newTestManager(t *testing.T, maxBackups int) (*Manager, *store.Store) {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "levels.json"))
	require.NoError(t, err)

	m, err := NewManager(filepath.Join(dir, "backups"), st, maxBackups)
	require.NoError(t, err)
	return m, st
}

func TestCreateAndRestoreRoundTrip(t *testing.T) {
	m, st := newTestManager(t, 50)

	_, err := st.Update(testUser, testGuild, func(r *store.Record) {
		r.XP = 2500
		r.Level = 5
		r.VoiceMinutes = 40
	})
	require.NoError(t, err)

	meta, err := m.Create(TagManual, "before the test wipes everything")
	require.NoError(t, err)
	assert.Equal(t, TagManual, meta.Tag)
	assert.True(t, strings.HasSuffix(meta.ID, ".json"))

	// Wipe the live store, then restore
	_, err = st.Replace(store.NewDocument())
	require.NoError(t, err)
	require.Equal(t, 0, st.UserCount())

	restored, err := m.Restore(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, meta.ID, restored.ID)

	rec, ok := st.Get(testUser, testGuild)
	require.True(t, ok)
	assert.Equal(t, int64(2500), rec.XP)
	assert.Equal(t, 5, rec.Level)
	assert.Equal(t, int64(40), rec.VoiceMinutes)
}

func TestRestoreCreatesPreRestoreSnapshot(t *testing.T) {
	m, st := newTestManager(t, 50)

	meta, err := m.Create(TagManual, "baseline")
	require.NoError(t, err)

	_, err = st.Update(testUser, testGuild, func(r *store.Record) { r.XP = 999 })
	require.NoError(t, err)

	_, err = m.Restore(meta.ID)
	require.NoError(t, err)

	metas, err := m.List()
	require.NoError(t, err)

	var preRestore int
	for _, got := range metas {
		if got.Tag == TagPreRestore {
			preRestore++
		}
	}
	assert.Equal(t, 1, preRestore)
}

func TestRestoreUnknownID(t *testing.T) {
	m, _ := newTestManager(t, 50)

	_, err := m.Restore("manual-20250101-000000.000.json")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestRestoreRejectsTraversalIDs(t *testing.T) {
	m, _ := newTestManager(t, 50)

	for _, id := range []string{"", "../levels.json", "a/b.json", "snap.txt", "..\\x.json"} {
		_, err := m.Restore(id)
		assert.ErrorIs(t, err, ErrBadSnapshotID, "id=%q", id)
	}
}

func TestRestoreInvalidSnapshotLeavesStoreIntact(t *testing.T) {
	m, st := newTestManager(t, 50)

	_, err := st.Update(testUser, testGuild, func(r *store.Record) { r.XP = 100 })
	require.NoError(t, err)

	// A snapshot whose data section is not a store document
	bad := `{"metadata":{"id":"x","tag":"manual","createdAt":1,"formatVersion":1},"data":{"nope":true}}`
	badPath := filepath.Join(m.dir, "manual-19990101-000000.000.json")
	require.NoError(t, os.WriteFile(badPath, []byte(bad), 0644))

	_, err = m.Restore("manual-19990101-000000.000.json")
	require.ErrorIs(t, err, ErrInvalidSnapshot)

	rec, ok := st.Get(testUser, testGuild)
	require.True(t, ok)
	assert.Equal(t, int64(100), rec.XP)
}

func TestListNewestFirst(t *testing.T) {
	m, _ := newTestManager(t, 50)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	first, err := m.Create(TagManual, "first")
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	second, err := m.Create(TagDaily, "second")
	require.NoError(t, err)

	metas, err := m.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, second.ID, metas[0].ID)
	assert.Equal(t, first.ID, metas[1].ID)
}

func TestPruneKeepsNewest(t *testing.T) {
	m, _ := newTestManager(t, 3)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	var last *Metadata
	for i := 0; i < 6; i++ {
		meta, err := m.Create(TagPeriodic, "tick")
		require.NoError(t, err)
		last = meta
		clock = clock.Add(time.Minute)
	}

	metas, err := m.List()
	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, last.ID, metas[0].ID)
}

func TestCreatePreSaveSkipsMissingFile(t *testing.T) {
	m, _ := newTestManager(t, 50)

	m.CreatePreSave(filepath.Join(t.TempDir(), "nope.json"))

	metas, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestPreSaveHookSnapshotsThroughStore(t *testing.T) {
	m, st := newTestManager(t, 50)
	st.SetPreSaveHook(m.CreatePreSave)

	// First save has no prior file, so no snapshot
	_, err := st.Update(testUser, testGuild, func(r *store.Record) { r.XP = 100 })
	require.NoError(t, err)

	// Second save snapshots the first save's bytes
	_, err = st.Update(testUser, testGuild, func(r *store.Record) { r.XP = 200 })
	require.NoError(t, err)

	metas, err := m.List()
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, TagPreSave, metas[0].Tag)
}
