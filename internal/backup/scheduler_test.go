package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagCount(t *testing.T, m *Manager, tag string) int {
	t.Helper()
	metas, err := m.List()
	require.NoError(t, err)
	n := 0
	for _, meta := range metas {
		if meta.Tag == tag {
			n++
		}
	}
	return n
}

func TestSchedulerPeriodicDue(t *testing.T) {
	m, _ := newTestManager(t, 50)
	s := NewScheduler(m, 30*time.Minute, 4)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	s.lastPeriodic = clock

	// 10 minutes in: nothing due
	clock = clock.Add(10 * time.Minute)
	s.check()
	assert.Equal(t, 0, tagCount(t, m, TagPeriodic))

	// 30 minutes in: the periodic snapshot fires once
	clock = clock.Add(20 * time.Minute)
	s.check()
	assert.Equal(t, 1, tagCount(t, m, TagPeriodic))

	// Immediately after, the interval restarts
	s.check()
	assert.Equal(t, 1, tagCount(t, m, TagPeriodic))
}

func TestSchedulerDailyFiresOncePerDay(t *testing.T) {
	m, _ := newTestManager(t, 50)
	s := NewScheduler(m, 24*time.Hour, 4)

	clock := time.Date(2025, 6, 1, 4, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	s.lastPeriodic = clock

	s.check()
	assert.Equal(t, 1, tagCount(t, m, TagDaily))

	// Later ticks within the 04:00 hour do not re-fire
	clock = clock.Add(20 * time.Minute)
	s.check()
	assert.Equal(t, 1, tagCount(t, m, TagDaily))

	// The next day at 04:00 fires again
	clock = clock.Add(24 * time.Hour)
	s.check()
	assert.Equal(t, 2, tagCount(t, m, TagDaily))
}

func TestSchedulerOutsideDailyHourSkips(t *testing.T) {
	m, _ := newTestManager(t, 50)
	s := NewScheduler(m, 24*time.Hour, 4)

	clock := time.Date(2025, 6, 1, 5, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	s.lastPeriodic = clock

	s.check()
	assert.Equal(t, 0, tagCount(t, m, TagDaily))
}

func TestNewSchedulerDefaults(t *testing.T) {
	m, _ := newTestManager(t, 50)

	s := NewScheduler(m, 0, -1)
	assert.Equal(t, 30*time.Minute, s.interval)
	assert.Equal(t, 4, s.dailyHour)
}
