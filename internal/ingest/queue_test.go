package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueCapacityRoundsUp(t *testing.T) {
	assert.Equal(t, uint32(8), NewQueue(5).Capacity())
	assert.Equal(t, uint32(16), NewQueue(16).Capacity())
	assert.Equal(t, uint32(4096), NewQueue(0).Capacity())
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(8)

	for i := 0; i < 5; i++ {
		require.True(t, q.Enqueue(Event{Kind: KindMessage, UserID: string(rune('a' + i))}))
	}
	assert.Equal(t, uint32(5), q.Len())

	for i := 0; i < 5; i++ {
		ev, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, string(rune('a'+i)), ev.UserID)
	}

	_, ok := q.Dequeue()
	assert.False(t, ok)
	assert.Equal(t, uint32(0), q.Len())
}

func TestQueueRejectsWhenFull(t *testing.T) {
	q := NewQueue(4)

	// One slot stays open to distinguish full from empty
	for i := 0; i < 3; i++ {
		require.True(t, q.Enqueue(Event{Kind: KindMessage}))
	}
	assert.False(t, q.Enqueue(Event{Kind: KindMessage}))

	// Draining one slot makes room again
	_, ok := q.Dequeue()
	require.True(t, ok)
	assert.True(t, q.Enqueue(Event{Kind: KindMessage}))
}
