package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownGateBlocksWithinWindow(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewCooldownGate(60 * time.Second)
	g.now = func() time.Time { return clock }

	assert.True(t, g.TryPass("111111111111111111", "222222222222222222"))

	// 10 seconds later: still on cooldown
	clock = clock.Add(10 * time.Second)
	assert.False(t, g.TryPass("111111111111111111", "222222222222222222"))
	assert.Equal(t, 50*time.Second, g.Remaining("111111111111111111", "222222222222222222"))

	// 61 seconds after the first pass: off cooldown
	clock = clock.Add(51 * time.Second)
	assert.True(t, g.TryPass("111111111111111111", "222222222222222222"))
	assert.Equal(t, time.Duration(0), g.Remaining("333333333333333333", "222222222222222222"))
}

func TestCooldownGateIsPerUserPerGuild(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewCooldownGate(60 * time.Second)
	g.now = func() time.Time { return clock }

	assert.True(t, g.TryPass("111111111111111111", "222222222222222222"))

	// Same user in another guild, and another user in the same guild,
	// each have their own window.
	assert.True(t, g.TryPass("111111111111111111", "999999999999999999"))
	assert.True(t, g.TryPass("333333333333333333", "222222222222222222"))

	assert.False(t, g.TryPass("111111111111111111", "222222222222222222"))
}

func TestCooldownGateRelease(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewCooldownGate(60 * time.Second)
	g.now = func() time.Time { return clock }

	assert.True(t, g.TryPass("111111111111111111", "222222222222222222"))
	g.Release("111111111111111111", "222222222222222222")

	// Releasing the stamp reopens the gate immediately
	assert.True(t, g.TryPass("111111111111111111", "222222222222222222"))
}

func TestCooldownGateExactBoundary(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewCooldownGate(60 * time.Second)
	g.now = func() time.Time { return clock }

	assert.True(t, g.TryPass("111111111111111111", "222222222222222222"))

	// Exactly window elapsed passes again
	clock = clock.Add(60 * time.Second)
	assert.True(t, g.TryPass("111111111111111111", "222222222222222222"))
}
