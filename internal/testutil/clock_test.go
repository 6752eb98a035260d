package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtEpoch(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, Epoch, clock.Current())
	assert.Equal(t, int64(0), clock.Ticks())
}

func TestDeterministicClock_NowAdvancesMonotonically(t *testing.T) {
	clock := NewDeterministicClock()

	// First call returns Epoch + 1s
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Current())

	// Subsequent calls step by one second
	assert.Equal(t, Epoch.Add(2*time.Second), clock.Now())
	assert.Equal(t, Epoch.Add(3*time.Second), clock.Now())
	assert.Equal(t, int64(3), clock.Ticks())
}

func TestSteppingClock_CustomStep(t *testing.T) {
	clock := NewSteppingClock(time.Millisecond)

	first := clock.Now()
	second := clock.Now()
	assert.Equal(t, time.Millisecond, second.Sub(first))
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()

	clock.Now()
	clock.Now()
	clock.Now()
	assert.Equal(t, Epoch.Add(3*time.Second), clock.Current())

	clock.Reset()
	assert.Equal(t, Epoch, clock.Current())

	// First call after reset returns Epoch + 1s again
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const numGoroutines = 50
	const callsPerGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make([][]time.Time, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		results[i] = make([]time.Time, callsPerGoroutine)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				results[idx][j] = clock.Now()
			}
		}(i)
	}

	wg.Wait()

	// Every returned instant must be unique
	seen := make(map[time.Time]bool)
	for _, row := range results {
		for _, ts := range row {
			require.False(t, seen[ts], "duplicate time %v", ts)
			seen[ts] = true
		}
	}
	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
}

func TestDeterministicClock_Deterministic(t *testing.T) {
	clock1 := NewDeterministicClock()
	clock2 := NewDeterministicClock()

	for i := 0; i < 100; i++ {
		assert.Equal(t, clock1.Now(), clock2.Now())
	}
}
