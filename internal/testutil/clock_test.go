package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_StartsAtEpoch(t *testing.T) {
	clock := NewClock()
	assert.Equal(t, Epoch, clock.Current())
	assert.Equal(t, Epoch, clock.Next())
}

func TestClock_NextAdvancesByStep(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewClockAt(start, time.Second)

	assert.Equal(t, start, clock.Next())
	assert.Equal(t, start.Add(time.Second), clock.Next())
	assert.Equal(t, start.Add(2*time.Second), clock.Next())
	assert.Equal(t, start.Add(3*time.Second), clock.Current())
}

func TestClock_Reset(t *testing.T) {
	clock := NewClock()
	clock.Next()
	clock.Next()

	clock.Reset(Epoch)
	assert.Equal(t, Epoch, clock.Next())
}

func TestClock_ThreadSafe(t *testing.T) {
	clock := NewClock()
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make([][]time.Time, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		results[i] = make([]time.Time, callsPerGoroutine)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				results[idx][j] = clock.Next()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[time.Time]bool)
	for i := range results {
		for _, ts := range results[i] {
			require.False(t, seen[ts], "duplicate instant %v", ts)
			seen[ts] = true
		}
	}
	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
	assert.Equal(t, Epoch.Add(numGoroutines*callsPerGoroutine*time.Minute), clock.Current())
}
