package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_StartsAtStart(t *testing.T) {
	clock := NewManualClock(1_000)
	assert.Equal(t, int64(1_000), clock.Now())
}

func TestManualClock_SetAndAdvance(t *testing.T) {
	clock := NewManualClock(0)

	clock.Set(500)
	assert.Equal(t, int64(500), clock.Now())

	assert.Equal(t, int64(560), clock.Advance(60))
	assert.Equal(t, int64(560), clock.Now())

	// Backwards is allowed
	clock.Set(10)
	assert.Equal(t, int64(10), clock.Now())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock(0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Advance(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1_000), clock.Now())
}
