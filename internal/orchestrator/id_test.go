package orchestrator

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockIDSourceFormat(t *testing.T) {
	src := NewClockIDSource()
	src.now = func() time.Time {
		return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	}

	id := src.NextTaskID()
	assert.Equal(t, "tsk_20250314T092653_00000001", id)
}

func TestClockIDSourceUniqueUnderConcurrency(t *testing.T) {
	src := NewClockIDSource()

	const goroutines = 8
	const perGoroutine = 200

	var mu sync.Mutex
	seen := make(map[string]struct{}, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := src.NextTaskID()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, goroutines*perGoroutine, "every generated ID must be unique")
	for id := range seen {
		assert.True(t, strings.HasPrefix(id, "tsk_"))
	}
}
