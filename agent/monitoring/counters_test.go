package monitoring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersReturnPostIncrementValue(t *testing.T) {
	c := NewCounters()

	assert.EqualValues(t, 1, c.IncrementKeyPress())
	assert.EqualValues(t, 2, c.IncrementKeyPress())
	assert.EqualValues(t, 1, c.IncrementMouseClick())

	assert.Equal(t, CounterSnapshot{KeyPresses: 2, MouseClicks: 1}, c.Snapshot())
}

func TestCountersConcurrentIncrements(t *testing.T) {
	const workers, perWorker = 16, 5000
	c := NewCounters()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			last := uint64(0)
			for j := 0; j < perWorker; j++ {
				n := c.IncrementKeyPress()
				if n <= last {
					t.Errorf("key counter went from %d to %d", last, n)
					return
				}
				last = n
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				c.IncrementMouseClick()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, workers*perWorker, c.KeyPresses())
	assert.EqualValues(t, workers*perWorker, c.MouseClicks())
}
