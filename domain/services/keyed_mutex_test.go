package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	t.Parallel()

	k := newKeyedMutex()
	counters := make([]int, 4)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := int64(i % 4)
			unlock := k.Lock(key)
			defer unlock()
			counters[key]++
		}()
	}
	wg.Wait()

	for key := int64(0); key < 4; key++ {
		assert.Equal(t, 50, counters[key])
	}
	assert.Equal(t, 0, k.size(), "released keys are dropped")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	t.Parallel()

	k := newKeyedMutex()
	unlockA := k.Lock(1)

	done := make(chan struct{})
	go func() {
		unlock := k.Lock(2)
		unlock()
		close(done)
	}()
	<-done

	assert.Equal(t, 1, k.size())
	unlockA()
	assert.Equal(t, 0, k.size())
}
