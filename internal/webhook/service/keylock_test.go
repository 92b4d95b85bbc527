package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := newKeyedMutex()

	const workers = 16
	var wg sync.WaitGroup
	var counter, max int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("kiwify:sub_1")
			defer unlock()

			counter++
			if counter > max {
				max = counter
			}
			counter--
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max, "holders of the same key must never overlap")
	assert.Equal(t, 0, counter)
}

func TestKeyedMutexAllowsDistinctKeys(t *testing.T) {
	locks := newKeyedMutex()

	unlockA := locks.Lock("kiwify:sub_a")
	// Must not block even while sub_a is held.
	unlockB := locks.Lock("kiwify:sub_b")

	unlockB()
	unlockA()
}

func TestKeyedMutexCleansUpIdleKeys(t *testing.T) {
	locks := newKeyedMutex()

	unlock := locks.Lock("order:ord_1")
	locks.mu.Lock()
	require.Len(t, locks.entries, 1)
	locks.mu.Unlock()

	unlock()
	locks.mu.Lock()
	assert.Empty(t, locks.entries)
	locks.mu.Unlock()
}

func TestKeyedMutexReusableAfterRelease(t *testing.T) {
	locks := newKeyedMutex()

	unlock := locks.Lock("kiwify:sub_1")
	unlock()
	unlock = locks.Lock("kiwify:sub_1")
	unlock()
}
