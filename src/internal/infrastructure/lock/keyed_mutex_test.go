package lock_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/lock"
	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SameKey_Serializes(t *testing.T) {
	// Arrange
	locker := lock.NewKeyedMutex()
	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)

	// Act
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("membership-1")
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				prev := atomic.LoadInt32(&maxSeen)
				if n <= prev || atomic.CompareAndSwapInt32(&maxSeen, prev, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	// Assert
	assert.Equal(t, int32(1), maxSeen, "同一鍵同時只能有一個持有者")
	assert.Equal(t, 0, locker.Len(), "釋放後不保留鍵")
}

func TestKeyedMutex_DifferentKeys_DoNotBlock(t *testing.T) {
	// Arrange
	locker := lock.NewKeyedMutex()
	unlockA := locker.Lock("a")
	defer unlockA()

	// Act
	done := make(chan struct{})
	go func() {
		unlock := locker.Lock("b")
		unlock()
		close(done)
	}()

	// Assert
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("不同鍵不應互相阻塞")
	}
}

func TestKeyedMutex_UnlockTwice_IsNoop(t *testing.T) {
	// Arrange
	locker := lock.NewKeyedMutex()
	unlock := locker.Lock("k")

	// Act
	unlock()
	unlock()

	// Assert
	assert.Equal(t, 0, locker.Len())
	again := locker.Lock("k")
	again()
}
