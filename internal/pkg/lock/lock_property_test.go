package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Concurrent read-modify-write on one session under the lock matches
// sequential execution.
func TestConcurrentMessageCountSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")
		sessionID := rapid.StringMatching(`[a-f0-9]{8}`).Draw(t, "sessionID")

		kl := New[string]()
		count := 0

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				kl.Lock(sessionID)
				defer kl.Unlock(sessionID)
				current := count
				count = current + 1
			}()
		}
		wg.Wait()

		if count != numOps {
			t.Fatalf("expected count %d, got %d", numOps, count)
		}
		if kl.Len() != 0 {
			t.Fatalf("expected no retained entries, got %d", kl.Len())
		}
	})
}

func TestWithLockFunctionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(0, 100000).Draw(t, "initial")
		numOps := rapid.IntRange(5, 30).Draw(t, "numOps")
		amountPerOp := rapid.Int64Range(1, 100).Draw(t, "amountPerOp")
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")

		kl := New[int64]()
		balance := initial

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = kl.WithLock(userID, func() error {
					balance += amountPerOp
					return nil
				})
			}()
		}
		wg.Wait()

		if expected := initial + int64(numOps)*amountPerOp; balance != expected {
			t.Fatalf("expected %d, got %d", expected, balance)
		}
	})
}

// Locks on different keys do not interfere.
func TestIndependentKeysProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numKeys := rapid.IntRange(2, 10).Draw(t, "numKeys")
		opsPerKey := rapid.IntRange(5, 20).Draw(t, "opsPerKey")

		kl := New[int]()
		counts := make([]int, numKeys)

		var wg sync.WaitGroup
		wg.Add(numKeys * opsPerKey)
		for k := 0; k < numKeys; k++ {
			for j := 0; j < opsPerKey; j++ {
				go func(key int) {
					defer wg.Done()
					kl.Lock(key)
					defer kl.Unlock(key)
					counts[key]++
				}(k)
			}
		}
		wg.Wait()

		for k, c := range counts {
			if c != opsPerKey {
				t.Fatalf("key %d: expected %d, got %d", k, opsPerKey, c)
			}
		}
	})
}

func TestTryLockExclusiveProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numAttempts := rapid.IntRange(5, 20).Draw(t, "numAttempts")

		kl := New[string]()
		var holders atomic.Int32
		var maxHolders atomic.Int32
		var wg sync.WaitGroup
		wg.Add(numAttempts)

		startCh := make(chan struct{})
		for i := 0; i < numAttempts; i++ {
			go func() {
				defer wg.Done()
				<-startCh
				if kl.TryLock("s") {
					n := holders.Add(1)
					if n > maxHolders.Load() {
						maxHolders.Store(n)
					}
					holders.Add(-1)
					kl.Unlock("s")
				}
			}()
		}
		close(startCh)
		wg.Wait()

		if maxHolders.Load() > 1 {
			t.Fatalf("TryLock allowed %d concurrent holders", maxHolders.Load())
		}
		if !kl.TryLock("s") {
			t.Fatal("lock should be available after all attempts")
		}
		kl.Unlock("s")
	})
}

func TestLockContext_Timeout(t *testing.T) {
	kl := New[string]()
	kl.Lock("s")

	err := kl.LockContext(context.Background(), "s", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.True(t, IsTimeout(err))
	assert.True(t, kl.IsLocked("s"))

	kl.Unlock("s")
	assert.False(t, kl.IsLocked("s"))
	assert.Equal(t, 0, kl.Len())
}

func TestLockContext_ParentCancelled(t *testing.T) {
	kl := New[string]()
	kl.Lock("s")
	defer kl.Unlock("s")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := kl.LockContext(ctx, "s", time.Second)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWithLockContext_RunsAndReleases(t *testing.T) {
	kl := New[int64]()
	ran := false
	err := kl.WithLockContext(context.Background(), 7, time.Second, func() error {
		ran = true
		assert.True(t, kl.IsLocked(7))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, kl.IsLocked(7))
}

func TestUnlockWithoutLockIsNoop(t *testing.T) {
	kl := New[string]()
	kl.Unlock("never")
	assert.True(t, kl.TryLock("never"))
	kl.Unlock("never")
}
