package lock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	var counter int64
	var wg sync.WaitGroup
	const n = 50
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			unlock := k.Lock("doc-1")
			defer unlock()
			cur := atomic.AddInt64(&counter, 1)
			time.Sleep(time.Microsecond)
			assert.Equal(t, int64(1), atomic.LoadInt64(&counter))
			atomic.AddInt64(&counter, -1)
			_ = cur
		}()
	}
	wg.Wait()
}

func TestKeyedMutexDifferentKeysAreIndependent(t *testing.T) {
	k := NewKeyedMutex()
	unlockA := k.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("b")
		defer unlockB()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on key b blocked by lock on key a")
	}
	unlockA()
}

func TestKeyedMutexGarbageCollectsEntries(t *testing.T) {
	k := NewKeyedMutex()
	unlock := k.Lock("x")
	unlock()
	k.mapMu.Lock()
	_, exists := k.locks["x"]
	k.mapMu.Unlock()
	assert.False(t, exists)
}
