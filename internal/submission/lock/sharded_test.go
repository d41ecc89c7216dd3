package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "intake/pkg/domain-errors"
)

func TestShardedLocker_SerializesSameKey(t *testing.T) {
	l := NewSharded()
	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Lock(context.Background(), "response-1")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestShardedLocker_ContextCancelled(t *testing.T) {
	l := NewSharded()
	release, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestShardedLocker_ReleaseIsIdempotent(t *testing.T) {
	l := NewSharded()
	release, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	release()
	release()

	again, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
}
