package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "intake/pkg/platform/audit"
	"intake/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		ResponseID: "r1",
		Action:     audit.ActionFormSubmitted,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionFormSubmitted, events[0].Action)
	assert.NotEmpty(t, events[0].ID)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			ResponseID: "r1",
			Action:     audit.ActionDraftSaved,
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByResponse(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DoesNotBlock(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{Action: audit.ActionFormSubmitted})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_Timestamps(t *testing.T) {
	t.Run("sets missing timestamp", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := NewPublisher(store)

		before := time.Now()
		require.NoError(t, pub.Emit(context.Background(), audit.Event{ResponseID: "r1", Action: audit.ActionDraftSaved}))
		after := time.Now()

		events, err := pub.List(context.Background(), "r1")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.False(t, events[0].Timestamp.Before(before))
		assert.False(t, events[0].Timestamp.After(after))
	})

	t.Run("preserves existing timestamp", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := NewPublisher(store)
		custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, pub.Emit(context.Background(), audit.Event{ResponseID: "r1", Timestamp: custom}))

		events, err := pub.List(context.Background(), "r1")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, custom, events[0].Timestamp)
	})
}

func TestPublisher_CancelledContextInAsyncMode(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Emit(ctx, audit.Event{Action: audit.ActionFormSubmitted})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_CloseIsIdempotent(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(4))
	pub.Close()
	pub.Close()
}
