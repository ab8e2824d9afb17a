package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendToCoreOpensCircuitWhenFull(t *testing.T) {
	eb := NewEventBus()
	var reported []EventBusError
	eb.SetErrorCallback(func(err EventBusError) { reported = append(reported, err) })

	for i := 0; i < cap(eb.uiToCore); i++ {
		require.NoError(t, eb.SendToCore(SendMessageEvent{Message: "hi"}))
	}
	for i := 0; i < 5; i++ {
		require.ErrorIs(t, eb.SendToCore(ResetEvent{}), ErrChannelFull)
	}
	require.Equal(t, CircuitOpen, eb.GetCircuitBreakerState())
	require.ErrorIs(t, eb.SendToCore(ResetEvent{}), ErrCircuitOpen)
	require.Len(t, reported, 6)
	require.ErrorIs(t, reported[0], ErrChannelFull)
}

func TestCircuitBreakerRecovers(t *testing.T) {
	cb := NewCircuitBreaker(2, 10*time.Millisecond)
	cb.RecordFailure()
	require.False(t, cb.IsOpen())
	cb.RecordFailure()
	require.True(t, cb.IsOpen())

	time.Sleep(20 * time.Millisecond)
	require.False(t, cb.IsOpen())
	require.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordSuccess()
	require.Equal(t, CircuitClosed, cb.State())
}

func TestPublishToUIBlocksUntilContextEnds(t *testing.T) {
	eb := NewEventBus()
	for i := 0; i < cap(eb.coreToUI); i++ {
		require.NoError(t, eb.PublishToUI(context.Background(), StateUpdateEvent{}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, eb.PublishToUI(ctx, StateUpdateEvent{}), context.DeadlineExceeded)

	eb.Close()
	eb.Close()
	require.ErrorIs(t, eb.PublishToUI(context.Background(), StateUpdateEvent{}), ErrClosed)
	require.ErrorIs(t, eb.SendToCore(ResetEvent{}), ErrClosed)
}
