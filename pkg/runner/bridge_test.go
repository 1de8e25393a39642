package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridge_FIFOPerSource(t *testing.T) {
	b := NewBridge(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, b.Publish(SourceScan, i))
	}

	for i := 0; i < 3; i++ {
		msg, err := b.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, SourceScan, msg.Source)
		assert.Equal(t, i, msg.Payload)
	}
}

func TestBridge_ConsumesInArrivalOrder(t *testing.T) {
	b := NewBridge(nil)
	ctx := context.Background()

	b.Publish(SourceUserNotification, "n1")
	b.Publish(SourcePayment, "p1")
	b.Publish(SourceScan, "s1")
	b.Publish(SourcePayment, "p2")
	b.Publish(SourceInput, "i1")
	b.Publish(SourceScan, "s2")

	var got []any
	for i := 0; i < 6; i++ {
		msg, err := b.Next(ctx)
		require.NoError(t, err)
		got = append(got, msg.Payload)
	}
	assert.Equal(t, []any{"n1", "p1", "s1", "p2", "i1", "s2"}, got)
}

func TestBridge_ScansDoNotStarvePayments(t *testing.T) {
	b := NewBridge(nil)
	ctx := context.Background()

	require.True(t, b.Publish(SourceScan, "s0"))
	require.True(t, b.Publish(SourcePayment, "auth"))

	msg, err := b.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceScan, msg.Source)

	// Scans keep arriving, the earlier payment is still served next.
	for i := 1; i <= 3; i++ {
		require.True(t, b.Publish(SourceScan, i))
	}
	msg, err = b.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourcePayment, msg.Source)
	assert.Equal(t, "auth", msg.Payload)
}

func TestBridge_NextBlocksUntilPublish(t *testing.T) {
	b := NewBridge(nil)
	done := make(chan Message, 1)

	go func() {
		msg, err := b.Next(context.Background())
		if err == nil {
			done <- msg
		}
	}()

	time.Sleep(20 * time.Millisecond)
	b.Publish(SourcePayment, "auth")

	select {
	case msg := <-done:
		assert.Equal(t, SourcePayment, msg.Source)
	case <-time.After(time.Second):
		t.Fatal("Next did not wake up")
	}
}

func TestBridge_NextHonoursContext(t *testing.T) {
	b := NewBridge(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBridge_ReconfigureClosesAndReplaces(t *testing.T) {
	b := NewBridge(nil)
	stale := b.Mailbox(SourceScan)
	require.True(t, stale.Publish("queued"))

	b.Reconfigure()

	assert.False(t, stale.Publish("late"), "producers holding an old mailbox are told it is closed")
	fresh := b.Mailbox(SourceScan)
	assert.NotSame(t, stale, fresh)
	assert.Zero(t, fresh.Len(), "queued messages are dropped")

	require.True(t, b.Publish(SourceScan, "new"))
	msg, err := b.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", msg.Payload)
}

func TestBridge_Close(t *testing.T) {
	b := NewBridge(nil)
	b.Close()
	b.Close()

	assert.False(t, b.Publish(SourceScan, "x"))
	_, err := b.Next(context.Background())
	assert.ErrorIs(t, err, ErrBridgeClosed)

	b.Reconfigure()
	assert.False(t, b.Publish(SourceScan, "x"), "reconfigure does not reopen a closed bridge")
}

func TestBridge_UnknownSource(t *testing.T) {
	b := NewBridge(nil)
	assert.Nil(t, b.Mailbox("telepathy"))
	assert.False(t, b.Publish("telepathy", "x"))
}

func TestBridge_ConcurrentProducers(t *testing.T) {
	b := NewBridge(nil)
	const producers, each = 8, 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				b.Publish(SourceScan, i)
			}
		}()
	}
	wg.Wait()

	ctx := context.Background()
	for i := 0; i < producers*each; i++ {
		_, err := b.Next(ctx)
		require.NoError(t, err)
	}
	assert.Zero(t, b.Mailbox(SourceScan).Len())
}
