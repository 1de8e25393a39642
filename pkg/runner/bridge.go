package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jas0n325/captone-ui-sub006/internal/logging"
)

// Source identifies a push-style input channel.
type Source string

const (
	SourceScan             Source = "scan"
	SourcePayment          Source = "payment"
	SourceInput            Source = "input"
	SourceDeviceStatus     Source = "device_status"
	SourceDomain           Source = "domain"
	SourceUserNotification Source = "user_notification"
)

// Sources lists the bridge channels.
var Sources = []Source{
	SourceScan,
	SourcePayment,
	SourceInput,
	SourceDeviceStatus,
	SourceDomain,
	SourceUserNotification,
}

// ErrBridgeClosed is returned by Next once the bridge is closed.
var ErrBridgeClosed = errors.New("bridge closed")

// Message is one payload taken from a mailbox.
type Message struct {
	Source  Source
	Payload any
}

// Bridge fans the push sources into a single consumer, one mailbox per source.
// Messages are consumed in arrival order across all sources; no source has priority.
type Bridge struct {
	mu     sync.RWMutex
	boxes  map[Source]*Mailbox
	seq    atomic.Uint64
	notify chan struct{}
	closed bool
	logger *slog.Logger
}

// NewBridge creates a bridge with a fresh mailbox for every source.
func NewBridge(logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = logging.NewNop()
	}
	b := &Bridge{
		notify: make(chan struct{}, 1),
		logger: logger,
	}
	b.boxes = b.freshBoxes()
	return b
}

func (b *Bridge) freshBoxes() map[Source]*Mailbox {
	boxes := make(map[Source]*Mailbox, len(Sources))
	for _, s := range Sources {
		boxes[s] = newMailbox(s, b.notify, &b.seq)
	}
	return boxes
}

// Mailbox returns the current mailbox of source, or nil for an unknown source.
// A producer may keep it; after Reconfigure its Publish returns false.
func (b *Bridge) Mailbox(source Source) *Mailbox {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.boxes[source]
}

// Publish enqueues payload on the current mailbox of source.
func (b *Bridge) Publish(source Source, payload any) bool {
	box := b.Mailbox(source)
	if box == nil {
		return false
	}
	return box.Publish(payload)
}

// Reconfigure closes every mailbox and replaces it with a fresh one.
// Messages still queued in the old mailboxes are dropped.
func (b *Bridge) Reconfigure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for s, box := range b.boxes {
		if dropped := box.close(); dropped > 0 {
			b.logger.Debug("dropped queued messages on reconfigure", "source", s, "count", dropped)
		}
	}
	b.boxes = b.freshBoxes()
}

// Close closes every mailbox permanently and wakes the consumer.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, box := range b.boxes {
		box.close()
	}
	close(b.notify)
}

// Next blocks until a message is available, the bridge is closed or ctx is done.
func (b *Bridge) Next(ctx context.Context) (Message, error) {
	for {
		if msg, ok := b.tryNext(); ok {
			return msg, nil
		}

		b.mu.RLock()
		closed := b.closed
		b.mu.RUnlock()
		if closed {
			return Message{}, ErrBridgeClosed
		}

		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-b.notify:
		}
	}
}

func (b *Bridge) tryNext() (Message, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var (
		oldest *Mailbox
		lowest uint64
	)
	for _, s := range Sources {
		box := b.boxes[s]
		if seq, ok := box.head(); ok && (oldest == nil || seq < lowest) {
			oldest, lowest = box, seq
		}
	}
	if oldest == nil {
		return Message{}, false
	}
	v, ok := oldest.tryPop()
	if !ok {
		return Message{}, false
	}
	return Message{Source: oldest.source, Payload: v}, true
}
