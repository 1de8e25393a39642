package runner

import (
	"sync"
	"sync/atomic"
)

// Mailbox is an unbounded FIFO with a single consumer.
//
// Producers never block. Once closed, Publish returns false and queued
// messages are discarded; a Bridge replaces closed mailboxes on reconfiguration.
// Every message is stamped from a sequence shared by all mailboxes of a bridge,
// so the consumer can restore arrival order across sources.
type Mailbox struct {
	source Source
	notify chan<- struct{}
	seq    *atomic.Uint64

	mu     sync.Mutex
	items  []envelope
	closed bool
}

type envelope struct {
	seq     uint64
	payload any
}

func newMailbox(source Source, notify chan<- struct{}, seq *atomic.Uint64) *Mailbox {
	return &Mailbox{
		source: source,
		notify: notify,
		seq:    seq,
		items:  make([]envelope, 0, 16),
	}
}

// Source names the channel this mailbox serves.
func (m *Mailbox) Source() Source {
	return m.source
}

// Publish enqueues payload. It returns false if the mailbox was closed.
func (m *Mailbox) Publish(payload any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	m.items = append(m.items, envelope{seq: m.seq.Add(1), payload: payload})

	// Buffer of 1 coalesces wake-ups.
	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// head returns the sequence number of the oldest queued message.
func (m *Mailbox) head() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || len(m.items) == 0 {
		return 0, false
	}
	return m.items[0].seq, true
}

func (m *Mailbox) tryPop() (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || len(m.items) == 0 {
		return nil, false
	}
	v := m.items[0].payload
	m.items[0] = envelope{}
	if len(m.items) == 1 {
		m.items = m.items[:0]
	} else {
		m.items = m.items[1:]
	}
	return v, true
}

// Len returns the number of queued messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Mailbox) close() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0
	}
	m.closed = true
	dropped := len(m.items)
	m.items = nil
	return dropped
}
