package runtime_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

// stubClassifier maps exact raw text to classifications. Anything else is unclassified.
type stubClassifier map[string]ports.Classification

func (s stubClassifier) Classify(_ context.Context, rawText, _ string, opts *ports.ClassifyOptions) (ports.Classification, error) {
	cls, ok := s[rawText]
	if !ok {
		return ports.Classification{}, domain.ErrUnclassified
	}
	if opts != nil && len(opts.AllowedEvents) > 0 {
		for _, allowed := range opts.AllowedEvents {
			if allowed == cls.EventType {
				return cls, nil
			}
		}
		return ports.Classification{}, domain.ErrUnclassified
	}
	return cls, nil
}

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Handle(ctx context.Context, event domain.CanonicalEvent) (*domain.ProcessingResult, error) {
	args := m.Called(ctx, event)
	res, _ := args.Get(0).(*domain.ProcessingResult)
	return res, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n ports.Notification) {
	m.Called(ctx, n)
}

func (m *MockNotifier) Clear(ctx context.Context) {
	m.Called(ctx)
}

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Enable(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockScanner) Disable(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type recordingNavigator struct {
	mu      sync.Mutex
	screens []ports.Screen
}

func (n *recordingNavigator) Navigate(_ context.Context, screen ports.Screen, _ error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.screens = append(n.screens, screen)
}

type countingReceipt struct {
	mu      sync.Mutex
	cleared int
}

func (r *countingReceipt) ClearReceipt(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
}

func (r *countingReceipt) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cleared
}

type recordingSink struct {
	mu      sync.Mutex
	numbers map[string]int64
}

func (s *recordingSink) PropagateTransactionNumber(_ context.Context, terminalID string, n int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.numbers == nil {
		s.numbers = make(map[string]int64)
	}
	s.numbers[terminalID] = n
	return nil
}

// fakeClock runs AfterFunc callbacks only when Advance moves past their deadline.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []timer
}

type timer struct {
	at time.Time
	f  func()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, timer{at: c.now.Add(d), f: f})
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due, rest []timer
	for _, t := range c.pending {
		if !t.at.After(c.now) {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	c.pending = rest
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}
