package runtime

import (
	"sync"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// BusinessStore holds the BusinessContext. The executor is its only writer and every
// write replaces the context wholesale.
type BusinessStore struct {
	mu  sync.RWMutex
	ctx domain.BusinessContext
}

func NewBusinessStore() *BusinessStore {
	return &BusinessStore{ctx: domain.NewBusinessContext()}
}

// Snapshot returns a copy of the current business context.
func (s *BusinessStore) Snapshot() domain.BusinessContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.Clone()
}

// InProgress reports whether a submission is outstanding.
func (s *BusinessStore) InProgress() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.InProgress
}

// Begin marks a submission of eventType as in flight.
func (s *BusinessStore) Begin(eventType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.ctx.Clone()
	next.InProgress = true
	next.LastEventType = eventType
	next.LastError = nil
	s.ctx = next
}

// Replace installs the context built from a successful result.
func (s *BusinessStore) Replace(bc domain.BusinessContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = bc.Clone()
}

// Fail ends the in-flight submission with err. Prior state values are kept.
func (s *BusinessStore) Fail(eventType string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.ctx.Clone()
	next.InProgress = false
	next.LastEventType = eventType
	next.LastError = err
	s.ctx = next
}
