package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/jas0n325/captone-ui-sub006/internal/dto"
	"github.com/jas0n325/captone-ui-sub006/internal/logging"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// Stream topics published on /events.
const (
	TopicState        = "state"
	TopicSubmission   = "submission"
	TopicReject       = "reject"
	TopicNotification = "notification"
)

// streamBuffer is how many messages a slow subscriber may lag behind before drops.
const streamBuffer = 32

// StreamMessage is one server-sent event.
type StreamMessage struct {
	Topic string
	Data  string
}

// StreamManager fans engine lifecycle events out to the active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan StreamMessage]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[chan StreamMessage]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a subscriber. The returned cancel func closes the channel.
func (sm *StreamManager) Subscribe() (<-chan StreamMessage, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan StreamMessage, streamBuffer)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscribers.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast sends v, JSON encoded, to every subscriber. Full subscribers miss the message.
func (sm *StreamManager) Broadcast(topic string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Warn("failed to encode stream message", "topic", topic, "err", err)
		return
	}
	msg := StreamMessage{Topic: topic, Data: string(data)}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("sse client buffer full, dropping message", "topic", topic)
		}
	}
}

type submissionView struct {
	Type          domain.EventType    `json:"type"`
	EventType     string              `json:"eventType"`
	CorrelationID string              `json:"correlationId"`
	LogicalState  domain.LogicalState `json:"logicalState"`
	Mode          domain.Mode         `json:"mode,omitempty"`
	DurationMS    int64               `json:"durationMs"`
	Fatal         bool                `json:"fatal,omitempty"`
	Error         *dto.Error          `json:"error,omitempty"`
}

func newSubmissionView(e *domain.SubmissionEvent) submissionView {
	return submissionView{
		Type:          e.Type,
		EventType:     e.EventType,
		CorrelationID: e.CorrelationID,
		LogicalState:  e.LogicalState,
		Mode:          e.Mode,
		DurationMS:    e.Duration.Milliseconds(),
		Fatal:         e.Fatal,
		Error:         dto.NewError(e.Err),
	}
}

// Hooks publishes transitions, submission results, rejections and notifications.
// Pass them to the engine so screens watching /events follow the terminal.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			sm.Broadcast(TopicState, dto.NewState(e.To))
		},
		OnResult: func(_ context.Context, e *domain.SubmissionEvent) {
			sm.Broadcast(TopicSubmission, newSubmissionView(e))
		},
		OnFailure: func(_ context.Context, e *domain.SubmissionEvent) {
			sm.Broadcast(TopicSubmission, newSubmissionView(e))
		},
		OnReject: func(_ context.Context, e *domain.RejectEvent) {
			sm.Broadcast(TopicReject, e)
		},
		OnDeviceStatus: func(_ context.Context, e *domain.NotificationEvent) {
			sm.Broadcast(TopicNotification, e)
		},
		OnDomainNotification: func(_ context.Context, e *domain.NotificationEvent) {
			sm.Broadcast(TopicNotification, e)
		},
	}
}
