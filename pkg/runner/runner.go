package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jas0n325/captone-ui-sub006/internal/dto"
	"github.com/jas0n325/captone-ui-sub006/internal/logging"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

// Engine is the part of the POS engine the runner drives.
type Engine interface {
	HandleInput(ctx context.Context, raw domain.RawInputEvent) (domain.Outcome, error)
	DeviceStatus(ctx context.Context, payload any)
	DomainNotification(ctx context.Context, payload any)
	Notify(ctx context.Context, n ports.Notification)
	InteractionState() domain.InteractionState
	BusinessContext() domain.BusinessContext
}

// Runner is the single consumer of the bridge. It processes one message at a time,
// so at most one submission is ever in flight.
type Runner struct {
	engine  Engine
	handler IOHandler
	bridge  *Bridge
	logger  *slog.Logger
}

type Option func(*Runner)

// WithInputHandler attaches an operator console. Without one the runner only
// serves the bridge (e.g. behind the HTTP adapter).
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.handler = handler
	}
}

// WithLogger sets the logger used by the runner.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBridge shares an existing bridge with other producers.
func WithBridge(b *Bridge) Option {
	return func(r *Runner) {
		r.bridge = b
	}
}

// New creates a runner for engine.
func New(engine Engine, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.bridge == nil {
		r.bridge = NewBridge(r.logger)
	}
	return r
}

// Bridge returns the bridge producers publish to.
func (r *Runner) Bridge() *Bridge {
	return r.bridge
}

type endOfInput struct {
	err error
}

// Run consumes messages until the input handler reaches EOF, the bridge is closed
// or ctx is cancelled. Cancellation is a clean stop.
func (r *Runner) Run(ctx context.Context) error {
	if r.engine == nil {
		return domain.ErrNotConfigured
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.handler != nil {
		if err := r.output(ctx, Report{}); err != nil {
			return err
		}
		go r.pumpInput(ctx)
	}

	for {
		msg, err := r.bridge.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrBridgeClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if end, ok := msg.Payload.(endOfInput); ok {
			return end.err
		}
		if err := r.dispatch(ctx, msg); err != nil {
			return err
		}
	}
}

// pumpInput forwards operator input into the bridge so it is serialized with
// the hardware sources.
func (r *Runner) pumpInput(ctx context.Context) {
	for {
		ev, err := r.handler.Input(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				err = nil
			}
			r.bridge.Publish(SourceInput, endOfInput{err: err})
			return
		}
		if !r.bridge.Publish(SourceInput, ev) {
			return
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, msg Message) error {
	switch msg.Source {
	case SourceScan, SourcePayment, SourceInput:
		raw, err := rawEvent(msg)
		if err != nil {
			r.logger.Warn("dropping malformed input", "source", msg.Source, "err", err)
			return nil
		}
		outcome, err := r.engine.HandleInput(ctx, raw)
		return r.output(ctx, Report{Outcome: &outcome, Err: err})

	case SourceDeviceStatus:
		r.engine.DeviceStatus(ctx, msg.Payload)
		return nil

	case SourceDomain:
		r.engine.DomainNotification(ctx, msg.Payload)
		return nil

	case SourceUserNotification:
		n := notification(msg.Payload)
		r.engine.Notify(ctx, n)
		return r.output(ctx, Report{Notification: &n})
	}

	r.logger.Warn("message from unknown source", "source", msg.Source)
	return nil
}

func (r *Runner) output(ctx context.Context, report Report) error {
	if r.handler == nil {
		return nil
	}
	report.State = r.engine.InteractionState()
	report.Business = r.engine.BusinessContext()
	if err := r.handler.Output(ctx, report); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}

// rawEvent converts a bridge payload into a raw input event. Scanners may publish
// bare strings and payment devices bare authorization maps.
func rawEvent(msg Message) (domain.RawInputEvent, error) {
	var ev domain.RawInputEvent
	switch p := msg.Payload.(type) {
	case domain.RawInputEvent:
		ev = p
	case string:
		if msg.Source != SourceScan {
			return nil, fmt.Errorf("text payload on %s", msg.Source)
		}
		ev = domain.ScanData{Data: p}
	case map[string]any:
		if msg.Source == SourcePayment {
			if _, tagged := p[dto.TagKey]; !tagged {
				ev = domain.PaymentData{AuthorizationResponse: p}
				break
			}
		}
		decoded, err := dto.DecodeRawInput(p)
		if err != nil {
			return nil, err
		}
		ev = decoded
	default:
		return nil, fmt.Errorf("unsupported payload %T", msg.Payload)
	}
	return SanitizeEvent(ev)
}

func notification(payload any) ports.Notification {
	switch p := payload.(type) {
	case ports.Notification:
		return p
	case domain.Message:
		return ports.Notification{Message: p, Level: "info"}
	default:
		text := fmt.Sprint(p)
		return ports.Notification{Message: domain.Message{Key: text, Default: text}, Level: "info"}
	}
}
