package pos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jas0n325/captone-ui-sub006/internal/config"
	"github.com/jas0n325/captone-ui-sub006/internal/logging"
	"github.com/jas0n325/captone-ui-sub006/internal/runtime"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

// Engine is the high-level entry point of the POS interaction core.
// It owns the interaction state machine and the business context and wires
// the resolver and executor to the host's devices and collaborators.
type Engine struct {
	machine  *runtime.Machine
	business *runtime.BusinessStore
	resolver *runtime.Resolver
	executor *runtime.Executor

	domain     ports.DomainEngine
	classifier ports.Classifier
	numbers    runtime.TransactionNumberSink
	notifier   ports.Notifier
	navigator  ports.Navigator
	scanner    ports.Scanner
	receipt    ports.ReceiptDisplay
	local      ports.LocalActionHandler
	clock      runtime.Clock

	cfg    config.Config
	hooks  domain.LifecycleHooks
	logger *slog.Logger

	// mu serializes submissions so at most one canonical event is in flight.
	mu sync.Mutex
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls accumulate.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithClassifier sets the data-entry classifier. Without one every scanned or
// keyed entry in the Normal context is unrecognized.
func WithClassifier(c ports.Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithSettings sets where transaction numbers are propagated (usually a *settings.Manager).
func WithSettings(sink runtime.TransactionNumberSink) Option {
	return func(e *Engine) {
		e.numbers = sink
	}
}

// WithNotifier sets where user notifications are shown.
func WithNotifier(n ports.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithNavigator sets the navigator used for recovery screens.
func WithNavigator(n ports.Navigator) Option {
	return func(e *Engine) {
		e.navigator = n
	}
}

// WithScanner sets the scanner the engine disables during submissions.
func WithScanner(s ports.Scanner) Option {
	return func(e *Engine) {
		e.scanner = s
	}
}

// WithReceipt sets the receipt display cleared when a transaction closes.
func WithReceipt(r ports.ReceiptDisplay) Option {
	return func(e *Engine) {
		e.receipt = r
	}
}

// WithLocalActionHandler receives the local actions disambiguation decides on.
func WithLocalActionHandler(h ports.LocalActionHandler) Option {
	return func(e *Engine) {
		e.local = h
	}
}

// WithConfig replaces the default terminal configuration.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithClock replaces the wall clock (receipt-clear timer, event timestamps).
func WithClock(c runtime.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an engine in front of the domain engine. A nil domain engine is
// accepted; submissions then fail with domain.ErrNotConfigured.
func New(engine ports.DomainEngine, opts ...Option) (*Engine, error) {
	eng := &Engine{
		domain: engine,
		cfg:    config.Defaults(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	eng.logger = eng.logger.With("terminal_id", eng.cfg.Terminal.ID)
	if eng.clock == nil {
		eng.clock = runtime.SystemClock{}
	}

	if err := eng.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	patterns := eng.cfg.Errors.RedactKeys
	if len(patterns) == 0 {
		patterns = runtime.DefaultRedactPatterns
	}
	redactor, err := runtime.NewRedactor(patterns)
	if err != nil {
		return nil, fmt.Errorf("invalid redact pattern: %w", err)
	}

	eng.machine = runtime.NewMachine(
		runtime.WithMachineLogger(eng.logger),
		runtime.WithMachineHooks(eng.hooks),
	)
	eng.business = runtime.NewBusinessStore()
	eng.resolver = runtime.NewResolver(eng.classifier,
		runtime.ResolverConfig{
			DeviceID:                   eng.cfg.Terminal.ID,
			Unattended:                 eng.cfg.Terminal.Unattended,
			CustomerRequiredForReturns: eng.cfg.Returns.CustomerRequired,
			ReferencePattern:           eng.cfg.ReferenceRegexp(),
			SearchLimit:                eng.cfg.Search.DefaultLimit,
		},
		runtime.WithResolverLogger(eng.logger),
		runtime.WithResolverHooks(eng.hooks),
		runtime.WithNotifier(eng.notifier),
	)

	if engine != nil {
		eng.executor = runtime.NewExecutor(engine, eng.machine, eng.business,
			runtime.WithExecutorLogger(eng.logger),
			runtime.WithExecutorHooks(eng.hooks),
			runtime.WithScanner(eng.scanner),
			runtime.WithExecutorNotifier(eng.notifier),
			runtime.WithNavigator(eng.navigator),
			runtime.WithReceiptDisplay(eng.receipt),
			runtime.WithTransactionNumberSink(eng.numbers),
			runtime.WithClock(eng.clock),
			runtime.WithVoidClearDelay(eng.cfg.Receipt.VoidClearDelay),
			runtime.WithRecoveryCodes(eng.cfg.Errors.RecoveryCodes...),
			runtime.WithRedactor(redactor),
		)
	}
	return eng, nil
}

// Start submits the configured start event to establish the first logical state.
// A failure here leaves the logical state undefined, which is fatal.
func (e *Engine) Start(ctx context.Context) error {
	_, err := e.Submit(ctx, e.cfg.Domain.StartEvent)
	return err
}

// HandleInput disambiguates a raw input event in the current local context and
// carries out the outcome: a submission, a local action, or nothing for a rejection.
//
// The returned error is the submission (or local action) failure. Rejections are
// not errors; their business error, if any, is in Outcome.Err.
func (e *Engine) HandleInput(ctx context.Context, raw domain.RawInputEvent) (domain.Outcome, error) {
	if raw == nil {
		return domain.Outcome{}, errors.New("nil input event")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.resolver.Resolve(ctx, e.machine.Snapshot(), e.business.Snapshot(), raw)
	switch out.Kind {
	case domain.OutcomeSubmit:
		device := domain.DeviceIdentity{DeviceID: e.cfg.Terminal.ID, Source: domain.SourceOf(raw)}
		_, err := e.submit(ctx, device, out.Event.EventType, out.Event.Inputs)
		return out, err

	case domain.OutcomeLocal:
		if e.local == nil {
			e.logger.Debug("local action without handler", "kind", out.Action.Kind)
			return out, nil
		}
		if err := e.local.HandleLocal(ctx, *out.Action); err != nil {
			return out, fmt.Errorf("local action %s: %w", out.Action.Kind, err)
		}
		return out, nil
	}
	return out, nil
}

// Submit hands a canonical event straight to the domain engine, bypassing disambiguation.
func (e *Engine) Submit(ctx context.Context, eventType string, inputs ...domain.Input) (*domain.ProcessingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submit(ctx, domain.DeviceIdentity{DeviceID: e.cfg.Terminal.ID}, eventType, inputs)
}

func (e *Engine) submit(ctx context.Context, device domain.DeviceIdentity, eventType string, inputs []domain.Input) (*domain.ProcessingResult, error) {
	if e.executor == nil {
		return nil, domain.ErrNotConfigured
	}
	return e.executor.Submit(ctx, device, eventType, inputs)
}

// SetMode performs a mode-only transition.
func (e *Engine) SetMode(ctx context.Context, mode domain.Mode) error {
	return e.machine.SetMode(ctx, mode)
}

// SetScrolling records whether the active list is being scrolled.
func (e *Engine) SetScrolling(scrolling bool) {
	e.machine.SetScrolling(scrolling)
}

// InteractionState returns a snapshot of the interaction state.
func (e *Engine) InteractionState() domain.InteractionState {
	return e.machine.Snapshot()
}

// BusinessContext returns a snapshot of the business context.
func (e *Engine) BusinessContext() domain.BusinessContext {
	return e.business.Snapshot()
}

// LocalContext returns the projection disambiguation currently uses.
func (e *Engine) LocalContext() domain.LocalContext {
	return runtime.Project(e.machine.Snapshot())
}

// Notify forwards a user notification to the notifier.
func (e *Engine) Notify(ctx context.Context, n ports.Notification) {
	if e.notifier != nil {
		e.notifier.Notify(ctx, n)
	}
}

// DeviceStatus publishes a device status notification to the hooks.
func (e *Engine) DeviceStatus(ctx context.Context, payload any) {
	e.logger.Debug("device status", "payload", payload)
	if e.hooks.OnDeviceStatus != nil {
		e.hooks.OnDeviceStatus(ctx, e.notification(domain.EventDeviceStatus, "device", payload))
	}
}

// DomainNotification publishes a domain notification to the hooks.
func (e *Engine) DomainNotification(ctx context.Context, payload any) {
	e.logger.Debug("domain notification", "payload", payload)
	if e.hooks.OnDomainNotification != nil {
		e.hooks.OnDomainNotification(ctx, e.notification(domain.EventDomainNotified, "domain", payload))
	}
}

func (e *Engine) notification(t domain.EventType, source string, payload any) *domain.NotificationEvent {
	return &domain.NotificationEvent{
		EventBase: domain.EventBase{Timestamp: e.clock.Now(), Type: t},
		Source:    source,
		Payload:   payload,
	}
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() config.Config {
	return e.cfg
}
