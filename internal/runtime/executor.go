package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jas0n325/captone-ui-sub006/internal/logging"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

// DefaultVoidClearDelay is how long a voided receipt stays visible before it is cleared.
const DefaultVoidClearDelay = 3000 * time.Millisecond

// TransactionNumberSink persists the last transaction number a terminal used.
type TransactionNumberSink interface {
	PropagateTransactionNumber(ctx context.Context, terminalID string, n int64) error
}

// Executor submits canonical events to the domain engine and applies the results to
// the business context and the interaction state.
type Executor struct {
	engine   ports.DomainEngine
	machine  *Machine
	business *BusinessStore

	scanner   ports.Scanner
	notifier  ports.Notifier
	navigator ports.Navigator
	receipt   ports.ReceiptDisplay
	numbers   TransactionNumberSink

	clock          Clock
	newID          func() string
	voidClearDelay time.Duration
	recoveryCodes  []string
	redactor       *Redactor

	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorLogger sets the logger used for submission logs.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(x *Executor) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// WithExecutorHooks registers hooks notified of submissions, results and failures.
func WithExecutorHooks(hooks domain.LifecycleHooks) ExecutorOption {
	return func(x *Executor) {
		x.hooks = hooks
	}
}

// WithScanner sets the scanner disabled while a submission is in flight.
func WithScanner(s ports.Scanner) ExecutorOption {
	return func(x *Executor) { x.scanner = s }
}

// WithExecutorNotifier sets the notifier cleared before each submission.
func WithExecutorNotifier(n ports.Notifier) ExecutorOption {
	return func(x *Executor) { x.notifier = n }
}

// WithNavigator sets the navigator used for recovery screens.
func WithNavigator(n ports.Navigator) ExecutorOption {
	return func(x *Executor) { x.navigator = n }
}

// WithReceiptDisplay sets the display cleared once a transaction closes.
func WithReceiptDisplay(r ports.ReceiptDisplay) ExecutorOption {
	return func(x *Executor) { x.receipt = r }
}

// WithTransactionNumberSink persists transaction numbers reported by results.
func WithTransactionNumberSink(s TransactionNumberSink) ExecutorOption {
	return func(x *Executor) { x.numbers = s }
}

// WithClock replaces the wall clock used for the delayed receipt clear.
func WithClock(c Clock) ExecutorOption {
	return func(x *Executor) {
		if c != nil {
			x.clock = c
		}
	}
}

// WithIDGenerator overrides correlation ID generation.
func WithIDGenerator(f func() string) ExecutorOption {
	return func(x *Executor) {
		if f != nil {
			x.newID = f
		}
	}
}

// WithVoidClearDelay overrides DefaultVoidClearDelay.
func WithVoidClearDelay(d time.Duration) ExecutorOption {
	return func(x *Executor) { x.voidClearDelay = d }
}

// WithRecoveryCodes lists the business error codes that navigate to the recovery screen.
func WithRecoveryCodes(codes ...string) ExecutorOption {
	return func(x *Executor) { x.recoveryCodes = codes }
}

// WithRedactor masks sensitive inputs in submission logs.
func WithRedactor(r *Redactor) ExecutorOption {
	return func(x *Executor) { x.redactor = r }
}

// NewExecutor wires an executor to the domain engine and the two stores it writes.
func NewExecutor(engine ports.DomainEngine, machine *Machine, business *BusinessStore, opts ...ExecutorOption) *Executor {
	x := &Executor{
		engine:         engine,
		machine:        machine,
		business:       business,
		clock:          SystemClock{},
		newID:          newCorrelationID,
		voidClearDelay: DefaultVoidClearDelay,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func newCorrelationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Submit hands a canonical event to the domain engine.
//
// On success the result replaces the business context, the transaction number is
// propagated and the interaction state follows the result. On failure the error is
// normalized, stored as lastError and returned; the interaction state only changes when
// no logical state was ever established, which is terminal.
func (x *Executor) Submit(ctx context.Context, device domain.DeviceIdentity, eventType string, inputs []domain.Input) (*domain.ProcessingResult, error) {
	event := domain.NewEvent(eventType, inputs...)
	before := x.machine.Snapshot()
	prev := x.business.Snapshot()

	correlationID := x.newID()
	logger := x.logger.With(
		"correlation_id", correlationID,
		"event_type", eventType,
		"device_id", device.DeviceID,
	)

	x.disableScanner(ctx, logger)
	if x.notifier != nil {
		x.notifier.Clear(ctx)
	}
	x.business.Begin(eventType)

	logger.Debug("submitting business event",
		"inputs", x.redactor.Inputs(inputs),
		"logical_state", before.LogicalState,
		"mode", before.Mode,
	)
	x.emit(ctx, x.hooks.OnSubmit, x.submissionEvent(domain.EventSubmit, correlationID, event, device, before, 0, nil, false))

	start := x.clock.Now()
	res, err := x.engine.Handle(ctx, event)
	elapsed := x.clock.Now().Sub(start)
	if err == nil && res == nil {
		err = fmt.Errorf("domain engine returned no result for %s", eventType)
	}
	if err != nil {
		return nil, x.fail(ctx, logger, correlationID, event, device, elapsed, err)
	}

	after := x.applyResult(ctx, logger, device, event, before, prev, res)
	x.enableScanner(ctx, logger)

	logger.Info("business event handled",
		"logical_state", after.LogicalState,
		"mode", after.Mode,
		"duration", elapsed,
	)
	x.emit(ctx, x.hooks.OnResult, x.submissionEvent(domain.EventResult, correlationID, event, device, after, elapsed, nil, false))
	return res, nil
}

func (x *Executor) applyResult(ctx context.Context, logger *slog.Logger, device domain.DeviceIdentity, event domain.CanonicalEvent, before domain.InteractionState, prev domain.BusinessContext, res *domain.ProcessingResult) domain.InteractionState {
	x.business.Replace(domain.FromResult(event.EventType, res))

	if n, ok := domain.TransactionNumber(res.StateValues); ok && x.numbers != nil {
		if err := x.numbers.PropagateTransactionNumber(ctx, device.DeviceID, n); err != nil {
			logger.Warn("failed to propagate transaction number", "transaction_number", n, "err", err)
		}
	}

	current := x.machine.Snapshot()
	transition := domain.Transition{
		LogicalState:    res.LogicalState,
		PermittedEvents: domain.EventSet(res.PermittedEvents...),
	}

	clearReceipt := false
	switch {
	case wasOpen(prev, before) && domain.TransactionClosed(res.StateValues) && current.Mode != domain.ModeBalanceInquiry:
		transition.Mode = domain.ModePtr(domain.ModeWaitingToClearTransaction)
		clearReceipt = before.LogicalState != domain.LogicalStateInFiscalControlTransaction &&
			res.LogicalState != domain.LogicalStateInFiscalControlTransaction
	case domain.TransactionWaitingToClose(res.StateValues) &&
		current.Mode != domain.ModeBalanceInquiry && current.Mode != domain.ModeWaitingToClose:
		transition.Mode = domain.ModePtr(domain.ModeWaitingToClose)
	}

	after, err := x.machine.Apply(ctx, transition)
	if err != nil {
		logger.Warn("interaction transition refused", "logical_state", res.LogicalState, "err", err)
		return after
	}

	if clearReceipt {
		x.scheduleReceiptClear(ctx, logger, before.Mode == domain.ModeVoidTransaction)
	}
	return after
}

// wasOpen reports whether a transaction was open before the submission.
func wasOpen(prev domain.BusinessContext, before domain.InteractionState) bool {
	if prev.TransactionOpen() {
		return true
	}
	switch before.LogicalState {
	case domain.LogicalStateUndefined, domain.LogicalStateTerminalClosed, domain.LogicalStateNotInTransaction:
		return false
	}
	return true
}

// scheduleReceiptClear clears the receipt now, or after the void delay when a void
// closed the transaction. A delayed clear is dropped if the interaction state moved on.
func (x *Executor) scheduleReceiptClear(ctx context.Context, logger *slog.Logger, voided bool) {
	if x.receipt == nil {
		return
	}
	if !voided {
		x.receipt.ClearReceipt(ctx)
		return
	}

	gen := x.machine.Generation()
	detached := context.WithoutCancel(ctx)
	x.clock.AfterFunc(x.voidClearDelay, func() {
		if x.machine.Generation() != gen {
			logger.Debug("receipt clear superseded by a later transition")
			return
		}
		x.receipt.ClearReceipt(detached)
	})
}

func (x *Executor) fail(ctx context.Context, logger *slog.Logger, correlationID string, event domain.CanonicalEvent, device domain.DeviceIdentity, elapsed time.Duration, cause error) error {
	err := domain.Normalize(cause)
	x.business.Fail(event.EventType, err)
	x.machine.SetLastError(err)

	state := x.machine.Snapshot()
	fatal := !state.LogicalState.Defined()
	if fatal {
		state = x.machine.Fatal(ctx, err)
	}

	level := Severity(err)
	if fatal {
		level = slog.LevelError
	}
	code := domain.ErrorCode(err)
	logger.Log(ctx, level, "business event failed",
		"err", err,
		"code", code,
		"fatal", fatal,
		"duration", elapsed,
	)

	if !fatal {
		if x.navigator != nil && code != "" && slices.Contains(x.recoveryCodes, code) {
			x.navigator.Navigate(ctx, ports.ScreenRecovery, err)
		}
		x.enableScanner(ctx, logger)
	}

	x.emit(ctx, x.hooks.OnFailure, x.submissionEvent(domain.EventFailure, correlationID, event, device, state, elapsed, err, fatal))
	return err
}

func (x *Executor) disableScanner(ctx context.Context, logger *slog.Logger) {
	x.machine.SetScannerEnabled(false)
	if x.scanner == nil {
		return
	}
	if err := x.scanner.Disable(ctx); err != nil {
		logger.Warn("failed to disable scanner", "err", err)
	}
}

func (x *Executor) enableScanner(ctx context.Context, logger *slog.Logger) {
	if x.machine.Terminal() {
		return
	}
	x.machine.SetScannerEnabled(true)
	if x.scanner == nil {
		return
	}
	if err := x.scanner.Enable(ctx); err != nil {
		logger.Warn("failed to enable scanner", "err", err)
	}
}

func (x *Executor) submissionEvent(t domain.EventType, correlationID string, event domain.CanonicalEvent, device domain.DeviceIdentity, state domain.InteractionState, elapsed time.Duration, err error, fatal bool) *domain.SubmissionEvent {
	return &domain.SubmissionEvent{
		EventBase: domain.EventBase{
			Timestamp:     x.clock.Now(),
			Type:          t,
			CorrelationID: correlationID,
		},
		EventType:    event.EventType,
		DeviceID:     device.DeviceID,
		LogicalState: state.LogicalState,
		Mode:         state.Mode,
		Duration:     elapsed,
		Err:          err,
		Fatal:        fatal,
	}
}

func (x *Executor) emit(ctx context.Context, hook func(context.Context, *domain.SubmissionEvent), e *domain.SubmissionEvent) {
	if hook != nil {
		hook(ctx, e)
	}
}
