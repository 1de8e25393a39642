package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jas0n325/captone-ui-sub006/internal/logging"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// Machine is the interaction mode state machine.
// It is the only writer of the InteractionState; readers get clones via Snapshot.
type Machine struct {
	mu         sync.RWMutex
	state      domain.InteractionState
	generation uint64

	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithMachineLogger sets the logger used for transition logs.
func WithMachineLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMachineHooks registers observability hooks.
func WithMachineHooks(hooks domain.LifecycleHooks) MachineOption {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// NewMachine creates a machine in the process-start state: logical state undefined, no mode.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{
		state:  domain.NewInteractionState(),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns a copy of the current interaction state.
func (m *Machine) Snapshot() domain.InteractionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// Generation increases on every mode or logical state change.
// Delayed effects compare it to detect that they were superseded.
func (m *Machine) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// Terminal reports whether the FatalError mode was entered.
func (m *Machine) Terminal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Mode == domain.ModeFatalError
}

// SetMode performs a mode-only transition. The logical state is left untouched.
func (m *Machine) SetMode(ctx context.Context, mode domain.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}
	if mode == domain.ModeFatalError {
		return fmt.Errorf("%w: FatalError is only entered through a failed submission", domain.ErrInvalidMode)
	}

	m.mu.Lock()
	if m.state.Mode == domain.ModeFatalError {
		m.mu.Unlock()
		return domain.ErrTerminal
	}
	from := m.state.Clone()
	m.state.Mode = mode
	m.generation++
	to := m.state.Clone()
	m.mu.Unlock()

	m.emit(ctx, from, to)
	return nil
}

// Apply performs a paired transition and clears the last error. When t.Mode is nil the
// stickiness rule picks the next mode.
// A transition into an undefined logical state is terminal.
func (m *Machine) Apply(ctx context.Context, t domain.Transition) (domain.InteractionState, error) {
	m.mu.Lock()
	if m.state.Mode == domain.ModeFatalError {
		snapshot := m.state.Clone()
		m.mu.Unlock()
		return snapshot, domain.ErrTerminal
	}

	if !t.LogicalState.Defined() {
		cause := m.state.LastError
		if cause == nil {
			cause = fmt.Errorf("transition to an undefined logical state")
		}
		m.mu.Unlock()
		return m.Fatal(ctx, cause), nil
	}

	from := m.state.Clone()
	next := NextMode(from.LogicalState, from.Mode, t.LogicalState)
	if t.Mode != nil {
		next = *t.Mode
	}

	m.state.LogicalState = t.LogicalState
	m.state.PermittedEvents = make(map[string]struct{}, len(t.PermittedEvents))
	for ev := range t.PermittedEvents {
		m.state.PermittedEvents[ev] = struct{}{}
	}
	m.state.Mode = next
	m.state.LastError = nil
	m.generation++
	to := m.state.Clone()
	m.mu.Unlock()

	m.emit(ctx, from, to)
	return to, nil
}

// Fatal enters the terminal FatalError mode with err attached.
// Only a process restart leaves it.
func (m *Machine) Fatal(ctx context.Context, err error) domain.InteractionState {
	m.mu.Lock()
	from := m.state.Clone()
	m.state.Mode = domain.ModeFatalError
	m.state.LastError = err
	m.generation++
	to := m.state.Clone()
	m.mu.Unlock()

	m.logger.Error("interaction entered fatal error mode", "err", err, "logical_state", from.LogicalState, "previous_mode", from.Mode)
	m.emit(ctx, from, to)
	return to
}

// SetLastError records the last submission error without changing mode or logical state.
func (m *Machine) SetLastError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastError = err
}

// SetScannerEnabled updates the scanner flag.
func (m *Machine) SetScannerEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ScannerEnabled = enabled
}

// SetScrolling updates the scrolling flag.
func (m *Machine) SetScrolling(scrolling bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsScrolling = scrolling
}

func (m *Machine) emit(ctx context.Context, from, to domain.InteractionState) {
	m.logger.Debug("interaction transition",
		"from_state", from.LogicalState,
		"from_mode", from.Mode,
		"to_state", to.LogicalState,
		"to_mode", to.Mode,
	)
	if m.hooks.OnTransition != nil {
		m.hooks.OnTransition(ctx, &domain.TransitionEvent{
			EventBase: domain.EventBase{Timestamp: m.now(), Type: domain.EventModeChange},
			From:      from,
			To:        to,
		})
	}
}

// NextMode applies the stickiness rule: the old mode survives the logical state change
// only for the listed pairs, otherwise it resets to ModeNone.
func NextMode(oldState domain.LogicalState, oldMode domain.Mode, newState domain.LogicalState) domain.Mode {
	if preservesMode(oldState, oldMode, newState) {
		return oldMode
	}
	return domain.ModeNone
}

func preservesMode(oldState domain.LogicalState, oldMode domain.Mode, newState domain.LogicalState) bool {
	switch oldMode {
	case domain.ModeSearchPostVoidableTransaction, domain.ModeWaitingForInput:
		return true
	}

	if oldState == newState {
		return true
	}

	switch oldState {
	case domain.LogicalStateNotInTransaction:
		switch newState {
		case domain.LogicalStateInTenderControlTransactionWaiting:
			return true
		case domain.LogicalStateInMerchandiseTransaction:
			return oldMode == domain.ModeGiftCardIssue
		}
	case domain.LogicalStateInTenderControlTransactionWaiting:
		return newState == domain.LogicalStateInTenderControlTransactionWaitingToClose
	case domain.LogicalStateInMerchandiseTransaction:
		return newState == domain.LogicalStateInMerchandiseTransactionWaiting
	case domain.LogicalStateInMerchandiseTransactionWaiting:
		return newState == domain.LogicalStateInMerchandiseTransaction
	case domain.LogicalStateInMerchandiseTransactionWaitingToClose:
		return newState == domain.LogicalStateInMerchandiseTransactionReadyToClose
	case domain.LogicalStateInMerchandiseTransactionReadyToClose:
		return newState == domain.LogicalStateInMerchandiseTransactionWaitingToClose
	}
	return false
}
