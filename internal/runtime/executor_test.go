package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jas0n325/captone-ui-sub006/internal/runtime"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

var terminal = domain.DeviceIdentity{DeviceID: "T01", Source: domain.SourceScanner}

type executorFixture struct {
	engine    *MockEngine
	machine   *runtime.Machine
	business  *runtime.BusinessStore
	clock     *fakeClock
	receipt   *countingReceipt
	navigator *recordingNavigator
	sink      *recordingSink
	executor  *runtime.Executor
}

func newExecutorFixture(opts ...runtime.ExecutorOption) *executorFixture {
	f := &executorFixture{
		engine:    new(MockEngine),
		machine:   runtime.NewMachine(),
		business:  runtime.NewBusinessStore(),
		clock:     newFakeClock(),
		receipt:   &countingReceipt{},
		navigator: &recordingNavigator{},
		sink:      &recordingSink{},
	}
	base := []runtime.ExecutorOption{
		runtime.WithClock(f.clock),
		runtime.WithReceiptDisplay(f.receipt),
		runtime.WithNavigator(f.navigator),
		runtime.WithTransactionNumberSink(f.sink),
		runtime.WithIDGenerator(func() string { return "corr-1" }),
	}
	f.executor = runtime.NewExecutor(f.engine, f.machine, f.business, append(base, opts...)...)
	return f
}

// establish puts the machine in a logical state as if a previous result had arrived.
func (f *executorFixture) establish(t *testing.T, ls domain.LogicalState, mode domain.Mode, values map[string]any) {
	t.Helper()
	_, err := f.machine.Apply(context.Background(), domain.Transition{LogicalState: ls})
	require.NoError(t, err)
	if mode != domain.ModeNone {
		require.NoError(t, f.machine.SetMode(context.Background(), mode))
	}
	f.business.Replace(domain.FromResult("Setup", &domain.ProcessingResult{StateValues: values, LogicalState: ls}))
}

func eventOf(eventType string) any {
	return mock.MatchedBy(func(ev domain.CanonicalEvent) bool { return ev.EventType == eventType })
}

func TestExecutor_SuccessPublishesBusinessContext(t *testing.T) {
	f := newExecutorFixture()
	f.establish(t, domain.LogicalStateNotInTransaction, domain.ModeNone, nil)

	res := &domain.ProcessingResult{
		LogicalState:    domain.LogicalStateInMerchandiseTransaction,
		PermittedEvents: []string{domain.EventItem, domain.EventVoidLineItem},
		StateValues: map[string]any{
			domain.ValueTransactionOpen:   true,
			domain.ValueTransactionNumber: float64(42),
		},
		ReceiptLines: []domain.ReceiptLine{{LineNumber: 1, Description: "Widget"}},
	}
	f.engine.On("Handle", mock.Anything, eventOf(domain.EventItem)).Return(res, nil).Once()

	got, err := f.executor.Submit(context.Background(), terminal, domain.EventItem, []domain.Input{domain.StringInput(domain.KeyItemKey, "123")})
	require.NoError(t, err)
	assert.Same(t, res, got)

	biz := f.business.Snapshot()
	assert.False(t, biz.InProgress)
	assert.True(t, biz.TransactionOpen())
	assert.Equal(t, domain.EventItem, biz.LastEventType)
	assert.Len(t, biz.ReceiptLines, 1)

	s := f.machine.Snapshot()
	assert.Equal(t, domain.LogicalStateInMerchandiseTransaction, s.LogicalState)
	assert.Equal(t, domain.ModeNone, s.Mode)
	assert.True(t, s.Permits(domain.EventVoidLineItem))
	assert.True(t, s.ScannerEnabled)

	assert.Equal(t, int64(42), f.sink.numbers["T01"])
	f.engine.AssertExpectations(t)
}

func TestExecutor_StickinessAppliesOnPlainResults(t *testing.T) {
	f := newExecutorFixture()
	f.establish(t, domain.LogicalStateNotInTransaction, domain.ModeGiftCardIssue, nil)

	f.engine.On("Handle", mock.Anything, mock.Anything).Return(&domain.ProcessingResult{
		LogicalState: domain.LogicalStateInMerchandiseTransaction,
		StateValues:  map[string]any{domain.ValueTransactionOpen: true},
	}, nil)

	_, err := f.executor.Submit(context.Background(), terminal, "IssueGiftCard", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeGiftCardIssue, f.machine.Snapshot().Mode)
}

func TestExecutor_ClosedTransactionWaitsToClear(t *testing.T) {
	f := newExecutorFixture()
	f.establish(t, domain.LogicalStateInMerchandiseTransactionReadyToClose, domain.ModeTendering,
		map[string]any{domain.ValueTransactionOpen: true})

	f.engine.On("Handle", mock.Anything, mock.Anything).Return(&domain.ProcessingResult{
		LogicalState: domain.LogicalStateNotInTransaction,
		StateValues:  map[string]any{domain.ValueTransactionClosed: true},
	}, nil)

	_, err := f.executor.Submit(context.Background(), terminal, domain.EventApplyTender, nil)
	require.NoError(t, err)

	s := f.machine.Snapshot()
	assert.Equal(t, domain.ModeWaitingToClearTransaction, s.Mode)
	assert.Equal(t, domain.LogicalStateNotInTransaction, s.LogicalState)
	assert.Equal(t, 1, f.receipt.count(), "a regular close clears immediately")
}

func TestExecutor_VoidClearsAfterDelay(t *testing.T) {
	f := newExecutorFixture()
	f.establish(t, domain.LogicalStateInMerchandiseTransaction, domain.ModeVoidTransaction,
		map[string]any{domain.ValueTransactionOpen: true})

	f.engine.On("Handle", mock.Anything, mock.Anything).Return(&domain.ProcessingResult{
		LogicalState: domain.LogicalStateNotInTransaction,
		StateValues:  map[string]any{domain.ValueTransactionClosed: true},
	}, nil)

	_, err := f.executor.Submit(context.Background(), terminal, "VoidTransaction", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeWaitingToClearTransaction, f.machine.Snapshot().Mode)

	f.clock.Advance(2999 * time.Millisecond)
	assert.Zero(t, f.receipt.count())

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, 1, f.receipt.count())
}

func TestExecutor_VoidClearSupersededByTransition(t *testing.T) {
	f := newExecutorFixture(runtime.WithVoidClearDelay(time.Second))
	f.establish(t, domain.LogicalStateInMerchandiseTransaction, domain.ModeVoidTransaction,
		map[string]any{domain.ValueTransactionOpen: true})

	f.engine.On("Handle", mock.Anything, mock.Anything).Return(&domain.ProcessingResult{
		LogicalState: domain.LogicalStateNotInTransaction,
		StateValues:  map[string]any{domain.ValueTransactionClosed: true},
	}, nil)

	_, err := f.executor.Submit(context.Background(), terminal, "VoidTransaction", nil)
	require.NoError(t, err)

	require.NoError(t, f.machine.SetMode(context.Background(), domain.ModeProductInquiry))
	f.clock.Advance(time.Second)
	assert.Zero(t, f.receipt.count())
}

func TestExecutor_FiscalTransactionSkipsClear(t *testing.T) {
	f := newExecutorFixture()
	f.establish(t, domain.LogicalStateInFiscalControlTransaction, domain.ModeNone,
		map[string]any{domain.ValueTransactionOpen: true})

	f.engine.On("Handle", mock.Anything, mock.Anything).Return(&domain.ProcessingResult{
		LogicalState: domain.LogicalStateNotInTransaction,
		StateValues:  map[string]any{domain.ValueTransactionClosed: true},
	}, nil)

	_, err := f.executor.Submit(context.Background(), terminal, "CloseFiscalDay", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeWaitingToClearTransaction, f.machine.Snapshot().Mode)
	assert.Zero(t, f.receipt.count())
}

func TestExecutor_BalanceInquiryIsNotInterrupted(t *testing.T) {
	f := newExecutorFixture()
	f.establish(t, domain.LogicalStateInMerchandiseTransaction, domain.ModeBalanceInquiry,
		map[string]any{domain.ValueTransactionOpen: true})

	f.engine.On("Handle", mock.Anything, mock.Anything).Return(&domain.ProcessingResult{
		LogicalState: domain.LogicalStateInMerchandiseTransaction,
		StateValues:  map[string]any{domain.ValueTransactionClosed: true, domain.ValueTransactionWaitingToClose: true},
	}, nil)

	_, err := f.executor.Submit(context.Background(), terminal, "BalanceInquiry", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeBalanceInquiry, f.machine.Snapshot().Mode)
}

func TestExecutor_WaitingToClose(t *testing.T) {
	f := newExecutorFixture()
	f.establish(t, domain.LogicalStateInMerchandiseTransaction, domain.ModeTendering,
		map[string]any{domain.ValueTransactionOpen: true})

	f.engine.On("Handle", mock.Anything, mock.Anything).Return(&domain.ProcessingResult{
		LogicalState: domain.LogicalStateInMerchandiseTransactionWaitingToClose,
		StateValues:  map[string]any{domain.ValueTransactionOpen: true, domain.ValueTransactionWaitingToClose: true},
	}, nil)

	_, err := f.executor.Submit(context.Background(), terminal, domain.EventApplyTender, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeWaitingToClose, f.machine.Snapshot().Mode)
}

func TestExecutor_FailureKeepsState(t *testing.T) {
	scanner := new(MockScanner)
	scanner.On("Disable", mock.Anything).Return(nil).Once()
	scanner.On("Enable", mock.Anything).Return(nil).Once()

	f := newExecutorFixture(runtime.WithScanner(scanner))
	f.establish(t, domain.LogicalStateInMerchandiseTransaction, domain.ModeProductInquiry,
		map[string]any{domain.ValueTransactionOpen: true})

	qe := &domain.QualificationError{Reason: domain.Message{Key: "item.notFound"}}
	f.engine.On("Handle", mock.Anything, mock.Anything).Return(nil, qe)

	_, err := f.executor.Submit(context.Background(), terminal, domain.EventItem, nil)
	require.Error(t, err)

	var got *domain.QualificationError
	assert.ErrorAs(t, err, &got)

	s := f.machine.Snapshot()
	assert.Equal(t, domain.ModeProductInquiry, s.Mode)
	assert.Equal(t, domain.LogicalStateInMerchandiseTransaction, s.LogicalState)
	assert.Equal(t, err, s.LastError)
	assert.True(t, s.ScannerEnabled)

	biz := f.business.Snapshot()
	assert.False(t, biz.InProgress)
	assert.Equal(t, err, biz.LastError)
	assert.True(t, biz.TransactionOpen(), "state values survive a failure")
	scanner.AssertExpectations(t)
}

func TestExecutor_SuccessClearsPreviousError(t *testing.T) {
	f := newExecutorFixture()
	f.establish(t, domain.LogicalStateInMerchandiseTransaction, domain.ModeNone,
		map[string]any{domain.ValueTransactionOpen: true})

	qe := &domain.QualificationError{Reason: domain.Message{Key: "item.notFound"}}
	f.engine.On("Handle", mock.Anything, eventOf(domain.EventItem)).Return(nil, qe).Once()
	f.engine.On("Handle", mock.Anything, eventOf(domain.EventItem)).Return(&domain.ProcessingResult{
		LogicalState: domain.LogicalStateInMerchandiseTransaction,
		StateValues:  map[string]any{domain.ValueTransactionOpen: true},
	}, nil).Once()

	_, err := f.executor.Submit(context.Background(), terminal, domain.EventItem, nil)
	require.Error(t, err)
	require.NotNil(t, f.machine.Snapshot().LastError)

	_, err = f.executor.Submit(context.Background(), terminal, domain.EventItem, nil)
	require.NoError(t, err)

	assert.Nil(t, f.business.Snapshot().LastError)
	assert.Nil(t, f.machine.Snapshot().LastError)
	f.engine.AssertExpectations(t)
}

func TestExecutor_FailureBeforeAnyResultIsFatal(t *testing.T) {
	scanner := new(MockScanner)
	scanner.On("Disable", mock.Anything).Return(nil).Once()

	var failures []*domain.SubmissionEvent
	f := newExecutorFixture(
		runtime.WithScanner(scanner),
		runtime.WithExecutorHooks(domain.LifecycleHooks{
			OnFailure: func(_ context.Context, e *domain.SubmissionEvent) { failures = append(failures, e) },
		}),
	)
	f.engine.On("Handle", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := f.executor.Submit(context.Background(), terminal, "SignOn", nil)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeUI, domain.ErrorCode(err))

	s := f.machine.Snapshot()
	assert.Equal(t, domain.ModeFatalError, s.Mode)
	assert.False(t, s.ScannerEnabled, "scanner stays off in fatal error")
	assert.True(t, f.machine.Terminal())

	require.Len(t, failures, 1)
	assert.True(t, failures[0].Fatal)
	assert.Equal(t, "corr-1", failures[0].CorrelationID)
	scanner.AssertExpectations(t)
}

func TestExecutor_RecoveryNavigation(t *testing.T) {
	f := newExecutorFixture(runtime.WithRecoveryCodes("SSF_TRANSACTION_VOID_FAILED"))
	f.establish(t, domain.LogicalStateInMerchandiseTransaction, domain.ModeNone, nil)

	f.engine.On("Handle", mock.Anything, eventOf("VoidTransaction")).
		Return(nil, &domain.BusinessError{Code: "SSF_TRANSACTION_VOID_FAILED"}).Once()
	f.engine.On("Handle", mock.Anything, eventOf(domain.EventItem)).
		Return(nil, &domain.BusinessError{Code: "ITEM_BLOCKED"}).Once()

	_, err := f.executor.Submit(context.Background(), terminal, "VoidTransaction", nil)
	require.Error(t, err)
	assert.Equal(t, []ports.Screen{ports.ScreenRecovery}, f.navigator.screens)

	_, err = f.executor.Submit(context.Background(), terminal, domain.EventItem, nil)
	require.Error(t, err)
	assert.Len(t, f.navigator.screens, 1)
}

func TestExecutor_NilResultIsFailure(t *testing.T) {
	f := newExecutorFixture()
	f.establish(t, domain.LogicalStateNotInTransaction, domain.ModeNone, nil)
	f.engine.On("Handle", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := f.executor.Submit(context.Background(), terminal, domain.EventItem, nil)
	require.Error(t, err)
	assert.Equal(t, domain.ModeNone, f.machine.Snapshot().Mode)
}

func TestExecutor_NotifierClearedBeforeSubmit(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("Clear", mock.Anything).Return().Once()

	f := newExecutorFixture(runtime.WithExecutorNotifier(notifier))
	f.establish(t, domain.LogicalStateNotInTransaction, domain.ModeNone, nil)
	f.engine.On("Handle", mock.Anything, mock.Anything).Return(&domain.ProcessingResult{
		LogicalState: domain.LogicalStateNotInTransaction,
	}, nil)

	_, err := f.executor.Submit(context.Background(), terminal, "NoSale", nil)
	require.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, "INFO", runtime.Severity(&domain.QualificationError{}).String())
	assert.Equal(t, "WARN", runtime.Severity(&domain.BusinessError{Code: "X"}).String())
	assert.Equal(t, "ERROR", runtime.Severity(domain.Normalize(errors.New("boom"))).String())
}

func TestRedactor_Inputs(t *testing.T) {
	r, err := runtime.NewRedactor(runtime.DefaultRedactPatterns)
	require.NoError(t, err)

	in := []domain.Input{
		domain.StringInput(domain.KeyEmailAddress, "jo@example.com"),
		domain.StringInput(domain.KeyItemKey, "123"),
		{Key: domain.KeyAuthorizationResponse, Value: map[string]any{"card": "4111"}},
	}
	out := r.Inputs(in)
	assert.Equal(t, "***", out[0].Value)
	assert.Equal(t, "123", out[1].Value)
	assert.Equal(t, "***", out[2].Value)
	assert.Equal(t, "jo@example.com", in[0].Value, "original inputs are untouched")

	_, err = runtime.NewRedactor([]string{"("})
	assert.Error(t, err)
}
