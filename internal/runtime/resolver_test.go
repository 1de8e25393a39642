package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jas0n325/captone-ui-sub006/internal/runtime"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

const (
	itemCode     = "0012345678905"
	customerCard = "MBR-1001"
	historyCode  = "HIST-77"
	referenceNo  = "00012024010100001234"
)

func testClassifier() stubClassifier {
	return stubClassifier{
		itemCode: {
			EventType: domain.EventItem,
			Inputs:    []domain.Input{domain.StringInput(domain.KeyItemKey, itemCode)},
		},
		customerCard: {
			EventType: domain.EventAssignCustomer,
			Inputs:    []domain.Input{domain.StringInput(domain.KeyCustomerNumber, "1001")},
		},
		historyCode: {
			EventType: domain.EventSearchHistoricalTransactions,
			Inputs:    []domain.Input{domain.StringInput(domain.KeyReferenceNumber, "77")},
		},
		"shoes": {
			EventType: domain.EventProductSearch,
			Inputs:    []domain.Input{domain.StringInput(domain.KeySearchTerm, "running shoes")},
		},
	}
}

func stateIn(ls domain.LogicalState, mode domain.Mode) domain.InteractionState {
	s := domain.NewInteractionState()
	s.LogicalState = ls
	s.Mode = mode
	return s
}

func scan(data string) domain.ScanData {
	return domain.ScanData{Data: data}
}

func keyed(text string) domain.KeyedData {
	return domain.KeyedData{Text: text}
}

func TestProject(t *testing.T) {
	tests := []struct {
		name string
		ls   domain.LogicalState
		mode domain.Mode
		want domain.LocalContext
	}{
		{"undefined state", domain.LogicalStateUndefined, domain.ModeProductInquiry, domain.ContextUnrecognized},
		{"terminal closed", domain.LogicalStateTerminalClosed, domain.ModeNone, domain.ContextUnrecognized},
		{"idle terminal", domain.LogicalStateNotInTransaction, domain.ModeNone, domain.ContextNormal},
		{"open transaction", domain.LogicalStateInMerchandiseTransaction, domain.ModeNone, domain.ContextNormal},
		{"tender control", domain.LogicalStateInTenderControlTransaction, domain.ModeNone, domain.ContextNormal},
		{"return with transaction falls back to normal", domain.LogicalStateInMerchandiseTransaction, domain.ModeReturnWithTransaction, domain.ContextNormal},
		{"mode without context in waiting state", domain.LogicalStateInMerchandiseTransactionWaitingToClose, domain.ModeWaitingToClose, domain.ContextUnrecognized},
		{"customer search mode", domain.LogicalStateInMerchandiseTransaction, domain.ModeCustomerSearch, domain.ContextCustomerSearchScreen},
		{"return search mode", domain.LogicalStateNotInTransaction, domain.ModeReturnWithTransactionSearch, domain.ContextReturnWithTransactionSearch},
		{"till operation mode", domain.LogicalStateInTillControlTransaction, domain.ModeTillOperation, domain.ContextTillOperation},
		{"fatal error", domain.LogicalStateNotInTransaction, domain.ModeFatalError, domain.ContextUnrecognized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runtime.Project(stateIn(tt.ls, tt.mode)))
		})
	}
}

func TestProject_CoversEveryLocalContext(t *testing.T) {
	seen := make(map[domain.LocalContext]bool)
	for _, mode := range append([]domain.Mode{domain.ModeNone}, domain.Modes...) {
		for _, ls := range domain.LogicalStates {
			seen[runtime.Project(stateIn(ls, mode))] = true
		}
	}
	for _, lc := range domain.LocalContexts {
		assert.True(t, seen[lc], "local context %s is unreachable", lc)
	}
}

func TestResolver_Normal(t *testing.T) {
	ctx := context.Background()
	r := runtime.NewResolver(testClassifier(), runtime.ResolverConfig{DeviceID: "T01"})
	idle := stateIn(domain.LogicalStateNotInTransaction, domain.ModeNone)
	biz := domain.NewBusinessContext()

	t.Run("Scanned Item Is Submitted With Device Input", func(t *testing.T) {
		out := r.Resolve(ctx, idle, biz, scan(itemCode))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, domain.ContextNormal, out.Context)
		assert.Equal(t, domain.EventItem, out.Event.EventType)

		device, ok := out.Event.Input(domain.KeyDeviceID)
		require.True(t, ok)
		assert.Equal(t, "T01", device.Value)
		assert.Equal(t, domain.SourceScanner, device.Source)
	})

	t.Run("Unclassified Code Is Rejected", func(t *testing.T) {
		out := r.Resolve(ctx, idle, biz, scan("garbage"))
		assert.Equal(t, domain.OutcomeReject, out.Kind)
		assert.Equal(t, domain.ReasonUnrecognizedCode, out.Reason)
		assert.ErrorIs(t, out.Err, domain.ErrUnclassified)
	})

	t.Run("Historical Search Becomes Local Action", func(t *testing.T) {
		out := r.Resolve(ctx, idle, biz, keyed(historyCode))
		require.Equal(t, domain.OutcomeLocal, out.Kind)
		assert.Equal(t, domain.ActionHistoricalTransactionSearch, out.Action.Kind)
		require.NotNil(t, out.Action.Event)
		assert.Equal(t, domain.EventSearchHistoricalTransactions, out.Action.Event.EventType)
	})

	t.Run("Member Assignment Submitted When Attended", func(t *testing.T) {
		out := r.Resolve(ctx, idle, biz, scan(customerCard))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, domain.EventAssignCustomer, out.Event.EventType)
	})
}

func TestResolver_UnattendedMemberNotAllowed(t *testing.T) {
	r := runtime.NewResolver(testClassifier(), runtime.ResolverConfig{DeviceID: "K01", Unattended: true})
	out := r.Resolve(context.Background(), stateIn(domain.LogicalStateNotInTransaction, domain.ModeNone), domain.NewBusinessContext(), scan(customerCard))

	require.Equal(t, domain.OutcomeReject, out.Kind)
	assert.Equal(t, domain.ReasonMemberNotAllowed, out.Reason)
	assert.Equal(t, "MEMBER_NOT_ALLOWED", domain.ErrorCode(out.Err))
}

func TestResolver_ReturnGuard(t *testing.T) {
	ctx := context.Background()
	returning := stateIn(domain.LogicalStateInMerchandiseTransaction, domain.ModeReturnWithTransaction)

	t.Run("Customer Required And Missing", func(t *testing.T) {
		notifier := new(MockNotifier)
		notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n ports.Notification) bool {
			return n.Message.Key == runtime.CustomerRequiredMessage.Key
		})).Return().Once()

		r := runtime.NewResolver(testClassifier(), runtime.ResolverConfig{CustomerRequiredForReturns: true}, runtime.WithNotifier(notifier))
		out := r.Resolve(ctx, returning, domain.NewBusinessContext(), scan(itemCode))

		assert.Equal(t, domain.OutcomeReject, out.Kind)
		assert.Equal(t, domain.ReasonCustomerRequired, out.Reason)
		notifier.AssertExpectations(t)
	})

	t.Run("Customer Assigned", func(t *testing.T) {
		biz := domain.NewBusinessContext()
		biz.StateValues[domain.ValueTransactionCustomer] = "1001"

		r := runtime.NewResolver(testClassifier(), runtime.ResolverConfig{CustomerRequiredForReturns: true})
		out := r.Resolve(ctx, returning, biz, scan(itemCode))

		require.Equal(t, domain.OutcomeLocal, out.Kind)
		assert.Equal(t, domain.ActionRecordReturnLine, out.Action.Kind)
		assert.Equal(t, domain.EventItem, out.Action.Event.EventType)
	})

	t.Run("Customer Not Required", func(t *testing.T) {
		r := runtime.NewResolver(testClassifier(), runtime.ResolverConfig{})
		out := r.Resolve(ctx, returning, domain.NewBusinessContext(), scan(itemCode))
		require.Equal(t, domain.OutcomeLocal, out.Kind)
		assert.Equal(t, domain.ActionRecordReturnLine, out.Action.Kind)
	})

	t.Run("Non Item Events Still Submit", func(t *testing.T) {
		r := runtime.NewResolver(testClassifier(), runtime.ResolverConfig{CustomerRequiredForReturns: true})
		out := r.Resolve(ctx, returning, domain.NewBusinessContext(), scan(customerCard))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, domain.EventAssignCustomer, out.Event.EventType)
	})
}

func TestResolver_ScreenContexts(t *testing.T) {
	ctx := context.Background()
	r := runtime.NewResolver(testClassifier(), runtime.ResolverConfig{DeviceID: "T01", SearchLimit: 25})
	biz := domain.NewBusinessContext()
	in := func(mode domain.Mode) domain.InteractionState {
		return stateIn(domain.LogicalStateInMerchandiseTransaction, mode)
	}

	t.Run("Return Search Forces Historical Search", func(t *testing.T) {
		out := r.Resolve(ctx, in(domain.ModeReturnWithTransactionSearch), biz, scan(itemCode))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, domain.EventSearchHistoricalTransactions, out.Event.EventType)
		assert.Equal(t, []domain.Input{domain.StringInput(domain.KeyReferenceNumber, "0")}, out.Event.Inputs)

		out = r.Resolve(ctx, in(domain.ModeReturnWithTransactionSearch), biz, scan(historyCode))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		ref, _ := out.Event.Input(domain.KeyReferenceNumber)
		assert.Equal(t, "77", ref.Value)
	})

	t.Run("Customer Search By Email", func(t *testing.T) {
		out := r.Resolve(ctx, in(domain.ModeCustomerSearch), biz, keyed("jo@example.com"))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, domain.EventCustomerSearch, out.Event.EventType)
		require.Len(t, out.Event.Inputs, 1)
		assert.Equal(t, domain.KeyEmailAddress, out.Event.Inputs[0].Key)
	})

	t.Run("Customer Search By Alternate Key", func(t *testing.T) {
		out := r.Resolve(ctx, in(domain.ModeCustomerSearch), biz, keyed("555-0100"))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		require.Len(t, out.Event.Inputs, 1)
		assert.Equal(t, domain.KeyAlternateKey, out.Event.Inputs[0].Key)
		assert.Equal(t, "555-0100", out.Event.Inputs[0].Value)
	})

	t.Run("Product Inquiry Uses Pagination", func(t *testing.T) {
		ev := domain.KeyedData{
			RawMeta: domain.RawMeta{Pagination: &domain.Pagination{Limit: 10, Offset: 30}},
			Text:    "widget",
		}
		out := r.Resolve(ctx, in(domain.ModeProductInquiry), biz, ev)
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, domain.EventProductSearch, out.Event.EventType)
		require.Len(t, out.Event.Inputs, 3)
		assert.Equal(t, "widget", out.Event.Inputs[0].Value)
		assert.Equal(t, 10, out.Event.Inputs[1].Value)
		assert.Equal(t, 30, out.Event.Inputs[2].Value)
	})

	t.Run("Product Inquiry Keeps Raw Text", func(t *testing.T) {
		// The classifier knows "shoes" as a product search; the raw text still wins.
		out := r.Resolve(ctx, in(domain.ModeProductInquiry), biz, keyed("shoes"))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		require.Len(t, out.Event.Inputs, 3)
		assert.Equal(t, domain.KeySearchTerm, out.Event.Inputs[0].Key)
		assert.Equal(t, "shoes", out.Event.Inputs[0].Value)
		assert.Equal(t, 25, out.Event.Inputs[1].Value)
		assert.Equal(t, 0, out.Event.Inputs[2].Value)
	})

	t.Run("Order Reference Inquiry", func(t *testing.T) {
		out := r.Resolve(ctx, in(domain.ModeOrderReferenceInquiry), biz, scan("ORD-9"))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, domain.EventOrderLookup, out.Event.EventType)
		ref, ok := out.Event.Input(domain.KeyOrderReferenceNumber)
		require.True(t, ok)
		assert.Equal(t, "ORD-9", ref.Value)
	})

	t.Run("Assign Member Falls Back To Customer Number", func(t *testing.T) {
		out := r.Resolve(ctx, in(domain.ModeAssignMember), biz, keyed("4242"))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, domain.EventAssignCustomer, out.Event.EventType)
		require.Len(t, out.Event.Inputs, 1)
		assert.Equal(t, domain.KeyCustomerNumber, out.Event.Inputs[0].Key)
	})

	t.Run("Assign Member Keeps Classified Event", func(t *testing.T) {
		out := r.Resolve(ctx, in(domain.ModeAssignMember), biz, scan(customerCard))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, "1001", out.Event.Inputs[0].Value)
	})

	t.Run("Post Voidable Search Picks Key", func(t *testing.T) {
		out := r.Resolve(ctx, in(domain.ModeSearchPostVoidableTransaction), biz, keyed(referenceNo))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, domain.KeyReferenceNumber, out.Event.Inputs[0].Key)

		out = r.Resolve(ctx, in(domain.ModeSearchPostVoidableTransaction), biz, keyed("1234"))
		assert.Equal(t, domain.KeyTransactionNumber, out.Event.Inputs[0].Key)

		out = r.Resolve(ctx, in(domain.ModeSearchPostVoidableTransaction), biz, scan("1234"))
		assert.Equal(t, domain.KeyReferenceNumber, out.Event.Inputs[0].Key)
	})

	t.Run("Value Certificate Applies Tender", func(t *testing.T) {
		out := r.Resolve(ctx, in(domain.ModeValueCertificateSearch), biz, scan("VC-1"))
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, domain.EventApplyTender, out.Event.EventType)
		require.Len(t, out.Event.Inputs, 2)
		assert.Equal(t, domain.KeyValueCertificateNumber, out.Event.Inputs[0].Key)
		assert.Equal(t, domain.TenderAuthCategoryStoredValueCertificate, out.Event.Inputs[1].Value)
	})

	t.Run("Transaction History Lookup", func(t *testing.T) {
		out := r.Resolve(ctx, in(domain.ModeTransactionHistory), biz, keyed(referenceNo))
		require.Equal(t, domain.OutcomeLocal, out.Kind)
		assert.Equal(t, domain.ActionTransactionLookup, out.Action.Kind)
		assert.True(t, out.Action.ScanEquivalent)

		out = r.Resolve(ctx, in(domain.ModeTransactionHistory), biz, keyed("12"))
		assert.False(t, out.Action.ScanEquivalent)
	})
}

func TestResolver_LocalActionContexts(t *testing.T) {
	r := runtime.NewResolver(testClassifier(), runtime.ResolverConfig{})
	tests := []struct {
		mode domain.Mode
		want domain.LocalActionKind
	}{
		{domain.ModeBalanceInquiry, domain.ActionPresentInput},
		{domain.ModeGiftCardIssue, domain.ActionPresentInput},
		{domain.ModeGiftCertificateIssue, domain.ActionPresentInput},
		{domain.ModeWaitingForInput, domain.ActionPresentInput},
		{domain.ModeTillOperation, domain.ActionCashDrawerValidation},
		{domain.ModePaidOperation, domain.ActionPaidOutLookup},
		{domain.ModeSearchSuspendedTransactions, domain.ActionSuspendedTransactionLookup},
		{domain.ModeReceiptPrinterChoice, domain.ActionPrinterSearch},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			for _, ev := range []domain.RawInputEvent{scan(itemCode), keyed(itemCode), domain.KeyListenerData{Text: itemCode}} {
				out := r.Resolve(context.Background(), stateIn(domain.LogicalStateNotInTransaction, tt.mode), domain.NewBusinessContext(), ev)
				require.Equal(t, domain.OutcomeLocal, out.Kind, "tag %s", ev.Tag())
				assert.Equal(t, tt.want, out.Action.Kind)
				assert.Equal(t, itemCode, out.Action.Text)
			}
		})
	}
}

func TestResolver_PaymentAndUIData(t *testing.T) {
	r := runtime.NewResolver(testClassifier(), runtime.ResolverConfig{})
	biz := domain.NewBusinessContext()

	for _, lc := range []domain.InteractionState{
		stateIn(domain.LogicalStateUndefined, domain.ModeNone),
		stateIn(domain.LogicalStateInMerchandiseTransaction, domain.ModeTendering),
		stateIn(domain.LogicalStateInMerchandiseTransaction, domain.ModeProductInquiry),
	} {
		out := r.Resolve(context.Background(), lc, biz, domain.PaymentData{AuthorizationResponse: map[string]any{"approved": true}})
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, domain.EventTenderAuthorizationStatus, out.Event.EventType)
		resp, ok := out.Event.Input(domain.KeyAuthorizationResponse)
		require.True(t, ok)
		assert.Equal(t, map[string]any{"approved": true}, resp.Value)

		out = r.Resolve(context.Background(), lc, biz, domain.UiData{
			EventType: domain.EventVoidLineItem,
			Inputs:    []domain.Input{domain.IntInput(domain.KeyLineNumber, 2)},
		})
		require.Equal(t, domain.OutcomeSubmit, out.Kind)
		assert.Equal(t, domain.EventVoidLineItem, out.Event.EventType)
		assert.Len(t, out.Event.Inputs, 1)

		out = r.Resolve(context.Background(), lc, biz, domain.UiData{EventType: "Swipe"})
		assert.Equal(t, domain.OutcomeReject, out.Kind)
		assert.Equal(t, domain.ReasonUnsupportedUIData, out.Reason)
	}
}

func TestResolver_DefaultReject(t *testing.T) {
	r := runtime.NewResolver(testClassifier(), runtime.ResolverConfig{})
	textTags := []domain.RawInputEvent{scan(itemCode), keyed(itemCode), domain.KeyListenerData{Text: itemCode}}

	for _, s := range []domain.InteractionState{
		stateIn(domain.LogicalStateUndefined, domain.ModeNone),
		stateIn(domain.LogicalStateTerminalClosed, domain.ModeNone),
		stateIn(domain.LogicalStateInMerchandiseTransaction, domain.ModeTendering),
		stateIn(domain.LogicalStateInMerchandiseTransactionWaitingToClose, domain.ModeWaitingToClose),
	} {
		for _, ev := range textTags {
			out := r.Resolve(context.Background(), s, domain.NewBusinessContext(), ev)
			assert.Equal(t, domain.OutcomeReject, out.Kind, "%s/%s", runtime.Project(s), ev.Tag())
			assert.Equal(t, domain.ReasonInputNotAllowed, out.Reason)
		}
	}
}

func TestResolver_RejectHook(t *testing.T) {
	var rejects []*domain.RejectEvent
	r := runtime.NewResolver(nil, runtime.ResolverConfig{}, runtime.WithResolverHooks(domain.LifecycleHooks{
		OnReject: func(_ context.Context, e *domain.RejectEvent) { rejects = append(rejects, e) },
	}))

	out := r.Resolve(context.Background(), stateIn(domain.LogicalStateNotInTransaction, domain.ModeNone), domain.NewBusinessContext(), scan(itemCode))
	assert.Equal(t, domain.ReasonUnrecognizedCode, out.Reason)
	require.Len(t, rejects, 1)
	assert.Equal(t, domain.ContextNormal, rejects[0].Context)
	assert.Equal(t, domain.TagScanData, rejects[0].Tag)
}
