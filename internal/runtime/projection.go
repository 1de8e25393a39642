package runtime

import "github.com/jas0n325/captone-ui-sub006/pkg/domain"

var modeContexts = map[domain.Mode]domain.LocalContext{
	domain.ModeTendering:                     domain.ContextTendering,
	domain.ModeProductInquiry:                domain.ContextProductInquiry,
	domain.ModeOrderReferenceInquiry:         domain.ContextOrderReferenceInquiry,
	domain.ModeBalanceInquiry:                domain.ContextBalanceInquiry,
	domain.ModeTransactionHistory:            domain.ContextTransactionHistory,
	domain.ModeGiftCardIssue:                 domain.ContextGiftCardIssue,
	domain.ModeGiftCertificateIssue:          domain.ContextGiftCertificateIssue,
	domain.ModeSearchSuspendedTransactions:   domain.ContextSearchSuspendedTransactions,
	domain.ModeAssignMember:                  domain.ContextAssignMember,
	domain.ModeTillOperation:                 domain.ContextTillOperation,
	domain.ModePaidOperation:                 domain.ContextPaidOperation,
	domain.ModeReceiptPrinterChoice:          domain.ContextReceiptPrinterChoice,
	domain.ModeReturnWithTransactionSearch:   domain.ContextReturnWithTransactionSearch,
	domain.ModeCustomerSearch:                domain.ContextCustomerSearchScreen,
	domain.ModeValueCertificateSearch:        domain.ContextValueCertificateSearch,
	domain.ModeSearchPostVoidableTransaction: domain.ContextSearchPostVoidableTransaction,
	domain.ModeWaitingForInput:               domain.ContextWaitingForInput,
}

// Project maps an interaction state onto the local context used for disambiguation.
//
// A closed or not-yet-established terminal is Unrecognized. A mode with a screen of its
// own selects that screen's context. Any other mode falls back to Normal when the logical
// state accepts item and customer entry, Unrecognized otherwise.
func Project(s domain.InteractionState) domain.LocalContext {
	switch s.LogicalState {
	case domain.LogicalStateUndefined, domain.LogicalStateTerminalClosed:
		return domain.ContextUnrecognized
	}
	if s.Mode == domain.ModeFatalError {
		return domain.ContextUnrecognized
	}
	if lc, ok := modeContexts[s.Mode]; ok {
		return lc
	}
	switch s.LogicalState {
	case domain.LogicalStateNotInTransaction,
		domain.LogicalStateInMerchandiseTransaction,
		domain.LogicalStateInTenderControlTransaction:
		return domain.ContextNormal
	}
	return domain.ContextUnrecognized
}
