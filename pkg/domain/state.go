package domain

// LogicalState is the domain transaction lifecycle phase reported by the domain engine.
// The zero value (LogicalStateUndefined) means no result has established a state yet.
type LogicalState string

const (
	LogicalStateUndefined                                LogicalState = ""
	LogicalStateTerminalClosed                           LogicalState = "TerminalClosed"
	LogicalStateNotInTransaction                         LogicalState = "NotInTransaction"
	LogicalStateInMerchandiseTransaction                 LogicalState = "InMerchandiseTransaction"
	LogicalStateInMerchandiseTransactionWaiting          LogicalState = "InMerchandiseTransactionWaiting"
	LogicalStateInMerchandiseTransactionWaitingToClose   LogicalState = "InMerchandiseTransactionWaitingToClose"
	LogicalStateInMerchandiseTransactionReadyToClose     LogicalState = "InMerchandiseTransactionReadyToClose"
	LogicalStateInTenderControlTransaction               LogicalState = "InTenderControlTransaction"
	LogicalStateInTenderControlTransactionWaiting        LogicalState = "InTenderControlTransactionWaiting"
	LogicalStateInTenderControlTransactionWaitingToClose LogicalState = "InTenderControlTransactionWaitingToClose"
	LogicalStateInTillControlTransaction                 LogicalState = "InTillControlTransaction"
	LogicalStateInNoSaleTransaction                      LogicalState = "InNoSaleTransaction"
	LogicalStateInFiscalControlTransaction               LogicalState = "InFiscalControlTransaction"
)

// LogicalStates lists every defined logical state, undefined excluded.
var LogicalStates = []LogicalState{
	LogicalStateTerminalClosed,
	LogicalStateNotInTransaction,
	LogicalStateInMerchandiseTransaction,
	LogicalStateInMerchandiseTransactionWaiting,
	LogicalStateInMerchandiseTransactionWaitingToClose,
	LogicalStateInMerchandiseTransactionReadyToClose,
	LogicalStateInTenderControlTransaction,
	LogicalStateInTenderControlTransactionWaiting,
	LogicalStateInTenderControlTransactionWaitingToClose,
	LogicalStateInTillControlTransaction,
	LogicalStateInNoSaleTransaction,
	LogicalStateInFiscalControlTransaction,
}

// Defined reports whether a result has established the logical state.
func (s LogicalState) Defined() bool {
	return s != LogicalStateUndefined
}

// Valid reports whether s is one of the known logical states (or undefined).
func (s LogicalState) Valid() bool {
	if s == LogicalStateUndefined {
		return true
	}
	for _, known := range LogicalStates {
		if s == known {
			return true
		}
	}
	return false
}

// Mode is the UI-level sub-state layered on top of the logical state.
// ModeNone is the "no secondary mode" value.
type Mode string

const (
	ModeNone                          Mode = ""
	ModeTendering                     Mode = "Tendering"
	ModeProductInquiry                Mode = "ProductInquiry"
	ModeOrderReferenceInquiry         Mode = "OrderReferenceInquiry"
	ModeBalanceInquiry                Mode = "BalanceInquiry"
	ModeTransactionHistory            Mode = "TransactionHistory"
	ModeGiftCardIssue                 Mode = "GiftCardIssue"
	ModeGiftCertificateIssue          Mode = "GiftCertificateIssue"
	ModeSearchSuspendedTransactions   Mode = "SearchSuspendedTransactions"
	ModeAssignMember                  Mode = "AssignMember"
	ModeTillOperation                 Mode = "TillOperation"
	ModePaidOperation                 Mode = "PaidOperation"
	ModeReceiptPrinterChoice          Mode = "ReceiptPrinterChoice"
	ModeReturnWithTransaction         Mode = "ReturnWithTransaction"
	ModeReturnWithTransactionSearch   Mode = "ReturnWithTransactionSearch"
	ModeCustomerSearch                Mode = "CustomerSearch"
	ModeValueCertificateSearch        Mode = "ValueCertificateSearch"
	ModeSearchPostVoidableTransaction Mode = "SearchPostVoidableTransaction"
	ModeWaitingForInput               Mode = "WaitingForInput"
	ModeVoidTransaction               Mode = "VoidTransaction"
	ModeWaitingToClose                Mode = "WaitingToClose"
	ModeWaitingToClearTransaction     Mode = "WaitingToClearTransaction"
	ModeFatalError                    Mode = "FatalError"
)

// Modes lists every defined mode, ModeNone excluded.
var Modes = []Mode{
	ModeTendering,
	ModeProductInquiry,
	ModeOrderReferenceInquiry,
	ModeBalanceInquiry,
	ModeTransactionHistory,
	ModeGiftCardIssue,
	ModeGiftCertificateIssue,
	ModeSearchSuspendedTransactions,
	ModeAssignMember,
	ModeTillOperation,
	ModePaidOperation,
	ModeReceiptPrinterChoice,
	ModeReturnWithTransaction,
	ModeReturnWithTransactionSearch,
	ModeCustomerSearch,
	ModeValueCertificateSearch,
	ModeSearchPostVoidableTransaction,
	ModeWaitingForInput,
	ModeVoidTransaction,
	ModeWaitingToClose,
	ModeWaitingToClearTransaction,
	ModeFatalError,
}

// Valid reports whether m is a known mode (ModeNone included).
func (m Mode) Valid() bool {
	if m == ModeNone {
		return true
	}
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// InteractionState is the pair (logical state, mode) plus auxiliary UI flags.
// It is owned by the state machine; everyone else works on snapshots.
type InteractionState struct {
	LogicalState    LogicalState        `json:"logical_state"`
	Mode            Mode                `json:"mode"`
	PermittedEvents map[string]struct{} `json:"-"`
	ScannerEnabled  bool                `json:"scanner_enabled"`
	IsScrolling     bool                `json:"is_scrolling"`
	LastError       error               `json:"-"`
}

// NewInteractionState returns the process-start defaults.
func NewInteractionState() InteractionState {
	return InteractionState{
		LogicalState:    LogicalStateUndefined,
		Mode:            ModeNone,
		PermittedEvents: make(map[string]struct{}),
		ScannerEnabled:  true,
	}
}

// Permits reports whether the domain engine announced eventType as permitted.
func (s InteractionState) Permits(eventType string) bool {
	_, ok := s.PermittedEvents[eventType]
	return ok
}

// Clone returns a deep copy safe to hand to readers.
func (s InteractionState) Clone() InteractionState {
	out := s
	out.PermittedEvents = make(map[string]struct{}, len(s.PermittedEvents))
	for k := range s.PermittedEvents {
		out.PermittedEvents[k] = struct{}{}
	}
	return out
}

// PermittedEventList returns the permitted events as a slice (for serialization).
func (s InteractionState) PermittedEventList() []string {
	out := make([]string, 0, len(s.PermittedEvents))
	for k := range s.PermittedEvents {
		out = append(out, k)
	}
	return out
}

// EventSet builds a permitted-events set from a list.
func EventSet(events ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(events))
	for _, e := range events {
		set[e] = struct{}{}
	}
	return set
}

// Transition is a paired transition message: a new logical state with its permitted
// events and, optionally, an explicit next mode. A nil Mode lets the stickiness rule decide.
type Transition struct {
	LogicalState    LogicalState
	PermittedEvents map[string]struct{}
	Mode            *Mode
}

// ModePtr is a helper for building explicit-mode transitions.
func ModePtr(m Mode) *Mode {
	return &m
}
