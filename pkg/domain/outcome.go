package domain

import "fmt"

// OutcomeKind discriminates the result of input disambiguation.
type OutcomeKind int

const (
	OutcomeReject OutcomeKind = iota
	OutcomeSubmit
	OutcomeLocal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSubmit:
		return "submit"
	case OutcomeLocal:
		return "local"
	default:
		return "reject"
	}
}

// LocalActionKind names a non-business action the host routes locally.
type LocalActionKind string

const (
	// ActionPresentInput makes the raw payload available to the active screen. No business call.
	ActionPresentInput                LocalActionKind = "PresentInput"
	ActionHistoricalTransactionSearch LocalActionKind = "HistoricalTransactionSearch"
	ActionTransactionLookup           LocalActionKind = "TransactionLookup"
	ActionCashDrawerValidation        LocalActionKind = "CashDrawerValidation"
	ActionPaidOutLookup               LocalActionKind = "PaidOutLookup"
	ActionSuspendedTransactionLookup  LocalActionKind = "SuspendedTransactionLookup"
	ActionPrinterSearch               LocalActionKind = "PrinterSearch"
	ActionRecordReturnLine            LocalActionKind = "RecordReturnLine"
)

// LocalAction is an effect the host performs without a generic business submission.
type LocalAction struct {
	Kind LocalActionKind `json:"kind"`
	// Text is the raw text of the triggering input, when it had one.
	Text   string `json:"text,omitempty"`
	Source string `json:"source,omitempty"`
	// ScanEquivalent tells a transaction lookup to treat Text like a scanned reference number.
	ScanEquivalent bool `json:"scanEquivalent,omitempty"`
	// Event carries the canonical event a local flow continues with (return lines, history search).
	Event   *CanonicalEvent `json:"event,omitempty"`
	Payload RawInputEvent   `json:"-"`
}

// RejectReason explains why an input was refused.
type RejectReason string

const (
	ReasonInputNotAllowed   RejectReason = "input not allowed"
	ReasonUnrecognizedCode  RejectReason = "unrecognized code"
	ReasonMemberNotAllowed  RejectReason = "member not allowed"
	ReasonCustomerRequired  RejectReason = "customer required"
	ReasonUnsupportedUIData RejectReason = "unsupported ui event"
)

// Outcome is the disambiguation result: exactly one of Submit, LocalAction or Reject.
type Outcome struct {
	Kind    OutcomeKind     `json:"kind"`
	Context LocalContext    `json:"context"`
	Event   *CanonicalEvent `json:"event,omitempty"`
	Action  *LocalAction    `json:"action,omitempty"`
	Reason  RejectReason    `json:"reason,omitempty"`
	Err     error           `json:"-"`
}

// Submit builds a submission outcome.
func Submit(ev CanonicalEvent) Outcome {
	return Outcome{Kind: OutcomeSubmit, Event: &ev}
}

// Local builds a local-action outcome.
func Local(a LocalAction) Outcome {
	return Outcome{Kind: OutcomeLocal, Action: &a}
}

// Reject builds a rejection. err is optional and carries a business error when one applies.
func Reject(reason RejectReason, err error) Outcome {
	return Outcome{Kind: OutcomeReject, Reason: reason, Err: err}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSubmit:
		return fmt.Sprintf("submit %s", o.Event)
	case OutcomeLocal:
		return fmt.Sprintf("local %s", o.Action.Kind)
	default:
		return fmt.Sprintf("reject %q", o.Reason)
	}
}
