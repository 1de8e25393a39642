package dto

import (
	"sort"

	"github.com/jas0n325/captone-ui-sub006/internal/runtime"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// Error is the render-ready shape of a normalized error.
type Error struct {
	Code    string         `json:"code,omitempty"`
	Message domain.Message `json:"message"`
	Detail  string         `json:"detail"`
}

// NewError returns nil for a nil err.
func NewError(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    domain.ErrorCode(err),
		Message: domain.UserMessage(err),
		Detail:  err.Error(),
	}
}

// State is the screen-facing view of the interaction state.
type State struct {
	LogicalState    domain.LogicalState `json:"logicalState"`
	Mode            domain.Mode         `json:"mode,omitempty"`
	LocalContext    domain.LocalContext `json:"localContext"`
	PermittedEvents []string            `json:"permittedEvents"`
	ScannerEnabled  bool                `json:"scannerEnabled"`
	IsScrolling     bool                `json:"isScrolling"`
	LastError       *Error              `json:"lastError,omitempty"`
}

func NewState(s domain.InteractionState) State {
	events := s.PermittedEventList()
	sort.Strings(events)
	return State{
		LogicalState:    s.LogicalState,
		Mode:            s.Mode,
		LocalContext:    runtime.Project(s),
		PermittedEvents: events,
		ScannerEnabled:  s.ScannerEnabled,
		IsScrolling:     s.IsScrolling,
		LastError:       NewError(s.LastError),
	}
}

// Business is the screen-facing view of the business context.
type Business struct {
	StateValues                  map[string]any         `json:"stateValues"`
	ReceiptLines                 []domain.ReceiptLine   `json:"receiptLines"`
	DisplayInfo                  map[string]any         `json:"displayInfo,omitempty"`
	NonContextualData            map[string]any         `json:"nonContextualData,omitempty"`
	LastTransactionInfo          domain.TransactionInfo `json:"lastTransactionInfo,omitempty"`
	LastPrintableTransactionInfo domain.TransactionInfo `json:"lastPrintableTransactionInfo,omitempty"`
	InProgress                   bool                   `json:"inProgress"`
	LastEventType                string                 `json:"lastEventType,omitempty"`
	LastError                    *Error                 `json:"lastError,omitempty"`
}

func NewBusiness(b domain.BusinessContext) Business {
	return Business{
		StateValues:                  b.StateValues,
		ReceiptLines:                 b.ReceiptLines,
		DisplayInfo:                  b.DisplayInfo,
		NonContextualData:            b.NonContextualData,
		LastTransactionInfo:          b.LastTransactionInfo,
		LastPrintableTransactionInfo: b.LastPrintableTransactionInfo,
		InProgress:                   b.InProgress,
		LastEventType:                b.LastEventType,
		LastError:                    NewError(b.LastError),
	}
}

// Outcome is the view of a disambiguation outcome, plus the submission error if any.
type Outcome struct {
	Kind    string                 `json:"kind"`
	Context domain.LocalContext    `json:"context"`
	Event   *domain.CanonicalEvent `json:"event,omitempty"`
	Action  *domain.LocalAction    `json:"action,omitempty"`
	Reason  domain.RejectReason    `json:"reason,omitempty"`
	Error   *Error                 `json:"error,omitempty"`
}

// NewOutcome merges the outcome's own error with err, preferring err.
func NewOutcome(o domain.Outcome, err error) Outcome {
	if err == nil {
		err = o.Err
	}
	return Outcome{
		Kind:    o.Kind.String(),
		Context: o.Context,
		Event:   o.Event,
		Action:  o.Action,
		Reason:  o.Reason,
		Error:   NewError(err),
	}
}

// ModeRequest is the body of a mode-only transition request.
type ModeRequest struct {
	Mode domain.Mode `json:"mode"`
}
