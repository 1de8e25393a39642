package domain

import (
	"encoding/json"
	"strconv"
)

// State-value keys the interaction layer reads from domain results.
const (
	ValueTransactionOpen           = "transaction.open"
	ValueTransactionClosed         = "transaction.closed"
	ValueTransactionWaitingToClose = "transaction.waitingToClose"
	ValueTransactionNumber         = "transaction.number"
	ValueTransactionCustomer       = "transaction.customer"
)

// ReceiptLine is one displayed line of the active transaction.
type ReceiptLine struct {
	LineNumber  int    `json:"lineNumber"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Voided      bool   `json:"voided,omitempty"`
}

// TransactionInfo summarises a completed transaction.
type TransactionInfo map[string]any

// ProcessingResult is what the domain engine returns for a handled canonical event.
type ProcessingResult struct {
	StateValues                  map[string]any  `json:"stateValues"`
	LogicalState                 LogicalState    `json:"logicalState"`
	PermittedEvents              []string        `json:"permittedEvents"`
	ReceiptLines                 []ReceiptLine   `json:"receiptLines"`
	DisplayInfo                  map[string]any  `json:"displayInfo,omitempty"`
	NonContextualData            map[string]any  `json:"nonContextualData,omitempty"`
	LastTransactionInfo          TransactionInfo `json:"lastTransactionInfo,omitempty"`
	LastPrintableTransactionInfo TransactionInfo `json:"lastPrintableTransactionInfo,omitempty"`
}

// BusinessContext reflects the most recent result (or attempt) from the domain engine.
// It is replaced wholesale on every submission outcome.
type BusinessContext struct {
	StateValues                  map[string]any  `json:"stateValues"`
	ReceiptLines                 []ReceiptLine   `json:"receiptLines"`
	DisplayInfo                  map[string]any  `json:"displayInfo,omitempty"`
	NonContextualData            map[string]any  `json:"nonContextualData,omitempty"`
	LastTransactionInfo          TransactionInfo `json:"lastTransactionInfo,omitempty"`
	LastPrintableTransactionInfo TransactionInfo `json:"lastPrintableTransactionInfo,omitempty"`
	InProgress                   bool            `json:"inProgress"`
	LastError                    error           `json:"-"`
	LastEventType                string          `json:"lastEventType,omitempty"`
}

// NewBusinessContext returns an empty context.
func NewBusinessContext() BusinessContext {
	return BusinessContext{
		StateValues:       make(map[string]any),
		NonContextualData: make(map[string]any),
	}
}

// FromResult builds the context published after a successful submission.
func FromResult(eventType string, res *ProcessingResult) BusinessContext {
	return BusinessContext{
		StateValues:                  copyMap(res.StateValues),
		ReceiptLines:                 append([]ReceiptLine(nil), res.ReceiptLines...),
		DisplayInfo:                  copyMap(res.DisplayInfo),
		NonContextualData:            copyMap(res.NonContextualData),
		LastTransactionInfo:          TransactionInfo(copyMap(res.LastTransactionInfo)),
		LastPrintableTransactionInfo: TransactionInfo(copyMap(res.LastPrintableTransactionInfo)),
		LastEventType:                eventType,
	}
}

// Clone returns a copy whose maps and slices are not shared with the receiver.
func (b BusinessContext) Clone() BusinessContext {
	out := b
	out.StateValues = copyMap(b.StateValues)
	out.ReceiptLines = append([]ReceiptLine(nil), b.ReceiptLines...)
	out.DisplayInfo = copyMap(b.DisplayInfo)
	out.NonContextualData = copyMap(b.NonContextualData)
	out.LastTransactionInfo = TransactionInfo(copyMap(b.LastTransactionInfo))
	out.LastPrintableTransactionInfo = TransactionInfo(copyMap(b.LastPrintableTransactionInfo))
	return out
}

// TransactionOpen reports whether the state values describe an open transaction.
func (b BusinessContext) TransactionOpen() bool {
	return boolValue(b.StateValues, ValueTransactionOpen)
}

// HasCustomer reports whether a customer is assigned to the current transaction.
func (b BusinessContext) HasCustomer() bool {
	v, ok := b.StateValues[ValueTransactionCustomer]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return s != ""
	}
	return true
}

// TransactionClosed reports whether the result marks the transaction as closed.
func TransactionClosed(values map[string]any) bool {
	return boolValue(values, ValueTransactionClosed)
}

// TransactionWaitingToClose reports whether the result marks the transaction waiting-to-close.
func TransactionWaitingToClose(values map[string]any) bool {
	return boolValue(values, ValueTransactionWaitingToClose)
}

// TransactionNumber extracts the transaction number from state values.
// Numbers may arrive as ints, floats, json.Number or numeric strings.
func TransactionNumber(values map[string]any) (int64, bool) {
	v, ok := values[ValueTransactionNumber]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func boolValue(values map[string]any, key string) bool {
	v, ok := values[key]
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	default:
		return false
	}
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
