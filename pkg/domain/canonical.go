package domain

import "fmt"

// Canonical business event types understood by the domain engine.
const (
	EventItem                          = "Item"
	EventAssignCustomer                = "AssignCustomer"
	EventSearchHistoricalTransactions  = "SearchHistoricalTransactions"
	EventCustomerSearch                = "CustomerSearch"
	EventProductSearch                 = "ProductSearch"
	EventOrderLookup                   = "OrderLookup"
	EventSearchPostVoidableTransaction = "SearchPostVoidableTransaction"
	EventApplyTender                   = "ApplyTender"
	EventTenderAuthorizationStatus     = "TenderAuthorizationStatus"
	EventVoidLineItem                  = "VoidLineItem"
)

// Input keys used when building canonical events.
const (
	KeyDeviceID               = "deviceId"
	KeySearchTerm             = "searchTerm"
	KeyLimit                  = "limit"
	KeyOffset                 = "offset"
	KeyItemKey                = "itemKey"
	KeyCustomerNumber         = "customerNumber"
	KeyEmailAddress           = "emailAddress"
	KeyAlternateKey           = "alternateKey"
	KeyReferenceNumber        = "referenceNumber"
	KeyTransactionNumber      = "transactionNumber"
	KeyOrderReferenceNumber   = "orderReferenceNumber"
	KeyValueCertificateNumber = "valueCertificateNumber"
	KeyTenderAuthCategory     = "tenderAuthCategory"
	KeyAuthorizationResponse  = "authorizationResponse"
	KeyLineNumber             = "lineNumber"
)

// TenderAuthCategoryStoredValueCertificate is the fixed category for value certificate tenders.
const TenderAuthCategoryStoredValueCertificate = "StoredValueCertificateService"

// Value types attached to inputs.
const (
	ValueTypeString  = "string"
	ValueTypeInteger = "integer"
	ValueTypeObject  = "object"
)

// Input is one named argument of a canonical event.
type Input struct {
	Key       string `json:"key" mapstructure:"key"`
	Value     any    `json:"value" mapstructure:"value"`
	ValueType string `json:"valueType,omitempty" mapstructure:"valueType"`
	Source    string `json:"source,omitempty" mapstructure:"source"`
}

// CanonicalEvent is a named business operation plus its ordered inputs.
type CanonicalEvent struct {
	EventType string  `json:"eventType" mapstructure:"eventType"`
	Inputs    []Input `json:"inputs" mapstructure:"inputs"`
}

// NewEvent builds a canonical event, copying the inputs.
func NewEvent(eventType string, inputs ...Input) CanonicalEvent {
	cp := make([]Input, len(inputs))
	copy(cp, inputs)
	return CanonicalEvent{EventType: eventType, Inputs: cp}
}

// Input returns the first input with the given key.
func (e CanonicalEvent) Input(key string) (Input, bool) {
	for _, in := range e.Inputs {
		if in.Key == key {
			return in, true
		}
	}
	return Input{}, false
}

// With returns a copy of the event with extra inputs appended.
func (e CanonicalEvent) With(inputs ...Input) CanonicalEvent {
	out := CanonicalEvent{EventType: e.EventType, Inputs: make([]Input, 0, len(e.Inputs)+len(inputs))}
	out.Inputs = append(out.Inputs, e.Inputs...)
	out.Inputs = append(out.Inputs, inputs...)
	return out
}

func (e CanonicalEvent) String() string {
	return fmt.Sprintf("%s(%d inputs)", e.EventType, len(e.Inputs))
}

// StringInput builds a string-typed input.
func StringInput(key, value string) Input {
	return Input{Key: key, Value: value, ValueType: ValueTypeString}
}

// IntInput builds an integer-typed input.
func IntInput(key string, value int) Input {
	return Input{Key: key, Value: value, ValueType: ValueTypeInteger}
}

// DeviceIdentity names the terminal (and its scanner/source) that originated a submission.
type DeviceIdentity struct {
	DeviceID string `json:"deviceId"`
	Source   string `json:"source,omitempty"`
}
