package domain

// InputTag discriminates the raw input event union.
type InputTag string

const (
	TagScanData        InputTag = "ScanData"
	TagKeyedData       InputTag = "KeyedData"
	TagKeyListenerData InputTag = "KeyListenerData"
	TagPaymentData     InputTag = "PaymentData"
	TagUiData          InputTag = "UiData"
)

// InputTags lists every tag of the union.
var InputTags = []InputTag{TagScanData, TagKeyedData, TagKeyListenerData, TagPaymentData, TagUiData}

// Input sources attached to raw events.
const (
	SourceScanner     = "scanner"
	SourceKeyboard    = "keyboard"
	SourceKeyListener = "keyListener"
	SourcePayment     = "paymentDevice"
	SourceUI          = "ui"
)

// Pagination is the window a search screen is currently showing.
type Pagination struct {
	Limit  int `json:"limit" mapstructure:"limit"`
	Offset int `json:"offset" mapstructure:"offset"`
}

// RawMeta carries the fields shared by every raw input event.
type RawMeta struct {
	Source     string      `json:"source,omitempty" mapstructure:"source"`
	Pagination *Pagination `json:"pagination,omitempty" mapstructure:"pagination"`
}

// RawInputEvent is the tagged union of hardware and UI inputs.
// The set of implementations is closed to this package.
type RawInputEvent interface {
	Tag() InputTag
	Meta() RawMeta
	isRawInput()
}

// ScanData is a barcode read from a scanner device.
type ScanData struct {
	RawMeta   `mapstructure:",squash"`
	Data      string `json:"data" mapstructure:"data"`
	Symbology string `json:"symbology,omitempty" mapstructure:"symbology"`
}

// KeyedData is text typed by the operator into an entry field.
type KeyedData struct {
	RawMeta `mapstructure:",squash"`
	Text    string `json:"text" mapstructure:"text"`
}

// KeyListenerData is text captured by a global key listener (keyboard wedge devices).
type KeyListenerData struct {
	RawMeta `mapstructure:",squash"`
	Text    string `json:"text" mapstructure:"text"`
}

// PaymentData is a payment terminal callback carrying an authorization response.
type PaymentData struct {
	RawMeta               `mapstructure:",squash"`
	AuthorizationResponse map[string]any `json:"authorizationResponse" mapstructure:"authorizationResponse"`
}

// UiData is a business event embedded in a UI interaction (e.g. swipe-to-void on a line).
type UiData struct {
	RawMeta   `mapstructure:",squash"`
	EventType string  `json:"eventType" mapstructure:"eventType"`
	Inputs    []Input `json:"inputs,omitempty" mapstructure:"inputs"`
}

func (ScanData) Tag() InputTag        { return TagScanData }
func (KeyedData) Tag() InputTag       { return TagKeyedData }
func (KeyListenerData) Tag() InputTag { return TagKeyListenerData }
func (PaymentData) Tag() InputTag     { return TagPaymentData }
func (UiData) Tag() InputTag          { return TagUiData }

func (e ScanData) Meta() RawMeta        { return e.RawMeta }
func (e KeyedData) Meta() RawMeta       { return e.RawMeta }
func (e KeyListenerData) Meta() RawMeta { return e.RawMeta }
func (e PaymentData) Meta() RawMeta     { return e.RawMeta }
func (e UiData) Meta() RawMeta          { return e.RawMeta }

func (ScanData) isRawInput()        {}
func (KeyedData) isRawInput()       {}
func (KeyListenerData) isRawInput() {}
func (PaymentData) isRawInput()     {}
func (UiData) isRawInput()          {}

// RawText extracts the text payload of a text-bearing event (scan, keyed, key listener).
func RawText(ev RawInputEvent) (string, bool) {
	switch e := ev.(type) {
	case ScanData:
		return e.Data, true
	case KeyedData:
		return e.Text, true
	case KeyListenerData:
		return e.Text, true
	default:
		return "", false
	}
}

// SourceOf returns the event's source tag, falling back to a per-tag default.
func SourceOf(ev RawInputEvent) string {
	if src := ev.Meta().Source; src != "" {
		return src
	}
	switch ev.Tag() {
	case TagScanData:
		return SourceScanner
	case TagKeyedData:
		return SourceKeyboard
	case TagKeyListenerData:
		return SourceKeyListener
	case TagPaymentData:
		return SourcePayment
	default:
		return SourceUI
	}
}
