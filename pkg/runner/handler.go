package runner

import (
	"context"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

// Report is what the runner hands to the IOHandler after each processed message.
// Exactly one of Outcome and Notification is set, except for the initial report
// which carries neither.
type Report struct {
	Outcome      *domain.Outcome
	Err          error
	Notification *ports.Notification
	State        domain.InteractionState
	Business     domain.BusinessContext
}

// IOHandler is the operator-facing side of the runner: it produces raw input
// events and presents reports. Text (CLI) and JSON-lines implementations exist.
type IOHandler interface {
	// Input blocks for the next raw input event. io.EOF ends the session.
	Input(ctx context.Context) (domain.RawInputEvent, error)

	// Output presents a report.
	Output(ctx context.Context, report Report) error
}

// ContentRenderer transforms markdown before it is written (e.g. glamour styling).
type ContentRenderer func(string) (string, error)
