package ports

import (
	"context"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// Scanner controls the barcode scanner device.
type Scanner interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}

// Notification is a user-facing message shown by the active screen.
type Notification struct {
	Message domain.Message `json:"message"`
	Level   string         `json:"level"`
}

// Notifier shows and clears pending user notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
	Clear(ctx context.Context)
}

// Screen names a navigation target.
type Screen string

// ScreenRecovery offers void/bypass actions after specific business failures.
const ScreenRecovery Screen = "ErrorRecovery"

// Navigator requests screen navigation.
type Navigator interface {
	Navigate(ctx context.Context, screen Screen, cause error)
}

// ReceiptDisplay owns the receipt shown to the operator and customer.
type ReceiptDisplay interface {
	ClearReceipt(ctx context.Context)
}

// LocalActionHandler performs local (non-business) actions decided by disambiguation.
type LocalActionHandler interface {
	HandleLocal(ctx context.Context, action domain.LocalAction) error
}
