package memory

import (
	"context"
	"sync"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

// DeviceState is a snapshot of what the in-memory devices were told to show.
type DeviceState struct {
	ScannerEnabled bool                 `json:"scannerEnabled"`
	Notifications  []ports.Notification `json:"notifications"`
	Screen         ports.Screen         `json:"screen,omitempty"`
	ScreenCause    string               `json:"screenCause,omitempty"`
	ReceiptCleared int                  `json:"receiptCleared"`
	LocalActions   []domain.LocalAction `json:"localActions"`
}

// Devices records scanner, notification, navigation, receipt and local-action calls.
// It backs the HTTP surface, where screens poll instead of being driven.
type Devices struct {
	mu    sync.Mutex
	state DeviceState
	limit int
}

// NewDevices creates devices keeping at most limit local actions (0 keeps 50).
func NewDevices(limit int) *Devices {
	if limit <= 0 {
		limit = 50
	}
	return &Devices{state: DeviceState{ScannerEnabled: true}, limit: limit}
}

func (d *Devices) Enable(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.ScannerEnabled = true
	return nil
}

func (d *Devices) Disable(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.ScannerEnabled = false
	return nil
}

func (d *Devices) Notify(_ context.Context, n ports.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Notifications = append(d.state.Notifications, n)
}

func (d *Devices) Clear(context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Notifications = nil
}

func (d *Devices) Navigate(_ context.Context, screen ports.Screen, cause error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Screen = screen
	d.state.ScreenCause = ""
	if cause != nil {
		d.state.ScreenCause = cause.Error()
	}
}

func (d *Devices) ClearReceipt(context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.ReceiptCleared++
}

func (d *Devices) HandleLocal(_ context.Context, action domain.LocalAction) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.LocalActions = append(d.state.LocalActions, action)
	if over := len(d.state.LocalActions) - d.limit; over > 0 {
		d.state.LocalActions = d.state.LocalActions[over:]
	}
	return nil
}

// Snapshot returns a copy of the recorded state.
func (d *Devices) Snapshot() DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.state
	out.Notifications = append([]ports.Notification(nil), d.state.Notifications...)
	out.LocalActions = append([]domain.LocalAction(nil), d.state.LocalActions...)
	return out
}
