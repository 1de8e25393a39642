package ports

import "context"

// SettingsStore persists per-terminal settings, currently the last transaction number.
type SettingsStore interface {
	// SaveTransactionNumber stores the number for the terminal, overwriting any previous value.
	SaveTransactionNumber(ctx context.Context, terminalID string, number int64) error

	// LoadTransactionNumber returns domain.ErrSettingNotFound if nothing was stored.
	LoadTransactionNumber(ctx context.Context, terminalID string) (int64, error)

	// Delete removes the terminal's settings.
	Delete(ctx context.Context, terminalID string) error

	// List returns the terminals with stored settings.
	List(ctx context.Context) ([]string, error)
}
