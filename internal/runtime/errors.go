package runtime

import (
	"errors"
	"log/slog"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// Severity picks the log level for a normalized submission error.
// Errors synthesized by the interaction layer without a message log at Error.
func Severity(err error) slog.Level {
	var qe *domain.QualificationError
	if errors.As(err, &qe) {
		return slog.LevelInfo
	}
	var be *domain.BusinessError
	if errors.As(err, &be) {
		if be.Code == domain.ErrorCodeUI && be.Message == nil {
			return slog.LevelError
		}
		return slog.LevelWarn
	}
	return slog.LevelError
}
