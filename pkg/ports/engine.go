package ports

import (
	"context"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// DomainEngine is the external business engine, consumed as an opaque request/response service.
// Handle may fail with *domain.QualificationError, *domain.BusinessError or any other error.
type DomainEngine interface {
	Handle(ctx context.Context, event domain.CanonicalEvent) (*domain.ProcessingResult, error)
}

// DomainEngineFunc adapts a function to DomainEngine.
type DomainEngineFunc func(ctx context.Context, event domain.CanonicalEvent) (*domain.ProcessingResult, error)

func (f DomainEngineFunc) Handle(ctx context.Context, event domain.CanonicalEvent) (*domain.ProcessingResult, error) {
	return f(ctx, event)
}

// ClassifyOptions tunes a classification request.
type ClassifyOptions struct {
	// AllowedEvents restricts the result to the listed event types when non-empty.
	AllowedEvents []string
}

// Classification is the tentative canonical event a classifier derived from raw text.
type Classification struct {
	EventType string
	Inputs    []domain.Input
}

// Event converts the classification into a canonical event.
func (c Classification) Event() domain.CanonicalEvent {
	return domain.NewEvent(c.EventType, c.Inputs...)
}

// Classifier is the external data-entry classifier.
// It returns domain.ErrUnclassified (possibly wrapped) when the text matches nothing.
type Classifier interface {
	Classify(ctx context.Context, rawText, source string, opts *ClassifyOptions) (Classification, error)
}
