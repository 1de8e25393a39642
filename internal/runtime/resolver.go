package runtime

import (
	"context"
	"log/slog"
	"net/mail"
	"regexp"
	"time"

	"github.com/jas0n325/captone-ui-sub006/internal/logging"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

// DefaultReferencePattern recognizes a transaction reference number (a long digit string).
const DefaultReferencePattern = `^\d{16,}$`

// DefaultSearchLimit is the page size used when a search screen reports no pagination.
const DefaultSearchLimit = 20

// ResolverConfig carries the terminal configuration disambiguation depends on.
type ResolverConfig struct {
	// DeviceID identifies this terminal in submitted events.
	DeviceID string
	// Unattended terminals refuse member assignment.
	Unattended bool
	// CustomerRequiredForReturns blocks return lines until a customer is assigned.
	CustomerRequiredForReturns bool
	// ReferencePattern decides whether text is a transaction reference number.
	ReferencePattern *regexp.Regexp
	// SearchLimit is the default page size for product searches.
	SearchLimit int
}

// Resolver turns raw input into an Outcome given the interaction and business state.
type Resolver struct {
	classifier ports.Classifier
	notifier   ports.Notifier
	cfg        ResolverConfig
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger used for disambiguation logs.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResolverHooks registers hooks notified of rejected inputs.
func WithResolverHooks(hooks domain.LifecycleHooks) ResolverOption {
	return func(r *Resolver) {
		r.hooks = hooks
	}
}

// WithNotifier sets the notifier used by the return guard.
func WithNotifier(n ports.Notifier) ResolverOption {
	return func(r *Resolver) {
		r.notifier = n
	}
}

// NewResolver creates a resolver. A nil classifier classifies nothing.
func NewResolver(classifier ports.Classifier, cfg ResolverConfig, opts ...ResolverOption) *Resolver {
	if cfg.ReferencePattern == nil {
		cfg.ReferencePattern = regexp.MustCompile(DefaultReferencePattern)
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	r := &Resolver{
		classifier: classifier,
		cfg:        cfg,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve decides what raw input means in the current local context.
// It never fails: an input it cannot place is rejected.
func (r *Resolver) Resolve(ctx context.Context, state domain.InteractionState, biz domain.BusinessContext, ev domain.RawInputEvent) domain.Outcome {
	lc := Project(state)
	out := r.dispatch(ctx, lc, state, biz, ev)
	out.Context = lc

	if out.Kind == domain.OutcomeReject {
		r.logger.Debug("input rejected",
			"context", lc,
			"tag", ev.Tag(),
			"reason", out.Reason,
			"err", out.Err,
		)
		if r.hooks.OnReject != nil {
			r.hooks.OnReject(ctx, &domain.RejectEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventReject},
				Context:   lc,
				Tag:       ev.Tag(),
				Reason:    out.Reason,
			})
		}
	}
	return out
}

func (r *Resolver) dispatch(ctx context.Context, lc domain.LocalContext, state domain.InteractionState, biz domain.BusinessContext, ev domain.RawInputEvent) domain.Outcome {
	// Payment callbacks and UI events do not depend on the local context.
	switch e := ev.(type) {
	case domain.PaymentData:
		return domain.Submit(domain.NewEvent(domain.EventTenderAuthorizationStatus, domain.Input{
			Key:       domain.KeyAuthorizationResponse,
			Value:     e.AuthorizationResponse,
			ValueType: domain.ValueTypeObject,
			Source:    domain.SourceOf(e),
		}))
	case domain.UiData:
		if e.EventType == domain.EventVoidLineItem {
			return domain.Submit(domain.NewEvent(domain.EventVoidLineItem, e.Inputs...))
		}
		return domain.Reject(domain.ReasonUnsupportedUIData, nil)
	}

	text, ok := domain.RawText(ev)
	if !ok {
		return domain.Reject(domain.ReasonInputNotAllowed, nil)
	}
	source := domain.SourceOf(ev)

	switch lc {
	case domain.ContextNormal:
		return r.resolveNormal(ctx, state, biz, text, source)
	case domain.ContextReturnWithTransactionSearch:
		return r.resolveReturnSearch(ctx, text, source)
	case domain.ContextCustomerSearchScreen:
		return r.resolveCustomerSearch(ctx, text, source)
	case domain.ContextTransactionHistory:
		return domain.Local(domain.LocalAction{
			Kind:           domain.ActionTransactionLookup,
			Text:           text,
			Source:         source,
			ScanEquivalent: r.IsReferenceNumber(text),
			Payload:        ev,
		})
	case domain.ContextBalanceInquiry, domain.ContextGiftCardIssue, domain.ContextGiftCertificateIssue, domain.ContextWaitingForInput:
		return r.local(domain.ActionPresentInput, text, source, ev)
	case domain.ContextTillOperation:
		return r.local(domain.ActionCashDrawerValidation, text, source, ev)
	case domain.ContextPaidOperation:
		return r.local(domain.ActionPaidOutLookup, text, source, ev)
	case domain.ContextSearchSuspendedTransactions:
		return r.local(domain.ActionSuspendedTransactionLookup, text, source, ev)
	case domain.ContextReceiptPrinterChoice:
		return r.local(domain.ActionPrinterSearch, text, source, ev)
	case domain.ContextProductInquiry:
		return r.resolveProductSearch(ev, text, source)
	case domain.ContextOrderReferenceInquiry:
		return domain.Submit(domain.NewEvent(domain.EventOrderLookup, sourced(domain.StringInput(domain.KeyOrderReferenceNumber, text), source)))
	case domain.ContextAssignMember:
		return r.resolveAssignMember(ctx, text, source)
	case domain.ContextSearchPostVoidableTransaction:
		key := domain.KeyReferenceNumber
		if ev.Tag() == domain.TagKeyedData && !r.IsReferenceNumber(text) {
			key = domain.KeyTransactionNumber
		}
		return domain.Submit(domain.NewEvent(domain.EventSearchPostVoidableTransaction, sourced(domain.StringInput(key, text), source)))
	case domain.ContextValueCertificateSearch:
		return domain.Submit(domain.NewEvent(domain.EventApplyTender,
			sourced(domain.StringInput(domain.KeyValueCertificateNumber, text), source),
			domain.StringInput(domain.KeyTenderAuthCategory, domain.TenderAuthCategoryStoredValueCertificate),
		))
	}

	return domain.Reject(domain.ReasonInputNotAllowed, nil)
}

func (r *Resolver) resolveNormal(ctx context.Context, state domain.InteractionState, biz domain.BusinessContext, text, source string) domain.Outcome {
	cls, err := r.classify(ctx, text, source, nil)
	if err != nil {
		return domain.Reject(domain.ReasonUnrecognizedCode, err)
	}

	switch cls.EventType {
	case domain.EventAssignCustomer:
		if r.cfg.Unattended {
			return domain.Reject(domain.ReasonMemberNotAllowed, domain.MemberNotAllowedError())
		}
	case domain.EventSearchHistoricalTransactions:
		ev := cls.Event()
		return domain.Local(domain.LocalAction{
			Kind:   domain.ActionHistoricalTransactionSearch,
			Text:   text,
			Source: source,
			Event:  &ev,
		})
	}

	ev := cls.Event()
	if state.Mode == domain.ModeReturnWithTransaction && ev.EventType == domain.EventItem {
		return r.guardReturn(ctx, biz, ev, text, source)
	}
	return domain.Submit(ev.With(r.deviceInput(source)))
}

func (r *Resolver) resolveReturnSearch(ctx context.Context, text, source string) domain.Outcome {
	cls, err := r.classify(ctx, text, source, &ports.ClassifyOptions{
		AllowedEvents: []string{domain.EventSearchHistoricalTransactions},
	})
	if err == nil && cls.EventType == domain.EventSearchHistoricalTransactions {
		return domain.Submit(cls.Event())
	}
	return domain.Submit(domain.NewEvent(domain.EventSearchHistoricalTransactions,
		domain.StringInput(domain.KeyReferenceNumber, "0"),
	))
}

func (r *Resolver) resolveCustomerSearch(ctx context.Context, text, source string) domain.Outcome {
	cls, err := r.classify(ctx, text, source, &ports.ClassifyOptions{
		AllowedEvents: []string{domain.EventCustomerSearch},
	})
	if err == nil && cls.EventType == domain.EventCustomerSearch {
		return domain.Submit(cls.Event())
	}
	key := domain.KeyAlternateKey
	if isEmailAddress(text) {
		key = domain.KeyEmailAddress
	}
	return domain.Submit(domain.NewEvent(domain.EventCustomerSearch, sourced(domain.StringInput(key, text), source)))
}

// resolveProductSearch submits the raw text as the search term; classifier rules
// never rewrite it.
func (r *Resolver) resolveProductSearch(ev domain.RawInputEvent, text, source string) domain.Outcome {
	limit, offset := r.cfg.SearchLimit, 0
	if p := ev.Meta().Pagination; p != nil {
		if p.Limit > 0 {
			limit = p.Limit
		}
		if p.Offset > 0 {
			offset = p.Offset
		}
	}

	return domain.Submit(domain.NewEvent(domain.EventProductSearch,
		sourced(domain.StringInput(domain.KeySearchTerm, text), source),
		domain.IntInput(domain.KeyLimit, limit),
		domain.IntInput(domain.KeyOffset, offset),
	))
}

func (r *Resolver) resolveAssignMember(ctx context.Context, text, source string) domain.Outcome {
	cls, err := r.classify(ctx, text, source, &ports.ClassifyOptions{
		AllowedEvents: []string{domain.EventAssignCustomer},
	})
	if err == nil && cls.EventType == domain.EventAssignCustomer {
		return domain.Submit(cls.Event())
	}
	return domain.Submit(domain.NewEvent(domain.EventAssignCustomer, sourced(domain.StringInput(domain.KeyCustomerNumber, text), source)))
}

// IsReferenceNumber reports whether text looks like a transaction reference number.
func (r *Resolver) IsReferenceNumber(text string) bool {
	return r.cfg.ReferencePattern.MatchString(text)
}

func (r *Resolver) classify(ctx context.Context, text, source string, opts *ports.ClassifyOptions) (ports.Classification, error) {
	if r.classifier == nil {
		return ports.Classification{}, domain.ErrUnclassified
	}
	cls, err := r.classifier.Classify(ctx, text, source, opts)
	if err != nil {
		r.logger.Debug("classification failed", "source", source, "err", err)
		return ports.Classification{}, err
	}
	return cls, nil
}

func (r *Resolver) local(kind domain.LocalActionKind, text, source string, ev domain.RawInputEvent) domain.Outcome {
	return domain.Local(domain.LocalAction{Kind: kind, Text: text, Source: source, Payload: ev})
}

func (r *Resolver) deviceInput(source string) domain.Input {
	return domain.Input{
		Key:       domain.KeyDeviceID,
		Value:     r.cfg.DeviceID,
		ValueType: domain.ValueTypeString,
		Source:    source,
	}
}

func sourced(in domain.Input, source string) domain.Input {
	in.Source = source
	return in
}

func isEmailAddress(text string) bool {
	addr, err := mail.ParseAddress(text)
	return err == nil && addr.Address == text
}
