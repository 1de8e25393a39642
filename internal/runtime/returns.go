package runtime

import (
	"context"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

// CustomerRequiredMessage is shown when a return line is scanned without an assigned customer.
var CustomerRequiredMessage = domain.Message{
	Key:     "returns.customerRequired",
	Default: "Assign a customer before returning items",
}

// guardReturn handles an item entered while returning with a transaction.
// The line is recorded locally instead of being sold.
func (r *Resolver) guardReturn(ctx context.Context, biz domain.BusinessContext, ev domain.CanonicalEvent, text, source string) domain.Outcome {
	if r.cfg.CustomerRequiredForReturns && !biz.HasCustomer() {
		if r.notifier != nil {
			r.notifier.Notify(ctx, ports.Notification{Message: CustomerRequiredMessage, Level: "warning"})
		}
		return domain.Reject(domain.ReasonCustomerRequired, nil)
	}
	return domain.Local(domain.LocalAction{
		Kind:   domain.ActionRecordReturnLine,
		Text:   text,
		Source: source,
		Event:  &ev,
	})
}
