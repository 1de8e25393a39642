package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	"github.com/jas0n325/captone-ui-sub006/internal/logging"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// Classifier matches raw text against the rules in order; the first match wins.
type Classifier struct {
	rules  []compiledRule
	logger *slog.Logger
}

type Option func(*Classifier)

// WithLogger sets the logger used for classification logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New compiles rs into a classifier.
func New(rs RuleSet, opts ...Option) (*Classifier, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{
		rules:  make([]compiledRule, 0, len(rs.Rules)),
		logger: logging.NewNop(),
	}
	for _, r := range rs.Rules {
		c.rules = append(c.rules, compiledRule{Rule: r, re: regexp.MustCompile(r.Pattern)})
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify implements ports.Classifier.
func (c *Classifier) Classify(ctx context.Context, rawText, source string, opts *ports.ClassifyOptions) (ports.Classification, error) {
	if err := ctx.Err(); err != nil {
		return ports.Classification{}, err
	}

	for _, r := range c.rules {
		if opts != nil && len(opts.AllowedEvents) > 0 && !slices.Contains(opts.AllowedEvents, r.EventType) {
			continue
		}
		if len(r.Sources) > 0 && !slices.Contains(r.Sources, source) {
			continue
		}
		m := r.re.FindStringSubmatch(rawText)
		if m == nil {
			continue
		}

		c.logger.Debug("classified data entry", "rule", r.Name, "event_type", r.EventType, "source", source)
		return ports.Classification{
			EventType: r.EventType,
			Inputs: []domain.Input{{
				Key:       r.Input,
				Value:     m[r.Group],
				ValueType: valueType(r.ValueType),
				Source:    source,
			}},
		}, nil
	}
	return ports.Classification{}, fmt.Errorf("%w: %d characters from %s", domain.ErrUnclassified, len(rawText), source)
}

func valueType(t string) string {
	if t == "" {
		return domain.ValueTypeString
	}
	return t
}
