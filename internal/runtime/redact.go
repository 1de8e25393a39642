package runtime

import (
	"regexp"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// DefaultRedactPatterns match input keys whose values must never reach the logs.
var DefaultRedactPatterns = []string{
	`(?i)email`,
	`(?i)customer`,
	`(?i)authorization`,
	`(?i)certificate`,
}

const redacted = "***"

// Redactor masks sensitive canonical inputs before they are logged.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles the patterns. Invalid patterns are reported, not skipped.
func NewRedactor(patternStrings []string) (*Redactor, error) {
	patterns := make([]*regexp.Regexp, 0, len(patternStrings))
	for _, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, re)
	}
	return &Redactor{patterns: patterns}, nil
}

// Inputs returns a copy of inputs with matching values replaced by "***".
func (r *Redactor) Inputs(inputs []domain.Input) []domain.Input {
	out := make([]domain.Input, len(inputs))
	copy(out, inputs)
	if r == nil {
		return out
	}
	for i := range out {
		if r.matches(out[i].Key) {
			out[i].Value = redacted
			continue
		}
		if m, ok := out[i].Value.(map[string]any); ok {
			out[i].Value = r.mask(m)
		}
	}
	return out
}

func (r *Redactor) matches(key string) bool {
	for _, p := range r.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (r *Redactor) mask(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch {
		case r.matches(k):
			out[k] = redacted
		default:
			if sub, ok := v.(map[string]any); ok {
				out[k] = r.mask(sub)
			} else {
				out[k] = v
			}
		}
	}
	return out
}
