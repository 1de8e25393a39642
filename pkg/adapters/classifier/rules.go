// Package classifier implements the data-entry classifier as an ordered table of
// regular-expression rules loaded from YAML.
package classifier

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// Rule maps text matching Pattern to EventType.
//
// The input value is capture group Group of the match (0 for the whole text).
// Sources restricts the rule to the listed input sources when non-empty.
type Rule struct {
	Name      string   `yaml:"name"`
	Pattern   string   `yaml:"pattern"`
	EventType string   `yaml:"event"`
	Input     string   `yaml:"input"`
	ValueType string   `yaml:"value_type,omitempty"`
	Group     int      `yaml:"group,omitempty"`
	Sources   []string `yaml:"sources,omitempty"`
}

// RuleSet is the file format of a classifier rule table.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultRules is the table used when no rule file is configured.
func DefaultRules() RuleSet {
	return RuleSet{Rules: []Rule{
		{Name: "historical-reference", Pattern: `^R(\d{16,})$`, EventType: domain.EventSearchHistoricalTransactions, Input: domain.KeyReferenceNumber, Group: 1},
		{Name: "member-card", Pattern: `^M(\d{4,12})$`, EventType: domain.EventAssignCustomer, Input: domain.KeyCustomerNumber, Group: 1},
		{Name: "customer-email", Pattern: `^[^@\s]+@[^@\s]+\.[^@\s]+$`, EventType: domain.EventCustomerSearch, Input: domain.KeyEmailAddress},
		{Name: "gtin", Pattern: `^\d{8}$|^\d{12,14}$`, EventType: domain.EventItem, Input: domain.KeyItemKey},
		{Name: "product-search", Pattern: `^\?(.+)$`, EventType: domain.EventProductSearch, Input: domain.KeySearchTerm, Group: 1},
	}}
}

// LoadRules reads and validates a YAML rule table.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule table.
func ParseRules(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

// Validate reports every problem in the table at once.
func (rs RuleSet) Validate() error {
	if len(rs.Rules) == 0 {
		return fmt.Errorf("rule table is empty")
	}

	var problems []string
	seen := make(map[string]bool, len(rs.Rules))
	for i, r := range rs.Rules {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		} else if seen[name] {
			problems = append(problems, fmt.Sprintf("rule %s: duplicate name", name))
		}
		seen[name] = true

		if r.EventType == "" {
			problems = append(problems, fmt.Sprintf("rule %s: missing event", name))
		}
		if r.Input == "" {
			problems = append(problems, fmt.Sprintf("rule %s: missing input key", name))
		}
		re, err := regexp.Compile(r.Pattern)
		switch {
		case r.Pattern == "":
			problems = append(problems, fmt.Sprintf("rule %s: missing pattern", name))
		case err != nil:
			problems = append(problems, fmt.Sprintf("rule %s: invalid pattern: %v", name, err))
		case r.Group < 0 || r.Group > re.NumSubexp():
			problems = append(problems, fmt.Sprintf("rule %s: group %d out of range (pattern has %d)", name, r.Group, re.NumSubexp()))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid rule table:\n - %s", strings.Join(problems, "\n - "))
	}
	return nil
}
