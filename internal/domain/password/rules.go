// Package password derives ordered decryption password candidates from
// per-bank conventions and the card holder's personal information.
package password

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field names a piece of personal information a bank convention consumes.
type Field string

const (
	FieldName  Field = "name"
	FieldDOB   Field = "dob"
	FieldCard4 Field = "card_last4"
)

// BankRule describes one bank's password convention: which personal-info
// fields it requires, how many decryption attempts are worth spending, and
// the candidate templates in most-likely-first order.
type BankRule struct {
	Bank           string   `yaml:"bank"`
	RequiredFields []Field  `yaml:"required_fields"`
	MaxAttempts    int      `yaml:"max_attempts"`
	CandidateOrder []string `yaml:"candidate_order"`
}

// RuleSet is the full bank rule table. It is loaded once at process start
// and treated as immutable afterwards.
type RuleSet struct {
	rules map[string]BankRule
}

// Lookup returns the rule for a bank code (case-insensitive).
func (rs *RuleSet) Lookup(bankCode string) (BankRule, bool) {
	rule, ok := rs.rules[strings.ToLower(strings.TrimSpace(bankCode))]
	return rule, ok
}

// Banks returns the supported bank codes, sorted.
func (rs *RuleSet) Banks() []string {
	banks := make([]string, 0, len(rs.rules))
	for code := range rs.rules {
		banks = append(banks, code)
	}
	sort.Strings(banks)
	return banks
}

// NewRuleSet builds a rule set from explicit rules, normalizing bank codes.
func NewRuleSet(rules []BankRule) (*RuleSet, error) {
	rs := &RuleSet{rules: make(map[string]BankRule, len(rules))}
	for _, rule := range rules {
		code := strings.ToLower(strings.TrimSpace(rule.Bank))
		if code == "" {
			return nil, fmt.Errorf("bank rule with empty bank code")
		}
		if len(rule.CandidateOrder) == 0 {
			return nil, fmt.Errorf("bank %q: candidate order is empty", code)
		}
		if rule.MaxAttempts <= 0 {
			rule.MaxAttempts = defaultMaxAttempts
		}
		rs.rules[code] = rule
	}
	return rs, nil
}

const defaultMaxAttempts = 12

// DefaultRules returns the built-in rule table for supported card issuers.
// Templates reference personal-info fields; see expand() for the vocabulary.
func DefaultRules() *RuleSet {
	rs, err := NewRuleSet([]BankRule{
		{
			Bank:           "hdfc",
			RequiredFields: []Field{FieldName, FieldDOB},
			MaxAttempts:    10,
			CandidateOrder: []string{"{name4}{ddmm}", "{NAME4}{ddmm}", "{name4}{ddmmyy}", "{dob}"},
		},
		{
			Bank:           "icici",
			RequiredFields: []Field{FieldName, FieldDOB},
			MaxAttempts:    10,
			CandidateOrder: []string{"{name4}{ddmm}", "{dob}", "{ddmm}{yyyy}"},
		},
		{
			Bank:           "axis",
			RequiredFields: []Field{FieldName, FieldDOB},
			MaxAttempts:    10,
			CandidateOrder: []string{"{NAME4}{ddmm}", "{name4}{ddmm}", "{dob}"},
		},
		{
			Bank:           "sbi",
			RequiredFields: []Field{FieldDOB, FieldCard4},
			MaxAttempts:    10,
			CandidateOrder: []string{"{ddmm}{card4}", "{dob}", "{card4}{ddmm}"},
		},
		{
			Bank:           "kotak",
			RequiredFields: []Field{FieldName, FieldDOB},
			MaxAttempts:    10,
			CandidateOrder: []string{"{name4}{ddmm}", "{dob}", "{NAME4}{yyyy}"},
		},
		{
			Bank:           "hsbc",
			RequiredFields: []Field{FieldDOB, FieldCard4},
			MaxAttempts:    10,
			CandidateOrder: []string{"{ddmmyy}{card4}", "{dob}", "{card4}{dob}"},
		},
	})
	if err != nil {
		// The built-in table is validated by tests; a bad entry is a bug.
		panic(err)
	}
	return rs
}

// LoadRules reads a rule table override from YAML.
func LoadRules(r io.Reader) (*RuleSet, error) {
	var doc struct {
		Banks []BankRule `yaml:"banks"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse bank rules: %w", err)
	}
	if len(doc.Banks) == 0 {
		return nil, fmt.Errorf("bank rules file contains no banks")
	}
	return NewRuleSet(doc.Banks)
}

// LoadRulesFile is a convenience wrapper over LoadRules.
func LoadRulesFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bank rules: %w", err)
	}
	defer f.Close()
	return LoadRules(f)
}
