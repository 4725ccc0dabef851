package password

import (
	"fmt"
	"sort"
	"strings"
)

// Candidate is one deterministically derived password guess.
type Candidate struct {
	Value      string
	Provenance string // template or "generic" that produced the value
}

// HolderInfo is the personal information available for a statement.
// DOB uses the DDMMYYYY convention found on Indian card statements.
type HolderInfo struct {
	Name       string
	DOB        string
	CardLast4s []string
}

// MissingInputsError reports that a bank's required personal-info fields are
// absent. No candidates are generated: guessing without the inputs a bank's
// convention depends on only burns decryption attempts.
type MissingInputsError struct {
	Bank    string
	Missing []Field
}

func (e *MissingInputsError) Error() string {
	fields := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		fields[i] = string(f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("bank %q: missing credential inputs: %s", e.Bank, strings.Join(fields, ", "))
}

// UnsupportedBankError reports a bank code with no configured convention.
type UnsupportedBankError struct {
	Bank string
}

func (e *UnsupportedBankError) Error() string {
	return fmt.Sprintf("unsupported bank code %q", e.Bank)
}

// Generator produces ordered, deduplicated candidate lists from a rule set.
// It is a pure transformation: identical inputs always yield an identical
// list, with no randomness and no side effects.
type Generator struct {
	rules *RuleSet
}

// NewGenerator creates a generator over the given rule table.
func NewGenerator(rules *RuleSet) *Generator {
	return &Generator{rules: rules}
}

// Generate returns the candidate list for a bank, most-likely-first:
// the bank's own convention templates, then generic defaults. Duplicates
// keep their earliest (highest-priority) position.
func (g *Generator) Generate(bankCode string, holder HolderInfo) ([]Candidate, int, error) {
	rule, ok := g.rules.Lookup(bankCode)
	if !ok {
		return nil, 0, &UnsupportedBankError{Bank: bankCode}
	}

	if missing := missingFields(rule, holder); len(missing) > 0 {
		return nil, 0, &MissingInputsError{Bank: rule.Bank, Missing: missing}
	}

	var candidates []Candidate
	seen := make(map[string]bool)
	add := func(value, provenance string) {
		if value == "" || seen[value] {
			return
		}
		seen[value] = true
		candidates = append(candidates, Candidate{Value: value, Provenance: provenance})
	}

	for _, tmpl := range rule.CandidateOrder {
		for _, value := range expand(tmpl, holder) {
			add(value, tmpl)
		}
	}
	for _, value := range genericCandidates(holder) {
		add(value, "generic")
	}

	if len(candidates) == 0 {
		// Required fields were present but every template expanded empty;
		// treat as missing inputs rather than returning an empty list.
		return nil, 0, &MissingInputsError{Bank: rule.Bank, Missing: rule.RequiredFields}
	}

	return candidates, rule.MaxAttempts, nil
}

func missingFields(rule BankRule, holder HolderInfo) []Field {
	var missing []Field
	for _, f := range rule.RequiredFields {
		switch f {
		case FieldName:
			if strings.TrimSpace(holder.Name) == "" {
				missing = append(missing, f)
			}
		case FieldDOB:
			if len(onlyDigits(holder.DOB)) != 8 {
				missing = append(missing, f)
			}
		case FieldCard4:
			if len(holder.CardLast4s) == 0 {
				missing = append(missing, f)
			}
		}
	}
	return missing
}

// expand substitutes personal-info tokens into a template. A template that
// references card digits expands once per known card, preserving card order.
// Token vocabulary:
//
//	{name4}  first four letters of the first name, lowercase
//	{NAME4}  same, uppercase
//	{dob}    DDMMYYYY
//	{ddmm}   day and month
//	{ddmmyy} day, month, two-digit year
//	{yyyy}   four-digit year
//	{card4}  last four digits of the card
func expand(tmpl string, holder HolderInfo) []string {
	base := tmpl
	base = strings.ReplaceAll(base, "{name4}", strings.ToLower(namePrefix(holder.Name, 4)))
	base = strings.ReplaceAll(base, "{NAME4}", strings.ToUpper(namePrefix(holder.Name, 4)))

	dob := onlyDigits(holder.DOB)
	if len(dob) == 8 {
		base = strings.ReplaceAll(base, "{dob}", dob)
		base = strings.ReplaceAll(base, "{ddmm}", dob[:4])
		base = strings.ReplaceAll(base, "{ddmmyy}", dob[:4]+dob[6:])
		base = strings.ReplaceAll(base, "{yyyy}", dob[4:])
	}

	if !strings.Contains(base, "{card4}") {
		if strings.Contains(base, "{") {
			// An unexpandable token remains; drop the template.
			return nil
		}
		return []string{base}
	}

	var values []string
	for _, card := range holder.CardLast4s {
		card = onlyDigits(card)
		if len(card) != 4 {
			continue
		}
		value := strings.ReplaceAll(base, "{card4}", card)
		if !strings.Contains(value, "{") {
			values = append(values, value)
		}
	}
	return values
}

// genericCandidates are last-resort guesses shared across banks.
func genericCandidates(holder HolderInfo) []string {
	var generics []string

	if dob := onlyDigits(holder.DOB); len(dob) == 8 {
		generics = append(generics, dob, dob[:4], reverse(dob))
		for _, card := range holder.CardLast4s {
			if card = onlyDigits(card); len(card) == 4 {
				generics = append(generics, dob[:4]+card)
			}
		}
	}
	for _, card := range holder.CardLast4s {
		if card = onlyDigits(card); len(card) == 4 {
			generics = append(generics, card)
		}
	}

	return append(generics, "0000", "1234")
}

func namePrefix(name string, n int) string {
	first := strings.Fields(strings.TrimSpace(name))
	if len(first) == 0 {
		return ""
	}
	letters := make([]rune, 0, n)
	for _, r := range first[0] {
		letters = append(letters, r)
		if len(letters) == n {
			break
		}
	}
	if len(letters) < n {
		return ""
	}
	return string(letters)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
