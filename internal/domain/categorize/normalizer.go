package categorize

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/shopspring/decimal"
)

// Input is everything the cascade may consider for one transaction.
type Input struct {
	Description       string
	Amount            decimal.Decimal
	VendorCategory    string
	VendorSubCategory string
}

// Decision is the single outcome of the cascade for one transaction.
// Exactly one tier produces it, by precedence order.
type Decision struct {
	Category        Category
	Confidence      float64
	Tier            Tier
	MatchedPattern  string
	Exclude         bool
	ExclusionReason string
}

// Normalizer runs the precedence cascade. It holds only immutable tables
// built at construction time, so one instance is safe to share across
// concurrent workers.
type Normalizer struct {
	lexical     *LexicalEngine
	weakRules   []WeakRule
	vendorMap   map[string]VendorMapping
	aggregators []string
	cardBill    []string
	online      []string

	rentBandMin decimal.Decimal
	rentBandMax decimal.Decimal
}

// Option customizes a Normalizer at construction time.
type Option func(*Normalizer)

// WithVendorMap replaces the built-in vendor-hint table, e.g. with entries
// loaded from a versioned CSV file.
func WithVendorMap(mappings []VendorMapping) Option {
	return func(n *Normalizer) {
		n.vendorMap = buildVendorIndex(mappings)
	}
}

// WithKeywordTable replaces the built-in strong keyword table.
func WithKeywordTable(table []KeywordEntry) Option {
	return func(n *Normalizer) {
		n.lexical = NewLexicalEngine(table)
	}
}

// NewNormalizer builds a cascade from the built-in tables, applying any
// overrides.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		lexical:     NewLexicalEngine(defaultKeywordTable()),
		weakRules:   defaultWeakRules(),
		vendorMap:   buildVendorIndex(defaultVendorMap()),
		aggregators: defaultAggregators(),
		cardBill:    cardBillTokens(),
		online:      onlineCues(),
		rentBandMin: decimal.NewFromInt(8000),
		rentBandMax: decimal.NewFromInt(200000),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func buildVendorIndex(mappings []VendorMapping) map[string]VendorMapping {
	index := make(map[string]VendorMapping, len(mappings))
	for _, m := range mappings {
		key := strings.ToUpper(strings.TrimSpace(m.Hint))
		if key == "" {
			continue
		}
		if _, exists := index[key]; !exists {
			index[key] = m
		}
	}
	return index
}

// Normalize assigns exactly one category to the transaction. The tiers run
// in strict precedence order and the first definite outcome wins; a tier
// that cannot decide falls through to the next one.
func (n *Normalizer) Normalize(in Input) Decision {
	if d, ok := n.lexicalTier(in); ok {
		return d
	}
	if d, ok := n.vendorTier(in); ok {
		return d
	}
	if d, ok := n.contextTier(in); ok {
		return d
	}
	if d, ok := n.amountBandTier(in); ok {
		return d
	}
	return n.defaultTier(in)
}

// NormalizeBatch runs the cascade over many transactions. The normalizer is
// stateless, so callers may instead shard the slice across goroutines.
func (n *Normalizer) NormalizeBatch(inputs []Input) []Decision {
	decisions := make([]Decision, len(inputs))
	for i, in := range inputs {
		decisions[i] = n.Normalize(in)
	}
	return decisions
}

// lexicalTier: an exact strong-keyword hit is absolute. It short-circuits
// vendor hints and amounts entirely.
func (n *Normalizer) lexicalTier(in Input) (Decision, bool) {
	match := n.lexical.Match(in.Description)
	if match == nil {
		return Decision{}, false
	}
	return Decision{
		Category:       match.Category,
		Confidence:     0.95,
		Tier:           TierLexical,
		MatchedPattern: match.Pattern,
	}, true
}

// vendorTier translates the source's own category hint through the
// bank-agnostic mapping table. Non-spend entries produce an exclusion signal
// with the fallback category cue, never a spend-category guess.
func (n *Normalizer) vendorTier(in Input) (Decision, bool) {
	hint := strings.ToUpper(strings.TrimSpace(in.VendorCategory))
	if hint == "" {
		return Decision{}, false
	}

	sub := strings.ToUpper(strings.TrimSpace(in.VendorSubCategory))

	// Most specific first: CATEGORY/SUBCATEGORY, then CATEGORY alone.
	mapping, ok := n.vendorMap[hint+"/"+sub]
	if !ok {
		mapping, ok = n.vendorMap[hint]
	}
	if !ok {
		return Decision{}, false
	}

	if mapping.Exclude {
		return Decision{
			Category:        n.fallbackCategory(in),
			Confidence:      0.85,
			Tier:            TierVendorHint,
			MatchedPattern:  mapping.Hint,
			Exclude:         true,
			ExclusionReason: mapping.Reason,
		}, true
	}

	return Decision{
		Category:       mapping.Category,
		Confidence:     0.80,
		Tier:           TierVendorHint,
		MatchedPattern: mapping.Hint,
	}, true
}

// contextTier accepts weak tokens only when a second signal corroborates
// them. This suppresses false positives from short brand abbreviations.
func (n *Normalizer) contextTier(in Input) (Decision, bool) {
	for _, rule := range n.weakRules {
		if !HasWordToken(in.Description, rule.Token) {
			continue
		}
		if !n.corroborates(in, rule) {
			continue
		}
		return Decision{
			Category:       rule.Category,
			Confidence:     0.70,
			Tier:           TierContext,
			MatchedPattern: rule.Token,
		}, true
	}
	return Decision{}, false
}

// corroborates checks for a second independent signal: a companion keyword,
// a vendor hint agreeing with the rule's category, or an amount inside the
// rule's configured band.
func (n *Normalizer) corroborates(in Input, rule WeakRule) bool {
	words := strings.Fields(strings.ToUpper(in.Description))
	for _, companion := range rule.Companions {
		for _, word := range words {
			// Tolerate a single-character typo in the companion word.
			if word == companion || fuzzy.LevenshteinDistance(word, companion) <= 1 {
				return true
			}
		}
	}

	if hint := strings.ToUpper(strings.TrimSpace(in.VendorCategory)); hint != "" {
		if mapping, ok := n.vendorMap[hint]; ok && !mapping.Exclude && mapping.Category == rule.Category {
			return true
		}
	}

	if !rule.AmountMax.IsZero() {
		if in.Amount.GreaterThanOrEqual(rule.AmountMin) && in.Amount.LessThanOrEqual(rule.AmountMax) {
			return true
		}
	}

	return false
}

// amountBandTier handles transfers through known payment aggregators.
// A settlement explicitly tagged as a card-bill payment is an internal
// transfer and is excluded; an anonymous aggregator transfer inside the rent
// band is treated as a rent-like recurring obligation.
func (n *Normalizer) amountBandTier(in Input) (Decision, bool) {
	upper := strings.ToUpper(in.Description)

	for _, token := range n.cardBill {
		if strings.Contains(upper, token) {
			return Decision{
				Category:        n.fallbackCategory(in),
				Confidence:      0.75,
				Tier:            TierAmountBand,
				MatchedPattern:  token,
				Exclude:         true,
				ExclusionReason: ReasonCardPayment,
			}, true
		}
	}

	for _, token := range n.aggregators {
		if !strings.Contains(upper, token) {
			continue
		}
		if in.Amount.GreaterThanOrEqual(n.rentBandMin) && in.Amount.LessThanOrEqual(n.rentBandMax) {
			return Decision{
				Category:       CategoryRent,
				Confidence:     0.60,
				Tier:           TierAmountBand,
				MatchedPattern: token,
			}, true
		}
		// Aggregator hit outside the band: a digital payment of some kind.
		return Decision{
			Category:       CategoryOtherOnline,
			Confidence:     0.50,
			Tier:           TierAmountBand,
			MatchedPattern: token,
		}, true
	}

	return Decision{}, false
}

// defaultTier is the terminal bucket chosen by a description cue.
func (n *Normalizer) defaultTier(in Input) Decision {
	return Decision{
		Category:   n.fallbackCategory(in),
		Confidence: 0.30,
		Tier:       TierDefault,
	}
}

func (n *Normalizer) fallbackCategory(in Input) Category {
	upper := strings.ToUpper(in.Description)
	for _, cue := range n.online {
		if strings.Contains(upper, cue) {
			return CategoryOtherOnline
		}
	}
	return CategoryOtherOffline
}

// HasWordToken reports whether token appears as a standalone word in desc.
// A plain substring check is not enough for short tokens: "RENT" must not
// match "CURRENT", nor "EMI" match "PREMIUM". Matching is case-insensitive
// and token itself may contain spaces.
func HasWordToken(desc, token string) bool {
	upper := strings.ToUpper(desc)
	token = strings.ToUpper(token)

	idx := 0
	for {
		pos := strings.Index(upper[idx:], token)
		if pos < 0 {
			return false
		}
		pos += idx

		beforeOK := pos == 0 || !isWordChar(upper[pos-1])
		afterIdx := pos + len(token)
		afterOK := afterIdx >= len(upper) || !isWordChar(upper[afterIdx])
		if beforeOK && afterOK {
			return true
		}

		idx = pos + 1
	}
}

func isWordChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
