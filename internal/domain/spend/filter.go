// Package spend separates cashback-eligible spending from the statement
// noise: EMIs, interest, card payments, reversals, fee lines and credits.
package spend

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cardpilot/statement-engine/internal/domain/categorize"
	"github.com/cardpilot/statement-engine/internal/domain/parse"
	"github.com/cardpilot/statement-engine/internal/domain/statement"
)

// cashbackCreditTokens identify credits that ARE rewards. They stay in the
// spend partition and net against the total instead of being excluded.
var cashbackCreditTokens = []string{
	"CASHBACK",
	"REWARD",
	"CB CREDIT",
}

// nonSpendToken pairs an exclusion token with its stable reason string.
type nonSpendToken struct {
	token  string
	reason string
}

// nonSpendDescriptionTokens catch exclusion signals the categorizer may have
// missed when the vendor map had no entry for the line. The slice order is
// the match precedence: a description hitting two tokens always gets the
// earlier reason.
var nonSpendDescriptionTokens = []nonSpendToken{
	{"EMI", categorize.ReasonEMIInterest},
	{"INTEREST", categorize.ReasonEMIInterest},
	{"FINANCE CHARGE", categorize.ReasonEMIInterest},
	{"LATE FEE", categorize.ReasonEMIInterest},
	{"REVERSAL", categorize.ReasonReversal},
	{"FX MARKUP", categorize.ReasonFxMarkup},
	{"MARKUP FEE", categorize.ReasonFxMarkup},
}

// Result is the filtered spend view of one statement's transactions.
type Result struct {
	// Spend holds the lines that count toward the monthly category vector:
	// eligible debits plus cashback credits netting against them.
	Spend []statement.CanonicalTransaction

	// Excluded holds everything else, each carrying its reason.
	Excluded []statement.CanonicalTransaction

	// Totals are signed: debits add, credits subtract, so
	// SpendTotal + ExcludedTotal always equals the net of the input.
	SpendTotal      decimal.Decimal
	ExcludedTotal   decimal.Decimal
	ExcludedReasons map[string]int
}

// Filter partitions transactions into spend and excluded. Input order is
// preserved within each partition.
func Filter(txns []statement.CanonicalTransaction) Result {
	result := Result{
		Spend:           make([]statement.CanonicalTransaction, 0, len(txns)),
		Excluded:        make([]statement.CanonicalTransaction, 0),
		SpendTotal:      decimal.Zero,
		ExcludedTotal:   decimal.Zero,
		ExcludedReasons: make(map[string]int),
	}

	for _, txn := range txns {
		contribution := txn.Amount
		if txn.Direction == parse.DirectionCredit {
			contribution = txn.Amount.Neg()
		}

		if reason, excluded := classify(txn); excluded {
			txn.Excluded = true
			txn.ExclusionReason = reason
			result.Excluded = append(result.Excluded, txn)
			result.ExcludedTotal = result.ExcludedTotal.Add(contribution)
			result.ExcludedReasons[reason]++
			continue
		}
		result.Spend = append(result.Spend, txn)
		result.SpendTotal = result.SpendTotal.Add(contribution)
	}

	return result
}

func classify(txn statement.CanonicalTransaction) (string, bool) {
	// The normalizer's verdict wins when it already flagged the line.
	if txn.Excluded && txn.ExclusionReason != "" {
		return txn.ExclusionReason, true
	}

	upper := strings.ToUpper(txn.Description)

	if txn.Direction == parse.DirectionCredit {
		for _, token := range cashbackCreditTokens {
			if strings.Contains(upper, token) {
				return "", false
			}
		}
		return categorize.ReasonNonSpendCredit, true
	}

	for _, entry := range nonSpendDescriptionTokens {
		// Word-boundary matching keeps "EMI" from hitting inside "PREMIUM"
		// and wrongly excluding an ordinary subscription line.
		if categorize.HasWordToken(upper, entry.token) {
			return entry.reason, true
		}
	}

	return "", false
}
