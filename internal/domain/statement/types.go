// Package statement holds the shared domain model flowing through the
// extraction pipeline: the input source, the canonical transactions and the
// per-statement outcome record.
package statement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardpilot/statement-engine/internal/domain/categorize"
	"github.com/cardpilot/statement-engine/internal/domain/parse"
)

// Source is one encrypted statement handed to the pipeline. Exactly one of
// ExplicitPassword or (BankCode plus holder details) drives decryption.
type Source struct {
	ID       string
	BankCode string
	PDF      []byte

	// ExplicitPassword, when set, skips candidate generation entirely.
	ExplicitPassword string

	HolderName string
	HolderDOB  string // DDMMYYYY
	CardLast4s []string
}

// CanonicalTransaction is a parsed transaction after normalization. It keeps
// the raw parse fields and adds the closed-enum category decision.
type CanonicalTransaction struct {
	parse.Transaction

	Category        categorize.Category
	Confidence      float64
	Tier            categorize.Tier
	MatchedPattern  string
	Excluded        bool
	ExclusionReason string
}

// Extraction is the full structured output for one statement.
type Extraction struct {
	SourceID    string
	CardDetails parse.CardDetails
	Summary     parse.Summary

	Transactions []CanonicalTransaction

	// Spend is the filtered view: debits that count toward cashback-eligible
	// spend, and the total they sum to.
	Spend           []CanonicalTransaction
	SpendTotal      decimal.Decimal
	ExcludedReasons map[string]int

	PasswordUsed       string
	PasswordProvenance string
	DecryptAttempts    int
	ParseAttempts      int
	ParseConfidence    float64
	ParseModel         string
	PageCount          int

	// LowConfidence marks a succeeded extraction whose confidence fell under
	// the configured floor. The result is kept and flagged, never dropped.
	LowConfidence bool
}

// FailureReason is the stable taxonomy bucket an unprocessable statement
// lands in.
type FailureReason string

const (
	FailureMissingCredentials FailureReason = "missing_credential_inputs"
	FailureDecryptExhausted   FailureReason = "decryption_exhausted"
	FailureExtraction         FailureReason = "extraction_failed"
	FailureParseValidation    FailureReason = "parse_validation_failed"
	FailureInternal           FailureReason = "internal"
)

// Outcome is the terminal record for one source. Exactly one of Extraction
// or Failure is set.
type Outcome struct {
	SourceID string
	Started  time.Time
	Duration time.Duration

	Extraction *Extraction

	Failure       FailureReason
	FailureDetail string
}

// Failed reports whether the source ended in the failure taxonomy.
func (o *Outcome) Failed() bool { return o.Extraction == nil }
