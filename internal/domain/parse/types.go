// Package parse turns raw statement text into structured card, summary and
// transaction records via a schema-constrained model completion call.
package parse

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the money flow of a transaction.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

// Transaction is one extracted statement line, validated but not yet
// categorized. VendorCategory and VendorSubCategory are the source's own
// labels and are treated as hints only.
type Transaction struct {
	Date              time.Time
	Description       string
	Amount            decimal.Decimal
	Direction         Direction
	VendorCategory    string
	VendorSubCategory string
}

// CardDetails describes the card the statement belongs to.
type CardDetails struct {
	Bank           string
	MaskedNumber   string
	CardType       string
	CreditLimit    decimal.Decimal
	AvailableLimit decimal.Decimal
}

// Summary holds the statement-level figures.
type Summary struct {
	StatementDate  time.Time
	DueDate        time.Time
	TotalDue       decimal.Decimal
	MinDue         decimal.Decimal
	OpeningBalance decimal.Decimal
	PaymentAmount  decimal.Decimal
	PurchaseAmount decimal.Decimal
}

// Result is a validated parse of one statement.
type Result struct {
	CardDetails  CardDetails
	Summary      Summary
	Transactions []Transaction

	// Call metadata for downstream quality gating.
	Model      string
	Attempts   int // total completion calls made
	Latency    time.Duration
	Confidence float64 // heuristic 0..100
}

// ValidationError reports that the model output never conformed to the
// schema within the retry budget. The statement is recoverable-but-failed,
// not a pipeline crash.
type ValidationError struct {
	Attempts int
	LastErr  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("model output failed validation after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ValidationError) Unwrap() error { return e.LastErr }
