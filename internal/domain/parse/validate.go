package parse

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Wire shapes for the model's JSON output. Numbers decode as json.Number so
// amounts survive the trip into decimals without float rounding.
type wireStatement struct {
	CardDetails  wireCard    `json:"card_details"`
	Summary      wireSummary `json:"summary"`
	Transactions []wireTxn   `json:"transactions"`
}

type wireCard struct {
	Bank           string      `json:"bank"`
	MaskedNumber   string      `json:"masked_number"`
	CardType       string      `json:"card_type"`
	CreditLimit    json.Number `json:"credit_limit"`
	AvailableLimit json.Number `json:"available_limit"`
}

type wireSummary struct {
	StatementDate  string      `json:"statement_date"`
	DueDate        string      `json:"due_date"`
	TotalDue       json.Number `json:"total_due"`
	MinDue         json.Number `json:"min_due"`
	OpeningBalance json.Number `json:"opening_balance"`
	PaymentAmount  json.Number `json:"payment_amount"`
	PurchaseAmount json.Number `json:"purchase_amount"`
}

type wireTxn struct {
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Direction   string      `json:"direction"`
	Category    string      `json:"category"`
	SubCategory string      `json:"sub_category"`
}

// decodeAndValidate parses the cleaned model JSON and enforces the schema:
// every transaction needs a parseable date, a non-empty description, a
// non-negative amount and a known direction. Category strings are hints and
// may be empty.
func decodeAndValidate(raw string) (*Result, error) {
	dec := json.NewDecoder(strings.NewReader(cleanModelJSON(raw)))
	dec.UseNumber()

	var wire wireStatement
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %v", err)
	}

	if len(wire.Transactions) == 0 {
		return nil, fmt.Errorf("response contains no transactions")
	}

	result := &Result{
		CardDetails: CardDetails{
			Bank:           strings.TrimSpace(wire.CardDetails.Bank),
			MaskedNumber:   strings.TrimSpace(wire.CardDetails.MaskedNumber),
			CardType:       strings.TrimSpace(wire.CardDetails.CardType),
			CreditLimit:    optionalAmount(wire.CardDetails.CreditLimit),
			AvailableLimit: optionalAmount(wire.CardDetails.AvailableLimit),
		},
		Summary: Summary{
			StatementDate:  optionalDate(wire.Summary.StatementDate),
			DueDate:        optionalDate(wire.Summary.DueDate),
			TotalDue:       optionalAmount(wire.Summary.TotalDue),
			MinDue:         optionalAmount(wire.Summary.MinDue),
			OpeningBalance: optionalAmount(wire.Summary.OpeningBalance),
			PaymentAmount:  optionalAmount(wire.Summary.PaymentAmount),
			PurchaseAmount: optionalAmount(wire.Summary.PurchaseAmount),
		},
		Transactions: make([]Transaction, 0, len(wire.Transactions)),
	}

	for i, txn := range wire.Transactions {
		parsed, err := validateTxn(txn)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %v", i+1, err)
		}
		result.Transactions = append(result.Transactions, parsed)
	}

	return result, nil
}

func validateTxn(txn wireTxn) (Transaction, error) {
	date, err := parseDate(txn.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid date %q", txn.Date)
	}

	desc := strings.TrimSpace(txn.Description)
	if desc == "" {
		return Transaction{}, fmt.Errorf("missing description")
	}

	if txn.Amount == "" {
		return Transaction{}, fmt.Errorf("missing amount")
	}
	amount, err := decimal.NewFromString(txn.Amount.String())
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid amount %q", txn.Amount)
	}
	if amount.IsNegative() {
		return Transaction{}, fmt.Errorf("negative amount %s; carry the flow in direction", amount)
	}

	direction := Direction(strings.ToLower(strings.TrimSpace(txn.Direction)))
	if !direction.Valid() {
		return Transaction{}, fmt.Errorf("invalid direction %q", txn.Direction)
	}

	return Transaction{
		Date:              date,
		Description:       desc,
		Amount:            amount,
		Direction:         direction,
		VendorCategory:    strings.TrimSpace(txn.Category),
		VendorSubCategory: strings.TrimSpace(txn.SubCategory),
	}, nil
}

var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02 Jan 2006",
	"02 January 2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized format")
}

func optionalDate(s string) time.Time {
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func optionalAmount(n json.Number) decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the strict-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost JSON object if junk remains around it.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
