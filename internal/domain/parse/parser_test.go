package parse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResponse = `{
  "card_details": {
    "bank": "HDFC",
    "masked_number": "XXXX XXXX XXXX 4321",
    "card_type": "Millennia",
    "credit_limit": 250000,
    "available_limit": 198000
  },
  "summary": {
    "statement_date": "2025-06-15",
    "due_date": "2025-07-05",
    "total_due": 52340.75,
    "min_due": 2620,
    "opening_balance": 1200.50,
    "payment_amount": 1200.50,
    "purchase_amount": 52340.75
  },
  "transactions": [
    {"date": "2025-06-02", "description": "SWIGGY BANGALORE", "amount": 438.00, "direction": "debit", "category": "Food", "sub_category": "Delivery"},
    {"date": "2025-06-10", "description": "AMAZON PAY INDIA", "amount": 1999.00, "direction": "debit", "category": "Shopping", "sub_category": ""}
  ]
}`

type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *scriptedCompleter) Complete(_ context.Context, _, user string) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, user)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("script exhausted")
}

func TestParserSucceedsFirstAttempt(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{validResponse}}
	parser := NewParser(completer, Config{Model: "gemini-2.0-flash"}, nil)

	result, err := parser.Parse(context.Background(), "hdfc", "statement text")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, "gemini-2.0-flash", result.Model)
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, "SWIGGY BANGALORE", result.Transactions[0].Description)
	assert.True(t, result.Transactions[0].Amount.Equal(decimal.RequireFromString("438.00")))
	assert.Equal(t, DirectionDebit, result.Transactions[0].Direction)
	assert.True(t, result.Summary.TotalDue.Equal(decimal.RequireFromString("52340.75")))
}

func TestParserRetriesWithFeedback(t *testing.T) {
	bad := `{"card_details": {}, "summary": {}, "transactions": [{"date": "junk", "description": "X", "amount": 1, "direction": "debit"}]}`
	completer := &scriptedCompleter{responses: []string{bad, validResponse}}
	parser := NewParser(completer, Config{MaxRetries: 2}, nil)

	result, err := parser.Parse(context.Background(), "hdfc", "statement text")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempts)
	require.Len(t, completer.prompts, 2)
	assert.NotContains(t, completer.prompts[0], "previous responses")
	assert.Contains(t, completer.prompts[1], "invalid date")
}

func TestParserExhaustsRetries(t *testing.T) {
	// MaxRetries=2 means exactly three total attempts.
	bad := `not json at all`
	completer := &scriptedCompleter{responses: []string{bad, bad, bad, bad}}
	parser := NewParser(completer, Config{MaxRetries: 2}, nil)

	_, err := parser.Parse(context.Background(), "icici", "statement text")
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, 3, valErr.Attempts)
	assert.Equal(t, 3, completer.calls)
}

func TestParserModelErrorConsumesRetry(t *testing.T) {
	completer := &scriptedCompleter{
		errs:      []error{errors.New("rate limited"), nil},
		responses: []string{"", validResponse},
	}
	parser := NewParser(completer, Config{MaxRetries: 1}, nil)

	result, err := parser.Parse(context.Background(), "axis", "statement text")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
}

func TestParserParentCancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	completer := &scriptedCompleter{responses: []string{validResponse}}
	parser := NewParser(completer, Config{}, nil)

	_, err := parser.Parse(ctx, "hdfc", "statement text")
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, completer.calls)
}

type slowCompleter struct {
	calls int
}

func (s *slowCompleter) Complete(ctx context.Context, _, _ string) (string, error) {
	s.calls++
	if s.calls == 1 {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return validResponse, nil
}

func TestParserAttemptTimeoutIsRetryable(t *testing.T) {
	completer := &slowCompleter{}
	parser := NewParser(completer, Config{MaxRetries: 1, AttemptTimeout: 20 * time.Millisecond}, nil)

	result, err := parser.Parse(context.Background(), "hdfc", "statement text")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 2, completer.calls)
}

func TestConfidenceDropsWithRetriesAndSparsity(t *testing.T) {
	// No summary anchors, no card number, no category hints, third attempt.
	sparse := `{"card_details": {}, "summary": {}, "transactions": [
      {"date": "2025-06-02", "description": "POS 1", "amount": 100, "direction": "debit"},
      {"date": "2025-06-03", "description": "POS 2", "amount": 200, "direction": "debit"}
    ]}`
	bad := `nope`
	completer := &scriptedCompleter{responses: []string{bad, bad, sparse}}
	parser := NewParser(completer, Config{MaxRetries: 2}, nil)

	result, err := parser.Parse(context.Background(), "sbi", "statement text")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempts)
	// 100 - 30 (two retries) - 20 (missing anchors) - 15 (no hints) = 35.
	assert.InDelta(t, 35, result.Confidence, 0.001)

	clean := &scriptedCompleter{responses: []string{validResponse}}
	best, err := NewParser(clean, Config{}, nil).Parse(context.Background(), "hdfc", "text")
	require.NoError(t, err)
	assert.Greater(t, best.Confidence, result.Confidence)
}

func TestDecodeAndValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		txn  string
		want string
	}{
		{"missing description", `{"date": "2025-06-02", "description": "  ", "amount": 1, "direction": "debit"}`, "missing description"},
		{"missing amount", `{"date": "2025-06-02", "description": "X", "direction": "debit"}`, "missing amount"},
		{"negative amount", `{"date": "2025-06-02", "description": "X", "amount": -5, "direction": "debit"}`, "negative amount"},
		{"bad direction", `{"date": "2025-06-02", "description": "X", "amount": 5, "direction": "outbound"}`, "invalid direction"},
		{"bad date", `{"date": "someday", "description": "X", "amount": 5, "direction": "credit"}`, "invalid date"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := fmt.Sprintf(`{"card_details": {}, "summary": {}, "transactions": [%s]}`, tc.txn)
			_, err := decodeAndValidate(raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDecodeAndValidateEmptyTransactions(t *testing.T) {
	_, err := decodeAndValidate(`{"card_details": {}, "summary": {}, "transactions": []}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transactions")
}

func TestCleanModelJSONStripsFences(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	result, err := decodeAndValidate(fenced)
	require.NoError(t, err)
	assert.Len(t, result.Transactions, 2)
}

func TestCleanModelJSONStripsProse(t *testing.T) {
	wrapped := "Here is the parsed statement:\n" + validResponse + "\nLet me know if you need anything else."
	result, err := decodeAndValidate(wrapped)
	require.NoError(t, err)
	assert.Len(t, result.Transactions, 2)
}

func TestParseDateFormats(t *testing.T) {
	for _, s := range []string{"2025-06-15", "15/06/2025", "15-06-2025", "15 Jun 2025", "15 June 2025"} {
		got, err := parseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), got, s)
	}
}

func TestAmountsKeepExactPrecision(t *testing.T) {
	raw := `{"card_details": {}, "summary": {"total_due": 0.1}, "transactions": [
      {"date": "2025-06-02", "description": "A", "amount": 0.1, "direction": "debit", "category": "c"},
      {"date": "2025-06-02", "description": "B", "amount": 0.2, "direction": "debit", "category": "c"}
    ]}`
	result, err := decodeAndValidate(raw)
	require.NoError(t, err)

	sum := result.Transactions[0].Amount.Add(result.Transactions[1].Amount)
	assert.True(t, sum.Equal(decimal.RequireFromString("0.3")))
}

func TestBuildUserPromptIncludesFeedback(t *testing.T) {
	prompt := buildUserPrompt("hdfc", "raw text", []string{"transaction 3: invalid date \"junk\""})
	assert.Contains(t, prompt, "hdfc")
	assert.Contains(t, prompt, "raw text")
	assert.Contains(t, strings.ToLower(prompt), "attempt 1")
	assert.Contains(t, prompt, "invalid date")
}
