package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardpilot/statement-engine/internal/domain/categorize"
	"github.com/cardpilot/statement-engine/internal/domain/decrypt"
	"github.com/cardpilot/statement-engine/internal/domain/extract"
	"github.com/cardpilot/statement-engine/internal/domain/parse"
	"github.com/cardpilot/statement-engine/internal/domain/password"
	"github.com/cardpilot/statement-engine/internal/domain/statement"
	"github.com/cardpilot/statement-engine/pkg/storage"
)

// fakeDecryptor accepts exactly one password and records every candidate it
// saw, in order.
type fakeDecryptor struct {
	accept string
	mu     sync.Mutex
	tried  []string
}

func (f *fakeDecryptor) Decrypt(_ context.Context, encrypted []byte, pw string) ([]byte, error) {
	f.mu.Lock()
	f.tried = append(f.tried, pw)
	f.mu.Unlock()
	if pw == f.accept {
		return append([]byte("plain:"), encrypted...), nil
	}
	return nil, decrypt.ErrWrongPassword
}

// fakeExtractor skips real PDF parsing and hands the plaintext bytes through
// as statement text.
type fakeExtractor struct {
	fail bool
}

func (f *fakeExtractor) Extract(plaintext []byte) (*extract.Text, error) {
	if f.fail {
		return nil, &extract.FailedError{Reason: "no extractable text"}
	}
	return &extract.Text{Text: string(plaintext), PageCount: 2}, nil
}

type cannedCompleter struct {
	response string
}

func (c *cannedCompleter) Complete(context.Context, string, string) (string, error) {
	return c.response, nil
}

type memoryStore struct {
	mu    sync.Mutex
	saved map[string]*statement.Extraction
}

func (m *memoryStore) SaveExtraction(_ context.Context, ext *statement.Extraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string]*statement.Extraction)
	}
	m.saved[ext.SourceID] = ext
	return nil
}

type memoryVectors struct {
	mu       sync.Mutex
	received map[string]int
}

func (m *memoryVectors) Consume(_ context.Context, sourceID string, txns []statement.CanonicalTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.received == nil {
		m.received = make(map[string]int)
	}
	m.received[sourceID] = len(txns)
	return nil
}

const statementResponse = `{
  "card_details": {"bank": "HDFC", "masked_number": "XXXX 4321", "card_type": "Millennia", "credit_limit": 250000, "available_limit": 198000},
  "summary": {"statement_date": "2025-06-15", "due_date": "2025-07-05", "total_due": 1350, "min_due": 100, "opening_balance": 0, "payment_amount": 0, "purchase_amount": 1350},
  "transactions": [
    {"date": "2025-06-02", "description": "SWIGGY BANGALORE", "amount": 350, "direction": "debit", "category": "Food", "sub_category": "Delivery"},
    {"date": "2025-06-05", "description": "INTEREST CHARGED", "amount": 500, "direction": "debit", "category": "INTEREST", "sub_category": ""},
    {"date": "2025-06-09", "description": "AMAZON PAY INDIA", "amount": 500, "direction": "debit", "category": "Shopping", "sub_category": ""}
  ]
}`

type fixture struct {
	svc       *Service
	decryptor *fakeDecryptor
	extractor *fakeExtractor
	scratch   *storage.Scratch
	store     *memoryStore
	vectors   *memoryVectors
}

func newFixture(t *testing.T, accept string) *fixture {
	t.Helper()

	scratch, err := storage.NewScratch(t.TempDir())
	require.NoError(t, err)

	logger := slog.Default()
	decryptor := &fakeDecryptor{accept: accept}
	extractor := &fakeExtractor{}
	store := &memoryStore{}
	vectors := &memoryVectors{}

	svc := NewService(
		password.NewGenerator(password.DefaultRules()),
		decrypt.NewEngine(decryptor, scratch, logger),
		extractor,
		parse.NewParser(&cannedCompleter{response: statementResponse}, parse.Config{Model: "test"}, logger),
		categorize.NewNormalizer(),
		scratch,
		store,
		vectors,
		Config{Workers: 3},
		logger,
	)

	return &fixture{svc: svc, decryptor: decryptor, extractor: extractor, scratch: scratch, store: store, vectors: vectors}
}

func hdfcSource(id string) statement.Source {
	return statement.Source{
		ID:         id,
		BankCode:   "hdfc",
		PDF:        []byte("%PDF-fake"),
		HolderName: "Ravi Kumar",
		HolderDOB:  "15011990",
		CardLast4s: []string{"4321"},
	}
}

func TestProcessSucceeds(t *testing.T) {
	// hdfc convention: {name4}{ddmm} first, so "ravi1501" wins immediately.
	fx := newFixture(t, "ravi1501")

	outcome := fx.svc.Process(context.Background(), hdfcSource("stmt-1"))

	require.False(t, outcome.Failed())
	ext := outcome.Extraction

	assert.Equal(t, "stmt-1", ext.SourceID)
	assert.Equal(t, "ravi1501", ext.PasswordUsed)
	assert.Equal(t, "{name4}{ddmm}", ext.PasswordProvenance)
	assert.Equal(t, 1, ext.DecryptAttempts)
	assert.Equal(t, 2, ext.PageCount)

	require.Len(t, ext.Transactions, 3)
	assert.Equal(t, categorize.CategoryFoodOrdering, ext.Transactions[0].Category)
	assert.Equal(t, categorize.CategoryAmazon, ext.Transactions[2].Category)

	// Interest line is excluded, the rest counts as spend.
	assert.True(t, ext.SpendTotal.Equal(decimal.NewFromInt(850)))
	assert.Equal(t, 1, ext.ExcludedReasons[categorize.ReasonEMIInterest])

	require.NotNil(t, fx.store.saved["stmt-1"])
	assert.Equal(t, 2, fx.vectors.received["stmt-1"])

	// Scratch artifact released after processing.
	assert.Zero(t, fx.scratch.LiveCount())
}

func TestProcessExplicitPasswordBypassesGeneration(t *testing.T) {
	fx := newFixture(t, "secret-pw")

	src := hdfcSource("stmt-2")
	src.ExplicitPassword = "secret-pw"
	src.HolderDOB = "" // would fail generation, must not matter

	outcome := fx.svc.Process(context.Background(), src)

	require.False(t, outcome.Failed())
	assert.Equal(t, "provided", outcome.Extraction.PasswordProvenance)
	assert.Equal(t, []string{"secret-pw"}, fx.decryptor.tried)
}

func TestProcessMissingCredentials(t *testing.T) {
	fx := newFixture(t, "ravi1501")

	src := hdfcSource("stmt-3")
	src.HolderDOB = ""

	outcome := fx.svc.Process(context.Background(), src)

	require.True(t, outcome.Failed())
	assert.Equal(t, statement.FailureMissingCredentials, outcome.Failure)
	assert.Contains(t, outcome.FailureDetail, "missing credential inputs")
	assert.Empty(t, fx.decryptor.tried, "no attempts may be made")
}

func TestProcessUnsupportedBank(t *testing.T) {
	fx := newFixture(t, "ravi1501")

	src := hdfcSource("stmt-4")
	src.BankCode = "unknownbank"

	outcome := fx.svc.Process(context.Background(), src)

	require.True(t, outcome.Failed())
	assert.Equal(t, statement.FailureMissingCredentials, outcome.Failure)
}

func TestProcessDecryptionExhausted(t *testing.T) {
	fx := newFixture(t, "nothing-matches")

	outcome := fx.svc.Process(context.Background(), hdfcSource("stmt-5"))

	require.True(t, outcome.Failed())
	assert.Equal(t, statement.FailureDecryptExhausted, outcome.Failure)
	assert.NotEmpty(t, fx.decryptor.tried)
	assert.Zero(t, fx.scratch.LiveCount())
}

func TestProcessExtractionFailedReleasesScratch(t *testing.T) {
	fx := newFixture(t, "ravi1501")
	fx.extractor.fail = true

	outcome := fx.svc.Process(context.Background(), hdfcSource("stmt-6"))

	require.True(t, outcome.Failed())
	assert.Equal(t, statement.FailureExtraction, outcome.Failure)
	assert.Zero(t, fx.scratch.LiveCount(), "scratch must be released on failure paths")
}

func TestProcessIsIdempotent(t *testing.T) {
	fx := newFixture(t, "ravi1501")
	src := hdfcSource("stmt-7")

	first := fx.svc.Process(context.Background(), src)
	second := fx.svc.Process(context.Background(), src)

	require.False(t, first.Failed())
	require.False(t, second.Failed())
	assert.Equal(t, first.Extraction.Transactions, second.Extraction.Transactions)
	assert.True(t, first.Extraction.SpendTotal.Equal(second.Extraction.SpendTotal))
	assert.Equal(t, first.Extraction.PasswordUsed, second.Extraction.PasswordUsed)
}

func TestProcessBatchIndependentOutcomes(t *testing.T) {
	fx := newFixture(t, "ravi1501")

	srcs := make([]statement.Source, 0, 6)
	for i := 0; i < 6; i++ {
		src := hdfcSource(fmt.Sprintf("stmt-%d", i))
		if i == 3 {
			src.HolderDOB = "" // poisoned
		}
		srcs = append(srcs, src)
	}

	outcomes := fx.svc.ProcessBatch(context.Background(), srcs)

	require.Len(t, outcomes, 6)
	failed := 0
	for i, outcome := range outcomes {
		require.NotNil(t, outcome, "outcome %d", i)
		assert.Equal(t, srcs[i].ID, outcome.SourceID, "outcomes keep input order")
		if outcome.Failed() {
			failed++
			assert.Equal(t, statement.FailureMissingCredentials, outcome.Failure)
		}
	}
	assert.Equal(t, 1, failed)
	assert.Zero(t, fx.scratch.LiveCount())
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want statement.FailureReason
	}{
		{"missing inputs", &password.MissingInputsError{Bank: "hdfc"}, statement.FailureMissingCredentials},
		{"unsupported bank", &password.UnsupportedBankError{Bank: "x"}, statement.FailureMissingCredentials},
		{"exhausted", &decrypt.ExhaustedError{AttemptsTried: 4}, statement.FailureDecryptExhausted},
		{"fatal decrypt", &decrypt.FatalError{Attempt: 1, Err: errors.New("corrupt")}, statement.FailureExtraction},
		{"extract", &extract.FailedError{Reason: "zero pages"}, statement.FailureExtraction},
		{"validation", &parse.ValidationError{Attempts: 3, LastErr: errors.New("bad json")}, statement.FailureParseValidation},
		{"unknown", errors.New("boom"), statement.FailureInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyFailure(tc.err))
		})
	}
}
