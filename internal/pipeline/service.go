// Package pipeline chains password generation, PDF decryption, text
// extraction, model parsing, category normalization and spend filtering into
// one statement-processing service.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cardpilot/statement-engine/internal/domain/categorize"
	"github.com/cardpilot/statement-engine/internal/domain/decrypt"
	"github.com/cardpilot/statement-engine/internal/domain/extract"
	"github.com/cardpilot/statement-engine/internal/domain/parse"
	"github.com/cardpilot/statement-engine/internal/domain/password"
	"github.com/cardpilot/statement-engine/internal/domain/spend"
	"github.com/cardpilot/statement-engine/internal/domain/statement"
	"github.com/cardpilot/statement-engine/internal/observability/metrics"
	"github.com/cardpilot/statement-engine/pkg/storage"
)

const tracerName = "statement-engine/pipeline"

// Store persists completed extractions keyed by statement id.
type Store interface {
	SaveExtraction(ctx context.Context, ext *statement.Extraction) error
}

// DocumentDecrypter is the decryption stage seam, satisfied by
// decrypt.Engine.
type DocumentDecrypter interface {
	Run(ctx context.Context, statementID uuid.UUID, encrypted []byte, candidates []password.Candidate, maxAttempts int) (*decrypt.Document, func(), error)
}

// TextExtractor is the extraction stage seam, satisfied by
// extract.Extractor.
type TextExtractor interface {
	Extract(plaintext []byte) (*extract.Text, error)
}

// StatementParser is the model parse stage seam, satisfied by parse.Parser.
type StatementParser interface {
	Parse(ctx context.Context, bankCode, rawText string) (*parse.Result, error)
}

// VectorConsumer receives the spend partition of every succeeded statement,
// to be aggregated into monthly category vectors downstream.
type VectorConsumer interface {
	Consume(ctx context.Context, sourceID string, txns []statement.CanonicalTransaction) error
}

// Config tunes the service.
type Config struct {
	// Workers bounds ProcessBatch concurrency.
	Workers int

	// ConfidenceFloor under which a succeeded extraction is flagged low
	// confidence (0-100 scale).
	ConfidenceFloor float64
}

const (
	defaultWorkers         = 4
	defaultConfidenceFloor = 50
)

// Service runs the per-statement stage sequence. All stage collaborators are
// stateless or internally synchronized, so one Service serves concurrent
// batches.
type Service struct {
	passwords  *password.Generator
	decrypter  DocumentDecrypter
	extractor  TextExtractor
	parser     StatementParser
	normalizer *categorize.Normalizer
	scratch    *storage.Scratch

	store   Store
	vectors VectorConsumer

	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
}

func NewService(
	passwords *password.Generator,
	decrypter DocumentDecrypter,
	extractor TextExtractor,
	parser StatementParser,
	normalizer *categorize.Normalizer,
	scratch *storage.Scratch,
	store Store,
	vectors VectorConsumer,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.ConfidenceFloor <= 0 {
		cfg.ConfidenceFloor = defaultConfidenceFloor
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		passwords:  passwords,
		decrypter:  decrypter,
		extractor:  extractor,
		parser:     parser,
		normalizer: normalizer,
		scratch:    scratch,
		store:      store,
		vectors:    vectors,
		cfg:        cfg,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// Process runs one source through every stage and always returns an Outcome;
// stage failures land in the failure taxonomy, never as a returned error.
func (s *Service) Process(ctx context.Context, src statement.Source) *statement.Outcome {
	started := time.Now()

	ctx, span := s.tracer.Start(ctx, "statement.process",
		trace.WithAttributes(
			attribute.String("statement.id", src.ID),
			attribute.String("statement.bank", src.BankCode),
		))
	defer span.End()

	outcome := s.process(ctx, src)
	outcome.SourceID = src.ID
	outcome.Started = started
	outcome.Duration = time.Since(started)

	metrics.ObserveOutcome(outcome.Failed(), string(outcome.Failure))
	if s.scratch != nil {
		metrics.SetScratchLive(s.scratch.LiveCount())
	}

	if outcome.Failed() {
		span.SetAttributes(attribute.String("statement.failure", string(outcome.Failure)))
		s.logger.Warn("statement failed",
			slog.String("statement_id", src.ID),
			slog.String("bank", src.BankCode),
			slog.String("reason", string(outcome.Failure)),
			slog.String("detail", outcome.FailureDetail),
			slog.Duration("took", outcome.Duration))
	} else {
		s.logger.Info("statement processed",
			slog.String("statement_id", src.ID),
			slog.String("bank", src.BankCode),
			slog.Int("transactions", len(outcome.Extraction.Transactions)),
			slog.Float64("confidence", outcome.Extraction.ParseConfidence),
			slog.Bool("low_confidence", outcome.Extraction.LowConfidence),
			slog.Duration("took", outcome.Duration))
	}

	return outcome
}

func (s *Service) process(ctx context.Context, src statement.Source) *statement.Outcome {
	candidates, maxAttempts, err := s.candidates(src)
	if err != nil {
		return failure(classifyFailure(err), err)
	}

	doc, release, err := s.decryptStage(ctx, src, candidates, maxAttempts)
	if err != nil {
		return failure(classifyFailure(err), err)
	}
	defer release()

	text, err := s.extractStage(ctx, doc.Plaintext)
	if err != nil {
		return failure(classifyFailure(err), err)
	}

	result, err := s.parseStage(ctx, src.BankCode, text.Text)
	if err != nil {
		return failure(classifyFailure(err), err)
	}

	ext := s.finishStage(ctx, src, doc, text, result)

	if s.store != nil {
		if err := s.store.SaveExtraction(ctx, ext); err != nil {
			return failure(statement.FailureInternal, fmt.Errorf("persist extraction: %w", err))
		}
	}
	if s.vectors != nil {
		if err := s.vectors.Consume(ctx, src.ID, ext.Spend); err != nil {
			return failure(statement.FailureInternal, fmt.Errorf("spend vector consumer: %w", err))
		}
	}

	return &statement.Outcome{Extraction: ext}
}

// candidates resolves the password list: an explicit password bypasses
// generation with a single provided candidate.
func (s *Service) candidates(src statement.Source) ([]password.Candidate, int, error) {
	if src.ExplicitPassword != "" {
		return []password.Candidate{{Value: src.ExplicitPassword, Provenance: "provided"}}, 1, nil
	}
	return s.passwords.Generate(src.BankCode, password.HolderInfo{
		Name:       src.HolderName,
		DOB:        src.HolderDOB,
		CardLast4s: src.CardLast4s,
	})
}

func (s *Service) decryptStage(ctx context.Context, src statement.Source, candidates []password.Candidate, maxAttempts int) (*decrypt.Document, func(), error) {
	ctx, span := s.tracer.Start(ctx, "statement.decrypt")
	defer span.End()

	started := time.Now()
	doc, release, err := s.decrypter.Run(ctx, statementUUID(src.ID), src.PDF, candidates, maxAttempts)
	metrics.ObserveStage("decrypt", err, time.Since(started))
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	metrics.ObserveDecryptAttempts(doc.Attempts)
	span.SetAttributes(attribute.Int("decrypt.attempts", doc.Attempts))
	return doc, release, nil
}

func (s *Service) extractStage(ctx context.Context, plaintext []byte) (*extract.Text, error) {
	_, span := s.tracer.Start(ctx, "statement.extract")
	defer span.End()

	started := time.Now()
	text, err := s.extractor.Extract(plaintext)
	metrics.ObserveStage("extract", err, time.Since(started))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("extract.pages", text.PageCount))
	return text, nil
}

func (s *Service) parseStage(ctx context.Context, bankCode, rawText string) (*parse.Result, error) {
	ctx, span := s.tracer.Start(ctx, "statement.parse")
	defer span.End()

	started := time.Now()
	result, err := s.parser.Parse(ctx, bankCode, rawText)
	took := time.Since(started)
	metrics.ObserveStage("parse", err, took)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	metrics.ObserveParse(result.Confidence, took)
	span.SetAttributes(
		attribute.Int("parse.attempts", result.Attempts),
		attribute.Float64("parse.confidence", result.Confidence),
	)
	return result, nil
}

// finishStage normalizes categories, filters spend and assembles the
// extraction record.
func (s *Service) finishStage(ctx context.Context, src statement.Source, doc *decrypt.Document, text *extract.Text, result *parse.Result) *statement.Extraction {
	_, span := s.tracer.Start(ctx, "statement.categorize")
	defer span.End()

	started := time.Now()
	txns := make([]statement.CanonicalTransaction, len(result.Transactions))
	for i, raw := range result.Transactions {
		decision := s.normalizer.Normalize(categorize.Input{
			Description:       raw.Description,
			Amount:            raw.Amount,
			VendorCategory:    raw.VendorCategory,
			VendorSubCategory: raw.VendorSubCategory,
		})
		txns[i] = statement.CanonicalTransaction{
			Transaction:     raw,
			Category:        decision.Category,
			Confidence:      decision.Confidence,
			Tier:            decision.Tier,
			MatchedPattern:  decision.MatchedPattern,
			Excluded:        decision.Exclude,
			ExclusionReason: decision.ExclusionReason,
		}
	}

	filtered := spend.Filter(txns)
	for reason, count := range filtered.ExcludedReasons {
		metrics.AddExcluded(reason, count)
	}
	metrics.ObserveStage("categorize", nil, time.Since(started))

	span.SetAttributes(
		attribute.Int("categorize.transactions", len(txns)),
		attribute.Int("categorize.excluded", len(filtered.Excluded)),
	)

	return &statement.Extraction{
		SourceID:           src.ID,
		CardDetails:        result.CardDetails,
		Summary:            result.Summary,
		Transactions:       txns,
		Spend:              filtered.Spend,
		SpendTotal:         filtered.SpendTotal,
		ExcludedReasons:    filtered.ExcludedReasons,
		PasswordUsed:       doc.PasswordUsed,
		PasswordProvenance: doc.Provenance,
		DecryptAttempts:    doc.Attempts,
		ParseAttempts:      result.Attempts,
		ParseConfidence:    result.Confidence,
		ParseModel:         result.Model,
		PageCount:          text.PageCount,
		LowConfidence:      result.Confidence < s.cfg.ConfidenceFloor,
	}
}

// ProcessBatch fans srcs out over a bounded worker pool. Results arrive in
// input order, one outcome per source, regardless of individual failures.
func (s *Service) ProcessBatch(ctx context.Context, srcs []statement.Source) []*statement.Outcome {
	outcomes := make([]*statement.Outcome, len(srcs))
	if len(srcs) == 0 {
		return outcomes
	}

	workers := s.cfg.Workers
	if workers > len(srcs) {
		workers = len(srcs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = s.Process(ctx, srcs[i])
			}
		}()
	}

	for i := range srcs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func failure(reason statement.FailureReason, err error) *statement.Outcome {
	return &statement.Outcome{Failure: reason, FailureDetail: err.Error()}
}

// classifyFailure maps stage errors onto the stable taxonomy.
func classifyFailure(err error) statement.FailureReason {
	var missing *password.MissingInputsError
	var unsupported *password.UnsupportedBankError
	var exhausted *decrypt.ExhaustedError
	var fatal *decrypt.FatalError
	var extraction *extract.FailedError
	var validation *parse.ValidationError

	switch {
	case errors.As(err, &missing), errors.As(err, &unsupported):
		return statement.FailureMissingCredentials
	case errors.As(err, &exhausted):
		return statement.FailureDecryptExhausted
	case errors.As(err, &fatal), errors.As(err, &extraction):
		return statement.FailureExtraction
	case errors.As(err, &validation):
		return statement.FailureParseValidation
	default:
		return statement.FailureInternal
	}
}

// statementUUID derives a stable UUID from the source id so scratch artifact
// names are reproducible across reruns of the same statement.
func statementUUID(id string) uuid.UUID {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id))
}
