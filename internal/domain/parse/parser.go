// Package parse turns raw statement text into structured card data by way of
// a language model with schema validation and bounded feedback retries.
package parse

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Completer is the single seam between the parser and a concrete model
// backend. Production wires the Gemini client; tests wire canned responses.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config bounds a single parse run.
type Config struct {
	// MaxRetries counts retries after the first attempt, so MaxRetries=2
	// allows three total model calls.
	MaxRetries int

	// AttemptTimeout caps each individual model call. A timed-out call is
	// treated the same as a validation failure and consumes a retry.
	AttemptTimeout time.Duration

	Model string
}

const (
	defaultMaxRetries     = 2
	defaultAttemptTimeout = 90 * time.Second
)

// Parser drives the retry state machine around a Completer.
type Parser struct {
	completer Completer
	cfg       Config
	logger    *slog.Logger
}

func NewParser(completer Completer, cfg Config, logger *slog.Logger) *Parser {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaultAttemptTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{completer: completer, cfg: cfg, logger: logger}
}

// Parse runs up to 1+MaxRetries model calls. Every failed attempt's
// validation error is fed back into the next prompt so the model can correct
// itself. Cancellation of the parent context aborts immediately; a
// per-attempt timeout only burns that attempt. Confidence is attached to the
// result; thresholding is the caller's concern.
func (p *Parser) Parse(ctx context.Context, bankCode, rawText string) (*Result, error) {
	maxAttempts := 1 + p.cfg.MaxRetries
	var previousErrors []string

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		started := time.Now()
		result, err := p.attempt(ctx, bankCode, rawText, previousErrors)
		latency := time.Since(started)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("parse attempt failed",
				slog.String("bank", bankCode),
				slog.Int("attempt", attempt),
				slog.Duration("latency", latency),
				slog.String("error", err.Error()))
			previousErrors = append(previousErrors, err.Error())
			continue
		}

		result.Model = p.cfg.Model
		result.Attempts = attempt
		result.Latency = latency
		result.Confidence = scoreConfidence(result, attempt)

		p.logger.Info("parse succeeded",
			slog.String("bank", bankCode),
			slog.Int("attempt", attempt),
			slog.Int("transactions", len(result.Transactions)),
			slog.Float64("confidence", result.Confidence))
		return result, nil
	}

	return nil, &ValidationError{
		Attempts: maxAttempts,
		LastErr:  fmt.Errorf("%s", previousErrors[len(previousErrors)-1]),
	}
}

func (p *Parser) attempt(ctx context.Context, bankCode, rawText string, previousErrors []string) (*Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.AttemptTimeout)
	defer cancel()

	raw, err := p.completer.Complete(attemptCtx, systemInstruction, buildUserPrompt(bankCode, rawText, previousErrors))
	if err != nil {
		return nil, fmt.Errorf("model call: %v", err)
	}

	return decodeAndValidate(raw)
}
