// Package decrypt recovers plaintext statement bytes by trying password
// candidates in probability order against an external decryption primitive.
package decrypt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cardpilot/statement-engine/internal/domain/password"
	"github.com/cardpilot/statement-engine/pkg/storage"
)

// ErrWrongPassword marks a candidate that simply did not open the document.
// The engine moves on to the next candidate.
var ErrWrongPassword = errors.New("wrong password")

// ErrNotEncrypted marks input that needs no password at all.
var ErrNotEncrypted = errors.New("document is not encrypted")

// Decryptor is the external decryption primitive. Implementations must
// return ErrWrongPassword (possibly wrapped) for a failed candidate and
// ErrNotEncrypted for plaintext input; any other error is fatal for the
// whole document.
type Decryptor interface {
	Decrypt(ctx context.Context, encrypted []byte, pw string) ([]byte, error)
}

// Document is a successfully decrypted statement. It is transient: the
// plaintext and its scratch artifact exist only for the duration of text
// extraction and must be released afterwards.
type Document struct {
	Plaintext    []byte
	PasswordUsed string
	Provenance   string
	AttemptIndex int // 1-based position of the winning candidate; 0 if unencrypted
	Attempts     int // candidates actually tried
	ScratchPath  string
}

// ExhaustedError reports that every candidate within the attempt cap failed.
type ExhaustedError struct {
	AttemptsTried int
	LastErr       error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("decryption exhausted after %d attempts: %v", e.AttemptsTried, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

// FatalError reports a non-password failure: corrupt input, tool missing.
// Remaining candidates are not tried; they could not succeed either.
type FatalError struct {
	Attempt int
	Err     error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("decryption aborted on attempt %d: %v", e.Attempt, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Engine drives the candidate loop. The loop is deliberately sequential:
// candidates must be tried most-likely-first and stop at first success, so
// the winning password and attempt count stay auditable.
type Engine struct {
	dec     Decryptor
	scratch *storage.Scratch
	logger  *slog.Logger
}

// NewEngine creates an engine over a decryption primitive and scratch store.
func NewEngine(dec Decryptor, scratch *storage.Scratch, logger *slog.Logger) *Engine {
	return &Engine{dec: dec, scratch: scratch, logger: logger}
}

// Run tries candidates in order, capped at maxAttempts, and returns the
// decrypted document together with a release func for its scratch artifact.
// Callers must invoke release on every exit path, including failures in
// later pipeline stages.
func (e *Engine) Run(ctx context.Context, statementID uuid.UUID, encrypted []byte, candidates []password.Candidate, maxAttempts int) (*Document, func(), error) {
	if maxAttempts <= 0 || maxAttempts > len(candidates) {
		maxAttempts = len(candidates)
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, &FatalError{Attempt: i, Err: err}
		}

		cand := candidates[i]
		plaintext, err := e.dec.Decrypt(ctx, encrypted, cand.Value)
		switch {
		case err == nil:
			doc := &Document{
				Plaintext:    plaintext,
				PasswordUsed: cand.Value,
				Provenance:   cand.Provenance,
				AttemptIndex: i + 1,
				Attempts:     i + 1,
			}
			return e.stash(statementID, doc)

		case errors.Is(err, ErrNotEncrypted):
			doc := &Document{
				Plaintext: encrypted,
				Attempts:  i + 1,
			}
			return e.stash(statementID, doc)

		case errors.Is(err, ErrWrongPassword):
			lastErr = err
			e.logger.Debug("password candidate rejected",
				slog.String("statement_id", statementID.String()),
				slog.Int("attempt", i+1),
				slog.String("provenance", cand.Provenance),
			)

		default:
			// Corrupt input or unavailable tool: burning the remaining
			// candidates cannot help.
			return nil, nil, &FatalError{Attempt: i + 1, Err: err}
		}
	}

	return nil, nil, &ExhaustedError{AttemptsTried: maxAttempts, LastErr: lastErr}
}

// stash writes the plaintext scratch artifact and pairs the document with
// its guaranteed-release func.
func (e *Engine) stash(statementID uuid.UUID, doc *Document) (*Document, func(), error) {
	path, release, err := e.scratch.Put(statementID, ".pdf", doc.Plaintext)
	if err != nil {
		return nil, nil, &FatalError{Attempt: doc.Attempts, Err: err}
	}
	doc.ScratchPath = path

	e.logger.Info("statement decrypted",
		slog.String("statement_id", statementID.String()),
		slog.Int("attempts", doc.Attempts),
		slog.String("provenance", doc.Provenance),
	)
	return doc, release, nil
}
