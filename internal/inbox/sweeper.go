// Package inbox turns dropped statement PDFs into pipeline sources. Files
// follow the `<bank>__<label>.pdf` naming convention; processed files move
// to a done/ or failed/ subdirectory so a sweep never sees them twice.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cardpilot/statement-engine/internal/domain/statement"
)

const (
	doneDir   = "done"
	failedDir = "failed"
)

// Processor is the batch entrypoint, satisfied by pipeline.Service.
type Processor interface {
	ProcessBatch(ctx context.Context, srcs []statement.Source) []*statement.Outcome
}

// Reporter writes the batch report, satisfied by export.WriteReportFile.
type Reporter func(path string, outcomes []*statement.Outcome) error

// Sweeper scans an inbox directory and processes everything it finds.
type Sweeper struct {
	dir       string
	reportDir string
	holder    statement.Source // template carrying holder identity
	processor Processor
	report    Reporter
	logger    *slog.Logger
}

// New creates a sweeper. holderName, holderDOB and cardLast4s apply to every
// source picked up from the directory.
func New(dir, reportDir, holderName, holderDOB string, cardLast4s []string, processor Processor, report Reporter, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		dir:       dir,
		reportDir: reportDir,
		holder: statement.Source{
			HolderName: holderName,
			HolderDOB:  holderDOB,
			CardLast4s: cardLast4s,
		},
		processor: processor,
		report:    report,
		logger:    logger,
	}
}

// Sweep collects pending PDFs, processes them as one batch, writes the
// report and files each PDF under done/ or failed/.
func (s *Sweeper) Sweep(ctx context.Context) error {
	srcs, paths, err := s.collect()
	if err != nil {
		return err
	}
	if len(srcs) == 0 {
		s.logger.Debug("inbox empty", slog.String("dir", s.dir))
		return nil
	}

	outcomes := s.processor.ProcessBatch(ctx, srcs)

	for i, outcome := range outcomes {
		target := doneDir
		if outcome.Failed() {
			target = failedDir
		}
		if err := s.move(paths[i], target); err != nil {
			s.logger.Warn("could not file processed statement",
				slog.String("path", paths[i]),
				slog.Any("error", err))
		}
	}

	if s.report != nil {
		name := fmt.Sprintf("report-%s.xlsx", time.Now().Format("20060102-150405"))
		if err := os.MkdirAll(s.reportDir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
		path := filepath.Join(s.reportDir, name)
		if err := s.report(path, outcomes); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		s.logger.Info("batch report written",
			slog.String("path", path),
			slog.Int("statements", len(outcomes)))
	}

	return nil
}

// collect reads pending PDFs into sources, skipping files that do not match
// the naming convention.
func (s *Sweeper) collect() ([]statement.Source, []string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read inbox: %w", err)
	}

	var srcs []statement.Source
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		bank, ok := parseName(name)
		if !ok {
			s.logger.Warn("skipping file without bank prefix", slog.String("file", name))
			continue
		}

		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("unreadable inbox file", slog.String("file", name), slog.Any("error", err))
			continue
		}

		src := s.holder
		src.ID = strings.TrimSuffix(name, filepath.Ext(name))
		src.BankCode = bank
		src.PDF = data
		srcs = append(srcs, src)
		paths = append(paths, path)
	}

	return srcs, paths, nil
}

func (s *Sweeper) move(path, subdir string) error {
	dir := filepath.Join(s.dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(dir, filepath.Base(path)))
}

// parseName extracts the bank code from `<bank>__<label>.pdf`.
func parseName(name string) (string, bool) {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return "", false
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	bank, _, found := strings.Cut(base, "__")
	if !found || bank == "" {
		return "", false
	}
	return strings.ToLower(bank), true
}
