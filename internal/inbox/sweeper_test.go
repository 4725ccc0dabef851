package inbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardpilot/statement-engine/internal/domain/statement"
)

type recordingProcessor struct {
	srcs []statement.Source
	fail map[string]bool
}

func (r *recordingProcessor) ProcessBatch(_ context.Context, srcs []statement.Source) []*statement.Outcome {
	r.srcs = srcs
	outcomes := make([]*statement.Outcome, len(srcs))
	for i, src := range srcs {
		if r.fail[src.ID] {
			outcomes[i] = &statement.Outcome{SourceID: src.ID, Failure: statement.FailureDecryptExhausted}
			continue
		}
		outcomes[i] = &statement.Outcome{SourceID: src.ID, Extraction: &statement.Extraction{SourceID: src.ID}}
	}
	return outcomes
}

func TestParseName(t *testing.T) {
	cases := []struct {
		in   string
		bank string
		ok   bool
	}{
		{"hdfc__june-2025.pdf", "hdfc", true},
		{"ICICI__stmt.PDF", "icici", true},
		{"no-separator.pdf", "", false},
		{"__orphan.pdf", "", false},
		{"hdfc__stmt.txt", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			bank, ok := parseName(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.bank, bank)
		})
	}
}

func TestSweepProcessesAndFiles(t *testing.T) {
	dir := t.TempDir()
	reportDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hdfc__june.pdf"), []byte("%PDF-a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "icici__june.pdf"), []byte("%PDF-b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644))

	processor := &recordingProcessor{fail: map[string]bool{"icici__june": true}}

	var reportPath string
	reporter := func(path string, outcomes []*statement.Outcome) error {
		reportPath = path
		return os.WriteFile(path, []byte("xlsx"), 0o644)
	}

	sweeper := New(dir, reportDir, "Ravi Kumar", "15011990", []string{"4321"}, processor, reporter, slog.Default())
	require.NoError(t, sweeper.Sweep(context.Background()))

	require.Len(t, processor.srcs, 2)
	assert.Equal(t, "hdfc", processor.srcs[0].BankCode)
	assert.Equal(t, "Ravi Kumar", processor.srcs[0].HolderName)
	assert.Equal(t, []byte("%PDF-a"), processor.srcs[0].PDF)

	// Succeeded file moves to done/, failed to failed/, others stay put.
	assert.FileExists(t, filepath.Join(dir, "done", "hdfc__june.pdf"))
	assert.FileExists(t, filepath.Join(dir, "failed", "icici__june.pdf"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "hdfc__june.pdf"))

	require.NotEmpty(t, reportPath)
	assert.FileExists(t, reportPath)
}

func TestSweepEmptyAndMissingDir(t *testing.T) {
	processor := &recordingProcessor{}

	sweeper := New(t.TempDir(), t.TempDir(), "", "", nil, processor, nil, slog.Default())
	require.NoError(t, sweeper.Sweep(context.Background()))
	assert.Empty(t, processor.srcs)

	missing := New("/nonexistent/inbox-dir", t.TempDir(), "", "", nil, processor, nil, slog.Default())
	require.NoError(t, missing.Sweep(context.Background()))
}
