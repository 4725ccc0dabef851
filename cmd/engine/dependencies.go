package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cardpilot/statement-engine/internal/domain/categorize"
	"github.com/cardpilot/statement-engine/internal/domain/decrypt"
	"github.com/cardpilot/statement-engine/internal/domain/export"
	"github.com/cardpilot/statement-engine/internal/domain/extract"
	"github.com/cardpilot/statement-engine/internal/domain/parse"
	"github.com/cardpilot/statement-engine/internal/domain/password"
	"github.com/cardpilot/statement-engine/internal/domain/statement"
	"github.com/cardpilot/statement-engine/internal/inbox"
	"github.com/cardpilot/statement-engine/internal/pipeline"
	"github.com/cardpilot/statement-engine/pkg/config"
	"github.com/cardpilot/statement-engine/pkg/cron"
	"github.com/cardpilot/statement-engine/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Scratch    *storage.Scratch
	Passwords  *password.Generator
	Decrypter  *decrypt.Engine
	Extractor  *extract.Extractor
	Parser     *parse.Parser
	Normalizer *categorize.Normalizer

	Service   *pipeline.Service
	Sweeper   *inbox.Sweeper
	Scheduler *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	if err := deps.initStages(ctx); err != nil {
		return nil, fmt.Errorf("failed to init pipeline stages: %w", err)
	}

	deps.initService()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

func (d *Dependencies) initStorage() error {
	scratch, err := storage.NewScratch(d.Config.Storage.ScratchDir)
	if err != nil {
		return err
	}
	// Clear anything orphaned by a previous crash before processing starts.
	if err := scratch.Sweep(); err != nil {
		d.Logger.Warn("scratch sweep failed", slog.Any("error", err))
	}
	d.Scratch = scratch
	return nil
}

func (d *Dependencies) initStages(ctx context.Context) error {
	rules := password.DefaultRules()
	if path := d.Config.Rules.BankRulesPath; path != "" {
		loaded, err := password.LoadRulesFile(path)
		if err != nil {
			return fmt.Errorf("load bank rules %q: %w", path, err)
		}
		rules = loaded
	}
	d.Passwords = password.NewGenerator(rules)

	d.Decrypter = decrypt.NewEngine(decrypt.NewPDFDecryptor(), d.Scratch, d.Logger)
	d.Extractor = extract.NewExtractor()

	completer, err := parse.NewGeminiCompleter(ctx, d.Config.Gemini.APIKey, d.Config.Gemini.Model, d.Config.Gemini.RequestsPerMinute)
	if err != nil {
		return fmt.Errorf("create model completer: %w", err)
	}
	d.Parser = parse.NewParser(completer, parse.Config{
		MaxRetries:     d.Config.Engine.ParseMaxRetries,
		AttemptTimeout: d.Config.Gemini.AttemptTimeout,
		Model:          d.Config.Gemini.Model,
	}, d.Logger)

	var opts []categorize.Option
	if path := d.Config.Rules.VendorMapPath; path != "" {
		mappings, err := categorize.LoadVendorMapFile(path)
		if err != nil {
			return fmt.Errorf("load vendor map %q: %w", path, err)
		}
		opts = append(opts, categorize.WithVendorMap(mappings))
	}
	d.Normalizer = categorize.NewNormalizer(opts...)

	return nil
}

func (d *Dependencies) initService() {
	d.Service = pipeline.NewService(
		d.Passwords,
		d.Decrypter,
		d.Extractor,
		d.Parser,
		d.Normalizer,
		d.Scratch,
		noopStore{},
		noopVectors{},
		pipeline.Config{
			Workers:         d.Config.Engine.Workers,
			ConfidenceFloor: d.Config.Engine.ConfidenceFloor,
		},
		d.Logger,
	)

	d.Sweeper = inbox.New(
		d.Config.Inbox.Dir,
		d.Config.Inbox.ReportDir,
		d.Config.Holder.Name,
		d.Config.Holder.DOB,
		d.Config.Holder.CardLast4s,
		d.Service,
		export.WriteReportFile,
		d.Logger,
	)

	d.Scheduler = cron.NewScheduler(d.Sweeper, d.Config.Inbox.SweepCron, d.Logger)
}

// noopStore drops extractions; reports are the only persistence this binary
// ships with.
type noopStore struct{}

func (noopStore) SaveExtraction(context.Context, *statement.Extraction) error { return nil }

// noopVectors drops spend vectors until an optimizer consumer is attached.
type noopVectors struct{}

func (noopVectors) Consume(context.Context, string, []statement.CanonicalTransaction) error {
	return nil
}
