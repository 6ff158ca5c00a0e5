// Package harness wires configuration, bindings, fixtures and the runner
// into one benchmark run.
package harness

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golobby/ormperf/bench"
	"github.com/golobby/ormperf/config"
	"github.com/golobby/ormperf/fixture"
	"github.com/golobby/ormperf/snapshot"
	"github.com/golobby/ormperf/store"
	"github.com/golobby/ormperf/store/gormstore"
	"github.com/golobby/ormperf/store/mapper"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
)

// ConnectionError means a binding could not reach its database.
type ConnectionError struct {
	Driver   string
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("Please check your %s server or check existence of the database %s", e.Driver, e.Database)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	// Interactive allows the cache prompt on Stdin.
	Interactive bool
	// Logger receives operator diagnostics. Nil discards them.
	Logger *zap.Logger
}

// NewConsoleLogger writes human readable diagnostics to w.
func NewConsoleLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

func fileLogger(path string, verbose bool) (*zap.Logger, error) {
	c := zap.NewDevelopmentConfig()
	c.OutputPaths = []string{path}
	c.ErrorOutputPaths = []string{"stderr"}
	c.DisableStacktrace = true
	if !verbose {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return c.Build()
}

// Run executes one full benchmark. Stores are closed and tables dropped on
// every return path once they exist.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("log dir: %w", err)
	}
	mapperLog, err := fileLogger(filepath.Join(cfg.LogDir, "mapper.log"), cfg.Verbose)
	if err != nil {
		return fmt.Errorf("mapper log: %w", err)
	}
	defer func() { _ = mapperLog.Sync() }()
	gormLog, err := fileLogger(filepath.Join(cfg.LogDir, "gorm.log"), cfg.Verbose)
	if err != nil {
		return fmt.Errorf("gorm log: %w", err)
	}
	defer func() { _ = gormLog.Sync() }()

	dsn := cfg.DSN()
	primary, err := mapper.Open(ctx, mapper.Config{Driver: cfg.Driver, DSN: dsn, Logger: mapperLog})
	if err != nil {
		return &ConnectionError{Driver: cfg.Driver, Database: cfg.Database, Err: err}
	}
	defer closeStore(primary, logger)

	secondary, err := gormstore.Open(ctx, gormstore.Config{Driver: cfg.Driver, DSN: dsn, Logger: gormLog, Verbose: cfg.Verbose})
	if err != nil {
		return &ConnectionError{Driver: cfg.Driver, Database: cfg.Database, Err: err}
	}
	defer closeStore(secondary, logger)

	// Registered first so a migration that fails halfway is cleaned up too.
	defer teardown(context.WithoutCancel(ctx), primary, logger)
	if err := primary.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if cfg.Verbose {
		w := &zapio.Writer{Log: mapperLog, Level: zap.DebugLevel}
		primary.Schematic(w)
		_ = w.Close()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen := fixture.NewGenerator(primary, gofakeit.New(seed), fixture.Today(), logger)
	cache := fixture.Cache{
		Path:     cfg.CachePath,
		Snapshot: snapshotFor(cfg, primary),
		Policy:   cfg.Cache,
	}
	if opts.Interactive && opts.Stdin != nil {
		cache.Prompt = fixture.NewPrompter(opts.Stdin, opts.Stdout)
	}
	stats, err := fixture.Prepare(ctx, gen, cache, cfg.Count)
	if err != nil {
		return fmt.Errorf("fixtures: %w", err)
	}
	logger.Info("fixtures ready",
		zap.Int64("users", stats.Users),
		zap.Int64("exhibits", stats.Exhibits),
		zap.Bool("loaded", stats.Loaded))

	meta := bench.Meta{
		RunID:     uuid.NewString(),
		Driver:    cfg.Driver,
		Count:     cfg.Count,
		StartedAt: time.Now().UTC(),
	}
	stores := []store.RecordStore{primary, secondary}
	runner := bench.NewRunner(stores, cfg.Count, cfg.Timeout, opts.Stdout, logger)
	results := runner.Run(ctx, bench.Scenarios(gen.ExhibitAttrs(gen.Notes())))

	bench.WriteSummary(opts.Stdout, []string{primary.Name(), secondary.Name()}, results)
	if cfg.ResultsPath != "" {
		if err := bench.SaveResults(cfg.ResultsPath, meta, results); err != nil {
			return fmt.Errorf("results: %w", err)
		}
		logger.Info("results written", zap.String("path", cfg.ResultsPath), zap.String("run_id", meta.RunID))
	}
	return nil
}

func snapshotFor(cfg *config.Config, primary *mapper.Store) snapshot.DataSnapshot {
	tables := []string{store.UsersTable, store.ExhibitsTable}
	switch cfg.Driver {
	case config.DriverMySQL:
		return snapshot.NewMySQL(cfg.Credentials(), tables...)
	case config.DriverPostgres:
		return snapshot.NewPostgres(cfg.Credentials(), tables...)
	}
	return snapshot.NewSQLDump(primary.DB(), tables...)
}

func teardown(ctx context.Context, m store.Migrator, logger *zap.Logger) {
	if err := m.DropTables(ctx); err != nil {
		logger.Warn("teardown failed", zap.Error(err))
	}
}

func closeStore(s store.RecordStore, logger *zap.Logger) {
	if err := s.Close(); err != nil {
		logger.Warn("close failed", zap.String("binding", s.Name()), zap.Error(err))
	}
}
