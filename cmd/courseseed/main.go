// Command courseseed loads a YAML course catalog into the store.
//
// Usage:
//
//	courseseed -file catalog.yaml -batch-size 200
//
// The store connection comes from config/<ENV>.yaml, same as the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/courserec/internal/config"
	dbRedis "github.com/kailas-cloud/courserec/internal/db/redis"
	"github.com/kailas-cloud/courserec/internal/domain/course"
	logpkg "github.com/kailas-cloud/courserec/internal/logger"
	courserepo "github.com/kailas-cloud/courserec/internal/repository/course"
	"github.com/kailas-cloud/courserec/internal/usecase/catalog"
)

type seedConfig struct {
	file       string
	configPath string
	batchSize  int
	dryRun     bool
}

// catalogFile is the on-disk catalog format.
type catalogFile struct {
	Courses []catalogEntry `yaml:"courses"`
}

type catalogEntry struct {
	ID            string   `yaml:"id"`
	Title         string   `yaml:"title"`
	Category      string   `yaml:"category"`
	Tags          []string `yaml:"tags"`
	Rating        float64  `yaml:"rating"`
	EnrolledCount int64    `yaml:"enrolled_count"`
}

func main() {
	cfg := parseFlags()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	env := config.GetEnv()

	// Dry runs never touch the store, so they need no config file.
	var appCfg *config.Config
	var level string
	if !cfg.dryRun {
		c, err := loadConfig(env, cfg.configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to load config:", err)
			os.Exit(1)
		}
		appCfg = &c
		level = c.Logging.Level
	}

	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, appCfg, logger); err != nil {
		cancel()
		logger.Fatal("Seed failed", zap.Error(err))
	}
}

func parseFlags() seedConfig {
	cfg := seedConfig{}
	flag.StringVar(&cfg.file, "file", "catalog.yaml", "YAML catalog file")
	flag.StringVar(&cfg.configPath, "config", "", "explicit config file (default: config/<ENV>.yaml)")
	flag.IntVar(&cfg.batchSize, "batch-size", 200, "courses per write batch")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "validate the catalog without writing")
	flag.Parse()
	return cfg
}

// run seeds the catalog. appCfg may be nil only for dry runs.
func run(ctx context.Context, cfg seedConfig, appCfg *config.Config, logger *zap.Logger) error {
	start := time.Now()

	items, err := loadCatalogFile(cfg.file)
	if err != nil {
		return err
	}
	logger.Info("Catalog file parsed", zap.String("file", cfg.file), zap.Int("courses", len(items)))

	if cfg.dryRun {
		if _, err := prepareAll(items); err != nil {
			return err
		}
		logger.Info("Dry run OK", zap.Int("courses", len(items)))
		return nil
	}
	if appCfg == nil {
		return fmt.Errorf("config is required unless -dry-run is set")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    appCfg.Database.Addrs,
		Password: appCfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(appCfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}

	loaded, err := seed(ctx, courserepo.New(store, appCfg.Storage.KeyPrefix), items, cfg.batchSize, logger)
	if err != nil {
		return err
	}

	logger.Info("Seed complete",
		zap.Int("courses", loaded),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func loadConfig(env, path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(env)
}

// courseWriter is the storage write side used by the seeder.
type courseWriter interface {
	UpsertMany(ctx context.Context, courses []course.Course) error
}

// prepareAll validates the whole file as one import: ids are assigned, and a
// duplicate or invalid course anywhere rejects everything.
func prepareAll(items []catalog.ImportItem) ([]course.Course, error) {
	courses, err := catalog.New(nil).WithMaxImportSize(len(items)).Prepare(items)
	if err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return courses, nil
}

// seed validates every item up front, then writes the prepared courses in
// chunks of at most size. Nothing is written if validation fails.
func seed(
	ctx context.Context, w courseWriter, items []catalog.ImportItem, size int, logger *zap.Logger,
) (int, error) {
	courses, err := prepareAll(items)
	if err != nil {
		return 0, err
	}
	return writeBatches(ctx, w, courses, size, logger)
}

// writeBatches stores courses in chunks of at most size, stopping at the first failure.
func writeBatches(
	ctx context.Context, w courseWriter, courses []course.Course, size int, logger *zap.Logger,
) (int, error) {
	if size <= 0 {
		size = len(courses)
	}
	written := 0
	for start := 0; start < len(courses); start += size {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("seed interrupted after %d courses: %w", written, err)
		}
		end := min(start+size, len(courses))
		if err := w.UpsertMany(ctx, courses[start:end]); err != nil {
			return written, fmt.Errorf("write courses %d-%d: %w", start, end-1, err)
		}
		written += end - start
		logger.Debug("Batch written", zap.Int("from", start), zap.Int("count", end-start))
	}
	return written, nil
}

func loadCatalogFile(path string) ([]catalog.ImportItem, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	items := make([]catalog.ImportItem, len(f.Courses))
	for i, c := range f.Courses {
		items[i] = catalog.ImportItem{
			ID:            c.ID,
			Title:         c.Title,
			Category:      c.Category,
			Tags:          c.Tags,
			Rating:        c.Rating,
			EnrolledCount: c.EnrolledCount,
		}
	}
	return items, nil
}
