// Package cli provides the command-line interface for the sync pipeline.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flowmart-labs/skusync/internal/adapters/driven/config/file"
	"github.com/flowmart-labs/skusync/internal/adapters/driven/embedding/ollama"
	"github.com/flowmart-labs/skusync/internal/adapters/driven/embedding/openai"
	"github.com/flowmart-labs/skusync/internal/adapters/driven/index/delta"
	"github.com/flowmart-labs/skusync/internal/adapters/driven/storage/sqlite"
	"github.com/flowmart-labs/skusync/internal/core/domain"
	"github.com/flowmart-labs/skusync/internal/core/ports/driven"
	"github.com/flowmart-labs/skusync/internal/core/ports/driving"
	"github.com/flowmart-labs/skusync/internal/core/services"
	"github.com/flowmart-labs/skusync/internal/logger"
)

// version is set by Execute.
var version = "dev"

// Global flags.
var (
	verbose   bool
	dataDir   string
	configDir string
)

// Services consumed by the commands. Wired lazily by ensureServices;
// tests inject mocks directly.
var (
	etlRunner      driving.ETLRunner
	syncRunner     driving.SyncRunner
	searchService  driving.SearchService
	statusReporter driving.StatusReporter
	adminService   driving.Admin
	scheduler      driving.Scheduler
	vectorIndex    driven.VectorIndex

	closers []func() error
)

var rootCmd = &cobra.Command{
	Use:   "skusync",
	Short: "Incremental product catalogue to vector index synchronisation",
	Long: `skusync keeps a vector search index in sync with a product catalogue.

A staging ETL drains upstream product exports into a canonical store,
detecting content changes by hashing a stable serialisation of each
product. Detected changes land in an append-only change log, which a
sync worker consumes to embed product text and update an incremental
vector index.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.skusync/data)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.skusync)")
}

// Execute runs the CLI with the given version string.
func Execute(v string) error {
	version = v
	err := rootCmd.Execute()
	closeServices()
	return err
}

// ensureServices wires the real adapters behind the service variables.
// A no-op when any service is already set, so tests can inject mocks.
func ensureServices() error {
	if etlRunner != nil || syncRunner != nil || searchService != nil ||
		statusReporter != nil || adminService != nil || scheduler != nil {
		return nil
	}

	cfg, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	closers = append(closers, store.Close)

	indexCfg := domain.DefaultIndexConfig(filepath.Join(filepath.Dir(store.Path()), "index"))
	if v := cfg.GetFloat("index.compaction_threshold"); v > 0 {
		indexCfg.CompactionThreshold = v
	}
	index, err := delta.New(indexCfg)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	closers = append(closers, index.Close)

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, embedder.Close)

	etlCfg := domain.DefaultETLConfig()
	if n := cfg.GetInt("etl.batch_size"); n > 0 {
		etlCfg.BatchSize = n
	}
	syncCfg := domain.DefaultSyncConfig()
	if n := cfg.GetInt("sync.batch_size"); n > 0 {
		syncCfg.BatchSize = n
	}
	if n := cfg.GetInt("sync.retry_ceiling"); n > 0 {
		syncCfg.RetryCeiling = n
	}

	engine := services.NewUpsertEngine(store.ProductStore(), store.ChangeLogStore())
	etl := services.NewETLService(store.StagingSource(), store.WatermarkStore(), engine, store, etlCfg)
	syncer := services.NewSyncService(store.ChangeLogStore(), store.CursorStore(),
		store.ProductStore(), embedder, index, syncCfg)
	status := services.NewStatusService(store.ProductStore(), store.ChangeLogStore(),
		store.CursorStore(), store.WatermarkStore(), index, etlCfg, syncCfg)

	etlRunner = etl
	syncRunner = syncer
	searchService = services.NewSearchService(store.ProductStore(), embedder, index)
	statusReporter = status
	adminService = status
	scheduler = services.NewScheduler(domain.DefaultSchedulerConfig(), store.SchedulerStore(), etl, syncer)
	vectorIndex = index
	return nil
}

// newEmbedder builds the configured embedding service. Defaults to a
// local Ollama instance so the pipeline works without cloud credentials.
func newEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := domain.EmbeddingProvider(cfg.GetString("embedding.provider"))
	if provider == "" {
		provider = domain.ProviderOllama
	}

	switch provider {
	case domain.ProviderOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil
	case domain.ProviderOpenAI:
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.GetString("embedding.api_key"),
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q: %w", provider, domain.ErrInvalidInput)
	}
}

func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("cleanup: %v", err)
		}
	}
	closers = nil
}
