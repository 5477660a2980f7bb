package domain

import "time"

// EmbeddingProvider identifies an embedding service provider.
type EmbeddingProvider string

// Available embedding providers.
const (
	// ProviderOllama is a local Ollama instance.
	ProviderOllama EmbeddingProvider = "ollama"

	// ProviderOpenAI is the OpenAI cloud API.
	ProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case ProviderOllama, ProviderOpenAI:
		return true
	default:
		return false
	}
}

// Default tuning values. Batch size is the sole throughput/memory lever:
// large enough to amortise I/O, small enough to bound transaction size.
const (
	DefaultETLBatchSize  = 1000
	DefaultSyncBatchSize = 1000
	DefaultRetryCeiling  = 3

	// DefaultCompactionThreshold triggers compaction when the delta
	// segment reaches this fraction of the base segment.
	DefaultCompactionThreshold = 0.10

	// DefaultStagingTable is the upstream table name the ETL reads.
	DefaultStagingTable = "products_staging"

	// SyncJobName keys the sync worker's cursor row.
	SyncJobName = "vector-sync"
)

// ETLConfig tunes the staging-to-canonical pass.
type ETLConfig struct {
	// SourceTable is the staging table to read.
	SourceTable string

	// BatchSize bounds each read/write transaction.
	BatchSize int
}

// DefaultETLConfig returns the default ETL tuning.
func DefaultETLConfig() ETLConfig {
	return ETLConfig{
		SourceTable: DefaultStagingTable,
		BatchSize:   DefaultETLBatchSize,
	}
}

// SyncConfig tunes the change-log-to-index pass.
type SyncConfig struct {
	// JobName keys the persisted cursor.
	JobName string

	// BatchSize bounds each consumption batch.
	BatchSize int

	// RetryCeiling is the retry count after which a FAILED entry stops
	// being re-attempted and is surfaced to the operator instead.
	RetryCeiling int
}

// DefaultSyncConfig returns the default sync worker tuning.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		JobName:      SyncJobName,
		BatchSize:    DefaultSyncBatchSize,
		RetryCeiling: DefaultRetryCeiling,
	}
}

// IndexConfig tunes the incremental index adapter.
type IndexConfig struct {
	// Dir is where segment files are persisted.
	Dir string

	// CompactionThreshold is the delta/base size ratio that triggers
	// compaction of the delta segment into the base.
	CompactionThreshold float64
}

// DefaultIndexConfig returns the default index tuning rooted at dir.
func DefaultIndexConfig(dir string) IndexConfig {
	return IndexConfig{
		Dir:                 dir,
		CompactionThreshold: DefaultCompactionThreshold,
	}
}

// ScheduledTask represents a recurring pipeline task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Name is a human-readable name for the task.
	Name string

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// Scheduler task identifiers.
const (
	TaskIDETL  = "etl"
	TaskIDSync = "vector-sync"
)

// TaskResult records a single task execution.
type TaskResult struct {
	// TaskID identifies which task was run.
	TaskID string

	// StartedAt is when the task started.
	StartedAt time.Time

	// EndedAt is when the task completed.
	EndedAt time.Time

	// Success indicates whether the task completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed is a count of items handled (e.g., rows staged or
	// changes synced).
	ItemsProcessed int
}

// TaskConfig holds configuration for a single scheduled task.
type TaskConfig struct {
	// Enabled indicates whether this task should run.
	Enabled bool

	// Interval defines how often the task should run.
	Interval time.Duration
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// TaskConfigs holds per-task configuration.
	TaskConfigs map[string]TaskConfig
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig returns sensible defaults for the scheduler.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDETL: {
				Enabled:  true,
				Interval: 5 * time.Minute,
			},
			TaskIDSync: {
				Enabled:  true,
				Interval: 5 * time.Minute,
			},
		},
	}
}
