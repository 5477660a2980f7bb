// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - ProductStore: Canonical product persistence
//   - ChangeLogStore: Append-only change log persistence
//   - CursorStore / WatermarkStore: Sync and ETL progress persistence
//   - StagingSource: Reading the upstream-written staging table
//   - SchedulerStore: Scheduled task state and run history
//
// The Store itself implements Transactor: InTx opens a transaction and
// threads it through the context, so wrapper stores called inside the
// callback share a single atomic unit of work.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory, applied in lexical order and recorded in the
// schema_migrations table.
//
// # Data Location
//
// By default, the database is stored at ~/.skusync/data/skusync.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
