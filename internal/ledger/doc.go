// Package ledger persists batch runs and per-file outcomes in SQLite so the
// CLI can show what was downloaded, when, and from which provider.
//
// The database is opened in WAL mode with a busy timeout; writes retry on
// SQLITE_BUSY because several subseek processes may share one ledger.
package ledger
