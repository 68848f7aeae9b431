// Package store provides the SQLite-backed build cache.
//
// The cache records:
//   - Builds: one row per build run, keyed by a UUIDv7 run id
//   - Artifacts: the last generated source per query and its fingerprint
//
// A build skips a query whose fingerprint matches its cached artifact and
// whose output file still exists. Fingerprints are computed by
// ir.Fingerprint over canonical JSON with SHA-256 domain separation.
//
// Connections run in WAL mode with synchronous=NORMAL, a five second busy
// timeout and foreign keys enforced. The schema version lives in
// PRAGMA user_version.
package store
