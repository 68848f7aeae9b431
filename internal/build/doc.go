// Package build compiles a directory of queries as one unit.
//
// Every *.sql file in the directory is a query named by its file stem.
// A query may read the result of another query in the same directory
// through that query's output source (<name>.csv). NewPlan orders the
// queries so producers come first and rejects dependency cycles;
// Builder.Run compiles them in that order, feeding each query's output
// schema to the queries downstream of it, and writes <name>.cpp for each.
//
// With a build cache attached, a query whose fingerprint matches its last
// artifact is skipped.
package build
