// Package codegen renders a finished IR into C++ source for the hmdf
// DataFrame library.
//
// Generation is a pure function of the IR and Options: the same inputs
// always produce byte-identical output, and a failure never produces
// partial text. The emitted program runs seven stages in fixed order:
// load, join, filter, project, sort, limit and write. Stages the query
// does not use degenerate to pass-through assignments (or, for sort,
// to nothing).
package codegen
