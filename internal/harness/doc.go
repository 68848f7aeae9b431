// Package harness provides the conformance testing framework for the
// query compiler.
//
// A case is a YAML file naming one query, the header lines of the sources
// it reads, and expectations on the outcome:
//
//	name: filter_example
//	query: SELECT cc FROM 'ta.csv' WHERE cb = 1 AND ca = 2
//	sources:
//	  ta.csv: "INDEX:1:<string>,ca:1:<double>,cb:1:<double>,cc:1:<long>"
//	expect:
//	  outputs: [cc]
//	  filter: "(( cb == 1 ) && ( ca == 2 ))"
//	  filter_columns: [cb, ca]
//
// Error cases name the expected code instead:
//
//	expect:
//	  error: UNSUPPORTED_CONSTRUCT
//	  stage: select
//
// Cases resolve sources from their inline headers only. A case may also
// carry a golden file holding the generated program (or the error
// snapshot for error cases), compared byte for byte.
package harness
