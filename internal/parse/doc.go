// Package parse turns query text into a vitess sqlparser syntax tree.
//
// It is the boundary to the external SQL parser. Before parsing, comments
// are removed, a trailing semicolon is dropped and quoted source names
// after FROM and JOIN are rewritten to backquoted identifiers, so that
// queries may name CSV files the way analysts write them:
//
//	SELECT cc FROM 'ta.csv' WHERE cb = 1
//
// Failures are classified with go-errors kinds (ErrEmptyQuery, ErrSyntax).
package parse
