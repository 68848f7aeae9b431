// Package schema resolves source identifiers to typed schemas.
//
// A source's schema comes from its CSV header. Each header entry is either
// a bare column name or a colon-delimited triplet in the hmdf csv2 form:
//
//	INDEX:5:<ulong>,ca:5:<double>,cb:5:<double>,cc:5:<long>
//
// The third segment, with its angle brackets stripped, is the column's type
// tag. Bare entries take their type from an optional CUE catalog, falling
// back to a default type. The reserved INDEX entry becomes the schema's
// index type rather than a column.
//
// Resolvers compose: FileResolver reads headers from disk, Cache memoizes
// any Resolver in an LRU, Overlay serves registered schemas ahead of
// another Resolver and Headers serves inline header lines.
package schema
