// Package ir provides the intermediate representation for dfsqlc queries.
//
// A Query is the syntax-independent model of one SELECT statement: the
// primary source, its joins, the projection list, the flattened filter,
// ordering, limit and the resolved Schema. The compiler builds a Query once;
// the code generator only reads it.
//
// This package contains type definitions, structured compile errors and
// canonical fingerprints only. All other internal packages import ir; ir
// imports nothing internal.
//
// Key design constraints:
//   - Schema column order is first-seen order, never map iteration order
//   - The index column type is an explicit field, never a column entry
//   - All JSON tags use snake_case
package ir
