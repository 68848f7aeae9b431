package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainArtifact = "dfsqlc/artifact/v1"
	DomainSchema   = "dfsqlc/schema/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of a compiled query.
//
// The fingerprint covers the finished IR (including its resolved schema),
// the IR and compiler versions and the code generation options, so two
// builds produce the same artifact exactly when their fingerprints match.
// options must hold canonical-JSON values only (strings, ints, bools, and
// slices or maps of them).
func Fingerprint(q *Query, options map[string]any) (string, error) {
	return fingerprint(q, options, CompilerVersion)
}

func fingerprint(q *Query, options map[string]any, compilerVersion string) (string, error) {
	if options == nil {
		options = map[string]any{}
	}
	data, err := MarshalCanonical(map[string]any{
		"ir_version":       IRVersion,
		"compiler_version": compilerVersion,
		"query":            canonicalQuery(q),
		"options":          options,
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainArtifact, data), nil
}

// SchemaFingerprint computes the content-addressed identity of a schema.
func SchemaFingerprint(s Schema) string {
	data, err := MarshalCanonical(canonicalSchema(s))
	if err != nil {
		// canonicalSchema only produces strings, slices and maps.
		panic(fmt.Sprintf("schema fingerprint: %v", err))
	}
	return hashWithDomain(DomainSchema, data)
}

func canonicalQuery(q *Query) map[string]any {
	joins := make([]any, len(q.Joins))
	for i, j := range q.Joins {
		joins[i] = map[string]any{
			"source":     j.Source,
			"operator":   string(j.Operator),
			"constraint": j.Constraint,
		}
	}

	selection := make([]any, len(q.Selection))
	for i, item := range q.Selection {
		switch it := item.(type) {
		case Unnamed:
			selection[i] = map[string]any{"kind": "unnamed", "column": it.Column}
		case Aliased:
			selection[i] = map[string]any{"kind": "aliased", "expr": it.Expr, "alias": it.Alias}
		}
	}

	orderBy := make([]any, len(q.OrderBy))
	for i, o := range q.OrderBy {
		orderBy[i] = map[string]any{"column": o.Column, "direction": string(o.Direction)}
	}

	out := map[string]any{
		"from":      q.From,
		"joins":     joins,
		"selection": selection,
		"order_by":  orderBy,
		"limit":     q.Limit,
		"schema":    canonicalSchema(q.Schema),
	}
	if q.Filter != nil {
		out["filter"] = map[string]any{
			"tokens":  q.Filter.Tokens,
			"columns": q.Filter.Columns,
		}
	}
	return out
}

func canonicalSchema(s Schema) map[string]any {
	columns := make([]any, 0, s.Len())
	for _, c := range s.Columns() {
		columns = append(columns, map[string]any{"name": c.Name, "type": c.Type})
	}
	return map[string]any{"index": s.IndexType, "columns": columns}
}
