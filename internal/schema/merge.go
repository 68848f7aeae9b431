package schema

import "github.com/roach88/dfsqlc/internal/ir"

// Merge combines source schemas by sequential extension.
//
// The result's index type is the first schema's. Columns keep first-seen
// order; a later schema overwrites the type of a column an earlier one
// already declared.
func Merge(schemas ...ir.Schema) ir.Schema {
	var merged ir.Schema
	for i, s := range schemas {
		if i == 0 {
			merged.IndexType = s.IndexType
		}
		for _, c := range s.Columns() {
			merged.Set(c.Name, c.Type)
		}
	}
	return merged
}

// ExtendAliases adds an entry for every aliased selection item, typed as
// the column it aliases. It fails if an aliased column is not in s.
func ExtendAliases(s *ir.Schema, selection []ir.SelectItem) error {
	for _, item := range selection {
		aliased, ok := item.(ir.Aliased)
		if !ok {
			continue
		}
		typ, ok := s.Lookup(aliased.Expr)
		if !ok {
			return ir.NewUnknownColumnError(ir.StageSelect, aliased.Expr)
		}
		s.Set(aliased.Alias, typ)
	}
	return nil
}

// Output returns the schema of a query's result: the query's index type
// and its projected columns under their effective names.
func Output(q *ir.Query) (ir.Schema, error) {
	out := ir.NewSchema(q.Schema.IndexType)
	for _, item := range q.Selection {
		typ, ok := q.Schema.Lookup(item.OutputName())
		if !ok {
			return ir.Schema{}, ir.NewUnknownColumnError(ir.StageSelect, item.OutputName())
		}
		out.Set(item.OutputName(), typ)
	}
	return out, nil
}
