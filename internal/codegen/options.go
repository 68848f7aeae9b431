package codegen

import "fmt"

// Options control the emitted program.
type Options struct {
	// Include is the hmdf header, included as <Include>.
	Include string

	// ReadFormat is the hmdf io_format enumerator used to read sources.
	ReadFormat string

	// Precision is the floating-point precision of the CSV writer.
	Precision int

	// MaxRecords bounds the rows written per column; 0 means unlimited.
	MaxRecords int

	// Types overrides C++ spellings of type tags.
	Types map[string]string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Include:    "DataFrame/DataFrame.h",
		ReadFormat: "csv2",
		Precision:  5,
		MaxRecords: 0,
	}
}

// Validate checks that the options produce well-formed source.
func (o Options) Validate() error {
	if o.Include == "" {
		return fmt.Errorf("include must not be empty")
	}
	if !identPattern.MatchString(o.ReadFormat) {
		return fmt.Errorf("read format %q is not an io_format enumerator", o.ReadFormat)
	}
	if o.Precision < 0 {
		return fmt.Errorf("precision must not be negative, got %d", o.Precision)
	}
	if o.MaxRecords < 0 {
		return fmt.Errorf("max records must not be negative, got %d", o.MaxRecords)
	}
	for tag, spelling := range o.Types {
		if tag == "" || spelling == "" {
			return fmt.Errorf("type override %q -> %q must not be empty", tag, spelling)
		}
	}
	return nil
}

// Canonical returns the options as canonical-JSON values, for artifact
// fingerprints.
func (o Options) Canonical() map[string]any {
	types := make(map[string]string, len(o.Types))
	for k, v := range o.Types {
		types[k] = v
	}
	return map[string]any{
		"include":     o.Include,
		"read_format": o.ReadFormat,
		"precision":   o.Precision,
		"max_records": o.MaxRecords,
		"types":       types,
	}
}
