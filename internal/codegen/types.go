package codegen

// defaultTypeSpellings maps hmdf csv2 type tags to C++ types.
// Tags not listed are emitted verbatim ("double", "int", "long", ...).
var defaultTypeSpellings = map[string]string{
	"string":    "std::string",
	"ulong":     "unsigned long",
	"uint":      "unsigned int",
	"longlong":  "long long",
	"ulonglong": "unsigned long long",
	"uchar":     "unsigned char",
	"ushort":    "unsigned short",
}

// TypeMap renders schema type tags as C++ types.
type TypeMap struct {
	overrides map[string]string
}

// NewTypeMap returns a TypeMap with the given overrides applied on top of
// the default spellings.
func NewTypeMap(overrides map[string]string) TypeMap {
	return TypeMap{overrides: overrides}
}

// Render returns the C++ spelling of a type tag.
func (m TypeMap) Render(tag string) string {
	if s, ok := m.overrides[tag]; ok {
		return s
	}
	if s, ok := defaultTypeSpellings[tag]; ok {
		return s
	}
	return tag
}

// distinct renders tags and drops repeated spellings, keeping first-seen
// order. Two tags with the same spelling ("ulong" and "unsigned long")
// collapse to one entry.
func (m TypeMap) distinct(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		s := m.Render(tag)
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
