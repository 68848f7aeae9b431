package parse

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"gopkg.in/src-d/go-errors.v1"
	"gopkg.in/src-d/go-vitess.v1/vt/sqlparser"
)

var (
	// ErrEmptyQuery is returned when a query is empty once comments are removed.
	ErrEmptyQuery = errors.NewKind("query is empty")

	// ErrSyntax is returned when the parser rejects the query text.
	ErrSyntax = errors.NewKind("invalid query: %s")
)

// Parse parses one SQL statement.
func Parse(query string) (sqlparser.Statement, error) {
	s, err := Normalize(query)
	if err != nil {
		return nil, err
	}

	stmt, err := sqlparser.Parse(s)
	if err != nil {
		return nil, ErrSyntax.Wrap(err, err.Error())
	}

	slog.Debug("parsed query", "query", s)
	return stmt, nil
}

// Normalize returns the text Parse hands to the parser.
func Normalize(query string) (string, error) {
	s := strings.TrimSpace(removeComments(query))
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return "", ErrEmptyQuery.New()
	}
	return quoteSources(s), nil
}

func removeComments(s string) string {
	r := bufio.NewReader(strings.NewReader(s))
	var result []rune
	for {
		ru, _, err := r.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		switch ru {
		case '\'', '"', '`':
			result = append(result, ru)
			result = append(result, readString(r, ru)...)
		case '-':
			peeked, err := r.Peek(2)
			if err == nil &&
				len(peeked) == 2 &&
				rune(peeked[0]) == '-' &&
				(rune(peeked[1]) == ' ' || rune(peeked[1]) == '\t' || rune(peeked[1]) == '\n') {
				discardUntilEOL(r)
				result = append(result, '\n')
			} else {
				result = append(result, ru)
			}
		case '#':
			discardUntilEOL(r)
			result = append(result, '\n')
		case '/':
			peeked, err := r.Peek(1)
			if err == nil && len(peeked) == 1 && rune(peeked[0]) == '*' {
				// read the char we peeked
				_, _, _ = r.ReadRune()
				discardMultilineComment(r)
				result = append(result, ' ')
			} else {
				result = append(result, ru)
			}
		default:
			result = append(result, ru)
		}
	}
	return string(result)
}

// quoteSources rewrites a single- or double-quoted string that directly
// follows FROM or JOIN into a backquoted identifier. String literals in
// any other position are left alone.
func quoteSources(s string) string {
	r := bufio.NewReader(strings.NewReader(s))
	var result []rune
	for {
		ru, _, err := r.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		switch ru {
		case '\'', '"':
			raw := readString(r, ru)
			if !followsSourceKeyword(result) {
				result = append(result, ru)
				result = append(result, raw...)
				continue
			}
			result = append(result, '`')
			for _, c := range unquote(raw, ru) {
				if c == '`' {
					result = append(result, '`')
				}
				result = append(result, c)
			}
			result = append(result, '`')
		case '`':
			result = append(result, ru)
			result = append(result, readString(r, ru)...)
		default:
			result = append(result, ru)
		}
	}
	return string(result)
}

// followsSourceKeyword reports whether the text so far ends with the
// keyword FROM or JOIN, ignoring trailing whitespace.
func followsSourceKeyword(text []rune) bool {
	end := len(text)
	for end > 0 && unicode.IsSpace(text[end-1]) {
		end--
	}
	start := end
	for start > 0 && (unicode.IsLetter(text[start-1]) || text[start-1] == '_') {
		start--
	}
	if start > 0 && (unicode.IsDigit(text[start-1]) || text[start-1] == '.') {
		return false
	}
	word := strings.ToLower(string(text[start:end]))
	return word == "from" || word == "join"
}

// unquote strips the closing quote from a string read by readString and
// resolves backslash escapes.
func unquote(raw []rune, quote rune) []rune {
	if len(raw) > 0 && raw[len(raw)-1] == quote {
		raw = raw[:len(raw)-1]
	}
	var out []rune
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
		}
		out = append(out, raw[i])
	}
	return out
}

func discardUntilEOL(r *bufio.Reader) {
	for {
		ru, _, err := r.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if ru == '\n' {
			break
		}
	}
}

func discardMultilineComment(r *bufio.Reader) {
	for {
		ru, _, err := r.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if ru == '*' {
			peeked, err := r.Peek(1)
			if err == nil && len(peeked) == 1 && rune(peeked[0]) == '/' {
				// read the rune we just peeked
				_, _, _ = r.ReadRune()
				break
			}
		}
	}
}

// readString reads up to and including the closing quote. Backslash
// escapes are honored except inside backquoted identifiers.
func readString(r *bufio.Reader, quote rune) []rune {
	var result []rune
	var escaped bool
	for {
		ru, _, err := r.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		result = append(result, ru)
		if ru == quote && !escaped {
			break
		}
		escaped = ru == '\\' && !escaped && quote != '`'
	}
	return result
}
