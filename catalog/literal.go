package catalog

import (
	"strings"

	"github.com/tidwall/gjson"
)

// parseLiteral decodes a function definition stored as a string. Datasets
// carry both JSON and Python-style literals (single quotes, True/False/None),
// so invalid JSON is retried after a best-effort conversion. Only objects
// are accepted.
func parseLiteral(s string) (gjson.Result, bool) {
	for _, candidate := range []string{s, pythonToJSON(s)} {
		if !gjson.Valid(candidate) {
			continue
		}
		if fn := gjson.Parse(candidate); fn.IsObject() {
			return fn, true
		}
	}
	return gjson.Result{}, false
}

// pythonToJSON rewrites single-quoted strings as double-quoted ones and
// the bare constants True, False and None as their JSON equivalents.
func pythonToJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]

		if quote != 0 {
			switch {
			case c == '\\' && i+1 < len(s):
				next := s[i+1]
				if quote == '\'' && next == '\'' {
					b.WriteByte('\'')
				} else {
					b.WriteByte(c)
					b.WriteByte(next)
				}
				i++
			case c == quote:
				b.WriteByte('"')
				quote = 0
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte('"')
		case strings.HasPrefix(s[i:], "True") && boundary(s, i, 4):
			b.WriteString("true")
			i += 3
		case strings.HasPrefix(s[i:], "False") && boundary(s, i, 5):
			b.WriteString("false")
			i += 4
		case strings.HasPrefix(s[i:], "None") && boundary(s, i, 4):
			b.WriteString("null")
			i += 3
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func boundary(s string, i, n int) bool {
	isWord := func(c byte) bool {
		return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
	}
	if i > 0 && isWord(s[i-1]) {
		return false
	}
	if end := i + n; end < len(s) && isWord(s[end]) {
		return false
	}
	return true
}
