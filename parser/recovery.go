// Package parser implements the recovery parser that turns noisy streamed
// text into a recognized message envelope. Payloads arrive line-by-line from
// a subprocess and are frequently wrapped in ANSI escapes, surrounded by log
// noise, or printed as Python reprs instead of JSON. Parsing is best effort:
// every failure surfaces as a nil envelope, never as a panic.
package parser

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Envelope is the minimal recognized message shape: a decoded object whose
// "type" field is a non-empty string. Everything else is kind-specific and
// validated by the matching handler.
type Envelope map[string]any

// Type returns the envelope's type tag.
func (e Envelope) Type() string {
	t, _ := e["type"].(string)
	return t
}

// FromValue treats an already-decoded value as an envelope when it satisfies
// the envelope shape, returning nil otherwise.
func FromValue(v any) Envelope {
	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return nil
	}
	if t, ok := m["type"].(string); !ok || t == "" {
		return nil
	}
	return Envelope(m)
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

// StripANSI removes ANSI terminal escape sequences.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// Parse recovers an envelope from one raw payload. The stages fall back in
// order: clean the text, isolate the first balanced bracket block, strict
// JSON decode, then a Python-literal repair pass and a second decode.
// Returns nil when no stage yields a valid envelope.
func Parse(raw string) Envelope {
	cleaned := StripANSI(raw)
	cleaned = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(cleaned)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}

	candidate := ExtractBracketBlock(cleaned)
	if candidate == "" {
		candidate = cleaned
	}

	if env := decode(candidate); env != nil {
		return env
	}

	repaired, ok := RepairPythonLiterals(candidate)
	if !ok {
		return nil
	}
	return decode(repaired)
}

func decode(s string) Envelope {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	return FromValue(v)
}

// ExtractBracketBlock returns the first balanced {...} or [...] substring,
// skipping bracket characters that appear inside single- or double-quoted
// string literals (backslash escapes respected). Quotes before the first
// bracket count as plain text: log noise is full of apostrophes and stray
// quote marks that must not suppress extraction. When a scan started at one
// opening bracket cannot be balanced, the scan restarts just past it, so a
// bracket buried in quoted noise does not hide a later real block. Returns
// "" when no balanced block exists.
func ExtractBracketBlock(s string) string {
	for from := 0; from < len(s); {
		block, resume := scanBracketBlock(s, from)
		if block != "" {
			return block
		}
		if resume < 0 {
			return ""
		}
		from = resume
	}
	return ""
}

// scanBracketBlock scans s from the given offset and returns the first
// balanced block. On failure it returns "" and the offset to resume the
// search from, or -1 when no opening bracket remains.
func scanBracketBlock(s string, from int) (string, int) {
	start := -1
	var stack []byte
	var quote byte
	escaped := false

	for i := from; i < len(s); i++ {
		ch := s[i]

		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == quote:
				quote = 0
			}
			continue
		}

		switch ch {
		case '\'', '"':
			if start >= 0 {
				quote = ch
			}
		case '{', '[':
			if start < 0 {
				start = i
			}
			stack = append(stack, ch)
		case '}', ']':
			if len(stack) == 0 {
				continue
			}
			open := stack[len(stack)-1]
			if (ch == '}' && open != '{') || (ch == ']' && open != '[') {
				return "", start + 1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[start : i+1], i + 1
			}
		}
	}
	if start < 0 {
		return "", -1
	}
	return "", start + 1
}

// RepairPythonLiterals rewrites Python-repr syntax into JSON: single-quoted
// strings become double-quoted (embedded double quotes escaped), and the
// bare identifiers True/False/None become true/false/null. The pass is
// string-literal aware, so identifiers inside quoted text are left alone.
// The repair is all or nothing: an unterminated string abandons it and
// returns the input unmodified with ok=false.
func RepairPythonLiterals(s string) (string, bool) {
	var out strings.Builder
	out.Grow(len(s))

	for i := 0; i < len(s); {
		ch := s[i]
		switch ch {
		case '\'':
			end, ok := convertSingleQuoted(&out, s, i)
			if !ok {
				return s, false
			}
			i = end
		case '"':
			end, ok := copyDoubleQuoted(&out, s, i)
			if !ok {
				return s, false
			}
			i = end
		default:
			if isIdentByte(ch) && (i == 0 || !isIdentByte(s[i-1])) {
				j := i
				for j < len(s) && isIdentByte(s[j]) {
					j++
				}
				switch s[i:j] {
				case "True":
					out.WriteString("true")
				case "False":
					out.WriteString("false")
				case "None":
					out.WriteString("null")
				default:
					out.WriteString(s[i:j])
				}
				i = j
				continue
			}
			out.WriteByte(ch)
			i++
		}
	}
	return out.String(), true
}

// convertSingleQuoted consumes a single-quoted literal starting at i and
// writes its JSON double-quoted equivalent. Returns the index past the
// closing quote, or ok=false when the literal never terminates.
func convertSingleQuoted(out *strings.Builder, s string, i int) (int, bool) {
	out.WriteByte('"')
	i++ // opening quote
	for i < len(s) {
		ch := s[i]
		switch ch {
		case '\\':
			if i+1 >= len(s) {
				return 0, false
			}
			next := s[i+1]
			if next == '\'' {
				// \' is not a JSON escape
				out.WriteByte('\'')
			} else {
				out.WriteByte('\\')
				out.WriteByte(next)
			}
			i += 2
		case '\'':
			out.WriteByte('"')
			return i + 1, true
		case '"':
			out.WriteString(`\"`)
			i++
		default:
			out.WriteByte(ch)
			i++
		}
	}
	return 0, false
}

// copyDoubleQuoted consumes a double-quoted literal starting at i and copies
// it verbatim. Returns the index past the closing quote, or ok=false when
// the literal never terminates.
func copyDoubleQuoted(out *strings.Builder, s string, i int) (int, bool) {
	out.WriteByte('"')
	i++
	for i < len(s) {
		ch := s[i]
		out.WriteByte(ch)
		switch ch {
		case '\\':
			if i+1 >= len(s) {
				return 0, false
			}
			out.WriteByte(s[i+1])
			i += 2
		case '"':
			return i + 1, true
		default:
			i++
		}
	}
	return 0, false
}

func isIdentByte(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9')
}
