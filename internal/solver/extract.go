package solver

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no top-level JSON object can be found in
// the model's reply.
var ErrNoJSON = errors.New("no JSON object found in completion reply")

// ExtractJSONObject returns the first balanced top-level {...} in s.
// The scanner tracks string literals and escapes, so nested objects in
// the reply do not truncate the match the way a non-greedy pattern would.
func ExtractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSON
}

var (
	bareKeyPattern    = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	singleQuotedValue = regexp.MustCompile(`'([^'\\]*)'`)
	bareValuePattern  = regexp.MustCompile(`:\s*([A-Za-z_][A-Za-z0-9_ -]*[A-Za-z0-9_])\s*([,}])`)
)

// ParseLenientJSON decodes s into v: strictly first, then once more
// after a best-effort repair (double-quote single-quoted strings, quote
// bare keys, quote bare scalar values). The repairs are textual and can
// mangle exotic input; they exist only to salvage near-JSON model
// output.
func ParseLenientJSON(s string, v any) error {
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}
	return json.Unmarshal([]byte(repairJSON(s)), v)
}

func repairJSON(s string) string {
	s = singleQuotedValue.ReplaceAllString(s, `"$1"`)
	s = bareKeyPattern.ReplaceAllString(s, `$1"$2":`)
	s = bareValuePattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := bareValuePattern.FindStringSubmatch(m)
		switch sub[1] {
		case "true", "false", "null":
			return m
		}
		return `: "` + sub[1] + `"` + sub[2]
	})
	return s
}
