package catalog

import (
	"strconv"
	"strings"
)

// Mode selects how malformed numeric fields are handled during
// normalization.
type Mode int

const (
	// Coerce turns the "unknown" sentinel and unparseable values into 0.
	Coerce Mode = iota
	// Strict drops the whole record when any required field is
	// "unknown" or fails numeric parse.
	Strict
)

const unknownSentinel = "unknown"

// coerceInt parses the leading integer of a catalog numeric field.
// The source formats large values with thousands separators; only the
// leading digit run is taken, matching the original coercion.
func coerceInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, unknownSentinel) {
		return 0, false
	}
	end := 0
	if end < len(s) && s[end] == '-' {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// normalizeFields coerces each raw value, reporting whether all of them
// parsed cleanly. In Coerce mode the caller keeps the record regardless;
// in Strict mode a false result drops it.
func normalizeFields(raw []string) ([]int, bool) {
	out := make([]int, len(raw))
	clean := true
	for i, s := range raw {
		n, ok := coerceInt(s)
		out[i] = n
		clean = clean && ok
	}
	return out, clean
}
