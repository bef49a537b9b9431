package dispatcher

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidIdentifier is returned by ParseIDs when an entry is not an integer.
type ErrInvalidIdentifier struct {
	Index int
	Value interface{}
}

func (e *ErrInvalidIdentifier) Error() string {
	return fmt.Sprintf("INVALID_IDENTIFIER: object id at position %d is not an integer: %v", e.Index, e.Value)
}

// ParseIDs converts raw identifiers (strings, integers, json.Number or integral
// floats) into ints. In strict mode the first non-numeric entry is an error; in
// loose mode it becomes 0.
func ParseIDs(raw []interface{}, loose bool) ([]int, error) {
	ids := make([]int, 0, len(raw))
	for i, v := range raw {
		id, ok := toInt(v)
		if !ok {
			if !loose {
				return nil, &ErrInvalidIdentifier{Index: i, Value: v}
			}
			id = looseInt(v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// StringIDs is a convenience for callers holding form values.
func StringIDs(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		return floatInt(n)
	case json.Number:
		if i, err := strconv.Atoi(n.String()); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatInt(f)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

// floatInt accepts integral floats that fit in an int.
func floatInt(f float64) (int, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

// looseInt mirrors the host's loose integer cast: the leading numeric part of a
// string, truncated floats, and 0 for everything else.
func looseInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int(n)
	case string:
		s := strings.TrimSpace(n)
		end := 0
		for end < len(s) {
			c := s[end]
			if c >= '0' && c <= '9' || (end == 0 && (c == '-' || c == '+')) {
				end++
				continue
			}
			break
		}
		i, err := strconv.Atoi(s[:end])
		if err != nil {
			return 0
		}
		return i
	case bool:
		if n {
			return 1
		}
	}
	return 0
}
