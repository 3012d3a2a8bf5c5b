package datatables

import (
	"cmp"
	"fmt"
	"maps"
	"strings"
	"time"
)

// lookupPath resolves a dotted path such as "address.city" or "tags[0].name"
// against a row. Missing segments resolve to nil.
func lookupPath(row map[string]any, path string) any {
	if row == nil {
		return nil
	}
	if v, ok := row[path]; ok || !strings.ContainsAny(path, ".[") {
		return v
	}

	var current any = row
	for _, segment := range splitPath(path) {
		switch node := current.(type) {
		case map[string]any:
			current = node[segment]
		case []any:
			idx, ok := parseIndex(segment)
			if !ok || idx >= len(node) {
				return nil
			}
			current = node[idx]
		case []map[string]any:
			idx, ok := parseIndex(segment)
			if !ok || idx >= len(node) {
				return nil
			}
			current = node[idx]
		default:
			return nil
		}
	}
	return current
}

// splitPath turns "items[2].name" into ["items", "2", "name"].
func splitPath(path string) []string {
	path = strings.ReplaceAll(path, "[", ".")
	path = strings.ReplaceAll(path, "]", "")
	parts := strings.Split(path, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIndex(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// toFloat converts numeric values of any builtin kind to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// isEmptyFilterValue reports whether a filter value means "no filter".
func isEmptyFilterValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

// compareValues orders two cell values. nil sorts first, numbers and times
// compare by value, everything else by its string form.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(toString(a), toString(b))
}

// cloneRow returns a shallow copy of a row so rendering never writes into
// caller-owned data.
func cloneRow(row map[string]any) map[string]any {
	if row == nil {
		return map[string]any{}
	}
	return maps.Clone(row)
}

// normalizeResponse returns a copy of the rows where every int64 value is
// converted to int, the type used by in-memory rows.
func normalizeResponse(data []map[string]any) []map[string]any {
	if data == nil {
		return nil
	}
	normalized := make([]map[string]any, len(data))
	for i, row := range data {
		normalized[i] = make(map[string]any, len(row))
		for key, value := range row {
			switch v := value.(type) {
			case int64:
				normalized[i][key] = int(v)
			default:
				normalized[i][key] = value
			}
		}
	}
	return normalized
}
