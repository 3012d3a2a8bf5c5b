package datatables

import (
	"math"
	"slices"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ColumnFiltersFromModel converts the domain filter model into the engine's
// tuple-array form.
//
// Go maps carry no insertion order, so the tuples are emitted in ascending
// key order. The order is deterministic but carries no meaning.
func ColumnFiltersFromModel(model FilterModel) ColumnFiltersState {
	keys := make([]string, 0, len(model))
	for k := range model {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	filters := make(ColumnFiltersState, 0, len(keys))
	for _, k := range keys {
		filters = append(filters, ColumnFilter{ID: k, Value: model[k]})
	}
	return filters
}

// ModelFromColumnFilters converts engine filter tuples into the domain filter
// model. When the same id occurs more than once the last tuple wins.
func ModelFromColumnFilters(filters ColumnFiltersState) FilterModel {
	model := make(FilterModel, len(filters))
	for _, f := range filters {
		model[f.ID] = f.Value
	}
	return model
}

// SortingFromModel converts the domain sorting into engine tuples. A nil
// sorting yields an empty slice.
func SortingFromModel(sorting *Sorting) SortingState {
	if sorting == nil {
		return SortingState{}
	}
	return SortingState{{ID: sorting.ID, Desc: sorting.Desc}}
}

// ModelFromSorting converts engine sorting tuples into the domain sorting.
// Only the first tuple is kept; tables sort by a single column.
func ModelFromSorting(sorting SortingState) *Sorting {
	if len(sorting) == 0 {
		return nil
	}
	first := sorting[0]
	return &Sorting{ID: first.ID, Desc: first.Desc}
}

// FilterString returns the filter value of the given id as a string.
func FilterString(filters ColumnFiltersState, id string) (string, bool) {
	for _, f := range filters {
		if f.ID != id {
			continue
		}
		switch v := f.Value.(type) {
		case string:
			return v, true
		case nil:
			return "", false
		default:
			return toString(v), true
		}
	}
	return "", false
}

// FilterNumber returns the filter value of the given id parsed as a float.
// Values that cannot be parsed are reported as absent.
func FilterNumber(filters ColumnFiltersState, id string) (float64, bool) {
	for _, f := range filters {
		if f.ID != id {
			continue
		}
		if n, ok := toFloat(f.Value); ok {
			return n, true
		}
		s, ok := f.Value.(string)
		if !ok {
			return 0, false
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// DecodeFilter decodes the filter model into a typed filter struct using
// its json tags.
func DecodeFilter[T any](model FilterModel) (T, error) {
	var out T
	data, err := json.Marshal(model)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
