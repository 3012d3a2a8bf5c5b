package datatables

import (
	"strconv"
	"strings"
	"time"
)

const defaultDateLayout = "2006-01-02"

// GetFilterValue returns the filter value of a column. A column with a
// custom filter name reads the tuple stored under that name instead of its
// own id.
func GetFilterValue(column Column, table *Table) any {
	if name := column.Meta.CustomFilterName; name != "" {
		return table.ColumnFilterValue(name)
	}
	return table.ColumnFilterValue(column.Data)
}

// SetFilterValue sets the filter value of a column. A column with a custom
// filter name replaces, or appends, the tuple stored under that name and
// leaves every other tuple untouched; its own id is never written.
func SetFilterValue(column Column, table *Table, value any) error {
	if name := column.Meta.CustomFilterName; name != "" {
		return table.SetColumnFilters(Func(func(prev ColumnFiltersState) ColumnFiltersState {
			return upsertFilter(prev, name, value)
		}))
	}
	return table.SetColumnFilterValue(column.Data, value)
}

// FilterInputState is the validation result of a raw filter input.
type FilterInputState struct {
	IsValid      bool   `json:"isValid"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// FilterInput is a raw filter input together with its parsed value and its
// validation state. Value is only meaningful while State.IsValid is true.
type FilterInput struct {
	Raw   string           `json:"raw"`
	Value any              `json:"value"`
	State FilterInputState `json:"state"`
}

// ParseFilterInput validates and parses a raw filter input for a column.
// invalidMessage is reported when a value cannot be parsed and the validator
// did not provide a message.
//
// An empty input parses to nil, which clears the filter.
func ParseFilterInput(column Column, raw string, invalidMessage string) FilterInput {
	in := FilterInput{Raw: raw, State: FilterInputState{IsValid: true}}

	if column.Meta.IsInputValid != nil {
		state := column.Meta.IsInputValid(raw)
		if !state.IsValid {
			if state.ErrorMessage == "" {
				state.ErrorMessage = invalidMessage
			}
			in.State = state
			return in
		}
	}

	if raw == "" {
		return in
	}

	if dd := column.Meta.DropdownFilter; dd != nil {
		in.Value = raw
		for _, o := range dd.Options {
			if toString(o.Value) == raw || o.Label == raw {
				in.Value = o.Value
				break
			}
		}
		return in
	}

	switch column.Meta.ParseValueAs {
	case ParseAsNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			in.State = FilterInputState{IsValid: false, ErrorMessage: invalidMessage}
			return in
		}
		in.Value = n
	case ParseAsDate:
		layout := column.Meta.DateLayout
		if layout == "" {
			layout = defaultDateLayout
		}
		t, err := time.Parse(layout, strings.TrimSpace(raw))
		if err != nil {
			in.State = FilterInputState{IsValid: false, ErrorMessage: invalidMessage}
			return in
		}
		in.Value = t
	default:
		in.Value = raw
	}
	return in
}
