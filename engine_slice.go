package datatables

import (
	"context"
	"slices"
	"strconv"
	"strings"
)

// SliceEngine computes row models from in-memory data: core rows, then
// filtering, sorting, expansion and pagination. Every stage flagged as
// manual passes its input through untouched.
type SliceEngine struct{}

var _ Engine = SliceEngine{}

func (SliceEngine) RowModel(ctx context.Context, opts *TableOptions) (*RowModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := buildRows(opts, opts.Data, 0, nil)
	model := &RowModel{CoreCount: len(rows)}

	if !opts.ManualFiltering {
		rows = filterRows(rows, opts.Columns, opts.State.ColumnFilters)
	}
	model.FilteredCount = len(rows)

	if !opts.ManualSorting {
		rows = sortRows(rows, opts.Columns, opts.State.Sorting, opts.EnableMultiSort)
	}

	rows = expandRows(rows)
	model.PrePaginationCount = len(rows)

	if !opts.ManualPagination {
		start, end := pageBounds(opts.State.Pagination, len(rows))
		rows = rows[start:end]
	}
	model.Rows = rows
	return model, nil
}

// filterRows keeps the rows matching every active filter. Filters on ids
// that are not a filterable column, and empty filter values, are ignored.
func filterRows(rows []*Row, columns []Column, filters ColumnFiltersState) []*Row {
	type activeFilter struct {
		col   Column
		value any
	}
	var active []activeFilter
	for _, f := range filters {
		if isEmptyFilterValue(f.Value) {
			continue
		}
		col, ok := findColumn(columns, f.ID)
		if !ok || !col.Searchable {
			continue
		}
		active = append(active, activeFilter{col: col, value: f.Value})
	}
	if len(active) == 0 {
		return rows
	}

	filtered := make([]*Row, 0, len(rows))
	for _, row := range rows {
		match := true
		for _, f := range active {
			predicate := f.col.FilterFunc
			if predicate == nil {
				predicate = defaultFilter
			}
			if !predicate(row.Value(f.col), f.value) {
				match = false
				break
			}
		}
		if match {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// defaultFilter matches numbers by value and everything else by a case
// insensitive substring.
func defaultFilter(cell, filter any) bool {
	if cn, ok := toFloat(cell); ok {
		if fn, ok := toFloat(filter); ok {
			return cn == fn
		}
		if s, ok := filter.(string); ok {
			if fn, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return cn == fn
			}
		}
	}
	if _, ok := filter.(string); !ok {
		if _, ok := cell.(string); !ok {
			return compareValues(cell, filter) == 0
		}
	}
	return strings.Contains(strings.ToLower(toString(cell)), strings.ToLower(toString(filter)))
}

// sortRows sorts the rows, and their sub rows, stably by the sort tuples.
// Without multi-sort only the first tuple is used.
func sortRows(rows []*Row, columns []Column, sorting SortingState, multi bool) []*Row {
	if !multi && len(sorting) > 1 {
		sorting = sorting[:1]
	}

	type sortKey struct {
		col  Column
		desc bool
	}
	var keys []sortKey
	for _, s := range sorting {
		col, ok := findColumn(columns, s.ID)
		if !ok {
			continue
		}
		keys = append(keys, sortKey{col: col, desc: s.Desc})
	}
	if len(keys) == 0 {
		return rows
	}

	var sortLevel func([]*Row) []*Row
	sortLevel = func(level []*Row) []*Row {
		sorted := slices.Clone(level)
		slices.SortStableFunc(sorted, func(a, b *Row) int {
			for _, k := range keys {
				c := compareValues(a.Value(k.col), b.Value(k.col))
				if k.desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
		for _, row := range sorted {
			if row.CanExpand() {
				row.SubRows = sortLevel(row.SubRows)
			}
		}
		return sorted
	}
	return sortLevel(rows)
}
