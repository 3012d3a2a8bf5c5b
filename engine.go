package datatables

import (
	"context"
	"strconv"
)

// Engine computes the row model of a table from its options. The engine only
// ever sees filters and sorting in their tuple-array form.
type Engine interface {
	RowModel(ctx context.Context, opts *TableOptions) (*RowModel, error)
}

// TableOptions is everything an Engine needs to compute a row model.
//
// Fields:
//   - Data: The rows of the table. Engines backed by a database ignore it.
//   - Columns: The prepared column definitions.
//   - State: The effective table state.
//   - ManualFiltering, ManualSorting, ManualPagination: The rows are already
//     filtered, sorted or paginated by the caller and are passed through.
//   - GetRowID: Returns the identifier of a row. Defaults to the row index,
//     "parent.index" for sub rows.
//   - GetSubRows: Returns the children of a row, if any.
//   - RowCount: The total number of rows of a manually paginated table, -1
//     when unknown.
type TableOptions struct {
	Data             []map[string]any
	Columns          []Column
	State            TableState
	ManualFiltering  bool
	ManualSorting    bool
	ManualPagination bool
	RowCount         int

	EnableMultiSort         bool
	EnableRowSelection      bool
	EnableMultiRowSelection bool
	EnableSubRowSelection   bool
	EnableExpanding         bool

	GetRowID   func(row map[string]any, index int, parent *Row) string
	GetSubRows func(row map[string]any) []map[string]any
}

// RowModel is the result of an Engine run.
//
// Fields:
//   - Rows: The rows of the current page, expanded sub rows included.
//   - CoreCount: The number of top level rows before filtering.
//   - FilteredCount: The number of top level rows after filtering.
//   - PrePaginationCount: The number of rows, expanded sub rows included,
//     pagination works on.
type RowModel struct {
	Rows               []*Row
	CoreCount          int
	FilteredCount      int
	PrePaginationCount int
}

// Row is a single row of a row model.
type Row struct {
	ID       string
	Index    int
	Depth    int
	ParentID string
	Original map[string]any
	SubRows  []*Row
	Selected bool
	Expanded bool
}

// Value returns the raw value of the column for the row.
func (r *Row) Value(col Column) any {
	return col.value(r.Original)
}

// CanExpand reports whether the row has sub rows.
func (r *Row) CanExpand() bool {
	return len(r.SubRows) > 0
}

// buildRows turns raw data into rows, recursing into sub rows.
func buildRows(opts *TableOptions, data []map[string]any, depth int, parent *Row) []*Row {
	rows := make([]*Row, 0, len(data))
	for i, original := range data {
		row := &Row{
			ID:       rowID(opts, original, i, parent),
			Index:    i,
			Depth:    depth,
			Original: original,
		}
		if parent != nil {
			row.ParentID = parent.ID
		}
		row.Selected = opts.State.RowSelection[row.ID]
		row.Expanded = opts.EnableExpanding && opts.State.Expanded.IsExpanded(row.ID)
		if opts.GetSubRows != nil {
			if children := opts.GetSubRows(original); len(children) > 0 {
				row.SubRows = buildRows(opts, children, depth+1, row)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func rowID(opts *TableOptions, original map[string]any, index int, parent *Row) string {
	if opts.GetRowID != nil {
		return opts.GetRowID(original, index, parent)
	}
	if parent != nil {
		return parent.ID + "." + strconv.Itoa(index)
	}
	return strconv.Itoa(index)
}

// expandRows flattens rows, inserting the sub rows of every expanded row
// right after it.
func expandRows(rows []*Row) []*Row {
	flat := make([]*Row, 0, len(rows))
	for _, row := range rows {
		flat = append(flat, row)
		if row.Expanded && row.CanExpand() {
			flat = append(flat, expandRows(row.SubRows)...)
		}
	}
	return flat
}

// pageBounds returns the slice bounds of the page described by p within n rows.
// A negative page index selects the first page.
func pageBounds(p PaginationState, n int) (start, end int) {
	if p.PageSize <= 0 {
		return 0, n
	}
	start = max(p.PageIndex, 0) * p.PageSize
	if start > n {
		start = n
	}
	end = start + p.PageSize
	if end > n {
		end = n
	}
	return start, end
}

// pageCount returns the number of pages needed for total rows.
func pageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
