package datatables

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// TableHandlers receive every state change requested through a Table. A nil
// handler ignores the change.
type TableHandlers struct {
	OnColumnFiltersChange func(Update[ColumnFiltersState]) error
	OnSortingChange       func(Update[SortingState]) error
	OnPaginationChange    func(Update[PaginationState]) error
	OnRowSelectionChange  func(Update[RowSelectionState]) error
	OnExpandedChange      func(Update[ExpandedState]) error
	OnColumnPinningChange func(Update[ColumnPinningState]) error
}

// Table is the engine-facing handle of a table. It reads its options, state
// included, from a producer on every call and never stores state itself.
type Table struct {
	engine    Engine
	options   func() *TableOptions
	handlers  TableHandlers
	pageSizes []int
}

// NewTable returns a Table computing row models with engine. A nil engine
// selects SliceEngine.
func NewTable(engine Engine, options func() *TableOptions, handlers TableHandlers, pageSizes []int) *Table {
	if engine == nil {
		engine = SliceEngine{}
	}
	return &Table{
		engine:    engine,
		options:   options,
		handlers:  handlers,
		pageSizes: slices.Clone(pageSizes),
	}
}

// Options returns the current table options.
func (t *Table) Options() *TableOptions {
	return t.options()
}

// State returns the current engine state.
func (t *Table) State() TableState {
	return t.options().State
}

// Column returns the column with the given id.
func (t *Table) Column(id string) (Column, bool) {
	return findColumn(t.options().Columns, id)
}

// RowModel computes the current row model.
func (t *Table) RowModel(ctx context.Context) (*RowModel, error) {
	return t.engine.RowModel(ctx, t.options())
}

func (t *Table) SetColumnFilters(u Update[ColumnFiltersState]) error {
	if t.handlers.OnColumnFiltersChange == nil {
		return nil
	}
	return t.handlers.OnColumnFiltersChange(u)
}

// ResetColumnFilters removes every column filter.
func (t *Table) ResetColumnFilters() error {
	return t.SetColumnFilters(Value(ColumnFiltersState{}))
}

// ColumnFilterValue returns the value of the filter tuple with the given id.
func (t *Table) ColumnFilterValue(id string) any {
	for _, f := range t.State().ColumnFilters {
		if f.ID == id {
			return f.Value
		}
	}
	return nil
}

// SetColumnFilterValue sets the filter tuple with the given id. The tuple is
// replaced in place, or appended when missing; a nil or empty string value
// removes it.
func (t *Table) SetColumnFilterValue(id string, value any) error {
	return t.SetColumnFilters(Func(func(prev ColumnFiltersState) ColumnFiltersState {
		next := slices.Clone(prev)
		if isEmptyFilterValue(value) {
			return slices.DeleteFunc(next, func(f ColumnFilter) bool { return f.ID == id })
		}
		return upsertFilter(next, id, value)
	}))
}

func upsertFilter(filters ColumnFiltersState, id string, value any) ColumnFiltersState {
	i := slices.IndexFunc(filters, func(f ColumnFilter) bool { return f.ID == id })
	if i < 0 {
		return append(filters, ColumnFilter{ID: id, Value: value})
	}
	filters[i].Value = value
	return filters
}

func (t *Table) SetSorting(u Update[SortingState]) error {
	if t.handlers.OnSortingChange == nil {
		return nil
	}
	return t.handlers.OnSortingChange(u)
}

// ToggleSorting cycles the column through ascending, descending and unsorted.
// Sorting by another column replaces the current sorting. Columns that are
// not orderable are left alone.
func (t *Table) ToggleSorting(id string) error {
	col, ok := t.Column(id)
	if !ok || !col.Orderable {
		return nil
	}
	return t.SetSorting(Func(func(prev SortingState) SortingState {
		for _, s := range prev {
			if s.ID != id {
				continue
			}
			if s.Desc {
				return SortingState{}
			}
			return SortingState{{ID: id, Desc: true}}
		}
		return SortingState{{ID: id, Desc: false}}
	}))
}

func (t *Table) SetPagination(u Update[PaginationState]) error {
	if t.handlers.OnPaginationChange == nil {
		return nil
	}
	return t.handlers.OnPaginationChange(u)
}

// SetPageIndex moves to the given page. Negative indexes select the first page.
func (t *Table) SetPageIndex(index int) error {
	return t.SetPagination(Func(func(prev PaginationState) PaginationState {
		prev.PageIndex = max(index, 0)
		return prev
	}))
}

// ResetPageIndex moves to the first page.
func (t *Table) ResetPageIndex() error {
	return t.SetPageIndex(0)
}

// SetPageSize changes the page size while keeping the first row of the
// current page visible. The size must be one of the allowed page sizes.
func (t *Table) SetPageSize(size int) error {
	if len(t.pageSizes) > 0 && !slices.Contains(t.pageSizes, size) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	return t.SetPagination(Func(func(prev PaginationState) PaginationState {
		topRow := prev.PageIndex * prev.PageSize
		return PaginationState{PageIndex: topRow / size, PageSize: size}
	}))
}

// PageCount returns the number of pages. Manually paginated tables count
// TableOptions.RowCount rows, and report -1 when it is unknown.
func (t *Table) PageCount(ctx context.Context) (int, error) {
	opts := t.options()
	if opts.ManualPagination {
		if opts.RowCount < 0 {
			return -1, nil
		}
		return pageCount(opts.RowCount, opts.State.Pagination.PageSize), nil
	}
	model, err := t.engine.RowModel(ctx, opts)
	if err != nil {
		return 0, err
	}
	return pageCount(model.PrePaginationCount, opts.State.Pagination.PageSize), nil
}

// NextPage moves to the next page, if there is one.
func (t *Table) NextPage(ctx context.Context) error {
	count, err := t.PageCount(ctx)
	if err != nil {
		return err
	}
	current := t.State().Pagination.PageIndex
	if count >= 0 && current+1 >= count {
		return nil
	}
	return t.SetPageIndex(current + 1)
}

// PreviousPage moves to the previous page, if there is one.
func (t *Table) PreviousPage() error {
	current := t.State().Pagination.PageIndex
	if current == 0 {
		return nil
	}
	return t.SetPageIndex(current - 1)
}

func (t *Table) SetRowSelection(u Update[RowSelectionState]) error {
	if t.handlers.OnRowSelectionChange == nil {
		return nil
	}
	return t.handlers.OnRowSelectionChange(u)
}

// ToggleRowSelected flips the selection of a row. Unless multi-row
// selection is enabled, selecting a row clears every other selection.
// Nothing happens while row selection is disabled.
func (t *Table) ToggleRowSelected(rowID string) error {
	opts := t.options()
	if !opts.EnableRowSelection {
		return nil
	}
	multi := opts.EnableMultiRowSelection
	return t.SetRowSelection(Func(func(prev RowSelectionState) RowSelectionState {
		selected := prev[rowID]
		if !multi {
			next := RowSelectionState{}
			if !selected {
				next[rowID] = true
			}
			return next
		}
		next := maps.Clone(prev)
		if next == nil {
			next = RowSelectionState{}
		}
		if selected {
			delete(next, rowID)
		} else {
			next[rowID] = true
		}
		return next
	}))
}

func (t *Table) SetExpanded(u Update[ExpandedState]) error {
	if t.handlers.OnExpandedChange == nil {
		return nil
	}
	return t.handlers.OnExpandedChange(u)
}

// ToggleExpanded flips the expansion of a row. When every row is expanded
// the rows of TableOptions.Data are listed explicitly first. Nothing happens
// while expanding is disabled.
func (t *Table) ToggleExpanded(rowID string) error {
	opts := t.options()
	if !opts.EnableExpanding {
		return nil
	}
	return t.SetExpanded(Func(func(prev ExpandedState) ExpandedState {
		rows := map[string]bool{}
		if prev.All {
			for _, id := range allRowIDs(buildRows(opts, opts.Data, 0, nil)) {
				rows[id] = true
			}
		} else {
			for id, v := range prev.Rows {
				if v {
					rows[id] = true
				}
			}
		}
		if rows[rowID] {
			delete(rows, rowID)
		} else {
			rows[rowID] = true
		}
		return ExpandedState{Rows: rows}
	}))
}

func allRowIDs(rows []*Row) []string {
	var ids []string
	for _, row := range rows {
		ids = append(ids, row.ID)
		ids = append(ids, allRowIDs(row.SubRows)...)
	}
	return ids
}

// ToggleAllExpanded expands every row, or collapses every row when all are
// expanded already.
func (t *Table) ToggleAllExpanded() error {
	if !t.options().EnableExpanding {
		return nil
	}
	return t.SetExpanded(Func(func(prev ExpandedState) ExpandedState {
		if prev.All {
			return ExpandedState{}
		}
		return ExpandedState{All: true}
	}))
}

func (t *Table) SetColumnPinning(u Update[ColumnPinningState]) error {
	if t.handlers.OnColumnPinningChange == nil {
		return nil
	}
	return t.handlers.OnColumnPinningChange(u)
}

// PinColumn pins the column to a side, or unpins it with PinNone.
func (t *Table) PinColumn(id string, side PinSide) error {
	return t.SetColumnPinning(Func(func(prev ColumnPinningState) ColumnPinningState {
		isID := func(s string) bool { return s == id }
		next := ColumnPinningState{
			Left:  slices.DeleteFunc(slices.Clone(prev.Left), isID),
			Right: slices.DeleteFunc(slices.Clone(prev.Right), isID),
		}
		switch side {
		case PinLeft:
			next.Left = append(next.Left, id)
		case PinRight:
			next.Right = append(next.Right, id)
		}
		return next
	}))
}
