package datatables

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableFixture is a Table backed by plain variables.
type tableFixture struct {
	state TableState
	opts  TableOptions
	table *Table
}

func newTableFixture(opts TableOptions) *tableFixture {
	f := &tableFixture{state: opts.State, opts: opts}
	options := func() *TableOptions {
		o := f.opts
		o.State = f.state
		return &o
	}
	f.table = NewTable(nil, options, TableHandlers{
		OnColumnFiltersChange: func(u Update[ColumnFiltersState]) error {
			f.state.ColumnFilters = u.Apply(f.state.ColumnFilters)
			return nil
		},
		OnSortingChange: func(u Update[SortingState]) error {
			f.state.Sorting = u.Apply(f.state.Sorting)
			return nil
		},
		OnPaginationChange: func(u Update[PaginationState]) error {
			f.state.Pagination = u.Apply(f.state.Pagination)
			return nil
		},
		OnRowSelectionChange: func(u Update[RowSelectionState]) error {
			f.state.RowSelection = u.Apply(f.state.RowSelection)
			return nil
		},
		OnExpandedChange: func(u Update[ExpandedState]) error {
			f.state.Expanded = u.Apply(f.state.Expanded)
			return nil
		},
		OnColumnPinningChange: func(u Update[ColumnPinningState]) error {
			f.state.ColumnPinning = u.Apply(f.state.ColumnPinning)
			return nil
		},
	}, defaultPageSizes)
	return f
}

func TestTableColumnFilterValue(t *testing.T) {
	f := newTableFixture(TableOptions{Columns: sliceColumns})
	table := f.table

	require.NoError(t, table.SetColumnFilterValue("name", "jo"))
	require.NoError(t, table.SetColumnFilterValue("age", 25))
	require.NoError(t, table.SetColumnFilterValue("name", "ann"))
	assert.Equal(t, ColumnFiltersState{{ID: "name", Value: "ann"}, {ID: "age", Value: 25}}, f.state.ColumnFilters)
	assert.Equal(t, "ann", table.ColumnFilterValue("name"))
	assert.Nil(t, table.ColumnFilterValue("city"))

	require.NoError(t, table.SetColumnFilterValue("name", ""))
	require.NoError(t, table.SetColumnFilterValue("age", nil))
	assert.Empty(t, f.state.ColumnFilters)

	require.NoError(t, table.SetColumnFilterValue("city", "Berlin"))
	require.NoError(t, table.ResetColumnFilters())
	assert.Empty(t, f.state.ColumnFilters)
}

func TestTableNilHandlersIgnoreChanges(t *testing.T) {
	opts := &TableOptions{Columns: sliceColumns, EnableRowSelection: true, EnableExpanding: true}
	table := NewTable(nil, func() *TableOptions { return opts }, TableHandlers{}, nil)

	assert.NoError(t, table.SetColumnFilterValue("name", "x"))
	assert.NoError(t, table.ToggleSorting("name"))
	assert.NoError(t, table.SetPageIndex(3))
	assert.NoError(t, table.ToggleRowSelected("1"))
	assert.NoError(t, table.ToggleExpanded("1"))
	assert.NoError(t, table.PinColumn("name", PinLeft))
	assert.Equal(t, TableState{}, table.State())
}

func TestTablePageSize(t *testing.T) {
	f := newTableFixture(TableOptions{State: TableState{Pagination: PaginationState{PageIndex: 3, PageSize: 10}}})

	require.NoError(t, f.table.SetPageSize(25))
	assert.Equal(t, PaginationState{PageIndex: 1, PageSize: 25}, f.state.Pagination)

	err := f.table.SetPageSize(30)
	assert.ErrorIs(t, err, ErrInvalidPageSize)
	assert.Equal(t, 25, f.state.Pagination.PageSize)

	require.NoError(t, f.table.SetPageIndex(-4))
	assert.Equal(t, 0, f.state.Pagination.PageIndex)
}

func TestTablePageCount(t *testing.T) {
	ctx := context.Background()

	t.Run("computed", func(t *testing.T) {
		f := newTableFixture(TableOptions{Data: sliceUsers(), State: TableState{Pagination: PaginationState{PageSize: 3}}})
		count, err := f.table.PageCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("manual_with_row_count", func(t *testing.T) {
		f := newTableFixture(TableOptions{ManualPagination: true, RowCount: 95, State: TableState{Pagination: PaginationState{PageSize: 10}}})
		count, err := f.table.PageCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, count)
	})

	t.Run("manual_unknown_row_count", func(t *testing.T) {
		f := newTableFixture(TableOptions{ManualPagination: true, RowCount: -1, State: TableState{Pagination: PaginationState{PageSize: 10}}})
		count, err := f.table.PageCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, -1, count)

		require.NoError(t, f.table.NextPage(ctx))
		require.NoError(t, f.table.NextPage(ctx))
		assert.Equal(t, 2, f.state.Pagination.PageIndex)
	})
}

func TestTableNextAndPreviousPage(t *testing.T) {
	ctx := context.Background()
	f := newTableFixture(TableOptions{Data: sliceUsers(), State: TableState{Pagination: PaginationState{PageSize: 2}}})

	require.NoError(t, f.table.PreviousPage())
	assert.Equal(t, 0, f.state.Pagination.PageIndex)

	require.NoError(t, f.table.NextPage(ctx))
	assert.Equal(t, 1, f.state.Pagination.PageIndex)
	require.NoError(t, f.table.NextPage(ctx))
	assert.Equal(t, 1, f.state.Pagination.PageIndex)

	require.NoError(t, f.table.PreviousPage())
	assert.Equal(t, 0, f.state.Pagination.PageIndex)
}

func TestTableToggleExpanded(t *testing.T) {
	data := []map[string]any{
		{"id": "a", "children": []map[string]any{{"id": "a1"}}},
		{"id": "b"},
	}
	opts := TableOptions{
		Data:            data,
		EnableExpanding: true,
		GetRowID:        func(row map[string]any, _ int, _ *Row) string { return fmt.Sprint(row["id"]) },
		GetSubRows: func(row map[string]any) []map[string]any {
			children, _ := row["children"].([]map[string]any)
			return children
		},
	}

	t.Run("single_rows", func(t *testing.T) {
		f := newTableFixture(opts)
		require.NoError(t, f.table.ToggleExpanded("a"))
		assert.Equal(t, ExpandedState{Rows: map[string]bool{"a": true}}, f.state.Expanded)
		require.NoError(t, f.table.ToggleExpanded("a"))
		assert.Equal(t, ExpandedState{Rows: map[string]bool{}}, f.state.Expanded)
	})

	t.Run("collapse_one_of_all", func(t *testing.T) {
		o := opts
		o.State.Expanded = ExpandedState{All: true}
		f := newTableFixture(o)

		require.NoError(t, f.table.ToggleExpanded("b"))
		assert.Equal(t, ExpandedState{Rows: map[string]bool{"a": true, "a1": true}}, f.state.Expanded)
	})

	t.Run("toggle_all", func(t *testing.T) {
		f := newTableFixture(opts)
		require.NoError(t, f.table.ToggleAllExpanded())
		assert.True(t, f.state.Expanded.All)
		require.NoError(t, f.table.ToggleAllExpanded())
		assert.Equal(t, ExpandedState{}, f.state.Expanded)
	})

	t.Run("disabled", func(t *testing.T) {
		o := opts
		o.EnableExpanding = false
		f := newTableFixture(o)
		require.NoError(t, f.table.ToggleExpanded("a"))
		require.NoError(t, f.table.ToggleAllExpanded())
		assert.Equal(t, ExpandedState{}, f.state.Expanded)
	})
}

func TestTablePinColumn(t *testing.T) {
	f := newTableFixture(TableOptions{Columns: sliceColumns})

	require.NoError(t, f.table.PinColumn("name", PinLeft))
	require.NoError(t, f.table.PinColumn("id", PinLeft))
	require.NoError(t, f.table.PinColumn("city", PinRight))
	assert.Equal(t, ColumnPinningState{Left: []string{"name", "id"}, Right: []string{"city"}}, f.state.ColumnPinning)

	require.NoError(t, f.table.PinColumn("name", PinRight))
	assert.Equal(t, []string{"id"}, f.state.ColumnPinning.Left)
	assert.Equal(t, []string{"city", "name"}, f.state.ColumnPinning.Right)

	require.NoError(t, f.table.PinColumn("city", PinNone))
	assert.Equal(t, PinNone, f.state.ColumnPinning.Side("city"))
	assert.Equal(t, PinRight, f.state.ColumnPinning.Side("name"))
}

func TestTableColumn(t *testing.T) {
	f := newTableFixture(TableOptions{Columns: sliceColumns})

	col, ok := f.table.Column("age")
	require.True(t, ok)
	assert.Equal(t, "age", col.Data)

	_, ok = f.table.Column("unknown")
	assert.False(t, ok)
}

func TestTableUpdatersDoNotModifyPreviousState(t *testing.T) {
	prev := TableState{
		ColumnFilters: ColumnFiltersState{{ID: "name", Value: "jo"}, {ID: "age", Value: 25}},
		RowSelection:  RowSelectionState{"1": true},
		ColumnPinning: ColumnPinningState{Left: []string{"id", "name"}},
	}
	var next TableState
	opts := &TableOptions{
		Columns:                 sliceColumns,
		State:                   prev,
		EnableRowSelection:      true,
		EnableMultiRowSelection: true,
	}
	table := NewTable(nil, func() *TableOptions { return opts }, TableHandlers{
		OnColumnFiltersChange: func(u Update[ColumnFiltersState]) error {
			next.ColumnFilters = u.Apply(prev.ColumnFilters)
			return nil
		},
		OnRowSelectionChange: func(u Update[RowSelectionState]) error {
			next.RowSelection = u.Apply(prev.RowSelection)
			return nil
		},
		OnColumnPinningChange: func(u Update[ColumnPinningState]) error {
			next.ColumnPinning = u.Apply(prev.ColumnPinning)
			return nil
		},
	}, nil)

	require.NoError(t, table.SetColumnFilterValue("name", ""))
	require.NoError(t, table.ToggleRowSelected("2"))
	require.NoError(t, table.PinColumn("id", PinRight))

	assert.Equal(t, ColumnFiltersState{{ID: "name", Value: "jo"}, {ID: "age", Value: 25}}, prev.ColumnFilters)
	assert.Equal(t, RowSelectionState{"1": true}, prev.RowSelection)
	assert.Equal(t, ColumnPinningState{Left: []string{"id", "name"}}, prev.ColumnPinning)

	assert.Equal(t, ColumnFiltersState{{ID: "age", Value: 25}}, next.ColumnFilters)
	assert.Equal(t, RowSelectionState{"1": true, "2": true}, next.RowSelection)
	assert.Equal(t, ColumnPinningState{Left: []string{"name"}, Right: []string{"id"}}, next.ColumnPinning)
}
