package datatables

import (
	"context"
	"slices"

	"go.uber.org/zap"
)

// View is everything needed to draw a table. It holds no state of its own:
// every value is derived from the effective state on each Render.
type View struct {
	Headers     []HeaderView   `json:"headers"`
	Rows        []RowView      `json:"rows"`
	Pagination  PaginationView `json:"pagination"`
	EmptyText   string         `json:"emptyText,omitempty"`
	IsLoading   bool           `json:"isLoading"`
	IsFetching  bool           `json:"isFetching"`
	ShowPaging  bool           `json:"showPaging"`
	DragAndDrop bool           `json:"dragAndDrop"`
}

// HeaderView describes a column header.
//
// Fields:
//   - ID: The column identifier.
//   - Title: The header text.
//   - CanSort: Whether clicking the header toggles the sorting.
//   - SortDirection: The current sort direction of the column.
//   - CanFilter: Whether the column has a filter input.
//   - FilterValue: The current filter value of the column, custom filter names resolved.
//   - FilterInput: The last raw input together with its validation state.
//   - Dropdown: The dropdown options of the filter, if any.
//   - Pinned: The side the column is pinned to.
type HeaderView struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	CanSort       bool            `json:"canSort"`
	SortDirection SortDirection   `json:"sortDirection,omitempty"`
	CanFilter     bool            `json:"canFilter"`
	FilterValue   any             `json:"filterValue,omitempty"`
	FilterInput   FilterInput     `json:"filterInput"`
	Dropdown      *DropdownFilter `json:"dropdown,omitempty"`
	Pinned        PinSide         `json:"pinned,omitempty"`
}

// CellView is a rendered cell.
type CellView struct {
	ColumnID string `json:"columnId"`
	Value    any    `json:"value"`
}

// RowView is a rendered row, in header order.
type RowView struct {
	ID        string            `json:"id"`
	Depth     int               `json:"depth"`
	Cells     []CellView        `json:"cells"`
	Selected  bool              `json:"selected"`
	Expanded  bool              `json:"expanded"`
	CanExpand bool              `json:"canExpand"`
	Style     map[string]string `json:"style,omitempty"`
}

// PaginationView describes the paging control. From and To are 1-based and
// both 0 when there are no records.
type PaginationView struct {
	PageIndex          int    `json:"pageIndex"`
	PageSize           int    `json:"pageSize"`
	PageSizes          []int  `json:"pageSizes"`
	PageCount          int    `json:"pageCount"`
	TotalRecords       int    `json:"totalRecords"`
	From               int    `json:"from"`
	To                 int    `json:"to"`
	Summary            string `json:"summary"`
	ShowPageSizeChange bool   `json:"showPageSizeChange"`
	CanPreviousPage    bool   `json:"canPreviousPage"`
	CanNextPage        bool   `json:"canNextPage"`
}

// rowModelEngine computes skeleton rows in memory while the table is
// loading and delegates to the configured engine otherwise.
type rowModelEngine struct {
	dt *DataTable
}

func (e rowModelEngine) RowModel(ctx context.Context, opts *TableOptions) (*RowModel, error) {
	return e.dt.engineFor(e.dt.loading()).RowModel(ctx, opts)
}

func (dt *DataTable) engineFor(loading bool) Engine {
	if loading {
		return SliceEngine{}
	}
	return dt.engine
}

// Render computes the view of the current page. While loading, the page
// holds one skeleton row per row of the page size. Drag-and-drop without
// RowOptions.GetRowID fails with a *ConfigError.
func (dt *DataTable) Render(ctx context.Context) (*View, error) {
	if dt.dragAndDropEnabled() && dt.rowOptions.GetRowID == nil {
		return nil, configError("DragAndDrop", ErrDragAndDropRowID)
	}

	loading := dt.loading()
	opts := dt.tableOptions(loading)
	model, err := dt.engineFor(loading).RowModel(ctx, opts)
	if err != nil {
		return nil, err
	}

	dt.mu.RLock()
	columns := prepareColumns(dt.responseColumns(), dt.manualFiltering, dt.dragAndDropEnabled())
	totalRecords := dt.totalRecords
	isFetching := dt.isFetching
	rowStyle := dt.rowStyle
	dt.mu.RUnlock()

	if loading {
		columns = skeletonColumns(columns)
	}
	columns = orderByPinning(columns, opts.State.ColumnPinning)

	view := &View{
		Headers:     dt.headers(columns, opts.State),
		Rows:        make([]RowView, 0, len(model.Rows)),
		IsLoading:   loading,
		IsFetching:  isFetching,
		ShowPaging:  dt.config.ShowPaging,
		DragAndDrop: dt.dragAndDropEnabled(),
	}

	for _, row := range model.Rows {
		rv := RowView{
			ID:        row.ID,
			Depth:     row.Depth,
			Cells:     make([]CellView, 0, len(columns)),
			Selected:  row.Selected,
			Expanded:  row.Expanded,
			CanExpand: row.CanExpand(),
		}
		for _, col := range columns {
			rv.Cells = append(rv.Cells, CellView{ColumnID: col.Data, Value: col.render(row.Original)})
		}
		if rowStyle != nil && !loading {
			rv.Style = rowStyle(row.Original)
		}
		view.Rows = append(view.Rows, rv)
	}
	if len(view.Rows) == 0 {
		view.EmptyText = dt.translations.NoEntries
	}

	total := model.FilteredCount
	if totalRecords != nil {
		total = *totalRecords
	}
	view.Pagination = dt.paginationView(opts, model, total)

	dt.logger.Debug("table rendered",
		zap.Int("rows", len(view.Rows)),
		zap.Int("total", total),
		zap.Bool("loading", loading),
	)
	return view, nil
}

func (dt *DataTable) headers(columns []Column, state TableState) []HeaderView {
	headers := make([]HeaderView, 0, len(columns))
	for _, col := range columns {
		h := HeaderView{
			ID:        col.Data,
			Title:     col.Title,
			CanSort:   col.Orderable,
			CanFilter: col.Searchable,
			Dropdown:  col.Meta.DropdownFilter,
			Pinned:    state.ColumnPinning.Side(col.Data),
		}
		for _, s := range state.Sorting {
			if s.ID != col.Data {
				continue
			}
			h.SortDirection = SortAscending
			if s.Desc {
				h.SortDirection = SortDescending
			}
		}
		if col.Searchable {
			for _, f := range state.ColumnFilters {
				if f.ID == col.filterID() {
					h.FilterValue = f.Value
				}
			}
			h.FilterInput = dt.FilterInput(col.Data)
		}
		headers = append(headers, h)
	}
	return headers
}

func (dt *DataTable) paginationView(opts *TableOptions, model *RowModel, total int) PaginationView {
	p := opts.State.Pagination
	pages := pageCount(model.PrePaginationCount, p.PageSize)
	if opts.ManualPagination {
		pages = pageCount(total, p.PageSize)
	}

	v := PaginationView{
		PageIndex:          p.PageIndex,
		PageSize:           p.PageSize,
		PageSizes:          slices.Clone(dt.config.PageSizes),
		PageCount:          pages,
		TotalRecords:       total,
		ShowPageSizeChange: !dt.config.HidePageSizeChange,
		CanPreviousPage:    p.PageIndex > 0,
		CanNextPage:        p.PageIndex+1 < pages,
	}
	if total > 0 {
		v.From = min(p.PageIndex*p.PageSize+1, total)
		v.To = min((p.PageIndex+1)*p.PageSize, total)
	}
	v.Summary = dt.translations.ShowedItems(v.From, v.To, total)
	return v
}
