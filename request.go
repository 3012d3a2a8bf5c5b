package datatables

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Order is one entry of the order[] parameter.
//
// Fields:
//   - Column: The index of the ordered column within Request.Columns.
//   - Dir: The direction of ordering, "asc" or "desc".
type Order struct {
	Column int    `validate:"gte=0"`
	Dir    string `validate:"oneof=asc desc"`
}

// ColumnRequest is one entry of the columns[] parameter.
//
// Fields:
//   - Data: The data property name of the column.
//   - Name: The name of the column.
//   - Searchable: Whether the column takes part in filtering.
//   - Orderable: Whether the column can be ordered.
//   - SearchValue: The filter value of the column.
type ColumnRequest struct {
	Data        string `validate:"required"`
	Name        string
	Searchable  bool
	Orderable   bool
	SearchValue string
}

// Request is the part of a DataTables server-side request that maps to
// table state.
//
// Fields:
//   - Draw: The draw counter, echoed back in the response.
//   - Start: The index of the first row of the page.
//   - Length: The page size, -1 for all rows.
//   - Order: The ordering entries pointing at orderable columns.
//   - Columns: The columns of the table.
type Request struct {
	Draw    int             `validate:"gte=0"`
	Start   int             `validate:"gte=0"`
	Length  int             `validate:"gte=-1"`
	Order   []Order         `validate:"dive"`
	Columns []ColumnRequest `validate:"dive"`
}

// ParseRequest parses the server-side parameters DataTables sends with every
// draw: draw, start, length, the columns and the order. The global search
// box has no column to filter and is not read.
//
// Order entries pointing at a column that is not orderable are dropped; when
// none is left the first column is used, if it is orderable. draw and start
// are required.
func ParseRequest(r *http.Request) (*Request, error) {
	var (
		err  error
		data Request
	)

	if err = r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}

	if data.Draw, err = strconv.Atoi(r.Form.Get("draw")); err != nil {
		return nil, fmt.Errorf("invalid value for draw: %w", err)
	}
	if data.Start, err = strconv.Atoi(r.Form.Get("start")); err != nil {
		return nil, fmt.Errorf("invalid value for start: %w", err)
	}
	data.Length, _ = strconv.Atoi(r.Form.Get("length"))
	data.Columns = parseColumns(r.Form)
	data.Order = parseOrder(r.Form, data.Columns)

	if err = validator.New().Struct(&data); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &data, nil
}

func parseColumns(form url.Values) []ColumnRequest {
	var columns []ColumnRequest
	for i := 0; ; i++ {
		key := func(field string) string { return fmt.Sprintf("columns[%d]%s", i, field) }
		data := form.Get(key("[data]"))
		if data == "" {
			return columns
		}
		columns = append(columns, ColumnRequest{
			Data:        data,
			Name:        form.Get(key("[name]")),
			Searchable:  form.Get(key("[searchable]")) == "true",
			Orderable:   form.Get(key("[orderable]")) == "true",
			SearchValue: form.Get(key("[search][value]")),
		})
	}
}

func parseOrder(form url.Values, columns []ColumnRequest) []Order {
	var order []Order
	for i := 0; ; i++ {
		raw := form.Get(fmt.Sprintf("order[%d][column]", i))
		if raw == "" {
			break
		}
		col, err := strconv.Atoi(raw)
		if err != nil || col < 0 || col >= len(columns) || !columns[col].Orderable {
			continue
		}
		dir := strings.ToLower(form.Get(fmt.Sprintf("order[%d][dir]", i)))
		if dir == "" {
			dir = strings.ToLower(orderAscending)
		}
		order = append(order, Order{Column: col, Dir: dir})
	}

	if len(order) == 0 && len(columns) > 0 && columns[0].Orderable {
		order = append(order, Order{Column: 0, Dir: strings.ToLower(orderAscending)})
	}
	return order
}

// RequestState is the table state carried by a DataTables request.
//
// Fields:
//   - Filter: The per-column search values, keyed by column data.
//   - Sorting: The first orderable order entry, nil when unsorted.
//   - Pagination: The page derived from start and length.
type RequestState struct {
	Filter     FilterModel
	Sorting    *Sorting
	Pagination PaginationState
}

// TableState converts the request into the domain state of a table. Only
// searchable columns with a search value become filters. A length of zero
// or less, such as the "all rows" value -1, selects the default page size.
func (r *Request) TableState() RequestState {
	state := RequestState{Filter: FilterModel{}}

	for _, col := range r.Columns {
		if col.Searchable && col.SearchValue != "" {
			state.Filter[col.Data] = col.SearchValue
		}
	}

	if len(r.Order) > 0 {
		order := r.Order[0]
		if order.Column >= 0 && order.Column < len(r.Columns) {
			state.Sorting = &Sorting{
				ID:   r.Columns[order.Column].Data,
				Desc: strings.EqualFold(order.Dir, orderDescending),
			}
		}
	}

	size := r.Length
	if size <= 0 {
		size = defaultPageSize
	}
	state.Pagination = PaginationState{PageIndex: max(r.Start, 0) / size, PageSize: size}
	return state
}

// ApplyRequest hands the state of a DataTables request to the effective
// setters of the filters, the sorting and the pagination. The page size of
// the request must be one of the allowed page sizes.
func (dt *DataTable) ApplyRequest(req *Request) error {
	state := req.TableState()
	if !slices.Contains(dt.config.PageSizes, state.Pagination.PageSize) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, state.Pagination.PageSize)
	}
	if err := dt.columnFilters.Set(Value(state.Filter)); err != nil {
		return err
	}
	if err := dt.sorting.Set(Value(state.Sorting)); err != nil {
		return err
	}
	return dt.pagination.Set(Value(state.Pagination))
}
