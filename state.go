package datatables

import (
	"maps"
	"slices"

	json "github.com/goccy/go-json"
)

// FilterModel is the domain representation of the active column filters.
//
// Every key is a column identifier (or a custom filter name) and the value
// is the filter value for that column. An absent key means that no filter is
// applied for the column, which is not the same as a key holding nil or "".
type FilterModel map[string]any

// ColumnFilter is a single filter entry as the row-model engine sees it.
type ColumnFilter struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// ColumnFiltersState is the engine's tuple-array encoding of the filters.
type ColumnFiltersState []ColumnFilter

// Sorting is the domain sorting model. A table sorts by at most one column,
// so the domain model is a single optional entry (*Sorting, nil = unsorted).
type Sorting struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// ColumnSort is a single sorting entry as the row-model engine sees it.
type ColumnSort struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// SortingState is the engine's tuple-array encoding of the sorting.
type SortingState []ColumnSort

// PaginationState holds the zero based page index and the page size.
//
// Fields:
//   - PageIndex: The 0-based index of the current page.
//   - PageSize: The number of rows per page, must be one of the declared page sizes.
type PaginationState struct {
	PageIndex int `json:"pageIndex" validate:"gte=0"`
	PageSize  int `json:"pageSize" validate:"gt=0"`
}

// RowSelectionState maps row identifiers to their selected flag.
type RowSelectionState map[string]bool

// ExpandedState is either "all rows expanded" or a per-row expanded map.
type ExpandedState struct {
	All  bool
	Rows map[string]bool
}

// IsExpanded reports whether the row with the given identifier is expanded.
func (e ExpandedState) IsExpanded(rowID string) bool {
	return e.All || e.Rows[rowID]
}

// MarshalJSON encodes the state as `true` when all rows are expanded,
// otherwise as an object of row identifiers.
func (e ExpandedState) MarshalJSON() ([]byte, error) {
	if e.All {
		return []byte("true"), nil
	}
	rows := e.Rows
	if rows == nil {
		rows = map[string]bool{}
	}
	return json.Marshal(rows)
}

// UnmarshalJSON accepts either a boolean or an object of row identifiers.
func (e *ExpandedState) UnmarshalJSON(data []byte) error {
	var all bool
	if err := json.Unmarshal(data, &all); err == nil {
		*e = ExpandedState{All: all}
		return nil
	}
	var rows map[string]bool
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	*e = ExpandedState{Rows: rows}
	return nil
}

// PinSide is the side a column is pinned to. The zero value means unpinned.
type PinSide string

const (
	PinNone  PinSide = ""
	PinLeft  PinSide = "left"
	PinRight PinSide = "right"
)

// ColumnPinningState lists the columns pinned to each side, in display order.
type ColumnPinningState struct {
	Left  []string `json:"left,omitempty"`
	Right []string `json:"right,omitempty"`
}

// Side returns the side the column is pinned to.
func (p ColumnPinningState) Side(columnID string) PinSide {
	switch {
	case slices.Contains(p.Left, columnID):
		return PinLeft
	case slices.Contains(p.Right, columnID):
		return PinRight
	default:
		return PinNone
	}
}

// TableState is the state handed to the row-model engine. Filters and sorting
// are always in their tuple-array form here.
type TableState struct {
	ColumnFilters ColumnFiltersState
	Sorting       SortingState
	Pagination    PaginationState
	RowSelection  RowSelectionState
	Expanded      ExpandedState
	ColumnPinning ColumnPinningState
}

// InitialState holds the optional initial value of every state axis.
// Unset axes fall back to their empty value; pagination falls back to
// page 0 with the default page size.
type InitialState struct {
	ColumnFilters     FilterModel
	AfterSearchFilter FilterModel
	Sorting           *Sorting
	Pagination        *PaginationState
	RowSelection      RowSelectionState
	Expanded          *ExpandedState
	ColumnPinning     *ColumnPinningState
}

// Update is either a literal new value or a function of the previous value.
type Update[T any] struct {
	value T
	fn    func(prev T) T
}

// Value returns an Update replacing the current value with v.
func Value[T any](v T) Update[T] {
	return Update[T]{value: v}
}

// Func returns an Update computing the new value from the previous one.
func Func[T any](fn func(prev T) T) Update[T] {
	return Update[T]{fn: fn}
}

// Apply resolves the update against prev.
func (u Update[T]) Apply(prev T) T {
	if u.fn != nil {
		return u.fn(prev)
	}
	return u.value
}

// IsFunc reports whether the update is a functional updater.
func (u Update[T]) IsFunc() bool {
	return u.fn != nil
}

func cloneFilterModel(m FilterModel) FilterModel {
	if m == nil {
		return FilterModel{}
	}
	return maps.Clone(m)
}

func cloneRowSelection(s RowSelectionState) RowSelectionState {
	if s == nil {
		return RowSelectionState{}
	}
	return maps.Clone(s)
}

func cloneSorting(s *Sorting) *Sorting {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func cloneExpanded(e ExpandedState) ExpandedState {
	return ExpandedState{All: e.All, Rows: maps.Clone(e.Rows)}
}

func cloneColumnPinning(p ColumnPinningState) ColumnPinningState {
	return ColumnPinningState{Left: slices.Clone(p.Left), Right: slices.Clone(p.Right)}
}

func clonePagination(p PaginationState) PaginationState {
	return p
}
