package datatables

import "sync"

// StateStore owns the seven state axes of a table. Every axis is an
// independent cell; a setter only ever touches its own cell.
type StateStore interface {
	ColumnFilters() FilterModel
	SetColumnFilters(u Update[FilterModel]) error
	AfterSearchFilter() FilterModel
	SetAfterSearchFilter(u Update[FilterModel]) error
	Sorting() *Sorting
	SetSorting(u Update[*Sorting]) error
	Pagination() PaginationState
	SetPagination(u Update[PaginationState]) error
	RowSelection() RowSelectionState
	SetRowSelection(u Update[RowSelectionState]) error
	Expanded() ExpandedState
	SetExpanded(u Update[ExpandedState]) error
	ColumnPinning() ColumnPinningState
	SetColumnPinning(u Update[ColumnPinningState]) error
}

var (
	_ StateStore = (*Store)(nil)
	_ StateStore = (*PersistentStore)(nil)
)

// cell is a single mutable state value. Reads and functional updaters both
// receive a copy, so callers never alias the stored value.
//
// A functional updater runs under the cell lock and must not call back into
// the same cell.
type cell[T any] struct {
	mu    sync.RWMutex
	value T
	clone func(T) T
}

func newCell[T any](value T, clone func(T) T) *cell[T] {
	return &cell[T]{value: clone(value), clone: clone}
}

func (c *cell[T]) get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clone(c.value)
}

func (c *cell[T]) set(u Update[T]) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = c.clone(u.Apply(c.clone(c.value)))
	return c.clone(c.value)
}

// Store is the in-memory StateStore.
type Store struct {
	columnFilters     *cell[FilterModel]
	afterSearchFilter *cell[FilterModel]
	sorting           *cell[*Sorting]
	pagination        *cell[PaginationState]
	rowSelection      *cell[RowSelectionState]
	expanded          *cell[ExpandedState]
	columnPinning     *cell[ColumnPinningState]
}

// NewStore returns a Store initialized from the given initial state.
//
// The after-search filter starts from initial.AfterSearchFilter, falling back
// to initial.ColumnFilters. Pagination defaults to page 0 with a page size of
// 10 for every part that is not set.
func NewStore(initial InitialState) *Store {
	afterSearch := initial.AfterSearchFilter
	if afterSearch == nil {
		afterSearch = initial.ColumnFilters
	}

	pagination := PaginationState{PageIndex: 0, PageSize: defaultPageSize}
	if initial.Pagination != nil {
		pagination.PageIndex = initial.Pagination.PageIndex
		if initial.Pagination.PageSize > 0 {
			pagination.PageSize = initial.Pagination.PageSize
		}
	}

	var expanded ExpandedState
	if initial.Expanded != nil {
		expanded = *initial.Expanded
	}
	var pinning ColumnPinningState
	if initial.ColumnPinning != nil {
		pinning = *initial.ColumnPinning
	}

	return &Store{
		columnFilters:     newCell(initial.ColumnFilters, cloneFilterModel),
		afterSearchFilter: newCell(afterSearch, cloneFilterModel),
		sorting:           newCell(initial.Sorting, cloneSorting),
		pagination:        newCell(pagination, clonePagination),
		rowSelection:      newCell(initial.RowSelection, cloneRowSelection),
		expanded:          newCell(expanded, cloneExpanded),
		columnPinning:     newCell(pinning, cloneColumnPinning),
	}
}

func (s *Store) ColumnFilters() FilterModel { return s.columnFilters.get() }

func (s *Store) SetColumnFilters(u Update[FilterModel]) error {
	s.columnFilters.set(u)
	return nil
}

func (s *Store) AfterSearchFilter() FilterModel { return s.afterSearchFilter.get() }

func (s *Store) SetAfterSearchFilter(u Update[FilterModel]) error {
	s.afterSearchFilter.set(u)
	return nil
}

func (s *Store) Sorting() *Sorting { return s.sorting.get() }

func (s *Store) SetSorting(u Update[*Sorting]) error {
	s.sorting.set(u)
	return nil
}

func (s *Store) Pagination() PaginationState { return s.pagination.get() }

func (s *Store) SetPagination(u Update[PaginationState]) error {
	s.pagination.set(u)
	return nil
}

func (s *Store) RowSelection() RowSelectionState { return s.rowSelection.get() }

func (s *Store) SetRowSelection(u Update[RowSelectionState]) error {
	s.rowSelection.set(u)
	return nil
}

func (s *Store) Expanded() ExpandedState { return s.expanded.get() }

func (s *Store) SetExpanded(u Update[ExpandedState]) error {
	s.expanded.set(u)
	return nil
}

func (s *Store) ColumnPinning() ColumnPinningState { return s.columnPinning.get() }

func (s *Store) SetColumnPinning(u Update[ColumnPinningState]) error {
	s.columnPinning.set(u)
	return nil
}
