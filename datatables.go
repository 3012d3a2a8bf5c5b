package datatables

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// New returns a DataTable configured by props.
//
// Every configuration check runs here, once: the configuration itself, that
// every controlled axis has both a value and a callback, that every manual
// mode comes with a host-owned axis, and that the effective page size is one
// of the allowed page sizes. All of them fail with a *ConfigError.
//
// Without a Logger, a table given a Config logs through NewLogger at
// Config.LogLevel; any other table does not log.
func New(props Props) (*DataTable, error) {
	cfg := props.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := checkControlled(props.State); err != nil {
		return nil, err
	}
	if props.ManualFiltering && props.State.ColumnFilters == nil {
		return nil, configError("ManualFiltering", ErrManualModeWithoutState)
	}
	if props.ManualSorting && props.State.Sorting == nil {
		return nil, configError("ManualSorting", ErrManualModeWithoutState)
	}
	if props.ManualPagination && props.State.Pagination == nil {
		return nil, configError("ManualPagination", ErrManualModeWithoutState)
	}
	if props.Store == nil && props.Storage != nil && cfg.StorageKeyPrefix == "" {
		return nil, configError("Config.StorageKeyPrefix", ErrMissingStorageKeyPrefix)
	}

	logger := props.Logger
	if logger == nil && props.Config != nil && props.Config.LogLevel != "" {
		l, err := NewLogger(props.Config.LogLevel)
		if err != nil {
			return nil, configError("Config.LogLevel", fmt.Errorf("%w: %v", ErrInvalidConfig, err))
		}
		logger = l
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	translations := cfg.Translations
	if props.Translations != nil {
		translations = *props.Translations
	}

	initial := props.InitialState
	if initial.Pagination == nil {
		initial.Pagination = &PaginationState{PageSize: cfg.DefaultPageSize}
	} else if initial.Pagination.PageSize <= 0 {
		initial.Pagination = &PaginationState{PageIndex: initial.Pagination.PageIndex, PageSize: cfg.DefaultPageSize}
	}

	store := props.Store
	if store == nil {
		if props.Storage != nil {
			ps, err := NewPersistentStore(props.Storage, cfg.StorageKeyPrefix, initial,
				WithFailurePolicy(cfg.StorageFailure),
				WithStorageLogger(logger),
			)
			if err != nil {
				return nil, err
			}
			store = ps
		} else {
			store = NewStore(initial)
		}
	}

	dt := &DataTable{
		config:           cfg,
		translations:     translations.withDefaults(),
		logger:           logger,
		store:            store,
		columns:          slices.Clone(props.Columns),
		data:             props.Data,
		totalRecords:     props.TotalRecords,
		isLoading:        props.IsLoading,
		isFetching:       props.IsFetching,
		manualFiltering:  props.ManualFiltering,
		manualSorting:    props.ManualSorting,
		manualPagination: props.ManualPagination,
		engine:           props.Engine,
		rowOptions:       props.RowOptions,
		onEnter:          props.OnEnter,
		dragAndDrop:      props.DragAndDrop,
		rowStyle:         props.RowStyle,
		filterInputs:     make(map[string]FilterInput),
		additionalData:   make(map[string]any),
		whitelistColumns: make(map[string]bool),
		blacklistColumns: make(map[string]bool),
	}
	if dt.engine == nil {
		dt.engine = SliceEngine{}
	}

	dt.columnFilters = resolveAxis(props.State.ColumnFilters, cloneFilterModel, store.ColumnFilters, store.SetColumnFilters)
	dt.afterSearchFilter = resolveAxis(props.State.AfterSearchFilter, cloneFilterModel, store.AfterSearchFilter, store.SetAfterSearchFilter)
	dt.sorting = resolveAxis(props.State.Sorting, cloneSorting, store.Sorting, store.SetSorting)
	dt.pagination = resolveAxis(props.State.Pagination, clonePagination, store.Pagination, store.SetPagination)
	dt.rowSelection = resolveAxis(props.State.RowSelection, cloneRowSelection, store.RowSelection, store.SetRowSelection)
	dt.expanded = resolveAxis(props.State.Expanded, cloneExpanded, store.Expanded, store.SetExpanded)
	dt.columnPinning = resolveAxis(props.State.ColumnPinning, cloneColumnPinning, store.ColumnPinning, store.SetColumnPinning)

	if err := validatePagination(dt.pagination.Get()); err != nil {
		return nil, err
	}
	dt.pagination = dt.pagination.WithCheck(validatePagination)
	if size := dt.pagination.Get().PageSize; !slices.Contains(cfg.PageSizes, size) {
		return nil, configError("Pagination.PageSize", fmt.Errorf("%w: %d not in %v", ErrInvalidPageSize, size, cfg.PageSizes))
	}

	dt.table = NewTable(rowModelEngine{dt: dt}, func() *TableOptions { return dt.tableOptions(dt.loading()) }, TableHandlers{
		OnColumnFiltersChange: dt.onColumnFiltersChange,
		OnSortingChange:       dt.onSortingChange,
		OnPaginationChange:    dt.pagination.Set,
		OnRowSelectionChange:  dt.rowSelection.Set,
		OnExpandedChange:      dt.expanded.Set,
		OnColumnPinningChange: dt.columnPinning.Set,
	}, cfg.PageSizes)

	logger.Debug("datatable created",
		zap.Int("columns", len(dt.columns)),
		zap.Bool("manualFiltering", dt.manualFiltering),
		zap.Bool("manualSorting", dt.manualSorting),
		zap.Bool("manualPagination", dt.manualPagination),
	)
	return dt, nil
}

// checkControlled rejects every controlled axis missing its value or its
// callback.
func checkControlled(state ControlledState) error {
	for _, err := range []error{
		checkAxis("State.ColumnFilters", state.ColumnFilters),
		checkAxis("State.AfterSearchFilter", state.AfterSearchFilter),
		checkAxis("State.Sorting", state.Sorting),
		checkAxis("State.Pagination", state.Pagination),
		checkAxis("State.RowSelection", state.RowSelection),
		checkAxis("State.Expanded", state.Expanded),
		checkAxis("State.ColumnPinning", state.ColumnPinning),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (dt *DataTable) loading() bool {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	return dt.isLoading
}

// tableState returns the effective state in the engine's tuple form.
func (dt *DataTable) tableState() TableState {
	return TableState{
		ColumnFilters: ColumnFiltersFromModel(dt.columnFilters.Get()),
		Sorting:       SortingFromModel(dt.sorting.Get()),
		Pagination:    enginePagination(dt.pagination.Get()),
		RowSelection:  dt.rowSelection.Get(),
		Expanded:      dt.expanded.Get(),
		ColumnPinning: dt.columnPinning.Get(),
	}
}

// enginePagination moves a negative page index, which a host-owned axis may
// still report, to the first page.
func enginePagination(p PaginationState) PaginationState {
	p.PageIndex = max(p.PageIndex, 0)
	p.PageSize = max(p.PageSize, 0)
	return p
}

// tableOptions returns the options handed to the engine. With skeleton set,
// the columns render skeleton cells and the data is one empty row per row of
// the current page.
func (dt *DataTable) tableOptions(skeleton bool) *TableOptions {
	state := dt.tableState()

	dt.mu.RLock()
	defer dt.mu.RUnlock()

	opts := &TableOptions{
		Data:                    dt.data,
		Columns:                 prepareColumns(dt.columns, dt.manualFiltering, dt.dragAndDropEnabled()),
		State:                   state,
		ManualFiltering:         dt.manualFiltering,
		ManualSorting:           dt.manualSorting,
		ManualPagination:        dt.manualPagination,
		RowCount:                len(dt.data),
		EnableRowSelection:      dt.rowOptions.EnableRowSelection,
		EnableMultiRowSelection: dt.rowOptions.EnableMultiRowSelection,
		EnableSubRowSelection:   dt.rowOptions.EnableSubRowSelection,
		EnableExpanding:         dt.rowOptions.EnableExpanding,
		GetRowID:                dt.rowOptions.GetRowID,
		GetSubRows:              dt.rowOptions.GetSubRows,
	}
	if dt.totalRecords != nil {
		opts.RowCount = *dt.totalRecords
	}

	if skeleton {
		placeholders := make([]map[string]any, state.Pagination.PageSize)
		for i := range placeholders {
			placeholders[i] = map[string]any{}
		}
		opts.Data = placeholders
		opts.Columns = skeletonColumns(opts.Columns)
		opts.ManualFiltering = true
		opts.ManualSorting = true
		opts.ManualPagination = true
		opts.GetRowID = nil
		opts.GetSubRows = nil
	}
	return opts
}

func (dt *DataTable) dragAndDropEnabled() bool {
	return dt.dragAndDrop != nil && dt.dragAndDrop.EnableDragAndDrop
}

// onColumnFiltersChange receives filter tuples from the engine and hands
// them to the effective setter as a filter model. Unless searches are
// committed through OnEnter, the page index goes back to 0.
func (dt *DataTable) onColumnFiltersChange(u Update[ColumnFiltersState]) error {
	next := u.Apply(ColumnFiltersFromModel(dt.columnFilters.Get()))
	model := ModelFromColumnFilters(next)
	if err := dt.columnFilters.Set(Value(model)); err != nil {
		return err
	}
	dt.logger.Debug("column filters changed",
		zap.Int("filters", len(model)),
		zap.Bool("external", dt.columnFilters.IsExternal()),
	)
	if dt.onEnter != nil {
		return nil
	}
	return dt.resetPageIndex()
}

// onSortingChange receives sort tuples from the engine and hands them to the
// effective setter as a single optional sort. The page index goes back to 0
// unless the host paginates.
func (dt *DataTable) onSortingChange(u Update[SortingState]) error {
	next := u.Apply(SortingFromModel(dt.sorting.Get()))
	sorting := ModelFromSorting(next)
	if err := dt.sorting.Set(Value(sorting)); err != nil {
		return err
	}
	column, direction := sortArguments(sorting)
	dt.logger.Debug("sorting changed",
		zap.String("column", column),
		zap.String("direction", string(direction)),
	)
	if dt.manualPagination {
		return nil
	}
	return dt.resetPageIndex()
}

func (dt *DataTable) resetPageIndex() error {
	if dt.pagination.Get().PageIndex == 0 {
		return nil
	}
	return dt.pagination.Set(Func(func(prev PaginationState) PaginationState {
		prev.PageIndex = 0
		return prev
	}))
}

func (dt *DataTable) ColumnFilters() FilterModel      { return dt.columnFilters.Get() }
func (dt *DataTable) AfterSearchFilter() FilterModel  { return dt.afterSearchFilter.Get() }
func (dt *DataTable) Sorting() *Sorting               { return dt.sorting.Get() }
func (dt *DataTable) Pagination() PaginationState     { return dt.pagination.Get() }
func (dt *DataTable) RowSelection() RowSelectionState { return dt.rowSelection.Get() }
func (dt *DataTable) Expanded() ExpandedState         { return dt.expanded.Get() }
func (dt *DataTable) ColumnPinning() ColumnPinningState {
	return dt.columnPinning.Get()
}

// SetColumnFilters sets the filters through the effective setter. Unlike
// filter changes made through the Table, it has no effect on other axes.
func (dt *DataTable) SetColumnFilters(u Update[FilterModel]) error {
	return dt.columnFilters.Set(u)
}

func (dt *DataTable) SetAfterSearchFilter(u Update[FilterModel]) error {
	return dt.afterSearchFilter.Set(u)
}

func (dt *DataTable) SetSorting(u Update[*Sorting]) error {
	return dt.sorting.Set(u)
}

func (dt *DataTable) SetPagination(u Update[PaginationState]) error {
	return dt.pagination.Set(u)
}

func (dt *DataTable) SetRowSelection(u Update[RowSelectionState]) error {
	return dt.rowSelection.Set(u)
}

func (dt *DataTable) SetExpanded(u Update[ExpandedState]) error {
	return dt.expanded.Set(u)
}

func (dt *DataTable) SetColumnPinning(u Update[ColumnPinningState]) error {
	return dt.columnPinning.Set(u)
}

// Search commits the current filters: they become the after-search filter,
// the page index goes back to 0 and OnEnter, if any, is called.
func (dt *DataTable) Search() error {
	filters := dt.columnFilters.Get()
	if err := dt.afterSearchFilter.Set(Value(filters)); err != nil {
		return err
	}
	if err := dt.resetPageIndex(); err != nil {
		return err
	}
	dt.logger.Debug("search committed", zap.Int("filters", len(filters)))
	if dt.onEnter != nil {
		return dt.onEnter(filters)
	}
	return nil
}

// ClearSearch removes every filter and commits the empty filter model.
func (dt *DataTable) ClearSearch() error {
	if err := dt.columnFilters.Set(Value(FilterModel{})); err != nil {
		return err
	}
	return dt.Search()
}

// ApplyFilterInput validates and parses raw input for a column filter and,
// when valid, sets the filter. The result is kept and returned by
// FilterInput until the next input for the column.
func (dt *DataTable) ApplyFilterInput(columnID, raw string) (FilterInput, error) {
	dt.mu.RLock()
	col, ok := findColumn(prepareColumns(dt.columns, dt.manualFiltering, dt.dragAndDropEnabled()), columnID)
	dt.mu.RUnlock()
	if !ok {
		return FilterInput{}, fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}

	in := ParseFilterInput(col, raw, dt.translations.InvalidInput)
	dt.mu.Lock()
	dt.filterInputs[columnID] = in
	dt.mu.Unlock()

	if !in.State.IsValid {
		dt.logger.Debug("invalid filter input",
			zap.String("column", columnID),
			zap.String("error", in.State.ErrorMessage),
		)
		return in, nil
	}
	return in, SetFilterValue(col, dt.table, in.Value)
}

// FilterInput returns the last input applied to the column filter, or the
// current filter value as a valid input.
func (dt *DataTable) FilterInput(columnID string) FilterInput {
	dt.mu.RLock()
	in, ok := dt.filterInputs[columnID]
	col, found := findColumn(dt.columns, columnID)
	dt.mu.RUnlock()
	if ok {
		return in
	}
	var value any
	if found {
		value = GetFilterValue(col, dt.table)
	}
	return FilterInput{Raw: toString(value), Value: value, State: FilterInputState{IsValid: true}}
}

// Query runs fn with the current state and stores the returned records and
// total. While OnEnter is set the committed after-search filter is used,
// otherwise the live filters.
func (dt *DataTable) Query(ctx context.Context, fn QueryFunc) (*QueryResult, error) {
	filter := dt.columnFilters.Get()
	if dt.onEnter != nil {
		filter = dt.afterSearchFilter.Get()
	}
	p := dt.pagination.Get()
	column, direction := sortArguments(dt.sorting.Get())

	dt.SetFetching(true)
	defer dt.SetFetching(false)

	res, err := fn(ctx, filter, p.PageSize, p.PageIndex, column, direction)
	if err != nil {
		return nil, err
	}

	dt.mu.Lock()
	dt.data = res.Records
	total := res.TotalRecords
	dt.totalRecords = &total
	dt.isLoading = false
	dt.mu.Unlock()
	return res, nil
}

// DragEnd forwards a drop to DragAndDropOptions.OnDragEnd. It fails when
// drag-and-drop is enabled without RowOptions.GetRowID.
func (dt *DataTable) DragEnd(event DragEndEvent) error {
	if !dt.dragAndDropEnabled() {
		return nil
	}
	if dt.rowOptions.GetRowID == nil {
		return configError("DragAndDrop", ErrDragAndDropRowID)
	}
	if dt.dragAndDrop.OnDragEnd == nil {
		return nil
	}
	return dt.dragAndDrop.OnDragEnd(event)
}

// Make computes the current page through the engine and returns a
// DataTables compatible response.
//
// It will execute the following steps:
//  1. Compute the row model with the current state.
//  2. Render every row in parallel: column render functions, the row number
//     and the row attributes.
//  3. Remove the columns excluded by the whitelist or blacklist.
//  4. Merge the additional data into the response.
func (dt *DataTable) Make(ctx context.Context, draw int) (map[string]any, error) {
	opts := dt.tableOptions(false)
	model, err := dt.engine.RowModel(ctx, opts)
	if err != nil {
		return nil, err
	}

	var (
		wg      sync.WaitGroup
		semChan = make(chan struct{}, runtime.NumCPU()*2)
		data    = make([]map[string]any, len(model.Rows))
		offset  = opts.State.Pagination.PageIndex * opts.State.Pagination.PageSize
	)

	dt.mu.RLock()
	defer dt.mu.RUnlock()

	wg.Add(len(model.Rows))
	for i, row := range model.Rows {
		go func(i int, row *Row) {
			defer wg.Done()
			semChan <- struct{}{}
			defer func() { <-semChan }()

			out := cloneRow(row.Original)
			for _, col := range opts.Columns {
				if col.RenderFunc != nil || col.Accessor != nil {
					out[col.Data] = col.render(row.Original)
				}
			}
			if dt.withNumber {
				out[rowNumberColumn] = offset + i + 1
			}
			dt.applyRowAttributes(out)
			data[i] = out
		}(i, row)
	}
	wg.Wait()

	data = dt.finalizeResponseColumns(data)

	total, filtered := model.CoreCount, model.FilteredCount
	if dt.totalRecords != nil {
		total, filtered = *dt.totalRecords, *dt.totalRecords
	}

	response := map[string]any{
		"draw":            draw,
		"recordsTotal":    total,
		"recordsFiltered": filtered,
		"data":            data,
	}
	maps.Copy(response, dt.additionalData)

	return response, nil
}
