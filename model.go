package datatables

import (
	"sync"

	"go.uber.org/zap"
)

// Props configures a DataTable.
//
// Fields:
//   - Columns: The column definitions. The slice is never modified.
//   - Data: The rows to display.
//   - TotalRecords: The number of records reported to the paging. Defaults to the filtered row count.
//   - IsLoading: Renders skeleton rows and cells while the first page is loading.
//   - IsFetching: Marks the table as refreshing while keeping the current rows.
//   - InitialState: The initial value of every axis owned by the table.
//   - State: The axes owned by the host.
//   - Store: The store of the owned axes. Defaults to a PersistentStore when Storage is set, a Store otherwise.
//   - Storage: The storage the owned axes are persisted to, under Config.StorageKeyPrefix, which must be set.
//   - ManualFiltering, ManualSorting, ManualPagination: The host already filtered, sorted or
//     paginated Data. Each requires the host to own the matching axis.
//   - Engine: The row-model engine. Defaults to SliceEngine.
//   - RowOptions: Row selection, expansion and row identity.
//   - OnEnter: Called with the filters when a search is committed. While set, editing a filter does
//     not reset the page index; committing does.
//   - DragAndDrop: Row reordering options.
//   - RowStyle: Returns the style of a row.
//   - Config: The table configuration. Defaults to DefaultConfig().
//   - Translations: Overrides Config.Translations.
//   - Logger: Defaults to NewLogger(Config.LogLevel) when Config is set, a no-op logger otherwise.
type Props struct {
	Columns      []Column
	Data         []map[string]any
	TotalRecords *int
	IsLoading    bool
	IsFetching   bool

	InitialState InitialState
	State        ControlledState
	Store        StateStore
	Storage      Storage

	ManualFiltering  bool
	ManualSorting    bool
	ManualPagination bool

	Engine      Engine
	RowOptions  RowOptions
	OnEnter     func(FilterModel) error
	DragAndDrop *DragAndDropOptions
	RowStyle    func(row map[string]any) map[string]string

	Config       *Config
	Translations *Translations
	Logger       *zap.Logger
}

// RowOptions configures row selection, expansion and row identity. Every
// feature is off unless enabled.
type RowOptions struct {
	EnableRowSelection      bool
	EnableMultiRowSelection bool
	EnableSubRowSelection   bool
	EnableExpanding         bool
	GetRowID                func(row map[string]any, index int, parent *Row) string
	GetSubRows              func(row map[string]any) []map[string]any
}

// DataTable reconciles the state of a table between its own store and the
// host, and computes what to render.
type DataTable struct {
	mu sync.RWMutex

	config       *Config
	translations Translations
	logger       *zap.Logger
	store        StateStore

	columnFilters     Axis[FilterModel]
	afterSearchFilter Axis[FilterModel]
	sorting           Axis[*Sorting]
	pagination        Axis[PaginationState]
	rowSelection      Axis[RowSelectionState]
	expanded          Axis[ExpandedState]
	columnPinning     Axis[ColumnPinningState]

	columns      []Column
	data         []map[string]any
	totalRecords *int
	isLoading    bool
	isFetching   bool

	manualFiltering  bool
	manualSorting    bool
	manualPagination bool

	engine       Engine
	table        *Table
	rowOptions   RowOptions
	onEnter      func(FilterModel) error
	dragAndDrop  *DragAndDropOptions
	rowStyle     func(row map[string]any) map[string]string
	filterInputs map[string]FilterInput

	rowClass         string
	withNumber       bool
	rowIdFunc        func(map[string]any) string
	rowDataFunc      func(map[string]any) map[string]any
	additionalData   map[string]any
	whitelistColumns map[string]bool
	blacklistColumns map[string]bool
}

// SetData replaces the rows of the table.
func (dt *DataTable) SetData(data []map[string]any) *DataTable {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.data = data
	return dt
}

// SetTotalRecords sets the number of records reported to the paging.
func (dt *DataTable) SetTotalRecords(count int) *DataTable {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.totalRecords = &count
	return dt
}

// SetLoading sets whether the first page is still loading.
func (dt *DataTable) SetLoading(loading bool) *DataTable {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.isLoading = loading
	return dt
}

// SetFetching sets whether the table is refreshing its rows.
func (dt *DataTable) SetFetching(fetching bool) *DataTable {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.isFetching = fetching
	return dt
}

// WithData adds a key-value pair to the response built by Make.
func (dt *DataTable) WithData(key string, value any) *DataTable {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.additionalData[key] = value
	return dt
}

// WithNumber adds a 1-based row number, counted across pages, under the
// "no" key of every row of the response built by Make.
func (dt *DataTable) WithNumber() *DataTable {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.withNumber = true
	return dt
}

// SetRowAttributes sets the row attributes of the response built by Make.
//
// The idFunc parameter is a function that takes a row and returns the ID
// of the row. The class parameter is the class to be applied to the
// table row. The dataFunc parameter is a function that takes a row and
// returns a map of data to be added to the table row as data-* attributes.
// Any of them may be left empty.
func (dt *DataTable) SetRowAttributes(idFunc func(map[string]any) string, class string, dataFunc func(map[string]any) map[string]any) *DataTable {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.rowIdFunc = idFunc
	dt.rowClass = class
	dt.rowDataFunc = dataFunc
	return dt
}

// Table returns the engine handle of the table.
func (dt *DataTable) Table() *Table {
	return dt.table
}

// Store returns the store holding the axes owned by the table.
func (dt *DataTable) Store() StateStore {
	return dt.store
}

// Translations returns the texts rendered by the table.
func (dt *DataTable) Translations() Translations {
	return dt.translations
}
