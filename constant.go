package datatables

// Defaults applied when the caller leaves a value unset.
const (
	defaultPageSize       = 10
	defaultMemoryCapacity = 1024
	defaultRedisTimeout   = 2 // seconds
)

// defaultPageSizes is the page-size allow-list used when none is configured.
var defaultPageSizes = []int{5, 10, 25, 50, 100}

// Names of the state axes. They double as the suffix of the persistent
// storage key of every axis: "{prefix}_{axis}".
const (
	axisColumnFilters     = "columnFilters"
	axisAfterSearchFilter = "afterSearchFilter"
	axisSorting           = "sorting"
	axisPagination        = "pagination"
	axisRowSelection      = "rowSelection"
	axisExpanded          = "expanded"
	axisColumnPinning     = "columnPinning"
)

// Constants for specifying order direction in the DataTables request.
const (
	orderAscending  = "ASC"  // Sort in ascending order.
	orderDescending = "DESC" // Sort in descending order.
)

// Values accepted by ColumnMeta.ParseValueAs.
const (
	ParseAsNumber = "number"
	ParseAsDate   = "date"
)

// Constants used by DataTables in the JSON response to represent the row
// attributes.
//
// The DT_RowId represents the row ID attribute.
// The DT_RowClass represents the row class attribute.
// The DT_RowData_ prefix represents the row data attribute.
const (
	datatableRowID         = "DT_RowId"    // Row ID attribute.
	datatableRowClass      = "DT_RowClass" // Row class attribute.
	datatableRowDataPrefix = "DT_RowData_" // Row data attribute prefix.
)

// Key of the optional row number column added by DataTable.WithNumber.
const rowNumberColumn = "no"

// Default text rendered for a drag handle cell.
const defaultDragHandle = "🟰"
