package datatables

import (
	"slices"
)

// Column represents a single column in a DataTable.
//
// Fields:
//   - Data: The identifier of the column and the row key (or dotted path) its value is read from.
//   - Name: The SQL column used by GormEngine. Defaults to Data.
//   - Title: The header text.
//   - Searchable: A boolean indicating whether the column can be filtered.
//   - Orderable: A boolean indicating whether the column can be sorted.
//   - Accessor: An optional function returning the cell value of a row.
//   - RenderFunc: An optional function that can be used to render the column value.
//   - FilterFunc: An optional predicate deciding whether a cell value matches the filter value.
//   - Meta: Filter and display options.
type Column struct {
	Data       string
	Name       string
	Title      string
	Searchable bool
	Orderable  bool
	Accessor   func(row map[string]any) any
	RenderFunc func(map[string]any) any
	FilterFunc func(cellValue, filterValue any) bool
	Meta       ColumnMeta
}

// ColumnMeta holds the optional filter and display settings of a column.
type ColumnMeta struct {
	// CustomFilterName stores the filter under this key instead of the
	// column's own id.
	CustomFilterName string
	IsHidden         bool
	DropdownFilter   *DropdownFilter
	// IsInputValid validates raw filter input before it is applied.
	IsInputValid func(raw string) FilterInputState
	// ParseValueAs is ParseAsNumber, ParseAsDate or empty for plain strings.
	ParseValueAs string
	// DateLayout is the time layout used with ParseAsDate. Defaults to
	// "2006-01-02".
	DateLayout string
}

// DropdownFilter restricts a column filter to a fixed set of options.
type DropdownFilter struct {
	Options []DropdownOption
}

// DropdownOption is a single dropdown filter choice.
type DropdownOption struct {
	Label    string `json:"label"`
	Value    any    `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Skeleton is the cell value rendered while a table is loading.
type Skeleton struct{}

// value returns the raw cell value of the column for the given row.
func (c Column) value(row map[string]any) any {
	if c.Accessor != nil {
		return c.Accessor(row)
	}
	return lookupPath(row, c.Data)
}

// render returns the display value of the column for the given row.
func (c Column) render(row map[string]any) any {
	if c.RenderFunc != nil {
		return c.RenderFunc(row)
	}
	return c.value(row)
}

// sqlName returns the server-side column name.
func (c Column) sqlName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Data
}

// filterID returns the key the column's filter is stored under.
func (c Column) filterID() string {
	if c.Meta.CustomFilterName != "" {
		return c.Meta.CustomFilterName
	}
	return c.Data
}

// EnumColumn returns a filterable column that renders enum values through
// their option labels and filters through a dropdown.
func EnumColumn(data, title string, options []DropdownOption) Column {
	opts := slices.Clone(options)
	return Column{
		Data:       data,
		Title:      title,
		Searchable: true,
		RenderFunc: func(row map[string]any) any {
			v := lookupPath(row, data)
			for _, o := range opts {
				if compareValues(o.Value, v) == 0 {
					return o.Label
				}
			}
			return v
		},
		FilterFunc: func(cell, filter any) bool {
			return compareValues(cell, filter) == 0
		},
		Meta: ColumnMeta{DropdownFilter: &DropdownFilter{Options: opts}},
	}
}

// DraggableColumn returns a display column holding a drag handle. A nil
// handle renders the default handle.
func DraggableColumn(data, title string, handle any) Column {
	if handle == nil {
		handle = defaultDragHandle
	}
	return Column{
		Data:  data,
		Title: title,
		RenderFunc: func(map[string]any) any {
			return handle
		},
	}
}

// prepareColumns returns the columns the engine works with. Hidden columns
// are dropped, manual filtering removes the filter predicates and
// drag-and-drop disables sorting. The input slice is never modified.
func prepareColumns(columns []Column, manualFiltering, dragAndDrop bool) []Column {
	prepared := make([]Column, 0, len(columns))
	for _, col := range columns {
		if col.Meta.IsHidden {
			continue
		}
		if manualFiltering {
			col.FilterFunc = nil
		}
		if dragAndDrop {
			col.Orderable = false
		}
		prepared = append(prepared, col)
	}
	return prepared
}

// skeletonColumns replaces every cell renderer with a Skeleton.
func skeletonColumns(columns []Column) []Column {
	skeleton := make([]Column, len(columns))
	for i, col := range columns {
		col.Accessor = nil
		col.RenderFunc = func(map[string]any) any { return Skeleton{} }
		skeleton[i] = col
	}
	return skeleton
}

// orderByPinning returns the columns pinned left (in pinning order), then
// the unpinned ones, then the ones pinned right.
func orderByPinning(columns []Column, pinning ColumnPinningState) []Column {
	byID := make(map[string]Column, len(columns))
	for _, col := range columns {
		byID[col.Data] = col
	}

	ordered := make([]Column, 0, len(columns))
	for _, id := range pinning.Left {
		if col, ok := byID[id]; ok {
			ordered = append(ordered, col)
		}
	}
	for _, col := range columns {
		if pinning.Side(col.Data) == PinNone {
			ordered = append(ordered, col)
		}
	}
	for _, id := range pinning.Right {
		if col, ok := byID[id]; ok && !slices.Contains(pinning.Left, id) {
			ordered = append(ordered, col)
		}
	}
	return ordered
}

// findColumn returns the column with the given id.
func findColumn(columns []Column, id string) (Column, bool) {
	for _, col := range columns {
		if col.Data == id {
			return col, true
		}
	}
	return Column{}, false
}

// isColumnAllowed checks if a column with the given name is allowed based on the
// whitelist and blacklist constraints. If both whitelist and blacklist are empty,
// all columns are allowed. If the whitelist is non-empty, only columns explicitly
// listed are allowed. If the blacklist is non-empty and the whitelist is empty,
// only columns not listed in the blacklist are allowed.
func (dt *DataTable) isColumnAllowed(name string) bool {
	if len(dt.whitelistColumns) == 0 && len(dt.blacklistColumns) == 0 {
		return true
	}

	if len(dt.whitelistColumns) > 0 {
		return dt.whitelistColumns[name]
	}

	return !dt.blacklistColumns[name]
}

// EditColumn replaces the render function of the column with the given id by
// one passing the column value through editFunc. Unknown ids are ignored.
func (dt *DataTable) EditColumn(data string, editFunc func(any) any) *DataTable {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	for i, col := range dt.columns {
		if col.Data != data {
			continue
		}
		col.RenderFunc = func(row map[string]any) any {
			return editFunc(col.value(row))
		}
		dt.columns[i] = col
	}
	return dt
}

// WhitelistColumn marks one or more columns as whitelisted. Only whitelisted
// columns are included in the response built by Make.
func (dt *DataTable) WhitelistColumn(columns ...string) *DataTable {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	for _, col := range columns {
		dt.whitelistColumns[col] = true
	}
	return dt
}

// BlacklistColumn marks one or more columns as blacklisted. Blacklisted
// columns are excluded from the response built by Make.
func (dt *DataTable) BlacklistColumn(columns ...string) *DataTable {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	for _, col := range columns {
		dt.blacklistColumns[col] = true
	}
	return dt
}

// finalizeResponseColumns removes every key of the rows that belongs to a
// column excluded by the whitelist or blacklist.
func (dt *DataTable) finalizeResponseColumns(data []map[string]any) []map[string]any {
	for _, row := range data {
		for key := range row {
			if _, isColumn := findColumn(dt.columns, key); isColumn && !dt.isColumnAllowed(key) {
				delete(row, key)
			}
		}
	}
	return data
}
