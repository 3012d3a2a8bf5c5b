package datatables

// applyRowAttributes adds the DataTables row attributes to a rendered row.
//
// The row ID is produced by rowIdFunc and stored under DT_RowId. The row
// class is stored under DT_RowClass when rowClass is set. Every key-value
// pair returned by rowDataFunc is stored with the DT_RowData_ prefix and
// becomes a data-* attribute of the table row.
//
// The row is modified in place.
func (dt *DataTable) applyRowAttributes(row map[string]any) {
	if dt.rowIdFunc != nil {
		row[datatableRowID] = dt.rowIdFunc(row)
	}
	if dt.rowClass != "" {
		row[datatableRowClass] = dt.rowClass
	}
	if dt.rowDataFunc != nil {
		for k, v := range dt.rowDataFunc(row) {
			row[datatableRowDataPrefix+k] = v
		}
	}
}

// responseColumns returns the columns included in the response, in their
// declared order.
func (dt *DataTable) responseColumns() []Column {
	columns := make([]Column, 0, len(dt.columns))
	for _, col := range dt.columns {
		if dt.isColumnAllowed(col.Data) {
			columns = append(columns, col)
		}
	}
	return columns
}
