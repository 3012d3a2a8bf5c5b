// Package datatables reconciles the state of a data table between the table
// itself and the application hosting it, and computes the rows to show.
//
// Every state axis (column filters, the committed after-search filter,
// sorting, pagination, row selection, expansion and column pinning) is owned
// either by the table's StateStore or by the host through a Controlled value.
// The owner is decided once, in New, and the row-model Engine only ever sees
// the effective state in its tuple-array form:
//
//	dt, err := datatables.New(datatables.Props{
//		Columns: []datatables.Column{
//			{Data: "name", Title: "Name", Searchable: true, Orderable: true},
//			{Data: "age", Title: "Age", Orderable: true},
//		},
//		Data: rows,
//	})
//	if err != nil {
//		return err
//	}
//	_ = dt.Table().SetColumnFilterValue("name", "jo")
//	view, err := dt.Render(ctx)
//
// State can be persisted across reloads with a PersistentStore on top of a
// MemoryStorage, RedisStorage or GormStorage. Server-side tables use a
// GormEngine, and Make answers DataTables server-side requests parsed with
// ParseRequest.
package datatables
