package datatables

import "slices"

// DragEndEvent is raised when a dragged row is dropped. ActiveID is the id
// of the dragged row, OverID the id of the row it was dropped on; OverID is
// empty when the row was dropped outside the table.
type DragEndEvent struct {
	ActiveID string `json:"activeId"`
	OverID   string `json:"overId"`
}

// DragAndDropOptions enables reordering rows by dragging them. It requires
// stable row ids, see RowOptions.GetRowID.
type DragAndDropOptions struct {
	EnableDragAndDrop bool
	OnDragEnd         func(DragEndEvent) error
}

// MoveRow returns a copy of rows where the row with id activeID was moved to
// the position of the row with id overID. Unknown ids leave the order as is.
func MoveRow(rows []map[string]any, getRowID func(row map[string]any, index int) string, activeID, overID string) []map[string]any {
	moved := slices.Clone(rows)
	if activeID == "" || overID == "" || activeID == overID {
		return moved
	}

	from, to := -1, -1
	for i, row := range rows {
		switch getRowID(row, i) {
		case activeID:
			from = i
		case overID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return moved
	}

	row := moved[from]
	moved = slices.Delete(moved, from, from+1)
	return slices.Insert(moved, to, row)
}
