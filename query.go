package datatables

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Constants representing SQL fragments used by GormEngine.
const (
	queryGroupBy = "GROUP BY"          // SQL GROUP BY clause.
	queryHaving  = "HAVING"            // SQL HAVING clause.
	queryCount   = "COUNT(*) AS count" // SQL COUNT function with alias.
)

// GormEngine is an Engine running filtering, sorting and pagination in the
// database through gorm. TableOptions.Data is ignored; rows come from the
// query result.
type GormEngine struct {
	tx              *gorm.DB
	model           any
	relations       []string
	scopes          []func(*gorm.DB) *gorm.DB
	filterScopes    map[string]func(*gorm.DB, any) *gorm.DB
	caseInsensitive bool
	distinct        bool
	groupBy         []string
	having          []string
	defaultSort     []ColumnSort
}

var _ Engine = (*GormEngine)(nil)

// NewGormEngine returns a GormEngine querying through tx.
func NewGormEngine(tx *gorm.DB) *GormEngine {
	return &GormEngine{
		tx:           tx,
		filterScopes: make(map[string]func(*gorm.DB, any) *gorm.DB),
	}
}

// Model sets the model to be queried.
//
// This can either be a struct or a string representing the table name. When
// no model is set, the statement of the handle given to NewGormEngine is used
// as is.
func (e *GormEngine) Model(model any) *GormEngine {
	e.model = model
	return e
}

// With appends relations to preload with every page of rows. Preloading is
// skipped when the query joins other tables.
func (e *GormEngine) With(relations ...string) *GormEngine {
	e.relations = append(e.relations, relations...)
	return e
}

// Filter adds a scope applied to every query, counts included.
func (e *GormEngine) Filter(scope func(*gorm.DB) *gorm.DB) *GormEngine {
	e.scopes = append(e.scopes, scope)
	return e
}

// FilterScope registers how the filter stored under name is applied. It is
// meant for custom filter names that do not map to a single column.
func (e *GormEngine) FilterScope(name string, scope func(db *gorm.DB, value any) *gorm.DB) *GormEngine {
	e.filterScopes[name] = scope
	return e
}

// CaseInsensitive makes string filters compare lower-cased values.
func (e *GormEngine) CaseInsensitive() *GormEngine {
	e.caseInsensitive = true
	return e
}

// Distinct counts distinct ids only.
func (e *GormEngine) Distinct() *GormEngine {
	e.distinct = true
	return e
}

// GroupBy groups the filtered query by the given columns and optional
// having conditions. The filtered count then runs over a subquery.
func (e *GormEngine) GroupBy(columns []string, having ...string) *GormEngine {
	e.groupBy = columns
	e.having = having
	return e
}

// DefaultSort sets the ordering used while the table is not sorted.
func (e *GormEngine) DefaultSort(sorting ...ColumnSort) *GormEngine {
	e.defaultSort = sorting
	return e
}

// hasGroupByClause returns true if the query has a GROUP BY clause, false otherwise.
func hasGroupByClause(db *gorm.DB) bool {
	_, exists := db.Statement.Clauses[queryGroupBy]
	return exists
}

// hasJoinClause returns true if the query has a JOIN clause, false otherwise.
func hasJoinClause(db *gorm.DB) bool {
	return len(db.Statement.Joins) > 0
}

// applyScopes applies the scopes added with Filter.
func (e *GormEngine) applyScopes(query *gorm.DB) *gorm.DB {
	for _, scope := range e.scopes {
		query = scope(query)
	}
	return query
}

// applyRelations preloads the relations added with With unless the query
// joins other tables.
func (e *GormEngine) applyRelations(query *gorm.DB) *gorm.DB {
	if len(e.relations) > 0 && !hasJoinClause(query) {
		query = query.Preload(strings.Join(e.relations, ","))
	}
	return query
}

// buildBaseQuery returns the query every count and page query starts from.
func (e *GormEngine) buildBaseQuery(ctx context.Context) *gorm.DB {
	query := e.tx.WithContext(ctx)
	switch m := e.model.(type) {
	case nil:
	case string:
		query = query.Table(m)
	default:
		query = query.Model(m)
	}
	query = e.applyRelations(query)
	return e.applyScopes(query)
}

// buildCountQuery creates a new session counting every record of the base
// query.
func (e *GormEngine) buildCountQuery(baseQuery *gorm.DB) *gorm.DB {
	countQuery := baseQuery.Session(&gorm.Session{})
	if e.distinct {
		countQuery = countQuery.Distinct("id")
	}
	return countQuery
}

// filterCondition returns the condition matching value against column.
// Strings match as a substring, everything else by equality.
func (e *GormEngine) filterCondition(column string, value any) clause.Expression {
	s, isString := value.(string)
	if !isString {
		return clause.Eq{Column: clause.Column{Name: column}, Value: value}
	}
	if e.caseInsensitive {
		return clause.Expr{
			SQL:  "LOWER(?) LIKE ?",
			Vars: []any{clause.Column{Name: column}, "%" + strings.ToLower(s) + "%"},
		}
	}
	return clause.Like{Column: clause.Column{Name: column}, Value: "%" + s + "%"}
}

// applyColumnFilters applies every non-empty filter tuple. A tuple is
// resolved through a registered filter scope, then a searchable column with
// the same id, then a searchable column storing its filter under that id.
// Unresolvable tuples are ignored.
func (e *GormEngine) applyColumnFilters(query *gorm.DB, opts *TableOptions) *gorm.DB {
	for _, f := range opts.State.ColumnFilters {
		if isEmptyFilterValue(f.Value) {
			continue
		}
		if scope, ok := e.filterScopes[f.ID]; ok {
			query = scope(query, f.Value)
			continue
		}
		col, ok := findFilterColumn(opts.Columns, f.ID)
		if !ok {
			continue
		}
		query = query.Where(e.filterCondition(col.sqlName(), f.Value))
	}
	return query
}

func findFilterColumn(columns []Column, id string) (Column, bool) {
	if col, ok := findColumn(columns, id); ok && col.Searchable && col.Meta.CustomFilterName == "" {
		return col, true
	}
	for _, col := range columns {
		if col.Searchable && col.Meta.CustomFilterName == id {
			return col, true
		}
	}
	return Column{}, false
}

// buildFilteredQuery applies the column filters to a new session of the
// base query, then the configured GROUP BY and HAVING clauses.
func (e *GormEngine) buildFilteredQuery(baseQuery *gorm.DB, opts *TableOptions) *gorm.DB {
	query := baseQuery.Session(&gorm.Session{})
	if !opts.ManualFiltering {
		query = e.applyColumnFilters(query, opts)
	}

	if len(e.groupBy) > 0 {
		if hasGroupByClause(query) {
			delete(query.Statement.Clauses, queryGroupBy)
		}
		query = query.Group(strings.Join(e.groupBy, ", "))
		for _, cond := range e.having {
			query = query.Having(strings.TrimSpace(strings.TrimPrefix(cond, queryHaving)))
		}
	}
	return query
}

// getTotalCount counts the records of the unfiltered query.
func (e *GormEngine) getTotalCount(countQuery *gorm.DB) (int64, error) {
	var count int64
	err := countQuery.Count(&count).Error
	return count, err
}

// getFilteredCount counts the records left after filtering. Grouped queries
// are counted through a subquery.
func (e *GormEngine) getFilteredCount(filteredQuery *gorm.DB) (int64, error) {
	var count int64

	if len(e.groupBy) > 0 {
		subQuery := filteredQuery.Session(&gorm.Session{})
		countQuery := e.tx.WithContext(filteredQuery.Statement.Context).
			Select(queryCount).Table("(?) subquery", subQuery)
		if hasJoinClause(countQuery) {
			countQuery.Statement.Joins = nil
		}
		delete(countQuery.Statement.Clauses, queryGroupBy)
		err := countQuery.Scan(&count).Error
		return count, err
	}

	err := filteredQuery.Session(&gorm.Session{}).Count(&count).Error
	return count, err
}

// applyOrder orders by the sort tuples on orderable columns. Without
// multi-sort only the first tuple is used. When nothing is sorted the
// default sort applies.
func (e *GormEngine) applyOrder(query *gorm.DB, opts *TableOptions) *gorm.DB {
	sorting := opts.State.Sorting
	if !opts.EnableMultiSort && len(sorting) > 1 {
		sorting = sorting[:1]
	}

	ordered := false
	for _, s := range sorting {
		col, ok := findColumn(opts.Columns, s.ID)
		if !ok || !col.Orderable {
			continue
		}
		query = query.Order(clause.OrderByColumn{
			Column: clause.Column{Name: col.sqlName()},
			Desc:   s.Desc,
		})
		ordered = true
	}
	if ordered {
		return query
	}

	for _, s := range e.defaultSort {
		name := s.ID
		if col, ok := findColumn(opts.Columns, s.ID); ok {
			name = col.sqlName()
		}
		query = query.Order(clause.OrderByColumn{
			Column: clause.Column{Name: name},
			Desc:   s.Desc,
		})
	}
	return query
}

// applyPagination limits the query to the current page.
func (e *GormEngine) applyPagination(query *gorm.DB, p PaginationState) *gorm.DB {
	if p.PageSize <= 0 {
		return query
	}
	return query.Offset(p.PageIndex * p.PageSize).Limit(p.PageSize)
}

// executeQuery executes the given query and returns the result as a slice of
// maps, where each map represents a row in the result set. int64 values
// are returned as int.
func (e *GormEngine) executeQuery(query *gorm.DB) ([]map[string]any, error) {
	var rawData []map[string]any
	if err := query.Find(&rawData).Error; err != nil {
		return nil, err
	}
	return normalizeResponse(rawData), nil
}

// RowModel counts the total and filtered records, then loads the current
// page of rows.
func (e *GormEngine) RowModel(ctx context.Context, opts *TableOptions) (*RowModel, error) {
	if e.tx == nil {
		return nil, configError("engine", fmt.Errorf("%w: gorm handle is required", ErrInvalidConfig))
	}

	baseQuery := e.buildBaseQuery(ctx)
	countQuery := e.buildCountQuery(baseQuery)
	filteredQuery := e.buildFilteredQuery(baseQuery, opts)

	total, err := e.getTotalCount(countQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	filtered, err := e.getFilteredCount(filteredQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to count filtered records: %w", err)
	}

	query := filteredQuery
	if !opts.ManualSorting {
		query = e.applyOrder(query, opts)
	}
	if !opts.ManualPagination {
		query = e.applyPagination(query, opts.State.Pagination)
	}
	rawData, err := e.executeQuery(query)
	if err != nil {
		return nil, fmt.Errorf("failed to load rows: %w", err)
	}

	rows := expandRows(buildRows(opts, rawData, 0, nil))
	return &RowModel{
		Rows:               rows,
		CoreCount:          int(total),
		FilteredCount:      int(filtered),
		PrePaginationCount: int(filtered),
	}, nil
}

// SortDirection is the direction handed to a QueryFunc.
type SortDirection string

const (
	SortNone       SortDirection = ""
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// QueryResult is a page of records returned by a QueryFunc.
type QueryResult struct {
	Records      []map[string]any
	TotalRecords int
}

// QueryFunc loads a page of records for a table running in manual mode.
// sortColumn is empty and sortDirection is SortNone when the table is not
// sorted.
type QueryFunc func(ctx context.Context, filter FilterModel, pageSize, pageIndex int, sortColumn string, sortDirection SortDirection) (*QueryResult, error)

// NewGormQuery returns a QueryFunc running through engine. TotalRecords is
// the filtered count.
func NewGormQuery(engine *GormEngine, columns []Column) QueryFunc {
	return func(ctx context.Context, filter FilterModel, pageSize, pageIndex int, sortColumn string, sortDirection SortDirection) (*QueryResult, error) {
		var sorting *Sorting
		if sortColumn != "" && sortDirection != SortNone {
			sorting = &Sorting{ID: sortColumn, Desc: sortDirection == SortDescending}
		}
		opts := &TableOptions{
			Columns: columns,
			State: TableState{
				ColumnFilters: ColumnFiltersFromModel(filter),
				Sorting:       SortingFromModel(sorting),
				Pagination:    PaginationState{PageIndex: pageIndex, PageSize: pageSize},
			},
		}
		model, err := engine.RowModel(ctx, opts)
		if err != nil {
			return nil, err
		}
		records := make([]map[string]any, 0, len(model.Rows))
		for _, row := range model.Rows {
			records = append(records, row.Original)
		}
		return &QueryResult{Records: records, TotalRecords: model.FilteredCount}, nil
	}
}

// sortArguments returns the sort column and direction of a domain sorting.
func sortArguments(sorting *Sorting) (string, SortDirection) {
	if sorting == nil {
		return "", SortNone
	}
	if sorting.Desc {
		return sorting.ID, SortDescending
	}
	return sorting.ID, SortAscending
}
