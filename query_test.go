package datatables

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type Profile struct {
	ID      int
	UserID  int
	Details string
}

type User struct {
	ID      int
	Name    string
	Age     int
	Profile []Profile `gorm:"foreignKey:UserID"`
}

var userColumns = []Column{
	{Data: "id", Orderable: true},
	{Data: "name", Searchable: true, Orderable: true},
	{Data: "age", Searchable: true, Orderable: true},
	{Data: "profile", Searchable: true, Meta: ColumnMeta{CustomFilterName: "details"}, Name: "profile_details"},
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "age"}).
		AddRow(1, "John Doe", 25).
		AddRow(2, "Jane Doe", 31)
}

func mockCountRows(count int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(count)
}

func TestApplyScopes(t *testing.T) {
	tests := []struct {
		name   string
		scopes []func(*gorm.DB) *gorm.DB
		query  string
		args   []driver.Value
	}{
		{
			name:  "no_scopes",
			query: "SELECT * FROM `users`",
		},
		{
			name: "single_scope",
			scopes: []func(*gorm.DB) *gorm.DB{
				func(query *gorm.DB) *gorm.DB { return query.Where("age > ?", 18) },
			},
			query: "SELECT * FROM `users` WHERE age > ?",
			args:  []driver.Value{18},
		},
		{
			name: "multiple_scopes",
			scopes: []func(*gorm.DB) *gorm.DB{
				func(query *gorm.DB) *gorm.DB { return query.Where("age > ?", 18) },
				func(query *gorm.DB) *gorm.DB { return query.Where("name LIKE ?", "%John%") },
			},
			query: "SELECT * FROM `users` WHERE age > ? AND name LIKE ?",
			args:  []driver.Value{18, "%John%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery(qm(tt.query)).WithArgs(tt.args...).WillReturnRows(userRows())

			engine := NewGormEngine(db)
			for _, scope := range tt.scopes {
				engine.Filter(scope)
			}

			var users []User
			require.NoError(t, engine.applyScopes(db.Model(&User{})).Find(&users).Error)
			assert.Len(t, users, 2)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestApplyRelations(t *testing.T) {
	t.Run("no_relation", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(qm("SELECT * FROM `users`")).WillReturnRows(userRows())

		var users []User
		require.NoError(t, NewGormEngine(db).applyRelations(db.Model(&User{})).Find(&users).Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("relation", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(qm("SELECT * FROM `users`")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "ZihxS"))
		mock.ExpectQuery(qm("SELECT * FROM `profiles` WHERE `profiles`.`user_id` = ?")).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "details"}).AddRow(1, 1, "admin"))

		var users []User
		query := NewGormEngine(db).With("Profile").applyRelations(db.Model(&User{}))
		require.NoError(t, query.Find(&users).Error)
		require.Len(t, users, 1)
		require.Len(t, users[0].Profile, 1)
		assert.Equal(t, "admin", users[0].Profile[0].Details)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skipped_with_joins", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(qm("INNER JOIN `profiles`")).WillReturnRows(userRows())

		query := db.Model(&User{}).Joins("INNER JOIN `profiles` ON `users`.`id` = `profiles`.`user_id`")
		var users []User
		require.NoError(t, NewGormEngine(db).With("Profile").applyRelations(query).Find(&users).Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestApplyColumnFilters(t *testing.T) {
	tests := []struct {
		name            string
		filters         ColumnFiltersState
		caseInsensitive bool
		scopes          map[string]func(*gorm.DB, any) *gorm.DB
		query           string
		args            []driver.Value
	}{
		{
			name:  "no_filters",
			query: "SELECT * FROM `users`",
		},
		{
			name:    "string_filter_uses_like",
			filters: ColumnFiltersState{{ID: "name", Value: "John"}},
			query:   "SELECT * FROM `users` WHERE `name` LIKE ?",
			args:    []driver.Value{"%John%"},
		},
		{
			name:    "non_string_filter_uses_equality",
			filters: ColumnFiltersState{{ID: "age", Value: 25}, {ID: "name", Value: "Jo"}},
			query:   "SELECT * FROM `users` WHERE `age` = ? AND `name` LIKE ?",
			args:    []driver.Value{25, "%Jo%"},
		},
		{
			name:            "case_insensitive",
			filters:         ColumnFiltersState{{ID: "name", Value: "JoHn"}},
			caseInsensitive: true,
			query:           "SELECT * FROM `users` WHERE LOWER(`name`) LIKE ?",
			args:            []driver.Value{"%john%"},
		},
		{
			name:    "custom_filter_name_maps_to_column",
			filters: ColumnFiltersState{{ID: "details", Value: "admin"}},
			query:   "SELECT * FROM `users` WHERE `profile_details` LIKE ?",
			args:    []driver.Value{"%admin%"},
		},
		{
			name:    "own_id_of_indirected_column_ignored",
			filters: ColumnFiltersState{{ID: "profile", Value: "admin"}},
			query:   "SELECT * FROM `users`",
		},
		{
			name:    "unknown_empty_and_unsearchable_ignored",
			filters: ColumnFiltersState{{ID: "nope", Value: "x"}, {ID: "name", Value: ""}, {ID: "id", Value: 1}},
			query:   "SELECT * FROM `users`",
		},
		{
			name:    "filter_scope",
			filters: ColumnFiltersState{{ID: "adult", Value: true}},
			scopes: map[string]func(*gorm.DB, any) *gorm.DB{
				"adult": func(db *gorm.DB, value any) *gorm.DB {
					if value == true {
						return db.Where("age >= ?", 18)
					}
					return db
				},
			},
			query: "SELECT * FROM `users` WHERE age >= ?",
			args:  []driver.Value{18},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery(qm(tt.query) + "$").WithArgs(tt.args...).WillReturnRows(userRows())

			engine := NewGormEngine(db)
			if tt.caseInsensitive {
				engine.CaseInsensitive()
			}
			for name, scope := range tt.scopes {
				engine.FilterScope(name, scope)
			}

			opts := &TableOptions{Columns: userColumns, State: TableState{ColumnFilters: tt.filters}}
			var users []User
			require.NoError(t, engine.applyColumnFilters(db.Model(&User{}), opts).Find(&users).Error)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBuildCountQuery(t *testing.T) {
	tests := []struct {
		name          string
		distinct      bool
		expectedQuery string
	}{
		{name: "count", expectedQuery: "SELECT count(*) FROM `users`"},
		{name: "distinct_count", distinct: true, expectedQuery: "SELECT COUNT(DISTINCT(`id`)) FROM `users`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery(qm(tt.expectedQuery)).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

			engine := NewGormEngine(db).Model(&User{})
			if tt.distinct {
				engine.Distinct()
			}

			count, err := engine.getTotalCount(engine.buildCountQuery(engine.buildBaseQuery(context.Background())))
			require.NoError(t, err)
			assert.EqualValues(t, 25, count)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBuildBaseQueryWithTableName(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(qm("SELECT count(*) FROM `accounts`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	engine := NewGormEngine(db).Model("accounts")
	count, err := engine.getTotalCount(engine.buildBaseQuery(context.Background()))
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFilteredCount(t *testing.T) {
	tests := []struct {
		name          string
		groupBy       []string
		having        []string
		join          bool
		mockQuery     string
		expectedCount int64
		expectedError error
	}{
		{
			name:          "without_group_by",
			mockQuery:     "SELECT count(*) FROM `users`",
			expectedCount: 25,
		},
		{
			name:          "with_group_by",
			groupBy:       []string{"age"},
			mockQuery:     "SELECT COUNT(*) AS count FROM (SELECT * FROM `users` GROUP BY `age`) subquery",
			expectedCount: 10,
		},
		{
			name:          "with_group_by_and_having",
			groupBy:       []string{"age"},
			having:        []string{"HAVING COUNT(*) > 1"},
			mockQuery:     "SELECT COUNT(*) AS count FROM (SELECT * FROM `users` GROUP BY `age` HAVING COUNT(*) > 1) subquery",
			expectedCount: 4,
		},
		{
			name:          "query_failure",
			mockQuery:     "SELECT count(*) FROM `users`",
			expectedError: gorm.ErrInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			if tt.expectedError != nil {
				mock.ExpectQuery(qm(tt.mockQuery)).WillReturnError(tt.expectedError)
			} else {
				mock.ExpectQuery(qm(tt.mockQuery)).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.expectedCount))
			}

			engine := NewGormEngine(db).Model(&User{})
			if len(tt.groupBy) > 0 {
				engine.GroupBy(tt.groupBy, tt.having...)
			}
			filtered := engine.buildFilteredQuery(engine.buildBaseQuery(context.Background()), &TableOptions{Columns: userColumns})

			count, err := engine.getFilteredCount(filtered)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedCount, count)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestApplyOrder(t *testing.T) {
	tests := []struct {
		name        string
		sorting     SortingState
		multiSort   bool
		defaultSort []ColumnSort
		mockQuery   string
	}{
		{
			name:      "unsorted",
			mockQuery: "SELECT * FROM `users`",
		},
		{
			name:      "ascending",
			sorting:   SortingState{{ID: "name"}},
			mockQuery: "SELECT * FROM `users` ORDER BY `name`",
		},
		{
			name:      "descending",
			sorting:   SortingState{{ID: "age", Desc: true}},
			mockQuery: "SELECT * FROM `users` ORDER BY `age` DESC",
		},
		{
			name:      "only_first_tuple_without_multi_sort",
			sorting:   SortingState{{ID: "age", Desc: true}, {ID: "name"}},
			mockQuery: "SELECT * FROM `users` ORDER BY `age` DESC",
		},
		{
			name:      "multi_sort",
			sorting:   SortingState{{ID: "age", Desc: true}, {ID: "name"}},
			multiSort: true,
			mockQuery: "SELECT * FROM `users` ORDER BY `age` DESC,`name`",
		},
		{
			name:        "default_sort_when_unsorted",
			defaultSort: []ColumnSort{{ID: "id", Desc: true}},
			mockQuery:   "SELECT * FROM `users` ORDER BY `id` DESC",
		},
		{
			name:        "default_sort_when_column_not_orderable",
			sorting:     SortingState{{ID: "profile"}},
			defaultSort: []ColumnSort{{ID: "name"}},
			mockQuery:   "SELECT * FROM `users` ORDER BY `name`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery(qm(tt.mockQuery) + "$").WillReturnRows(userRows())

			engine := NewGormEngine(db).DefaultSort(tt.defaultSort...)
			opts := &TableOptions{
				Columns:         userColumns,
				State:           TableState{Sorting: tt.sorting},
				EnableMultiSort: tt.multiSort,
			}

			var users []User
			require.NoError(t, engine.applyOrder(db.Model(&User{}), opts).Find(&users).Error)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestApplyPagination(t *testing.T) {
	tests := []struct {
		name       string
		pagination PaginationState
		mockQuery  string
		mockArgs   []driver.Value
	}{
		{
			name:      "without_page_size",
			mockQuery: "SELECT * FROM `users`",
		},
		{
			name:       "first_page",
			pagination: PaginationState{PageIndex: 0, PageSize: 10},
			mockQuery:  "SELECT * FROM `users` LIMIT ?",
			mockArgs:   []driver.Value{10},
		},
		{
			name:       "third_page",
			pagination: PaginationState{PageIndex: 2, PageSize: 5},
			mockQuery:  "SELECT * FROM `users` LIMIT ? OFFSET ?",
			mockArgs:   []driver.Value{5, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery(qm(tt.mockQuery) + "$").WithArgs(tt.mockArgs...).WillReturnRows(userRows())

			var users []User
			require.NoError(t, NewGormEngine(db).applyPagination(db.Model(&User{}), tt.pagination).Find(&users).Error)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormEngineRowModel(t *testing.T) {
	opts := func() *TableOptions {
		return &TableOptions{
			Columns: userColumns,
			State: TableState{
				ColumnFilters: ColumnFiltersState{{ID: "name", Value: "Doe"}},
				Sorting:       SortingState{{ID: "age", Desc: true}},
				Pagination:    PaginationState{PageIndex: 1, PageSize: 2},
			},
		}
	}

	t.Run("counts_and_page", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(qm("SELECT count(*) FROM `users`")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		mock.ExpectQuery(qm("SELECT count(*) FROM `users` WHERE `name` LIKE ?")).
			WithArgs("%Doe%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
		mock.ExpectQuery(qm("SELECT * FROM `users` WHERE `name` LIKE ? ORDER BY `age` DESC LIMIT ? OFFSET ?")).
			WithArgs("%Doe%", 2, 2).
			WillReturnRows(userRows())

		model, err := NewGormEngine(db).Model(&User{}).RowModel(context.Background(), opts())
		require.NoError(t, err)

		assert.Equal(t, 25, model.CoreCount)
		assert.Equal(t, 4, model.FilteredCount)
		assert.Equal(t, 4, model.PrePaginationCount)
		require.Len(t, model.Rows, 2)
		assert.Equal(t, "0", model.Rows[0].ID)
		assert.Equal(t, map[string]any{"id": 1, "name": "John Doe", "age": 25}, model.Rows[0].Original)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("manual_modes_skip_clauses", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(qm("SELECT count(*) FROM `users`")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		mock.ExpectQuery(qm("SELECT count(*) FROM `users`")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		mock.ExpectQuery(qm("SELECT * FROM `users`") + "$").
			WillReturnRows(userRows())

		o := opts()
		o.ManualFiltering, o.ManualSorting, o.ManualPagination = true, true, true
		model, err := NewGormEngine(db).Model(&User{}).RowModel(context.Background(), o)
		require.NoError(t, err)
		assert.Len(t, model.Rows, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error_in_total_count", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(qm("SELECT count(*) FROM `users`")).WillReturnError(gorm.ErrInvalidData)

		_, err := NewGormEngine(db).Model(&User{}).RowModel(context.Background(), opts())
		require.ErrorIs(t, err, gorm.ErrInvalidData)
		assert.Contains(t, err.Error(), "failed to count records")
	})

	t.Run("error_in_filtered_count", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(qm("SELECT count(*) FROM `users`")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		mock.ExpectQuery(qm("SELECT count(*) FROM `users` WHERE `name` LIKE ?")).WillReturnError(gorm.ErrInvalidData)

		_, err := NewGormEngine(db).Model(&User{}).RowModel(context.Background(), opts())
		require.ErrorIs(t, err, gorm.ErrInvalidData)
		assert.Contains(t, err.Error(), "failed to count filtered records")
	})

	t.Run("error_in_rows", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(qm("SELECT count(*) FROM `users`")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		mock.ExpectQuery(qm("SELECT count(*) FROM `users` WHERE `name` LIKE ?")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
		mock.ExpectQuery(qm("SELECT * FROM `users`")).WillReturnError(gorm.ErrInvalidData)

		_, err := NewGormEngine(db).Model(&User{}).RowModel(context.Background(), opts())
		require.ErrorIs(t, err, gorm.ErrInvalidData)
		assert.Contains(t, err.Error(), "failed to load rows")
	})

	t.Run("nil_handle", func(t *testing.T) {
		_, err := NewGormEngine(nil).RowModel(context.Background(), opts())
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestNewGormQuery(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(qm("SELECT count(*) FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(qm("SELECT count(*) FROM `users` WHERE `age` = ?")).
		WithArgs(25).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(qm("SELECT * FROM `users` WHERE `age` = ? ORDER BY `name` LIMIT ?")).
		WithArgs(25, 10).
		WillReturnRows(userRows())

	query := NewGormQuery(NewGormEngine(db).Model(&User{}), userColumns)
	res, err := query(context.Background(), FilterModel{"age": 25}, 10, 0, "name", SortAscending)
	require.NoError(t, err)

	assert.Equal(t, 7, res.TotalRecords)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Jane Doe", res.Records[1]["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSortArguments(t *testing.T) {
	column, direction := sortArguments(nil)
	assert.Empty(t, column)
	assert.Equal(t, SortNone, direction)

	column, direction = sortArguments(&Sorting{ID: "name"})
	assert.Equal(t, "name", column)
	assert.Equal(t, SortAscending, direction)

	column, direction = sortArguments(&Sorting{ID: "age", Desc: true})
	assert.Equal(t, "age", column)
	assert.Equal(t, SortDescending, direction)
}

func TestHasGroupByClause(t *testing.T) {
	db, _ := newMockDB(t)

	assert.False(t, hasGroupByClause(db.Model(&User{})))
	query := db.Model(&User{}).Group("age")
	assert.True(t, hasGroupByClause(query))
}

func TestHasJoinClause(t *testing.T) {
	db, _ := newMockDB(t)

	assert.False(t, hasJoinClause(db.Model(&User{})))
	assert.True(t, hasJoinClause(db.Model(&User{}).Joins("Profile")))
}
