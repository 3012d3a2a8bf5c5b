package datatables

import (
	"bytes"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// StorageFailurePolicy decides what happens when the persistent storage
// cannot be read or written.
type StorageFailurePolicy string

const (
	// StoragePropagate returns storage failures to the caller. Read failures
	// fail construction, write failures are returned from the setter after the
	// in-memory value was updated.
	StoragePropagate StorageFailurePolicy = "propagate"
	// StorageDegrade logs storage failures and keeps working in memory.
	StorageDegrade StorageFailurePolicy = "degrade"
)

// PersistOption configures a PersistentStore.
type PersistOption func(*PersistentStore)

// WithStorageLogger sets the logger used for storage failures and writes.
func WithStorageLogger(logger *zap.Logger) PersistOption {
	return func(p *PersistentStore) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFailurePolicy sets the storage failure policy. An empty policy keeps
// the default, StoragePropagate.
func WithFailurePolicy(policy StorageFailurePolicy) PersistOption {
	return func(p *PersistentStore) {
		if policy != "" {
			p.policy = policy
		}
	}
}

// PersistentStore is a StateStore whose axes are mirrored to a Storage.
// Each axis lives under its own key, "{prefix}_{axis}", as JSON.
type PersistentStore struct {
	store   *Store
	storage Storage
	prefix  string
	policy  StorageFailurePolicy
	logger  *zap.Logger
}

// NewPersistentStore returns a PersistentStore backed by storage. Values found
// in storage take precedence over the ones in initial; a stored JSON null is
// treated as absent.
func NewPersistentStore(storage Storage, keyPrefix string, initial InitialState, opts ...PersistOption) (*PersistentStore, error) {
	p := &PersistentStore{
		storage: storage,
		prefix:  keyPrefix,
		policy:  StoragePropagate,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if storage == nil {
		if err := p.fail("read", keyPrefix, ErrStorageUnavailable); err != nil {
			return nil, err
		}
		p.storage = nopStorage{}
	}

	if err := p.load(&initial); err != nil {
		return nil, err
	}
	p.store = NewStore(initial)
	return p, nil
}

func (p *PersistentStore) load(initial *InitialState) error {
	var (
		filters     FilterModel
		afterSearch FilterModel
		sorting     *Sorting
		pagination  PaginationState
		selection   RowSelectionState
		expanded    ExpandedState
		pinning     ColumnPinningState
	)

	if ok, err := loadAxis(p, axisColumnFilters, &filters); err != nil {
		return err
	} else if ok {
		initial.ColumnFilters = filters
	}
	if ok, err := loadAxis(p, axisAfterSearchFilter, &afterSearch); err != nil {
		return err
	} else if ok {
		initial.AfterSearchFilter = afterSearch
	}
	if ok, err := loadAxis(p, axisSorting, &sorting); err != nil {
		return err
	} else if ok {
		initial.Sorting = sorting
	}
	if ok, err := loadAxis(p, axisPagination, &pagination); err != nil {
		return err
	} else if ok {
		initial.Pagination = &pagination
	}
	if ok, err := loadAxis(p, axisRowSelection, &selection); err != nil {
		return err
	} else if ok {
		initial.RowSelection = selection
	}
	if ok, err := loadAxis(p, axisExpanded, &expanded); err != nil {
		return err
	} else if ok {
		initial.Expanded = &expanded
	}
	if ok, err := loadAxis(p, axisColumnPinning, &pinning); err != nil {
		return err
	} else if ok {
		initial.ColumnPinning = &pinning
	}
	return nil
}

// Key returns the storage key of the given axis.
func (p *PersistentStore) Key(axis string) string {
	return p.prefix + "_" + axis
}

// fail applies the failure policy to a storage error. It returns the error to
// hand back to the caller, nil when the failure was degraded.
func (p *PersistentStore) fail(op, key string, err error) error {
	serr := &StorageError{Op: op, Key: key, Err: err}
	if p.policy == StorageDegrade {
		p.logger.Warn("storage failure, continuing in memory",
			zap.String("op", op),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil
	}
	return serr
}

func loadAxis[T any](p *PersistentStore, axis string, dst *T) (bool, error) {
	key := p.Key(axis)
	raw, ok, err := p.storage.GetItem(key)
	if err != nil {
		return false, p.fail("read", key, err)
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, p.fail("decode", key, err)
	}
	return true, nil
}

func persistAxis[T any](p *PersistentStore, axis string, value T) error {
	key := p.Key(axis)
	raw, err := json.Marshal(value)
	if err != nil {
		return p.fail("encode", key, err)
	}
	if err := p.storage.SetItem(key, raw); err != nil {
		return p.fail("write", key, err)
	}
	p.logger.Debug("state persisted", zap.String("key", key))
	return nil
}

func (p *PersistentStore) ColumnFilters() FilterModel { return p.store.ColumnFilters() }

func (p *PersistentStore) SetColumnFilters(u Update[FilterModel]) error {
	return persistAxis(p, axisColumnFilters, p.store.columnFilters.set(u))
}

func (p *PersistentStore) AfterSearchFilter() FilterModel { return p.store.AfterSearchFilter() }

func (p *PersistentStore) SetAfterSearchFilter(u Update[FilterModel]) error {
	return persistAxis(p, axisAfterSearchFilter, p.store.afterSearchFilter.set(u))
}

func (p *PersistentStore) Sorting() *Sorting { return p.store.Sorting() }

func (p *PersistentStore) SetSorting(u Update[*Sorting]) error {
	return persistAxis(p, axisSorting, p.store.sorting.set(u))
}

func (p *PersistentStore) Pagination() PaginationState { return p.store.Pagination() }

func (p *PersistentStore) SetPagination(u Update[PaginationState]) error {
	return persistAxis(p, axisPagination, p.store.pagination.set(u))
}

func (p *PersistentStore) RowSelection() RowSelectionState { return p.store.RowSelection() }

func (p *PersistentStore) SetRowSelection(u Update[RowSelectionState]) error {
	return persistAxis(p, axisRowSelection, p.store.rowSelection.set(u))
}

func (p *PersistentStore) Expanded() ExpandedState { return p.store.Expanded() }

func (p *PersistentStore) SetExpanded(u Update[ExpandedState]) error {
	return persistAxis(p, axisExpanded, p.store.expanded.set(u))
}

func (p *PersistentStore) ColumnPinning() ColumnPinningState { return p.store.ColumnPinning() }

func (p *PersistentStore) SetColumnPinning(u Update[ColumnPinningState]) error {
	return persistAxis(p, axisColumnPinning, p.store.columnPinning.set(u))
}

// nopStorage stands in for a missing storage once the failure was degraded.
type nopStorage struct{}

func (nopStorage) GetItem(string) ([]byte, bool, error) { return nil, false, nil }
func (nopStorage) SetItem(string, []byte) error         { return nil }
