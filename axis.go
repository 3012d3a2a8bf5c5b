package datatables

// Controlled hands ownership of a state axis to the hosting application.
// Value returns the current value and OnChange receives every new one; the
// table never keeps a copy of a controlled axis. Both must be set.
type Controlled[T any] struct {
	Value    func() T
	OnChange func(T) error
}

// ControlledState lists the axes owned by the host. A nil entry leaves the
// axis to the table's own StateStore.
type ControlledState struct {
	ColumnFilters     *Controlled[FilterModel]
	AfterSearchFilter *Controlled[FilterModel]
	Sorting           *Controlled[*Sorting]
	Pagination        *Controlled[PaginationState]
	RowSelection      *Controlled[RowSelectionState]
	Expanded          *Controlled[ExpandedState]
	ColumnPinning     *Controlled[ColumnPinningState]
}

// Axis is the resolved owner of a single state axis: either the table's
// store (Owned) or the host (External). It is decided once, when the table
// is built, and never changes afterwards.
type Axis[T any] struct {
	external bool
	get      func() T
	set      func(Update[T]) error
	clone    func(T) T
	check    func(T) error
}

// Owned returns an axis backed by a store getter and setter.
func Owned[T any](get func() T, set func(Update[T]) error) Axis[T] {
	return Axis[T]{get: get, set: set}
}

// External returns an axis backed by a host-controlled value. Functional
// updates are resolved against clone(c.Value()) before OnChange is called,
// so the host's value is never modified in place. A nil clone passes values
// through as they are.
func External[T any](c Controlled[T], clone func(T) T) Axis[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return Axis[T]{
		external: true,
		get:      c.Value,
		clone:    clone,
		set: func(u Update[T]) error {
			return c.OnChange(u.Apply(clone(c.Value())))
		},
	}
}

// WithCheck returns a copy of the axis that rejects every new value check
// fails on. A rejected value never reaches the owner of the axis.
func (a Axis[T]) WithCheck(check func(T) error) Axis[T] {
	a.check = check
	return a
}

// Get returns the effective value of the axis.
func (a Axis[T]) Get() T {
	return a.get()
}

// Set applies u through the effective setter of the axis.
func (a Axis[T]) Set(u Update[T]) error {
	if a.check == nil {
		return a.set(u)
	}
	if a.external {
		next := u.Apply(a.clone(a.get()))
		if err := a.check(next); err != nil {
			return err
		}
		return a.set(Value(next))
	}
	var rejected error
	err := a.set(Func(func(prev T) T {
		next := u.Apply(prev)
		if rejected = a.check(next); rejected != nil {
			return prev
		}
		return next
	}))
	if rejected != nil {
		return rejected
	}
	return err
}

// IsExternal reports whether the host owns the axis.
func (a Axis[T]) IsExternal() bool {
	return a.external
}

func (c *Controlled[T]) complete() bool {
	return c.Value != nil && c.OnChange != nil
}

// checkAxis rejects a Controlled with only one of Value and OnChange.
func checkAxis[T any](name string, c *Controlled[T]) error {
	if c != nil && !c.complete() {
		return configError(name, ErrIncompleteControlledAxis)
	}
	return nil
}

// resolveAxis picks the owner of an axis: the host when c is set, the store
// otherwise. c must have passed checkAxis.
func resolveAxis[T any](c *Controlled[T], clone func(T) T, get func() T, set func(Update[T]) error) Axis[T] {
	if c == nil {
		return Owned(get, set)
	}
	return External(*c, clone)
}
