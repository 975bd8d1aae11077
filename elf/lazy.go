package elf

// Lazy is a single slot memoizing cell.  The first successful Get caches the
// computed value; a failed computation is not cached and the next Get
// recomputes.
//
// Lazy is not safe for concurrent use.  All lazily realized elf structures
// share the file's reader cursor, so the whole file must be accessed from a
// single goroutine anyway.
type Lazy[T any] struct {
	compute func() (T, error)

	resolved bool
	value    T
}

func NewLazy[T any](compute func() (T, error)) *Lazy[T] {
	return &Lazy[T]{
		compute: compute,
	}
}

// Resolved returns a lazy cell which already holds value.
func Resolved[T any](value T) *Lazy[T] {
	return &Lazy[T]{
		resolved: true,
		value:    value,
	}
}

func (lazy *Lazy[T]) Get() (T, error) {
	if lazy.resolved {
		return lazy.value, nil
	}

	value, err := lazy.compute()
	if err != nil {
		var zero T
		return zero, err
	}

	lazy.value = value
	lazy.resolved = true
	lazy.compute = nil // release captured state
	return value, nil
}

func (lazy *Lazy[T]) IsResolved() bool {
	return lazy.resolved
}
