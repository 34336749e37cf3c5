// Package ptr has helpers for the optional fields of option structs, where
// nil means "not given".
package ptr

// Of returns a pointer to a copy of v.
func Of[T any](v T) *T {
	return &v
}

// Clone returns a pointer to a copy of *x, or nil.
func Clone[T any](x *T) *T {
	if x == nil {
		return nil
	}

	v := *x
	return &v
}

// CloneOr clones x, or fallback when x is nil.
func CloneOr[T any](x *T, fallback *T) *T {
	if x == nil {
		return Clone(fallback)
	}

	return Clone(x)
}

// Deref returns *x, or def when x is nil.
func Deref[T any](x *T, def T) T {
	if x == nil {
		return def
	}

	return *x
}
