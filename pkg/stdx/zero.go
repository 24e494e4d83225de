package stdx

// Zero returns the zero value for a given type T.
func Zero[T any]() T {
	var zero T
	return zero
}
