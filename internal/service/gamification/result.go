package gamification

// Result is the outcome of an accessor call. Err is set when the call failed; Value then holds
// the neutral default so callers that only render can use it directly.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps an error with a fallback value.
func Fail[T any](fallback T, err error) Result[T] {
	return Result[T]{Value: fallback, Err: err}
}
