package utils

import "time"

func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}

// MillisPtr converts an instant to epoch milliseconds, nil for the zero time.
func MillisPtr(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	return Ptr(t.UnixMilli())
}

// FromMillis is the inverse of MillisPtr.
func FromMillis(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return time.UnixMilli(*ms)
}
