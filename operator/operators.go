package operator

import (
	"github.com/danmuck/tallbag"
)

// Mapping is Map in operator form.
func Mapping[T, R, M any](fn func(T) R) tallbag.Operator[T, R, M] {
	return func(src tallbag.Source[T, M]) tallbag.Source[R, M] {
		return Map(src, fn)
	}
}

// Tapping is Tap in operator form.
func Tapping[T, M any](fn func(T) (M, bool)) tallbag.Operator[T, T, M] {
	return func(src tallbag.Source[T, M]) tallbag.Source[T, M] {
		return Tap(src, fn)
	}
}

// Observing is PassThrough in operator form.
func Observing[T, M any](observe Observer) tallbag.Operator[T, T, M] {
	return func(src tallbag.Source[T, M]) tallbag.Source[T, M] {
		return PassThrough(src, observe)
	}
}
