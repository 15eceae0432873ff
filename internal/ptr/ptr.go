// Package ptr provides pointer helpers for optional fields such as merge patches.
package ptr

// To returns a pointer to the given value.
func To[T any](v T) *T {
	return &v
}
