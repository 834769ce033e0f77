// Package utils provides small helpers shared across the console.
package utils

// ToPtr returns a pointer to v, for optional model and DTO fields.
func ToPtr[T any](v T) *T {
	return &v
}

// IsTrue reports whether a nullable flag is set and true.
func IsTrue(b *bool) bool {
	return b != nil && *b
}
