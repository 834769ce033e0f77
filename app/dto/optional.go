package dto

import "encoding/json"

// Optional distinguishes a field that was absent from the payload from one
// explicitly set to null. Absent fields are left untouched by partial
// updates; null clears the column.
type Optional[T any] struct {
	Present bool
	Value   *T
}

// NewOptional builds a present Optional holding a value
func NewOptional[T any](value T) Optional[T] {
	return Optional[T]{Present: true, Value: &value}
}

// NullOptional builds a present Optional holding null
func NullOptional[T any]() Optional[T] {
	return Optional[T]{Present: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	o.Value = &value
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// IsZero lets omitzero skip absent fields on marshal
func (o Optional[T]) IsZero() bool {
	return !o.Present
}

type (
	OptionalString = Optional[string]
	OptionalBool   = Optional[bool]
	OptionalUint   = Optional[uint]
)
