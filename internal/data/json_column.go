package data

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONColumn stores V in a JSONB column. A JSON null is written as SQL NULL, and NULL scans into the zero value.
type JSONColumn[T any] struct {
	V T
}

func NewJSONColumn[T any](v T) JSONColumn[T] {
	return JSONColumn[T]{V: v}
}

// Value implements the driver.Valuer interface.
func (c JSONColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.V)
	if err != nil {
		return nil, fmt.Errorf("marshalling JSON column: %w", err)
	}
	if bytes.Equal(b, []byte("null")) {
		return nil, nil
	}
	return b, nil
}

// Scan implements the sql.Scanner interface.
func (c *JSONColumn[T]) Scan(src interface{}) error {
	var zero T
	c.V = zero

	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for JSON column", src)
	}

	if err := json.Unmarshal(b, &c.V); err != nil {
		return fmt.Errorf("unmarshalling JSON column: %w", err)
	}
	return nil
}
