// Package nullable provides JSON types for partial updates, where a field
// that is absent, explicitly null, or set must be told apart.
package nullable

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Field is a tri-state JSON value: omitted (Set false), null (Set and Null),
// or a value.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Of returns a set, non-null field.
func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(b, &f.Value)
}

// Valid reports whether the field carries a non-null value.
func (f Field[T]) Valid() bool { return f.Set && !f.Null }

// SQLValue is nil for null and the value otherwise.
func (f Field[T]) SQLValue() any {
	if f.Null {
		return nil
	}
	return f.Value
}

// Ptr is nil unless the field carries a value.
func (f Field[T]) Ptr() *T {
	if !f.Valid() {
		return nil
	}
	v := f.Value
	return &v
}

var dateLayouts = []string{"2006-01-02", time.RFC3339Nano, "2006-01-02T15:04:05"}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp. dateOnly reports
// which form was given.
func ParseDate(s string) (t time.Time, dateOnly bool, err error) {
	for i, layout := range dateLayouts {
		if t, err = time.Parse(layout, s); err == nil {
			return t, i == 0, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
}

// Date decodes YYYY-MM-DD or RFC 3339 and encodes as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date { return Date{Time: t} }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, _, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}

// Value lets pgx bind a Date as a timestamp parameter.
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}
