package table

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNoConverter is returned by ValueAs for non-string targets when the
// table was built without a converter.
var ErrNoConverter = errors.New("no value converter configured")

// Parameters gives typed access to one row.
type Parameters struct {
	values    map[string]string
	headers   []string
	converter ValueConverter
}

// Has reports whether the row has the column.
func (p Parameters) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Value returns the raw value of a column.
func (p Parameters) Value(name string) (string, error) {
	v, ok := p.values[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return v, nil
}

// ValueOrDefault returns the raw value of a column or def if it is absent.
func (p Parameters) ValueOrDefault(name, def string) string {
	if v, ok := p.values[name]; ok {
		return v
	}
	return def
}

// ValueAs converts the value of a column to target.
func (p Parameters) ValueAs(name string, target reflect.Type) (any, error) {
	v, err := p.Value(name)
	if err != nil {
		return nil, err
	}
	if target.Kind() == reflect.String && p.converter == nil {
		return reflect.ValueOf(v).Convert(target).Interface(), nil
	}
	if p.converter == nil {
		return nil, fmt.Errorf("%w: column %s as %s", ErrNoConverter, name, target)
	}
	return p.converter.Convert(v, target)
}

// Values returns a copy of the row.
func (p Parameters) Values() map[string]string {
	copied := make(map[string]string, len(p.values))
	for k, v := range p.values {
		copied[k] = v
	}
	return copied
}

// As converts the value of a column to T.
func As[T any](p Parameters, name string) (T, error) {
	var zero T
	v, err := p.ValueAs(name, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("column %s converted to %T, not %T", name, v, zero)
	}
	return typed, nil
}
