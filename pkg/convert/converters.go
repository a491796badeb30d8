// Package convert turns captured step text into typed step arguments.
package convert

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/denizgursoy/behave/pkg/table"
)

// ErrConversionFailed matches every ConversionError.
var ErrConversionFailed = errors.New("parameter conversion failed")

// ConversionError reports a value that no converter could turn into Type.
type ConversionError struct {
	Value string
	Type  reflect.Type
	Cause error
}

func (e *ConversionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("cannot convert %q to %s: no converter accepts the type", e.Value, e.Type)
	}
	return fmt.Sprintf("cannot convert %q to %s: %v", e.Value, e.Type, e.Cause)
}

func (e *ConversionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrConversionFailed}
	}
	return []error{ErrConversionFailed, e.Cause}
}

// Converter converts text into values of the types it accepts.
type Converter interface {
	Accept(t reflect.Type) bool
	Convert(value string, t reflect.Type) (any, error)
}

// ParameterConverters tries its converters in order; the first one that
// accepts the target type performs the conversion.
type ParameterConverters struct {
	mu       sync.RWMutex
	user     []Converter
	defaults []Converter
	tables   *table.Factory
}

// New returns converters holding the built-in ones. Tables are created with
// factory, or with a default factory when nil.
func New(factory *table.Factory) *ParameterConverters {
	if factory == nil {
		factory = table.NewFactory()
	}
	p := &ParameterConverters{}
	p.tables = factory.WithOptions(table.WithConverter(p))
	p.defaults = []Converter{
		stringConverter{},
		boolConverter{},
		durationConverter{},
		numberConverter{},
		DateConverter{Layout: DefaultDateLayout},
		tableConverter{parent: p},
		&sliceConverter{parent: p, delimiter: ","},
	}
	return p
}

// Add puts converters in front of the existing ones. A converter added later
// wins over one added earlier for the same type.
func (p *ParameterConverters) Add(converters ...Converter) *ParameterConverters {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.user = append(append([]Converter(nil), converters...), p.user...)
	return p
}

// Clone returns converters holding the same converters. Adding to the
// clone leaves p unchanged.
func (p *ParameterConverters) Clone() *ParameterConverters {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c := &ParameterConverters{user: slices.Clone(p.user)}
	c.tables = p.tables.WithOptions(table.WithConverter(c))
	c.defaults = make([]Converter, len(p.defaults))
	for i, d := range p.defaults {
		switch d := d.(type) {
		case tableConverter:
			d.parent = c
			c.defaults[i] = d
		case *sliceConverter:
			s := *d
			s.parent = c
			c.defaults[i] = &s
		default:
			c.defaults[i] = d
		}
	}
	return c
}

// Tables returns the factory used for table parameters.
func (p *ParameterConverters) Tables() *table.Factory {
	return p.tables
}

// Convert converts value into t. A pointer type no converter accepts is
// converted through its element type.
func (p *ParameterConverters) Convert(value string, t reflect.Type) (any, error) {
	if c := p.find(t); c != nil {
		v, err := c.Convert(value, t)
		if err != nil {
			var ce *ConversionError
			if errors.As(err, &ce) {
				return nil, err
			}
			return nil, &ConversionError{Value: value, Type: t, Cause: err}
		}
		return v, nil
	}

	switch {
	case t.Kind() == reflect.Pointer:
		v, err := p.Convert(value, t.Elem())
		if err != nil {
			return nil, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(reflect.ValueOf(v))
		return ptr.Interface(), nil
	case t.Kind() == reflect.Interface && reflect.TypeFor[string]().Implements(t):
		return value, nil
	}
	return nil, &ConversionError{Value: value, Type: t}
}

func (p *ParameterConverters) find(t reflect.Type) Converter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.user {
		if c.Accept(t) {
			return c
		}
	}
	for _, c := range p.defaults {
		if c.Accept(t) {
			return c
		}
	}
	return nil
}

// WithSliceDelimiter changes the delimiter used for slice parameters.
func (p *ParameterConverters) WithSliceDelimiter(delimiter string) *ParameterConverters {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.defaults {
		if s, ok := c.(*sliceConverter); ok {
			s.delimiter = delimiter
		}
	}
	return p
}
