package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// ErrUnknownEnumValue is returned when a value names no enum constant.
var ErrUnknownEnumValue = errors.New("unknown enum value")

// EnumConverter maps constant names to values of one type. Names match
// case-insensitively, and spaces or dashes match underscores.
type EnumConverter struct {
	typ    reflect.Type
	values map[string]any
	names  []string
}

// NewEnumConverter returns a converter for T over the given names.
func NewEnumConverter[T any](values map[string]T) *EnumConverter {
	c := &EnumConverter{typ: reflect.TypeFor[T](), values: map[string]any{}}
	for name, v := range values {
		c.values[normalizeEnumName(name)] = v
		c.names = append(c.names, name)
	}
	slices.Sort(c.names)
	return c
}

func (c *EnumConverter) Accept(t reflect.Type) bool {
	return t == c.typ
}

func (c *EnumConverter) Convert(value string, _ reflect.Type) (any, error) {
	v, ok := c.values[normalizeEnumName(value)]
	if !ok {
		return nil, fmt.Errorf("%w %q, expected one of %s", ErrUnknownEnumValue, value, strings.Join(c.names, ", "))
	}
	return v, nil
}

func normalizeEnumName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

type functionConverter struct {
	typ reflect.Type
	fn  func(string) (any, error)
}

// FunctionConverter adapts a parse function for T.
func FunctionConverter[T any](fn func(string) (T, error)) Converter {
	return functionConverter{
		typ: reflect.TypeFor[T](),
		fn: func(s string) (any, error) {
			return fn(s)
		},
	}
}

// FunctionConverterOf adapts a function value of the form
// func(string) (T, error), typically registered through reflection.
func FunctionConverterOf(fn any) (Converter, error) {
	v := reflect.ValueOf(fn)
	t := v.Type()
	errorType := reflect.TypeFor[error]()
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.In(0).Kind() != reflect.String ||
		t.NumOut() != 2 || !t.Out(1).Implements(errorType) {
		return nil, fmt.Errorf("converter must be func(string) (T, error), got %s", t)
	}
	return functionConverter{
		typ: t.Out(0),
		fn: func(s string) (any, error) {
			out := v.Call([]reflect.Value{reflect.ValueOf(s).Convert(t.In(0))})
			if err, _ := out[1].Interface().(error); err != nil {
				return nil, err
			}
			return out[0].Interface(), nil
		},
	}, nil
}

func (c functionConverter) Accept(t reflect.Type) bool {
	return t == c.typ
}

func (c functionConverter) Convert(value string, _ reflect.Type) (any, error) {
	return c.fn(value)
}

// JSONConverter decodes JSON text into the registered types.
type JSONConverter struct {
	types []reflect.Type
}

// NewJSONConverter returns a converter for the given types.
func NewJSONConverter(types ...reflect.Type) *JSONConverter {
	return &JSONConverter{types: types}
}

// JSON returns a converter decoding JSON text into T.
func JSON[T any]() *JSONConverter {
	return NewJSONConverter(reflect.TypeFor[T]())
}

func (c *JSONConverter) Accept(t reflect.Type) bool {
	return slices.Contains(c.types, t)
}

func (c *JSONConverter) Convert(value string, t reflect.Type) (any, error) {
	ptr := reflect.New(t)
	if err := json.Unmarshal([]byte(value), ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
