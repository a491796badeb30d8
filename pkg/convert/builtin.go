package convert

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/denizgursoy/behave/pkg/table"
)

var (
	durationType   = reflect.TypeFor[time.Duration]()
	tablePtrType   = reflect.TypeFor[*table.ExamplesTable]()
	parametersType = reflect.TypeFor[[]table.Parameters]()
)

type stringConverter struct{}

func (stringConverter) Accept(t reflect.Type) bool {
	return t.Kind() == reflect.String
}

func (stringConverter) Convert(value string, t reflect.Type) (any, error) {
	return reflect.ValueOf(value).Convert(t).Interface(), nil
}

type boolConverter struct{}

func (boolConverter) Accept(t reflect.Type) bool {
	return t.Kind() == reflect.Bool
}

func (boolConverter) Convert(value string, t reflect.Type) (any, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(b).Convert(t).Interface(), nil
}

type durationConverter struct{}

func (durationConverter) Accept(t reflect.Type) bool {
	return t == durationType
}

func (durationConverter) Convert(value string, _ reflect.Type) (any, error) {
	return time.ParseDuration(strings.TrimSpace(value))
}

// numberConverter handles every integer and float kind, sized to the target.
type numberConverter struct{}

func (numberConverter) Accept(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func (numberConverter) Convert(value string, t reflect.Type) (any, error) {
	value = strings.TrimSpace(value)
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		v.SetUint(n)
	default:
		f, err := strconv.ParseFloat(value, t.Bits())
		if err != nil {
			return nil, err
		}
		v.SetFloat(f)
	}
	return v.Interface(), nil
}

// tableConverter parses table text into *table.ExamplesTable or into the
// rows as []table.Parameters.
type tableConverter struct {
	parent *ParameterConverters
}

func (tableConverter) Accept(t reflect.Type) bool {
	return t == tablePtrType || t == parametersType
}

func (c tableConverter) Convert(value string, t reflect.Type) (any, error) {
	examples, err := c.parent.tables.Create(value)
	if err != nil {
		return nil, err
	}
	if t == parametersType {
		return examples.RowsAsParameters(), nil
	}
	return examples, nil
}

// sliceConverter splits on a delimiter and converts every element.
type sliceConverter struct {
	parent    *ParameterConverters
	delimiter string
}

func (c *sliceConverter) Accept(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8
}

func (c *sliceConverter) Convert(value string, t reflect.Type) (any, error) {
	out := reflect.MakeSlice(t, 0, 0)
	if strings.TrimSpace(value) == "" {
		return out.Interface(), nil
	}
	for _, part := range strings.Split(value, c.delimiter) {
		elem, err := c.parent.Convert(strings.TrimSpace(part), t.Elem())
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", part, err)
		}
		out = reflect.Append(out, reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}
