package behave

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// AssertionError is the panic value of a failed assertion. The runner
// recovers it and fails the step with its message.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string {
	return e.Message
}

func fail(format string, args ...any) {
	panic(&AssertionError{Message: fmt.Sprintf(format, args...)})
}

// Assert provides assertion methods for step functions.
// A failed assertion stops the step immediately.
type Assert struct{}

// Equal asserts expected == actual using reflect.DeepEqual.
func (a *Assert) Equal(expected, actual any, msgAndArgs ...any) {
	if !reflect.DeepEqual(expected, actual) {
		a.failf(msgAndArgs, "not equal:\n\texpected: %v\n\tactual:   %v", expected, actual)
	}
}

// NotEqual asserts expected != actual.
func (a *Assert) NotEqual(expected, actual any, msgAndArgs ...any) {
	if reflect.DeepEqual(expected, actual) {
		a.failf(msgAndArgs, "expected values to differ, both are: %v", expected)
	}
}

// Nil asserts value is nil, typed nil pointers included.
func (a *Assert) Nil(value any, msgAndArgs ...any) {
	if !isNil(value) {
		a.failf(msgAndArgs, "expected nil, got: %v", value)
	}
}

func (a *Assert) NotNil(value any, msgAndArgs ...any) {
	if isNil(value) {
		a.failf(msgAndArgs, "expected a value, got nil")
	}
}

func (a *Assert) True(condition bool, msgAndArgs ...any) {
	if !condition {
		a.failf(msgAndArgs, "expected true")
	}
}

func (a *Assert) False(condition bool, msgAndArgs ...any) {
	if condition {
		a.failf(msgAndArgs, "expected false")
	}
}

func (a *Assert) NoError(err error, msgAndArgs ...any) {
	if err != nil {
		a.failf(msgAndArgs, "unexpected error: %v", err)
	}
}

func (a *Assert) Error(err error, msgAndArgs ...any) {
	if err == nil {
		a.failf(msgAndArgs, "expected an error")
	}
}

// ErrorIs asserts that err matches target using errors.Is.
func (a *Assert) ErrorIs(err, target error, msgAndArgs ...any) {
	if !errors.Is(err, target) {
		a.failf(msgAndArgs, "expected error %v, got: %v", target, err)
	}
}

func (a *Assert) ErrorContains(err error, substr string, msgAndArgs ...any) {
	if err == nil || !strings.Contains(err.Error(), substr) {
		a.failf(msgAndArgs, "expected error containing %q, got: %v", substr, err)
	}
}

// Contains asserts that a string holds a substring, a slice or array holds
// an element, or a map holds a key.
func (a *Assert) Contains(collection, element any, msgAndArgs ...any) {
	ok, found := contains(collection, element)
	if !ok {
		a.failf(msgAndArgs, "cannot check containment on %T", collection)
	} else if !found {
		a.failf(msgAndArgs, "%v does not contain %v", collection, element)
	}
}

func (a *Assert) NotContains(collection, element any, msgAndArgs ...any) {
	ok, found := contains(collection, element)
	if !ok {
		a.failf(msgAndArgs, "cannot check containment on %T", collection)
	} else if found {
		a.failf(msgAndArgs, "%v should not contain %v", collection, element)
	}
}

// Len asserts collection has the expected length.
func (a *Assert) Len(collection any, length int, msgAndArgs ...any) {
	l, ok := lengthOf(collection)
	if !ok {
		a.failf(msgAndArgs, "cannot get length of %T", collection)
	} else if l != length {
		a.failf(msgAndArgs, "expected length %d, got %d", length, l)
	}
}

func (a *Assert) Empty(collection any, msgAndArgs ...any) {
	a.Len(collection, 0, msgAndArgs...)
}

func (a *Assert) NotEmpty(collection any, msgAndArgs ...any) {
	l, ok := lengthOf(collection)
	if !ok || l == 0 {
		a.failf(msgAndArgs, "expected a non-empty collection, got %v", collection)
	}
}

// Greater asserts e1 > e2 for numbers and strings of the same kind.
func (a *Assert) Greater(e1, e2 any, msgAndArgs ...any) {
	a.compare(e1, e2, msgAndArgs, ">", func(c int) bool { return c > 0 })
}

func (a *Assert) GreaterOrEqual(e1, e2 any, msgAndArgs ...any) {
	a.compare(e1, e2, msgAndArgs, ">=", func(c int) bool { return c >= 0 })
}

func (a *Assert) Less(e1, e2 any, msgAndArgs ...any) {
	a.compare(e1, e2, msgAndArgs, "<", func(c int) bool { return c < 0 })
}

func (a *Assert) LessOrEqual(e1, e2 any, msgAndArgs ...any) {
	a.compare(e1, e2, msgAndArgs, "<=", func(c int) bool { return c <= 0 })
}

// Zero asserts that value is the zero value of its type.
func (a *Assert) Zero(value any, msgAndArgs ...any) {
	if value != nil && !reflect.ValueOf(value).IsZero() {
		a.failf(msgAndArgs, "expected zero value, got: %v", value)
	}
}

// Fail fails the step with the given message.
func (a *Assert) Fail(msgAndArgs ...any) {
	a.failf(msgAndArgs, "step failed")
}

func (a *Assert) compare(e1, e2 any, msgAndArgs []any, op string, holds func(int) bool) {
	c, ok := compareValues(e1, e2)
	if !ok {
		a.failf(msgAndArgs, "cannot compare %T with %T", e1, e2)
	} else if !holds(c) {
		a.failf(msgAndArgs, "expected %v %s %v", e1, op, e2)
	}
}

func (a *Assert) failf(msgAndArgs []any, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if extra := formatMsgAndArgs(msgAndArgs); extra != "" {
		msg += ": " + extra
	}
	panic(&AssertionError{Message: msg})
}

func formatMsgAndArgs(msgAndArgs []any) string {
	switch {
	case len(msgAndArgs) == 0:
		return ""
	case len(msgAndArgs) == 1:
		return fmt.Sprint(msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func lengthOf(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Chan, reflect.Map, reflect.Slice, reflect.String:
		return rv.Len(), true
	}
	return 0, false
}

func contains(collection, element any) (ok, found bool) {
	cv := reflect.ValueOf(collection)
	switch cv.Kind() {
	case reflect.String:
		s, isString := element.(string)
		return isString, isString && strings.Contains(cv.String(), s)
	case reflect.Slice, reflect.Array:
		for i := range cv.Len() {
			if reflect.DeepEqual(cv.Index(i).Interface(), element) {
				return true, true
			}
		}
		return true, false
	case reflect.Map:
		for _, key := range cv.MapKeys() {
			if reflect.DeepEqual(key.Interface(), element) {
				return true, true
			}
		}
		return true, false
	}
	return false, false
}

func compareValues(e1, e2 any) (int, bool) {
	v1, v2 := reflect.ValueOf(e1), reflect.ValueOf(e2)
	if !v1.IsValid() || !v2.IsValid() || v1.Kind() != v2.Kind() {
		return 0, false
	}
	switch v1.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(v1.Int(), v2.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cmp.Compare(v1.Uint(), v2.Uint()), true
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(v1.Float(), v2.Float()), true
	case reflect.String:
		return cmp.Compare(v1.String(), v2.String()), true
	}
	return 0, false
}
