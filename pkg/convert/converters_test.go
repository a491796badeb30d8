package convert

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/behave/pkg/table"
)

type Direction string

const (
	North Direction = "north"
	South Direction = "south"
)

type Symbol string

type Money struct {
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

func TestBuiltIns(t *testing.T) {
	converters := New(nil)

	tests := []struct {
		name     string
		value    string
		target   reflect.Type
		expected any
	}{
		{"string", "hello", reflect.TypeFor[string](), "hello"},
		{"named string", "STK1", reflect.TypeFor[Symbol](), Symbol("STK1")},
		{"bool", "true", reflect.TypeFor[bool](), true},
		{"int", " 42 ", reflect.TypeFor[int](), 42},
		{"int8", "-8", reflect.TypeFor[int8](), int8(-8)},
		{"uint16", "65535", reflect.TypeFor[uint16](), uint16(65535)},
		{"float64", "10.5", reflect.TypeFor[float64](), 10.5},
		{"float32", "1.25", reflect.TypeFor[float32](), float32(1.25)},
		{"duration", "1m30s", reflect.TypeFor[time.Duration](), 90 * time.Second},
		{"int slice", "1, 2,3", reflect.TypeFor[[]int](), []int{1, 2, 3}},
		{"empty slice", "", reflect.TypeFor[[]string](), []string{}},
		{"pointer", "7", reflect.TypeFor[*int](), func() *int { v := 7; return &v }()},
		{"interface", "raw", reflect.TypeFor[any](), "raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := converters.Convert(tt.value, tt.target)
			require.NoError(t, err)
			require.Equal(t, tt.expected, v)
		})
	}
}

func TestConversionErrors(t *testing.T) {
	converters := New(nil)

	t.Run("invalid number", func(t *testing.T) {
		_, err := converters.Convert("ten", reflect.TypeFor[int]())
		require.ErrorIs(t, err, ErrConversionFailed)

		var ce *ConversionError
		require.True(t, errors.As(err, &ce))
		require.Equal(t, "ten", ce.Value)
		require.Equal(t, reflect.TypeFor[int](), ce.Type)
		require.ErrorIs(t, err, strconv.ErrSyntax)
	})

	t.Run("overflow", func(t *testing.T) {
		_, err := converters.Convert("300", reflect.TypeFor[int8]())
		require.ErrorIs(t, err, strconv.ErrRange)
	})

	t.Run("no converter", func(t *testing.T) {
		_, err := converters.Convert("x", reflect.TypeFor[chan int]())
		require.ErrorIs(t, err, ErrConversionFailed)
	})

	t.Run("slice element", func(t *testing.T) {
		_, err := converters.Convert("1,x", reflect.TypeFor[[]int]())
		require.ErrorIs(t, err, ErrConversionFailed)
	})
}

func TestDateConverter(t *testing.T) {
	c := DateConverter{Layout: "yyyy-MM-dd"}

	t.Run("parses a date", func(t *testing.T) {
		v, err := c.Convert("2024-01-15", reflect.TypeFor[time.Time]())
		require.NoError(t, err)
		require.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), v)
	})

	t.Run("none is nil", func(t *testing.T) {
		v, err := c.Convert("none", reflect.TypeFor[*time.Time]())
		require.NoError(t, err)
		require.Nil(t, v)

		v, err = c.Convert("  ", reflect.TypeFor[time.Time]())
		require.NoError(t, err)
		require.True(t, v.(time.Time).IsZero())
	})

	t.Run("rejects an invalid date", func(t *testing.T) {
		converters := New(nil).Add(c)
		_, err := converters.Convert("2024-13-40", reflect.TypeFor[time.Time]())
		require.ErrorIs(t, err, ErrConversionFailed)
	})

	t.Run("translates patterns", func(t *testing.T) {
		require.Equal(t, "02/01/2006", GoLayout("dd/MM/yyyy"))
		require.Equal(t, "2006-01-02T15:04:05.000", GoLayout("yyyy-MM-dd'T'HH:mm:ss.SSS"))
		require.Equal(t, "Jan 2, 2006 3:04 PM", GoLayout("MMM d, yyyy h:mm a"))
	})
}

func TestCustomConverters(t *testing.T) {
	t.Run("enum", func(t *testing.T) {
		converters := New(nil).Add(NewEnumConverter(map[string]Direction{"NORTH": North, "SOUTH": South}))

		v, err := converters.Convert("north", reflect.TypeFor[Direction]())
		require.NoError(t, err)
		require.Equal(t, North, v)

		_, err = converters.Convert("west", reflect.TypeFor[Direction]())
		require.ErrorIs(t, err, ErrUnknownEnumValue)
		require.Contains(t, err.Error(), "NORTH, SOUTH")
	})

	t.Run("function", func(t *testing.T) {
		converters := New(nil).Add(FunctionConverter(func(s string) (Symbol, error) {
			return Symbol(strings.ToUpper(s)), nil
		}))

		v, err := converters.Convert("stk1", reflect.TypeFor[Symbol]())
		require.NoError(t, err)
		require.Equal(t, Symbol("STK1"), v)
	})

	t.Run("function by reflection", func(t *testing.T) {
		c, err := FunctionConverterOf(func(s string) (Money, error) {
			n, err := strconv.Atoi(s)
			return Money{Amount: n, Currency: "EUR"}, err
		})
		require.NoError(t, err)

		v, err := New(nil).Add(c).Convert("5", reflect.TypeFor[Money]())
		require.NoError(t, err)
		require.Equal(t, Money{Amount: 5, Currency: "EUR"}, v)

		_, err = FunctionConverterOf(func(int) error { return nil })
		require.Error(t, err)
	})

	t.Run("later additions win", func(t *testing.T) {
		first := FunctionConverter(func(string) (Symbol, error) { return "first", nil })
		second := FunctionConverter(func(string) (Symbol, error) { return "second", nil })

		v, err := New(nil).Add(first).Add(second).Convert("x", reflect.TypeFor[Symbol]())
		require.NoError(t, err)
		require.Equal(t, Symbol("second"), v)
	})

	t.Run("json", func(t *testing.T) {
		converters := New(nil).Add(JSON[Money]())

		v, err := converters.Convert(`{"amount": 3, "currency": "USD"}`, reflect.TypeFor[Money]())
		require.NoError(t, err)
		require.Equal(t, Money{Amount: 3, Currency: "USD"}, v)

		_, err = converters.Convert(`{"amount": "x"}`, reflect.TypeFor[Money]())
		require.ErrorIs(t, err, ErrConversionFailed)
	})
}

func TestClone(t *testing.T) {
	first := FunctionConverter(func(string) (Symbol, error) { return "first", nil })
	second := FunctionConverter(func(s string) (Symbol, error) { return Symbol("second " + s), nil })
	original := New(nil).Add(first)

	clone := original.Clone().Add(second)

	v, err := original.Convert("x", reflect.TypeFor[Symbol]())
	require.NoError(t, err)
	require.Equal(t, Symbol("first"), v)

	v, err = clone.Convert("x", reflect.TypeFor[Symbol]())
	require.NoError(t, err)
	require.Equal(t, Symbol("second x"), v)

	t.Run("slices convert with the clone", func(t *testing.T) {
		v, err := clone.Convert("a,b", reflect.TypeFor[[]Symbol]())
		require.NoError(t, err)
		require.Equal(t, []Symbol{"second a", "second b"}, v)

		v, err = original.Convert("a,b", reflect.TypeFor[[]Symbol]())
		require.NoError(t, err)
		require.Equal(t, []Symbol{"first", "first"}, v)
	})
}

func TestTableParameters(t *testing.T) {
	converters := New(table.NewFactory(table.WithSeparators("!", "!")))

	t.Run("examples table", func(t *testing.T) {
		v, err := converters.Convert("!name!age!\n!Larry!30!", reflect.TypeFor[*table.ExamplesTable]())
		require.NoError(t, err)

		examples := v.(*table.ExamplesTable)
		require.Equal(t, []string{"name", "age"}, examples.Headers())

		age, err := table.As[int](examples.RowAsParameters(0), "age")
		require.NoError(t, err)
		require.Equal(t, 30, age)
	})

	t.Run("rows as parameters", func(t *testing.T) {
		v, err := converters.Convert("!name!\n!Larry!\n!Moe!", reflect.TypeFor[[]table.Parameters]())
		require.NoError(t, err)
		require.Len(t, v, 2)
	})

	t.Run("malformed table", func(t *testing.T) {
		_, err := converters.Convert("!name!\n!Larry", reflect.TypeFor[*table.ExamplesTable]())
		require.ErrorIs(t, err, ErrConversionFailed)
		require.ErrorIs(t, err, table.ErrMalformedTable)
	})

	t.Run("custom slice delimiter", func(t *testing.T) {
		v, err := New(nil).WithSliceDelimiter(";").Convert("a;b", reflect.TypeFor[[]string]())
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, v)
	})
}
