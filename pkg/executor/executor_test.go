package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/behave/pkg/behave"
)

type ctxKey struct{}

type Money float64

func TestNewFunction(t *testing.T) {
	t.Run("accepts valid functions", func(t *testing.T) {
		valid := []any{
			func() {},
			func(ctx context.Context, count int) (context.Context, error) { return ctx, nil },
			func(c *behave.Context, s behave.Scenario, name string) error { return nil },
			func(count int) context.Context { return nil },
		}
		for _, fn := range valid {
			_, err := NewFunction(fn)
			require.NoError(t, err)
		}
	})

	t.Run("lists parameters that take arguments", func(t *testing.T) {
		f, err := NewFunction(func(ctx context.Context, count int, c *behave.Context, name string, step behave.Step) {})
		require.NoError(t, err)
		require.Len(t, f.Parameters(), 2)
		require.Equal(t, "int", f.Parameters()[0].String())
		require.Equal(t, "string", f.Parameters()[1].String())
		require.Contains(t, f.Name(), "executor.TestNewFunction")
	})

	t.Run("returns error for non-function handler", func(t *testing.T) {
		_, err := NewFunction("not a function")
		require.ErrorIs(t, err, ErrNotAFunction)

		_, err = NewFunction(nil)
		require.ErrorIs(t, err, ErrNotAFunction)

		var fn func()
		_, err = NewFunction(fn)
		require.ErrorIs(t, err, ErrNotAFunction)
	})

	t.Run("returns error for invalid signature", func(t *testing.T) {
		invalid := []any{
			func() int { return 0 },
			func() (error, error) { return nil, nil },
			func(values ...string) {},
		}
		for _, fn := range invalid {
			_, err := NewFunction(fn)
			require.ErrorIs(t, err, ErrInvalidSignature)
		}
	})
}

func TestFunction_Call(t *testing.T) {
	t.Run("passes arguments in order", func(t *testing.T) {
		var capturedCount int
		var capturedItem string
		f, err := NewFunction(func(ctx context.Context, count int, item string) {
			capturedCount = count
			capturedItem = item
		})
		require.NoError(t, err)

		_, err = f.Call(context.Background(), []any{3, "oranges"})
		require.NoError(t, err)
		require.Equal(t, 3, capturedCount)
		require.Equal(t, "oranges", capturedItem)
	})

	t.Run("converts named types of the same kind", func(t *testing.T) {
		var captured Money
		f, err := NewFunction(func(m Money) { captured = m })
		require.NoError(t, err)

		_, err = f.Call(nil, []any{19.99})
		require.NoError(t, err)
		require.Equal(t, Money(19.99), captured)
	})

	t.Run("nil argument becomes zero value", func(t *testing.T) {
		var captured *int
		called := false
		f, err := NewFunction(func(v *int) { captured, called = v, true })
		require.NoError(t, err)

		_, err = f.Call(nil, []any{nil})
		require.NoError(t, err)
		require.True(t, called)
		require.Nil(t, captured)
	})

	t.Run("rejects wrong argument count and types", func(t *testing.T) {
		f, err := NewFunction(func(count int) {})
		require.NoError(t, err)

		_, err = f.Call(nil, nil)
		require.ErrorIs(t, err, ErrArgumentCount)

		_, err = f.Call(nil, []any{"three"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "cannot use string as int")
	})

	t.Run("returns context and error", func(t *testing.T) {
		boom := errors.New("boom")
		f, err := NewFunction(func(ctx context.Context) (context.Context, error) {
			return context.WithValue(ctx, ctxKey{}, "value"), boom
		})
		require.NoError(t, err)

		ctx, err := f.Call(context.Background(), nil)
		require.ErrorIs(t, err, boom)
		require.Equal(t, "value", ctx.Value(ctxKey{}))
	})

	t.Run("keeps context when none is returned", func(t *testing.T) {
		f, err := NewFunction(func() error { return nil })
		require.NoError(t, err)

		parent := context.WithValue(context.Background(), ctxKey{}, "parent")
		ctx, err := f.Call(parent, nil)
		require.NoError(t, err)
		require.Equal(t, "parent", ctx.Value(ctxKey{}))
	})

	t.Run("injects behave context and metadata", func(t *testing.T) {
		bc := behave.New()
		bc.StartStory(behave.Story{Path: "a.story"})
		bc.StartScenario(behave.Scenario{Title: "title"})
		bc.SetStep(behave.Step{Text: "Given a step"})

		var got []string
		f, err := NewFunction(func(c *behave.Context, story behave.Story, s behave.Scenario, step behave.Step) {
			got = append(got, c.Story().Path, story.Path, s.Title, step.Text)
		})
		require.NoError(t, err)

		_, err = f.Call(behave.NewContext(context.Background(), bc), nil)
		require.NoError(t, err)
		require.Equal(t, []string{"a.story", "a.story", "title", "Given a step"}, got)
	})

	t.Run("creates behave context when missing", func(t *testing.T) {
		f, err := NewFunction(func(c *behave.Context) {
			c.Data().Set("k", "v")
		})
		require.NoError(t, err)

		_, err = f.Call(context.Background(), nil)
		require.NoError(t, err)
	})

	t.Run("recovers panics", func(t *testing.T) {
		f, err := NewFunction(func() { panic("exploded") })
		require.NoError(t, err)

		_, err = f.Call(nil, nil)
		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
		require.Equal(t, "panic: exploded", err.Error())
		require.NotEmpty(t, panicErr.Stack)
	})

	t.Run("recovers assertion failures", func(t *testing.T) {
		f, err := NewFunction(func(c *behave.Context) {
			c.Assert().Equal(1, 2)
		})
		require.NoError(t, err)

		_, err = f.Call(nil, nil)
		var assertion *behave.AssertionError
		require.ErrorAs(t, err, &assertion)
		require.Contains(t, err.Error(), "not equal")
	})
}
