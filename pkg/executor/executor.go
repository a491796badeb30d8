// Package executor invokes step and hook functions by reflection.
package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/denizgursoy/behave/pkg/behave"
)

var (
	ErrNotAFunction     = errors.New("step handler must be a function")
	ErrInvalidSignature = errors.New("invalid step function signature")
	ErrArgumentCount    = errors.New("argument count mismatch")
)

var (
	contextType        = reflect.TypeFor[context.Context]()
	errorType          = reflect.TypeFor[error]()
	behaveContextType  = reflect.TypeFor[*behave.Context]()
	behaveStoryType    = reflect.TypeFor[behave.Story]()
	behaveScenarioType = reflect.TypeFor[behave.Scenario]()
	behaveStepType     = reflect.TypeFor[behave.Step]()
)

// PanicError is returned when a function panics. A failed assertion keeps
// its *behave.AssertionError reachable through errors.As.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(*behave.AssertionError); ok {
		return err.Message
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Function is a validated step or hook function.
//
// Parameters of type context.Context, *behave.Context, behave.Story,
// behave.Scenario and behave.Step are injected from the context of the call.
// Every other parameter takes the next argument. Results may be any of
// context.Context and error, at most one of each.
type Function struct {
	value  reflect.Value
	params []reflect.Type
	name   string
}

// NewFunction validates fn.
func NewFunction(fn any) (*Function, error) {
	value := reflect.ValueOf(fn)
	if fn == nil || value.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w, got %T", ErrNotAFunction, fn)
	}
	if value.IsNil() {
		return nil, fmt.Errorf("%w, got nil %T", ErrNotAFunction, fn)
	}

	fnType := value.Type()
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic functions are not supported", ErrInvalidSignature)
	}

	seen := make(map[reflect.Type]bool)
	for i := 0; i < fnType.NumOut(); i++ {
		out := fnType.Out(i)
		if out != contextType && out != errorType {
			return nil, fmt.Errorf("%w: result %d is %s, only context.Context and error are allowed", ErrInvalidSignature, i, out)
		}
		if seen[out] {
			return nil, fmt.Errorf("%w: more than one %s result", ErrInvalidSignature, out)
		}
		seen[out] = true
	}

	f := &Function{value: value, name: functionName(value)}
	for i := 0; i < fnType.NumIn(); i++ {
		if in := fnType.In(i); !injected(in) {
			f.params = append(f.params, in)
		}
	}
	return f, nil
}

func functionName(value reflect.Value) string {
	fn := runtime.FuncForPC(value.Pointer())
	if fn == nil {
		return value.Type().String()
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func injected(t reflect.Type) bool {
	switch t {
	case contextType, behaveContextType, behaveStoryType, behaveScenarioType, behaveStepType:
		return true
	}
	return false
}

// Name returns the package qualified function name.
func (f *Function) Name() string {
	return f.name
}

// Parameters returns the types of the parameters that take arguments.
func (f *Function) Parameters() []reflect.Type {
	return f.params
}

// Call invokes the function. A panic is recovered into a *PanicError. The
// returned context is the one the function returned, or ctx when it
// returned none.
func (f *Function) Call(ctx context.Context, args []any) (newCtx context.Context, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	callArgs, err := f.buildCallArgs(ctx, args)
	if err != nil {
		return ctx, err
	}

	defer func() {
		if r := recover(); r != nil {
			newCtx, err = ctx, &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()

	results := f.value.Call(callArgs)
	return processReturnValues(ctx, results)
}

func (f *Function) buildCallArgs(ctx context.Context, args []any) ([]reflect.Value, error) {
	if len(args) != len(f.params) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArgumentCount, f.name, len(f.params), len(args))
	}

	fnType := f.value.Type()
	callArgs := make([]reflect.Value, 0, fnType.NumIn())
	next := 0
	for i := 0; i < fnType.NumIn(); i++ {
		paramType := fnType.In(i)
		if injected(paramType) {
			callArgs = append(callArgs, injectedValue(ctx, paramType))
			continue
		}

		arg, err := argumentValue(args[next], paramType)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", next+1, f.name, err)
		}
		callArgs = append(callArgs, arg)
		next++
	}
	return callArgs, nil
}

func injectedValue(ctx context.Context, t reflect.Type) reflect.Value {
	if t == contextType {
		return reflect.ValueOf(&ctx).Elem()
	}

	bc := behave.FromContext(ctx)
	if bc == nil {
		bc = behave.New()
	}
	switch t {
	case behaveStoryType:
		return reflect.ValueOf(bc.Story())
	case behaveScenarioType:
		return reflect.ValueOf(bc.Scenario())
	case behaveStepType:
		return reflect.ValueOf(bc.Step())
	default:
		return reflect.ValueOf(bc)
	}
}

func argumentValue(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(arg)
	switch {
	case v.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(v)
		return out, nil
	case v.Type().ConvertibleTo(t) && v.Kind() == t.Kind():
		return v.Convert(t), nil
	default:
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", arg, t)
	}
}

// processReturnValues extracts context and error from function return values
func processReturnValues(ctx context.Context, results []reflect.Value) (context.Context, error) {
	newCtx := ctx
	var retErr error
	for _, result := range results {
		if result.IsNil() {
			continue
		}
		switch v := result.Interface().(type) {
		case context.Context:
			newCtx = v
		case error:
			retErr = v
		}
	}
	return newCtx, retErr
}
