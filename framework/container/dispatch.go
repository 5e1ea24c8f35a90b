package container

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// buildPrefix marks a Build call that should construct and cache.
const buildPrefix = "build"

// Entry is the value side of Set: either a builder or an instance.
type Entry struct {
	value   any
	builder bool
}

// Builder wraps fn so Set stores it as a builder.
func Builder(fn any) Entry { return Entry{value: fn, builder: true} }

// Instance wraps v so Set pins it as an instance.
func Instance(v any) Entry { return Entry{value: v} }

// IsBuilder reports which registry the entry targets.
func (e Entry) IsBuilder() bool { return e.builder }

// Value returns the wrapped func or instance.
func (e Entry) Value() any { return e.value }

// Closure is the callable form of a builder handed to constructors that ask
// for a func-typed parameter of this type.
type Closure func(args ...any) (any, error)

// ── Dispatcher ────────────────────────────────────────────────────────────────

// Get returns the instance under name, or else the raw builder.
//
//	v, err := c.Get("logger")
func (c *Container) Get(name string) (any, error) {
	if v, ok := c.Instance(name); ok {
		return v, nil
	}
	if fn, ok := c.Builder(name); ok {
		return fn, nil
	}
	return nil, &NameNotBoundError{Name: name}
}

// Set routes a Builder entry to the builder map and an Instance entry to the
// instance map.
//
//	c.Set("logger", container.Builder(newLogger))
//	c.Set("config", container.Instance(cfg))
func (c *Container) Set(name string, e Entry) *Container {
	if e.builder {
		return c.SetBuilder(name, e.value)
	}
	return c.SetInstance(name, e.value)
}

// Build is the method-style access:
//
//	c.Build("logger")              // cached instance if any, else call builder "logger"
//	c.Build("logger", "debug")     // call builder "logger" with args, not cached
//	c.Build("buildClient", cfg)    // NewInstance("client", cfg): call and cache
func (c *Container) Build(name string, args ...any) (any, error) {
	if len(args) == 0 {
		if v, ok := c.Instance(name); ok {
			return v, nil
		}
	}
	if rest, ok := strings.CutPrefix(name, buildPrefix); ok && rest != "" {
		return c.NewInstance(strings.ToLower(rest), args...)
	}
	return c.CallBuilder(name, args...)
}

// CallBuilder invokes the builder under name with args, as given. Arity and
// argument types are the builder's business: a mismatch surfaces as
// ErrBuilderPanic.
func (c *Container) CallBuilder(name string, args ...any) (any, error) {
	fn, ok := c.Builder(name)
	if !ok {
		return nil, &NameNotBoundError{Name: name}
	}
	fv := reflect.ValueOf(fn)
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		if a == nil {
			in[i] = zeroArg(fv.Type(), i)
			continue
		}
		in[i] = reflect.ValueOf(a)
	}
	out, err := invoke(name, fv, in)
	if err != nil {
		return nil, err
	}
	return valueOf(out), nil
}

// NewInstance calls the builder under name and pins the result under name,
// overwriting whatever was there. It always calls the builder; Build and
// Shared are the cached paths.
func (c *Container) NewInstance(name string, args ...any) (any, error) {
	v, err := c.CallBuilder(name, args...)
	if err != nil {
		return nil, err
	}
	c.SetInstance(name, v)
	c.log.Debug("instance cached", zap.String("name", name))
	return v, nil
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve calls Build(name) and type-asserts the result.
//
//	db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.Build(name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%T]: [%s] resolved to %T", zero, name, v)
	}
	return typed, nil
}

// Shared returns the instance under name, building and caching it through
// NewInstance on first use.
//
//	log, err := container.Shared[*zap.Logger](c, "logger")
func Shared[T any](c *Container, name string) (T, error) {
	if _, ok := c.Instance(name); !ok {
		if _, err := c.NewInstance(name); err != nil {
			var zero T
			return zero, err
		}
	}
	return Resolve[T](c, name)
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](c *Container, name string) T {
	v, err := Resolve[T](c, name)
	if err != nil {
		panic(err)
	}
	return v
}

// ── Invocation ────────────────────────────────────────────────────────────────

// invoke calls fn and unpacks a T or (T, error) result. Panics, including
// reflect's own on bad arguments, come back as ErrBuilderPanic.
func invoke(name string, fn reflect.Value, in []reflect.Value) (out reflect.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = reflect.Value{}
			err = fmt.Errorf("%w [%s]: %v", ErrBuilderPanic, name, rec)
		}
	}()

	res := fn.Call(in)
	if len(res) == 2 && !res[1].IsNil() {
		return reflect.Value{}, fmt.Errorf("container: builder [%s]: %w", name, res[1].Interface().(error))
	}
	return res[0], nil
}

// zeroArg returns the zero value for parameter i of ft, or an invalid Value
// when i is out of range so that Call reports the arity problem.
func zeroArg(ft reflect.Type, i int) reflect.Value {
	switch {
	case ft.IsVariadic() && i >= ft.NumIn()-1:
		return reflect.Zero(ft.In(ft.NumIn() - 1).Elem())
	case i < ft.NumIn():
		return reflect.Zero(ft.In(i))
	}
	return reflect.Value{}
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) && v.IsNil() {
		return nil
	}
	return v.Interface()
}
