package container

import (
	"errors"
	"fmt"
)

// Factory is a Container whose entry point is Make: build a type by name.
type Factory struct {
	*Container
}

// NewFactory creates a Factory over a fresh container.
func NewFactory(opts ...Option) (*Factory, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return &Factory{Container: c}, nil
}

// Make autowires typeName. ok is false, with no error, when no such type is
// registered; construction failures come back as err.
//
//	v, ok, err := f.Make("Gadget")
func (f *Factory) Make(typeName string) (v any, ok bool, err error) {
	if _, found := f.types.Lookup(typeName); !found {
		return nil, false, nil
	}
	v, err = f.ConstructInject(typeName)
	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}

// Make is the typed form of Factory.Make. A missing type is ErrTypeNotFound.
//
//	g, err := container.Make[*Gadget](f, "Gadget")
func Make[T any](f *Factory, typeName string) (T, error) {
	var zero T
	v, ok, err := f.Make(typeName)
	switch {
	case err != nil:
		return zero, err
	case !ok:
		return zero, typeNotFound(typeName)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: Make[%T]: [%s] built %T", zero, typeName, v)
	}
	return typed, nil
}

// IsUnresolvable reports whether err carries an UnresolvableParameterError and
// returns it.
func IsUnresolvable(err error) (*UnresolvableParameterError, bool) {
	var upe *UnresolvableParameterError
	if errors.As(err, &upe) {
		return upe, true
	}
	return nil, false
}
