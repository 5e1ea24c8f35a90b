package container

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

var closureType = reflect.TypeOf((*Closure)(nil)).Elem()

// ConstructInject builds the type registered under typeName, resolving each
// constructor parameter from the container, a builder, or a nested autowire.
//
// Per parameter, in declared order:
//  1. func-typed: the builder registered under the parameter's own name, uncalled;
//  2. named type: instance under its key, else its builder (called with its own
//     parameters resolved the same way, result cached under the key), else the
//     type autowired through its registered descriptor;
//  3. the annotated default; 4. the zero value when optional;
//  5. otherwise UnresolvableParameterError.
//
// The constructed value itself is not cached.
func (c *Container) ConstructInject(typeName string) (any, error) {
	d, ok := c.types.Lookup(typeName)
	if !ok {
		return nil, typeNotFound(typeName)
	}
	r := &resolution{c: c, active: make(map[string]bool)}
	v, err := r.construct(d)
	if err != nil {
		return nil, err
	}
	return valueOf(v), nil
}

// resolution is the state of one ConstructInject call. Types and builders
// are tracked apart: a type named like a builder is not a cycle.
type resolution struct {
	c      *Container
	active map[string]bool
	chain  []string
}

const (
	typeSlot    = "type:"
	builderSlot = "builder:"
)

func (r *resolution) enter(slot, key string) error {
	if r.active[slot+key] {
		chain := append(append([]string{}, r.chain...), key)
		return &CycleError{Chain: chain}
	}
	r.active[slot+key] = true
	r.chain = append(r.chain, key)
	return nil
}

func (r *resolution) leave(slot, key string) {
	delete(r.active, slot+key)
	r.chain = r.chain[:len(r.chain)-1]
}

// construct instantiates d with resolved arguments.
func (r *resolution) construct(d *Descriptor) (reflect.Value, error) {
	if err := r.enter(typeSlot, d.key()); err != nil {
		return reflect.Value{}, err
	}
	defer r.leave(typeSlot, d.key())

	if !d.HasConstructor() {
		return reflect.New(indirect(d.Type)), nil
	}

	args := make([]reflect.Value, len(d.Params))
	for i, p := range d.Params {
		v, err := r.param(p, d.Name)
		if err != nil {
			return reflect.Value{}, err
		}
		args[i] = v
	}
	r.c.log.Debug("autowire", zap.String("type", d.Name), zap.Int("params", len(args)))
	return invoke(d.Name, d.ctor, args)
}

// param resolves one parameter of owner.
func (r *resolution) param(p Param, owner string) (reflect.Value, error) {
	if p.Type.Kind() == reflect.Func {
		if v, ok := r.callable(p); ok {
			return v, nil
		}
	} else if key := KeyFor(p.Type); key != "" {
		v, found, err := r.local(key)
		if err != nil {
			return reflect.Value{}, err
		}
		if !found {
			v, found, err = r.autowire(p.Type)
			if err != nil {
				return reflect.Value{}, err
			}
		}
		if found {
			return fitParam(v, p, owner)
		}
	}

	switch {
	case p.HasDefault:
		return fitParam(reflect.ValueOf(p.Default), p, owner)
	case p.Optional:
		return reflect.Zero(p.Type), nil
	}
	return reflect.Value{}, &UnresolvableParameterError{Param: p.Name, Type: owner}
}

// callable returns the builder named like the parameter, unevaluated.
func (r *resolution) callable(p Param) (reflect.Value, bool) {
	fn, ok := r.c.Builder(p.Name)
	if !ok {
		return reflect.Value{}, false
	}
	fv := reflect.ValueOf(fn)
	if fv.Type().AssignableTo(p.Type) {
		return fv, true
	}
	if p.Type == closureType {
		name, c := p.Name, r.c
		var cl Closure = func(args ...any) (any, error) { return c.CallBuilder(name, args...) }
		return reflect.ValueOf(cl), true
	}
	return reflect.Value{}, false
}

// local looks for an instance under key, then a builder under key. A builder
// found here is called with its parameters autowired and its result cached.
func (r *resolution) local(key string) (reflect.Value, bool, error) {
	if v, ok := r.c.Instance(key); ok {
		return reflect.ValueOf(v), true, nil
	}
	fn, ok := r.c.Builder(key)
	if !ok {
		return reflect.Value{}, false, nil
	}

	if err := r.enter(builderSlot, key); err != nil {
		return reflect.Value{}, false, err
	}
	defer r.leave(builderSlot, key)

	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	n := ft.NumIn()
	if ft.IsVariadic() {
		n--
	}
	args := make([]reflect.Value, n)
	for i := range args {
		v, err := r.param(Param{Name: fmt.Sprintf("arg%d", i), Type: ft.In(i)}, key)
		if err != nil {
			return reflect.Value{}, false, err
		}
		args[i] = v
	}
	out, err := invoke(key, fv, args)
	if err != nil {
		return reflect.Value{}, false, err
	}
	r.c.SetInstance(key, valueOf(out))
	r.c.log.Debug("instance cached", zap.String("name", key))
	return out, true, nil
}

// autowire builds t through its registered descriptor. An unregistered type
// is absent, so the parameter falls through to its default or optionality.
func (r *resolution) autowire(t reflect.Type) (reflect.Value, bool, error) {
	d, ok := r.c.types.ForType(t)
	if !ok {
		return reflect.Value{}, false, nil
	}
	v, err := r.construct(d)
	return v, err == nil, err
}

func fitParam(v reflect.Value, p Param, owner string) (reflect.Value, error) {
	if out, ok := fit(v, p.Type); ok {
		return out, nil
	}
	return reflect.Value{}, &UnresolvableParameterError{
		Param: p.Name,
		Type:  owner,
		Cause: fmt.Errorf("resolved %v, want %v", v.Type(), p.Type),
	}
}

// fit adapts v to t: direct assignment, pointer to value, value to pointer,
// or numeric/string conversion for default literals.
func fit(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Zero(t), true
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(t), true
		}
		v = v.Elem()
	}
	vt := v.Type()
	switch {
	case vt.AssignableTo(t):
		return v, true
	case vt.Kind() == reflect.Pointer && !v.IsNil() && vt.Elem().AssignableTo(t):
		return v.Elem(), true
	case t.Kind() == reflect.Pointer && vt.AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, true
	case isNumber(vt.Kind()) && isNumber(t.Kind()), vt.Kind() == reflect.String && t.Kind() == reflect.String:
		return v.Convert(t), true
	}
	return reflect.Value{}, false
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
