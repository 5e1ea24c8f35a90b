package container

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// ── Parameter annotations ─────────────────────────────────────────────────────

// Param describes one constructor parameter as seen by the autowirer.
// Type comes from reflecting the constructor; everything else comes from an Arg.
type Param struct {
	Name       string
	Type       reflect.Type
	Default    any
	HasDefault bool
	Optional   bool
}

// Arg annotates a constructor parameter, positionally.
//
//	types.Register("Thing", NewThing, container.Named("count").Default(5))
type Arg struct {
	name     string
	def      any
	hasDef   bool
	optional bool
}

// Named starts an annotation for a parameter called name.
func Named(name string) Arg { return Arg{name: name} }

// Default sets the literal used when no object can be resolved.
func (a Arg) Default(v any) Arg {
	a.def = v
	a.hasDef = true
	return a
}

// Optional marks the parameter as accepting its zero value.
func (a Arg) Optional() Arg {
	a.optional = true
	return a
}

// ── Descriptor ────────────────────────────────────────────────────────────────

// Descriptor is the registration of an autowirable type.
type Descriptor struct {
	Name   string
	Type   reflect.Type
	Doc    string
	Params []Param

	ctor reflect.Value
}

// HasConstructor is false for types registered with RegisterType.
func (d *Descriptor) HasConstructor() bool { return d.ctor.IsValid() }

// WithDoc attaches a doc comment, rendered by the docs package.
func (d *Descriptor) WithDoc(doc string) *Descriptor {
	d.Doc = doc
	return d
}

func (d *Descriptor) key() string { return strings.ToLower(d.Name) }

// ── Types ─────────────────────────────────────────────────────────────────────

// Types is the reflection facility the autowirer consults: it maps type names
// to constructors and parameter annotations.
type Types struct {
	mu     sync.RWMutex
	byName map[string]*Descriptor
	byType map[reflect.Type]*Descriptor
}

// NewTypes creates an empty registry.
func NewTypes() *Types {
	return &Types{
		byName: make(map[string]*Descriptor),
		byType: make(map[reflect.Type]*Descriptor),
	}
}

// Register adds a type built by ctor. ctor must be a non-variadic func
// returning T or (T, error). args annotate ctor's parameters in order;
// parameters without an annotation are named arg0, arg1, ...
//
//	types.Register("Gadget", NewGadget)
//	types.Register("Thing", NewThing, container.Named("count").Default(5))
func (t *Types) Register(name string, ctor any, args ...Arg) *Descriptor {
	fv := reflect.ValueOf(ctor)
	if fv.Kind() != reflect.Func {
		panic(fmt.Sprintf("container: constructor for [%s] must be a func, got %T", name, ctor))
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		panic(fmt.Sprintf("container: constructor for [%s] must not be variadic", name))
	}
	produced, err := resultType(ft)
	if err != nil {
		panic(fmt.Sprintf("container: constructor for [%s]: %v", name, err))
	}
	if len(args) > ft.NumIn() {
		panic(fmt.Sprintf("container: [%s] has %d annotations for %d parameters", name, len(args), ft.NumIn()))
	}

	params := make([]Param, ft.NumIn())
	for i := range params {
		p := Param{Name: fmt.Sprintf("arg%d", i), Type: ft.In(i)}
		if i < len(args) {
			a := args[i]
			if a.name != "" {
				p.Name = a.name
			}
			p.Default, p.HasDefault, p.Optional = a.def, a.hasDef, a.optional
		}
		params[i] = p
	}

	d := &Descriptor{Name: name, Type: produced, Params: params, ctor: fv}
	t.add(d)
	return d
}

// RegisterType adds a constructor-less type: the autowirer builds it as a
// zero value and returns a pointer to it.
func RegisterType[T any](t *Types, name string) *Descriptor {
	d := &Descriptor{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem()}
	t.add(d)
	return d
}

func (t *Types) add(d *Descriptor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byName[d.key()] = d
	t.byType[indirect(d.Type)] = d
}

// Lookup finds a descriptor by name, case-insensitively.
func (t *Types) Lookup(name string) (*Descriptor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.byName[strings.ToLower(name)]
	return d, ok
}

// ForType finds the descriptor producing rt or a pointer to rt.
func (t *Types) ForType(rt reflect.Type) (*Descriptor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.byType[indirect(rt)]
	return d, ok
}

// Names returns the registered type names, sorted.
func (t *Types) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.byName))
	for _, d := range t.byName {
		out = append(out, d.Name)
	}
	sort.Strings(out)
	return out
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// resultType checks that ft returns T or (T, error) and returns T.
func resultType(ft reflect.Type) (reflect.Type, error) {
	switch ft.NumOut() {
	case 1:
		return ft.Out(0), nil
	case 2:
		if !ft.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("second result must implement error; was %v", ft.Out(1))
		}
		return ft.Out(0), nil
	}
	return nil, fmt.Errorf("must return T or (T, error); was %v", ft)
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// KeyFor derives the lookup key for a declared parameter type: the lower-cased
// type name with pointers stripped. Unnamed and builtin types have no key.
func KeyFor(t reflect.Type) string {
	base := indirect(t)
	if base.Name() == "" || base.PkgPath() == "" {
		return ""
	}
	return strings.ToLower(base.Name())
}

// TypeKey returns the lookup key of v's dynamic type.
//
//	key := container.TypeKey((*Widget)(nil))  // "widget"
func TypeKey(v any) string {
	if v == nil {
		return ""
	}
	return KeyFor(reflect.TypeOf(v))
}
