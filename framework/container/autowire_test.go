package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-kernel/framework/container"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type Widget struct{ Label string }

type Gadget struct{ W *Widget }

func NewGadget(w *Widget) *Gadget { return &Gadget{W: w} }

type Thing struct{ Count int }

func NewThing(count int) *Thing { return &Thing{Count: count} }

type Unregistered struct{ X int }

func NewUnregistered(x int) *Unregistered { return &Unregistered{X: x} }

type Broken struct{ U *Unregistered }

var brokenBuilt bool

func NewBroken(u *Unregistered) *Broken {
	brokenBuilt = true
	return &Broken{U: u}
}

type Store interface{ Name() string }

type memStore struct{}

func (memStore) Name() string { return "mem" }

type Service struct {
	Store  Store
	Widget Widget
}

func NewService(s Store, w Widget) *Service { return &Service{Store: s, Widget: w} }

type Evener struct{ O *Odder }
type Odder struct{ E *Evener }

func NewEvener(o *Odder) *Evener { return &Evener{O: o} }
func NewOdder(e *Evener) *Odder  { return &Odder{E: e} }

type Hook struct {
	Greet container.Closure
	Raw   func(string) string
}

func NewHook(greet container.Closure, raw func(string) string) *Hook {
	return &Hook{Greet: greet, Raw: raw}
}

type Opt struct{ S Store }

func NewOpt(s Store) *Opt { return &Opt{S: s} }

type Failing struct{}

var errCtor = errors.New("ctor failed")

func NewFailing() (*Failing, error) { return nil, errCtor }

type Reporter struct{ Log *zap.Logger }

func NewReporter(log *zap.Logger) *Reporter { return &Reporter{Log: log} }

type AppLogger struct{ Z *zap.Logger }

func NewAppLogger(z *zap.Logger) *AppLogger { return &AppLogger{Z: z} }

func newAutowireContainer(t *testing.T, register func(*container.Types)) *container.Container {
	t.Helper()
	types := container.NewTypes()
	register(types)
	c, err := container.New(container.WithTypes(types))
	require.NoError(t, err)
	return c
}

// ── ConstructInject ───────────────────────────────────────────────────────────

func TestConstructInject_FreshDependency(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		container.RegisterType[Widget](ts, "Widget")
		ts.Register("Gadget", NewGadget)
	})

	v, err := c.ConstructInject("Gadget")
	require.NoError(t, err)

	g := v.(*Gadget)
	require.NotNil(t, g.W)
	assert.False(t, c.Resolved("widget"), "autowired values are not cached")
}

func TestConstructInject_CaseInsensitiveName(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Gadget", NewGadget)
	})

	_, err := c.ConstructInject("gadget")
	assert.NoError(t, err)
}

func TestConstructInject_PrefersInstance(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Gadget", NewGadget)
	})
	w := &Widget{Label: "pinned"}
	c.SetInstance("widget", w)

	v, err := c.ConstructInject("Gadget")
	require.NoError(t, err)
	assert.Same(t, w, v.(*Gadget).W)
}

func TestConstructInject_BuilderResultIsCached(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Gadget", NewGadget)
	})
	calls := 0
	c.SetBuilder("widget", func() *Widget {
		calls++
		return &Widget{Label: "built"}
	})

	first, err := c.ConstructInject("Gadget")
	require.NoError(t, err)
	second, err := c.ConstructInject("Gadget")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "built", first.(*Gadget).W.Label)
	assert.Same(t, first.(*Gadget).W, second.(*Gadget).W)
	assert.NotSame(t, first, second)
}

func TestConstructInject_BuilderParamsAreAutowired(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Gadget", NewGadget)
	})
	c.SetInstance("thing", &Thing{Count: 3})
	c.SetBuilder("widget", func(th *Thing, self *container.Container) *Widget {
		require.NotNil(t, self)
		return &Widget{Label: string(rune('0' + th.Count))}
	})

	v, err := c.ConstructInject("Gadget")
	require.NoError(t, err)
	assert.Equal(t, "3", v.(*Gadget).W.Label)
}

func TestConstructInject_ScalarDefault(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Thing", NewThing, container.Named("count").Default(5))
	})

	v, err := c.ConstructInject("Thing")
	require.NoError(t, err)
	assert.Equal(t, 5, v.(*Thing).Count)
}

func TestConstructInject_DefaultConverted(t *testing.T) {
	type Sized struct{ N int64 }
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Sized", func(n int64) *Sized { return &Sized{N: n} }, container.Named("n").Default(9))
	})

	v, err := c.ConstructInject("Sized")
	require.NoError(t, err)
	assert.Equal(t, int64(9), v.(*Sized).N)
}

func TestConstructInject_OptionalInterfaceIsNil(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Opt", NewOpt, container.Named("s").Optional())
	})

	v, err := c.ConstructInject("Opt")
	require.NoError(t, err)
	assert.Nil(t, v.(*Opt).S)
}

func TestConstructInject_UnregisteredStructIsAbsent(t *testing.T) {
	tests := []struct {
		name    string
		arg     container.Arg
		wantNil bool
	}{
		{"optional", container.Named("log").Optional(), true},
		{"default", container.Named("log").Default(zap.NewExample()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newAutowireContainer(t, func(ts *container.Types) {
				ts.Register("Reporter", NewReporter, tt.arg)
			})

			v, err := c.ConstructInject("Reporter")
			require.NoError(t, err)
			assert.Equal(t, tt.wantNil, v.(*Reporter).Log == nil)
		})
	}
}

func TestConstructInject_UnregisteredStructFails(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Gadget", NewGadget, container.Named("w"))
	})

	_, err := c.ConstructInject("Gadget")
	upe, ok := container.IsUnresolvable(err)
	require.True(t, ok)
	assert.Equal(t, "w", upe.Param)
	assert.Equal(t, "Gadget", upe.Type)
}

func TestConstructInject_InterfaceFromInstanceAndValueParam(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Service", NewService)
	})
	c.SetInstance("store", memStore{})
	c.SetInstance("widget", &Widget{Label: "by-pointer"})

	v, err := c.ConstructInject("Service")
	require.NoError(t, err)

	svc := v.(*Service)
	assert.Equal(t, "mem", svc.Store.Name())
	assert.Equal(t, "by-pointer", svc.Widget.Label)
}

func TestConstructInject_UnresolvableNestedParameter(t *testing.T) {
	brokenBuilt = false
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Broken", NewBroken, container.Named("u"))
		ts.Register("Unregistered", NewUnregistered, container.Named("x"))
	})

	v, err := c.ConstructInject("Broken")
	assert.Nil(t, v)
	require.ErrorIs(t, err, container.ErrUnresolvableParameter)

	upe, ok := container.IsUnresolvable(err)
	require.True(t, ok)
	assert.Equal(t, "x", upe.Param)
	assert.Equal(t, "Unregistered", upe.Type)
	assert.False(t, brokenBuilt, "no partial Broken may be built")
}

func TestConstructInject_UnknownInterfaceParameter(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Opt", NewOpt, container.Named("s"))
	})

	_, err := c.ConstructInject("Opt")
	upe, ok := container.IsUnresolvable(err)
	require.True(t, ok)
	assert.Equal(t, "s", upe.Param)
	assert.Equal(t, "Opt", upe.Type)
}

func TestConstructInject_InstanceOfWrongType(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Gadget", NewGadget, container.Named("w"))
	})
	c.SetInstance("widget", "not a widget")

	_, err := c.ConstructInject("Gadget")
	upe, ok := container.IsUnresolvable(err)
	require.True(t, ok)
	assert.Equal(t, "w", upe.Param)
	assert.Error(t, upe.Cause)
}

func TestConstructInject_Cycle(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Evener", NewEvener)
		ts.Register("Odder", NewOdder)
	})

	_, err := c.ConstructInject("Evener")
	require.ErrorIs(t, err, container.ErrCyclicDependency)

	var ce *container.CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"evener", "odder", "evener"}, ce.Chain)
}

func TestConstructInject_BuilderCycle(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Gadget", NewGadget)
	})
	c.SetBuilder("widget", func(w *Widget) *Widget { return w })

	_, err := c.ConstructInject("Gadget")
	assert.ErrorIs(t, err, container.ErrCyclicDependency)
}

func TestConstructInject_TypeNamedLikeBuilderIsNotACycle(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Logger", NewAppLogger)
	})
	c.SetBuilder("logger", zap.NewNop)

	v, err := c.ConstructInject("Logger")
	require.NoError(t, err)
	assert.NotNil(t, v.(*AppLogger).Z)
	assert.True(t, c.Resolved("logger"))
}

func TestConstructInject_CallableParameters(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Hook", NewHook, container.Named("greet"), container.Named("raw"))
	})
	calls := 0
	c.SetBuilder("greet", func(name string) string {
		calls++
		return "hello " + name
	})
	c.SetBuilder("raw", func(s string) string { return "raw " + s })

	v, err := c.ConstructInject("Hook")
	require.NoError(t, err)
	assert.Zero(t, calls, "callables are handed over unevaluated")

	h := v.(*Hook)
	got, err := h.Greet("bob")
	require.NoError(t, err)
	assert.Equal(t, "hello bob", got)
	assert.Equal(t, "raw x", h.Raw("x"))
}

func TestConstructInject_MissingCallableFails(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Hook", NewHook, container.Named("greet"), container.Named("raw"))
	})

	_, err := c.ConstructInject("Hook")
	upe, ok := container.IsUnresolvable(err)
	require.True(t, ok)
	assert.Equal(t, "greet", upe.Param)
}

func TestConstructInject_ConstructorError(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		ts.Register("Failing", NewFailing)
	})

	_, err := c.ConstructInject("Failing")
	assert.ErrorIs(t, err, errCtor)
}

func TestConstructInject_ConstructorLessType(t *testing.T) {
	c := newAutowireContainer(t, func(ts *container.Types) {
		container.RegisterType[Widget](ts, "Widget")
	})

	v, err := c.ConstructInject("Widget")
	require.NoError(t, err)
	assert.IsType(t, &Widget{}, v)
}

func TestConstructInject_UnknownType(t *testing.T) {
	c := newAutowireContainer(t, func(*container.Types) {})

	_, err := c.ConstructInject("Nope")
	assert.ErrorIs(t, err, container.ErrTypeNotFound)
}

// ── Types ─────────────────────────────────────────────────────────────────────

func TestTypes_RegisterRejectsBadConstructors(t *testing.T) {
	ts := container.NewTypes()
	assert.Panics(t, func() { ts.Register("X", 1) })
	assert.Panics(t, func() { ts.Register("X", func(...int) *Thing { return nil }) })
	assert.Panics(t, func() { ts.Register("X", func() {}) })
	assert.Panics(t, func() { ts.Register("X", NewThing, container.Named("a"), container.Named("b")) })
}

func TestTypes_ParamsAndNames(t *testing.T) {
	ts := container.NewTypes()
	d := ts.Register("Thing", NewThing, container.Named("count").Default(5)).WithDoc("A thing.")
	ts.Register("Gadget", NewGadget)

	require.Len(t, d.Params, 1)
	assert.Equal(t, "count", d.Params[0].Name)
	assert.True(t, d.Params[0].HasDefault)
	assert.Equal(t, "A thing.", d.Doc)
	assert.Equal(t, []string{"Gadget", "Thing"}, ts.Names())

	g, ok := ts.Lookup("gadget")
	require.True(t, ok)
	assert.Equal(t, "arg0", g.Params[0].Name)
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, "widget", container.TypeKey((*Widget)(nil)))
	assert.Equal(t, "widget", container.TypeKey(Widget{}))
	assert.Equal(t, "", container.TypeKey(5))
	assert.Equal(t, "", container.TypeKey(nil))
}
