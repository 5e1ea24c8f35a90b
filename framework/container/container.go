package container

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ── Container ─────────────────────────────────────────────────────────────────

// Container holds one builder map and one instance map.
//
// It supports:
//   - SetBuilder / SetInstance / Set with a Builder or Instance entry
//   - Get / Build / CallBuilder / NewInstance
//   - ConstructInject (autowiring through a Types registry)
//   - Provide / Inform (sharing with a child container)
//
// A resolution pass is synchronous. The mutex only keeps individual map
// operations safe; callers that mutate one container from several
// goroutines must serialise whole resolutions themselves.
type Container struct {
	mu sync.RWMutex

	// name → builder func
	builders map[string]any

	// name → resolved instance
	instances map[string]any

	types    *Types
	basePath string
	source   Source
	log      *zap.Logger
}

// Option configures a Container at construction.
type Option func(*Container)

// WithBasePath records the root the builders source was addressed from.
func WithBasePath(path string) Option {
	return func(c *Container) { c.basePath = path }
}

// WithSource sets the builders source read once by New.
func WithSource(src Source) Option {
	return func(c *Container) { c.source = src }
}

// WithTypes sets the registry used for autowiring. Defaults to an empty
// registry owned by the container.
func WithTypes(t *Types) Option {
	return func(c *Container) {
		if t != nil {
			c.types = t
		}
	}
}

// WithLogger sets the debug logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a container, binds it to itself as instance "container" and
// loads the initial builder set from the configured source.
func New(opts ...Option) (*Container, error) {
	c := &Container{
		builders:  make(map[string]any),
		instances: make(map[string]any),
		types:     NewTypes(),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.SetInstance("container", c)

	if err := c.loadBuilders(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is like New but panics when the builders source fails.
func MustNew(opts ...Option) *Container {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// loadBuilders populates the builder map from the source, exactly once.
func (c *Container) loadBuilders() error {
	if c.source == nil {
		return nil
	}
	defs, err := c.source.Load()
	if err != nil {
		var cle *ConfigLoadError
		if errors.As(err, &cle) {
			return err
		}
		return &ConfigLoadError{Path: c.basePath, Err: err}
	}
	for _, d := range defs {
		if err := checkBuilder(d.Builder); err != nil {
			return &ConfigLoadError{Path: c.basePath, Err: fmt.Errorf("builder [%s]: %w", d.Name, err)}
		}
		c.setBuilder(d.Name, d.Builder)
	}
	c.log.Debug("builders loaded", zap.Int("count", len(defs)), zap.String("base", c.basePath))
	return nil
}

// ── Registry ──────────────────────────────────────────────────────────────────

// SetBuilder stores fn under name without calling it. fn must be a func
// returning T or (T, error); anything else panics.
//
//	c.SetBuilder("logger", func(level string) *zap.Logger { ... })
func (c *Container) SetBuilder(name string, fn any) *Container {
	if err := checkBuilder(fn); err != nil {
		panic(fmt.Sprintf("container: builder [%s]: %v", name, err))
	}
	c.setBuilder(name, fn)
	return c
}

func (c *Container) setBuilder(name string, fn any) {
	c.mu.Lock()
	c.builders[name] = fn
	c.mu.Unlock()
	c.log.Debug("builder stored", zap.String("name", name))
}

// Builder returns the builder stored under name. It never calls it.
func (c *Container) Builder(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.builders[name]
	return fn, ok
}

// Builders returns a copy of the builder map.
func (c *Container) Builders() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.builders))
	for k, v := range c.builders {
		out[k] = v
	}
	return out
}

// SetBuilders replaces the whole builder map.
func (c *Container) SetBuilders(builders map[string]any) *Container {
	fresh := make(map[string]any, len(builders))
	for name, fn := range builders {
		if err := checkBuilder(fn); err != nil {
			panic(fmt.Sprintf("container: builder [%s]: %v", name, err))
		}
		fresh[name] = fn
	}
	c.mu.Lock()
	c.builders = fresh
	c.mu.Unlock()
	return c
}

// SetInstance pins v under name. Later reads return v itself.
func (c *Container) SetInstance(name string, v any) *Container {
	c.mu.Lock()
	c.instances[name] = v
	c.mu.Unlock()
	return c
}

// Instance returns the value pinned under name. A stored nil counts as absent.
func (c *Container) Instance(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.instances[name]
	return v, ok && v != nil
}

// BasePath returns the root the container was created with.
func (c *Container) BasePath() string { return c.basePath }

// Types returns the registry used for autowiring.
func (c *Container) Types() *Types { return c.types }

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger { return c.log }

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound reports whether name has a builder or a non-nil instance.
func (c *Container) Bound(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, hasBuilder := c.builders[name]
	return hasBuilder || c.instances[name] != nil
}

// Resolved reports whether an instance is pinned under name.
func (c *Container) Resolved(name string) bool {
	_, ok := c.Instance(name)
	return ok
}

// Forget removes both the builder and the instance stored under name.
func (c *Container) Forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.builders, name)
	delete(c.instances, name)
}

// Flush drops every builder and instance except the container's self binding.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders = make(map[string]any)
	c.instances = map[string]any{"container": c}
}

// Names returns sorted builder names and sorted instance names.
func (c *Container) Names() (builders, instances []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	builders = make([]string, 0, len(c.builders))
	for k := range c.builders {
		builders = append(builders, k)
	}
	instances = make([]string, 0, len(c.instances))
	for k := range c.instances {
		instances = append(instances, k)
	}
	sort.Strings(builders)
	sort.Strings(instances)
	return builders, instances
}

// checkBuilder validates the shape of a builder without calling it.
func checkBuilder(fn any) error {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return fmt.Errorf("must be a func, got %T", fn)
	}
	if fv.IsNil() {
		return errors.New("func is nil")
	}
	_, err := resultType(fv.Type())
	return err
}
