// Package app assembles the kernel: it resolves the base path, loads the
// settings, builds the container from the builders file and the framework
// providers, picks an executor and runs it once.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/go-kernel/framework/basepath"
	"github.com/km-arc/go-kernel/framework/config"
	"github.com/km-arc/go-kernel/framework/container"
	"github.com/km-arc/go-kernel/framework/env"
	"github.com/km-arc/go-kernel/framework/executor"
	"github.com/km-arc/go-kernel/framework/logging"
	"github.com/km-arc/go-kernel/framework/providers"
)

// Version is reported by the application.
const Version = "0.1.0"

// Executor is what an application runs.
type Executor = executor.Executor

// ErrAlreadyExecuted is returned by every Execute call after the first.
var ErrAlreadyExecuted = errors.New("app: already executed")

// State is the application's lifecycle position.
type State int

const (
	Created State = iota
	Prepared
	Executed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Prepared:
		return "prepared"
	case Executed:
		return "executed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Application is the top-level container. It embeds the Container and the
// ProviderRegistry so callers can bind and resolve on it directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	id       string
	base     *basepath.Path
	settings *config.Settings
	env      *env.Environment
	log      *zap.Logger
	executor Executor

	mu      sync.Mutex
	state   State
	started bool
}

// ── Options ───────────────────────────────────────────────────────────────────

type options struct {
	basePath    string
	environment *env.Environment
	logger      *zap.Logger
	catalog     config.Catalog
	source      container.Source
	types       *container.Types
	providers   []container.ServiceProvider
}

// Option configures New.
type Option func(*options)

// WithBasePath fixes the base path instead of resolving it.
func WithBasePath(path string) Option {
	return func(o *options) { o.basePath = path }
}

// WithEnvironment pins the environment snapshot.
func WithEnvironment(e *env.Environment) Option {
	return func(o *options) { o.environment = e }
}

// WithLogger replaces the logger built from the settings.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCatalog adds entries the builders file may name, over the defaults.
func WithCatalog(c config.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithSource replaces the builders file.
func WithSource(src container.Source) Option {
	return func(o *options) { o.source = src }
}

// WithTypes sets the registry providers add their types to.
func WithTypes(t *container.Types) Option {
	return func(o *options) { o.types = t }
}

// WithProviders registers providers after the framework ones.
func WithProviders(p ...container.ServiceProvider) Option {
	return func(o *options) { o.providers = append(o.providers, p...) }
}

// ── Construction ──────────────────────────────────────────────────────────────

// New creates and bootstraps the application. Failing to read the builders
// file is fatal and returns a container.ConfigLoadError.
//
//	application, err := app.New(app.WithBasePath("/srv/app"))
func New(opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	base := basepath.Resolve(o.basePath)
	settings, err := config.Load(base.Get())
	if err != nil {
		return nil, err
	}

	log := o.logger
	if log == nil {
		if log, err = logging.New(settings); err != nil {
			return nil, fmt.Errorf("app: building logger: %w", err)
		}
	}
	id := uuid.NewString()

	src := o.source
	if src == nil {
		catalog := providers.Catalog()
		for k, v := range o.catalog {
			catalog[k] = v
		}
		src = config.NewFileSource(base.Get(), catalog)
	}
	types := o.types
	if types == nil {
		types = container.NewTypes()
	}

	c, err := container.New(
		container.WithBasePath(base.Get()),
		container.WithSource(src),
		container.WithTypes(types),
		container.WithLogger(log.With(zap.String("run", id))),
	)
	if err != nil {
		return nil, err
	}
	// a logger named by the builders file replaces the settings one
	if o.logger == nil && c.Bound("logger") {
		if log, err = container.Shared[*zap.Logger](c, "logger"); err != nil {
			return nil, err
		}
	}
	log = log.With(zap.String("run", id))
	c.SetInstance("path", base).
		SetInstance("settings", settings).
		SetInstance("logger", log)
	if o.environment != nil {
		c.SetInstance("environment", o.environment)
	}

	a := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
		id:        id,
		base:      base,
		settings:  settings,
		log:       log,
	}
	for _, p := range append(providers.Defaults(), o.providers...) {
		if err := a.Providers.Register(p); err != nil {
			return nil, err
		}
	}
	if err := a.Providers.Boot(); err != nil {
		return nil, err
	}

	if a.env, err = container.Shared[*env.Environment](c, "environment"); err != nil {
		return nil, err
	}
	if a.executor, err = a.resolveExecutor(); err != nil {
		return nil, err
	}

	log.Debug("application created",
		zap.String("base", base.Get()),
		zap.String("api", string(a.env.API())),
		zap.String("env", settings.App.Env),
	)
	return a, nil
}

// resolveExecutor builds "executor" with the API when it is bound, else
// autowires the Executor type, and pins the result.
func (a *Application) resolveExecutor() (Executor, error) {
	var (
		v   any
		err error
	)
	switch {
	case a.Resolved("executor"):
		v, err = a.Build("executor")
	case a.Bound("executor"):
		v, err = a.Build("executor", a.env.API())
	default:
		v, err = a.ConstructInject("Executor")
	}
	if err != nil {
		return nil, fmt.Errorf("app: resolving executor: %w", err)
	}

	x, ok := v.(Executor)
	if !ok {
		return nil, fmt.Errorf("app: executor resolved to %T", v)
	}
	a.SetInstance("executor", x)
	return x, nil
}

// ── Running ───────────────────────────────────────────────────────────────────

// Execute prepares the executor against the container, then executes it.
// It runs at most once; later calls return ErrAlreadyExecuted.
func (a *Application) Execute(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrAlreadyExecuted
	}
	a.started = true
	a.mu.Unlock()

	if err := a.executor.Prepare(a.Container); err != nil {
		return err
	}
	a.setState(Prepared)
	a.log.Debug("executor prepared", zap.String("executor", fmt.Sprintf("%T", a.executor)))

	if err := a.executor.Execute(ctx); err != nil {
		return err
	}
	a.setState(Executed)
	return nil
}

func (a *Application) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// State returns the lifecycle position.
func (a *Application) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Close flushes the logger.
func (a *Application) Close() error {
	_ = a.log.Sync()
	return nil
}

// ── Accessors ─────────────────────────────────────────────────────────────────

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

func (a *Application) ID() string                    { return a.id }
func (a *Application) Base() *basepath.Path          { return a.base }
func (a *Application) Settings() *config.Settings    { return a.settings }
func (a *Application) Environment() *env.Environment { return a.env }
func (a *Application) Logger() *zap.Logger           { return a.log }
func (a *Application) Executor() Executor            { return a.executor }
func (a *Application) IsLocal() bool                 { return a.settings.IsLocal() }
func (a *Application) IsProduction() bool            { return a.settings.IsProduction() }
func (a *Application) IsTesting() bool               { return a.settings.App.Env == "testing" }
func (a *Application) IsDebug() bool                 { return a.settings.App.Debug }
func (a *Application) Version() string               { return Version }
