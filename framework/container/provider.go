package container

import "go.uber.org/multierr"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups builder and type registrations.
//
// Register is called when the provider is added. Boot runs after every
// provider has been registered, so it may resolve names other providers bind.
//
//	type LogProvider struct{ container.BaseProvider }
//
//	func (p *LogProvider) Register(app *container.Container) {
//	    app.SetBuilder("logger", func(s *config.Settings) (*zap.Logger, error) {
//	        return logging.New(s)
//	    })
//	}
type ServiceProvider interface {
	// Register stores builders and types. Do not resolve anything here.
	Register(app *Container)

	// Boot is called once all providers are registered.
	Boot(app *Container) error

	// Provides lists the names a deferred provider binds.
	Provides() []string

	// IsDeferred delays Register until one of Provides() is first built.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider gives no-op Boot, Provides and IsDeferred. Embed it and
// implement Register.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders against one container.
type ProviderRegistry struct {
	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // name → provider
	loaded     map[ServiceProvider]bool
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		loaded:     make(map[ServiceProvider]bool),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register (unless deferred). A
// provider added after Boot is booted immediately.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, name := range provider.Provides() {
			r.deferred[name] = provider
		}
		r.interceptDeferred(provider)
		return nil
	}

	provider.Register(r.app)
	r.loaded[provider] = true
	r.eager = append(r.eager, provider)

	if r.booted {
		return provider.Boot(r.app)
	}
	return nil
}

// interceptDeferred stores a placeholder builder for each deferred name. The
// first call registers the provider for real, then forwards to the builder
// the provider stored under the same name.
func (r *ProviderRegistry) interceptDeferred(provider ServiceProvider) {
	for _, name := range provider.Provides() {
		r.app.SetBuilder(name, func(args ...any) (any, error) {
			// Still the placeholder after loading: the provider never bound name.
			if r.loaded[provider] {
				return nil, &NameNotBoundError{Name: name}
			}
			r.loaded[provider] = true
			provider.Register(r.app)
			for n, p := range r.deferred {
				if p == provider {
					delete(r.deferred, n)
				}
			}
			if r.booted {
				if err := provider.Boot(r.app); err != nil {
					return nil, err
				}
			}
			return r.app.CallBuilder(name, args...)
		})
	}
}

// Boot calls Boot on all eager providers, once. Every provider is booted;
// their errors are combined.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	var err error
	for _, provider := range r.eager {
		err = multierr.Append(err, provider.Boot(r.app))
	}
	return err
}

// Booted reports whether Boot has run.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the eager providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }

// Deferred reports whether name is still waiting on a deferred provider.
func (r *ProviderRegistry) Deferred(name string) bool {
	_, ok := r.deferred[name]
	return ok
}
