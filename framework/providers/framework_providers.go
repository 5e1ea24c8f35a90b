// Package providers binds the kernel's services into a container: default
// builders, autowirable types, and the catalog the builders file picks from.
package providers

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/km-arc/go-kernel/framework/basepath"
	"github.com/km-arc/go-kernel/framework/config"
	"github.com/km-arc/go-kernel/framework/container"
	"github.com/km-arc/go-kernel/framework/env"
	"github.com/km-arc/go-kernel/framework/executor"
	"github.com/km-arc/go-kernel/framework/finder"
	"github.com/km-arc/go-kernel/framework/routing"
	"github.com/km-arc/go-kernel/framework/view"
)

// Defaults returns the framework providers in registration order.
func Defaults() []container.ServiceProvider {
	return []container.ServiceProvider{
		&ConfigServiceProvider{},
		&EnvironmentServiceProvider{},
		&RoutingServiceProvider{},
		&ViewServiceProvider{},
		&FinderServiceProvider{},
		&ExecutorServiceProvider{},
	}
}

// bindIf stores fn unless name is already bound, so the builders file wins
// over framework defaults.
func bindIf(app *container.Container, name string, fn any) {
	if !app.Bound(name) {
		app.SetBuilder(name, fn)
	}
}

// under resolves dir against the base path unless it is absolute.
func under(base *basepath.Path, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return base.Join(dir)
}

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider makes the kernel settings autowirable.
//
// Types:
//   - "Settings" → *config.Settings (defaults)
//
// Expects instances "settings" and "path", pinned by the application.
type ConfigServiceProvider struct {
	container.BaseProvider
}

func (p *ConfigServiceProvider) Register(app *container.Container) {
	app.Types().Register("Settings", config.Defaults).
		WithDoc("Settings is the kernel configuration.\n@source config/kernel.yaml\n@env KERNEL_")
}

func (p *ConfigServiceProvider) Boot(app *container.Container) error {
	if _, err := container.Resolve[*config.Settings](app, "settings"); err != nil {
		return err
	}
	_, err := container.Resolve[*basepath.Path](app, "path")
	return err
}

// ── EnvironmentServiceProvider ────────────────────────────────────────────────

// EnvironmentServiceProvider binds the process environment snapshot.
//
// Bound names:
//   - "environment" → *env.Environment
type EnvironmentServiceProvider struct {
	container.BaseProvider
}

func (p *EnvironmentServiceProvider) Register(app *container.Container) {
	bindIf(app, "environment", env.New)
	app.Types().Register("Environment", env.New).
		WithDoc("Environment is the snapshot of the API and server variables.")
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router.
//
// Bound names:
//   - "router" → *routing.Router, logging requests on "logger"
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) {
	bindIf(app, "router", func() (*routing.Router, error) {
		log, err := container.Resolve[*zap.Logger](app, "logger")
		if err != nil {
			return nil, err
		}
		return routing.New(log), nil
	})
	app.Types().Register("Router", routing.New, container.Named("log").Optional()).
		WithDoc("Router dispatches the CGI request to the kernel routes.\n@package routing")
}

// ── ViewServiceProvider ───────────────────────────────────────────────────────

// ViewServiceProvider registers the template engine.
//
// Bound names:
//   - "view" → *view.Engine over <base>/<view.dir>
type ViewServiceProvider struct {
	container.BaseProvider
}

func newView(base *basepath.Path, s *config.Settings) *view.Engine {
	return view.New(under(base, s.View.Dir), s.View.Ext)
}

func (p *ViewServiceProvider) Register(app *container.Container) {
	bindIf(app, "view", func() (*view.Engine, error) {
		base, s, err := pathAndSettings(app)
		if err != nil {
			return nil, err
		}
		return newView(base, s), nil
	})
	app.Types().Register("View", newView, container.Named("base"), container.Named("settings")).
		WithDoc("View renders templates from the configured view directory.\n@package view")
}

// ── FinderServiceProvider ─────────────────────────────────────────────────────

// FinderServiceProvider registers the file finders.
//
// Bound names:
//   - "finder"   → *finder.Finder over the configured scopes
//   - "explorer" → *finder.Explorer over the base path
type FinderServiceProvider struct {
	container.BaseProvider
}

func newFinder(base *basepath.Path, s *config.Settings) *finder.Finder {
	return finder.New(base.Get(), s.Scopes)
}

func newExplorer(base *basepath.Path) *finder.Explorer {
	return finder.NewExplorer(base.Get())
}

func (p *FinderServiceProvider) Register(app *container.Container) {
	bindIf(app, "finder", func() (*finder.Finder, error) {
		base, s, err := pathAndSettings(app)
		if err != nil {
			return nil, err
		}
		return newFinder(base, s), nil
	})
	bindIf(app, "explorer", func() (*finder.Explorer, error) {
		base, err := container.Resolve[*basepath.Path](app, "path")
		if err != nil {
			return nil, err
		}
		return newExplorer(base), nil
	})
	app.Types().Register("Finder", newFinder, container.Named("base"), container.Named("settings")).
		WithDoc("Finder scans scope directories for files.\n@package finder")
	app.Types().Register("Explorer", newExplorer, container.Named("base")).
		WithDoc("Explorer globs recursively below the base path.\n@package finder")
}

// ── ExecutorServiceProvider ───────────────────────────────────────────────────

// ExecutorServiceProvider registers the "Executor" type the application
// autowires when the builders file names no executor.
type ExecutorServiceProvider struct {
	container.BaseProvider
}

func (p *ExecutorServiceProvider) Register(app *container.Container) {
	app.Types().Register("Executor", executor.FromEnvironment, container.Named("environment")).
		WithDoc("Executor runs the application for the detected API.\n@api cli, http")
}

func pathAndSettings(app *container.Container) (*basepath.Path, *config.Settings, error) {
	base, err := container.Resolve[*basepath.Path](app, "path")
	if err != nil {
		return nil, nil, err
	}
	s, err := container.Resolve[*config.Settings](app, "settings")
	if err != nil {
		return nil, nil, err
	}
	return base, s, nil
}
