package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-kernel/framework/app"
	"github.com/km-arc/go-kernel/framework/config"
	"github.com/km-arc/go-kernel/framework/container"
	"github.com/km-arc/go-kernel/framework/env"
	"github.com/km-arc/go-kernel/framework/executor"
)

// ── helpers ──────────────────────────────────────────────────────────────────

type recorder struct {
	api        env.API
	calls      []string
	prepared   *container.Container
	prepareErr error
	executeErr error
}

func (r *recorder) Prepare(c *container.Container) error {
	r.calls = append(r.calls, "prepare")
	r.prepared = c
	return r.prepareErr
}

func (r *recorder) Execute(context.Context) error {
	r.calls = append(r.calls, "execute")
	return r.executeErr
}

func project(t *testing.T, builders string) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, config.BuildersFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(builders), 0o600))
	return base
}

func cliEnv(args ...string) *env.Environment {
	return env.FromMap(map[string]string{}, append([]string{"kernel"}, args...))
}

func newApp(t *testing.T, rec *recorder, opts ...app.Option) *app.Application {
	t.Helper()
	base := project(t, "executor: test.executor\n")
	opts = append([]app.Option{
		app.WithBasePath(base),
		app.WithEnvironment(cliEnv()),
		app.WithLogger(zap.NewNop()),
		app.WithCatalog(config.Catalog{
			"test.executor": func(api env.API) app.Executor {
				rec.api = api
				return rec
			},
		}),
	}, opts...)
	a, err := app.New(opts...)
	require.NoError(t, err)
	return a
}

// ── New ──────────────────────────────────────────────────────────────────────

func TestNew_MissingBuildersFile(t *testing.T) {
	_, err := app.New(app.WithBasePath(t.TempDir()), app.WithLogger(zap.NewNop()))

	require.ErrorIs(t, err, container.ErrConfigLoad)
	var cle *container.ConfigLoadError
	require.ErrorAs(t, err, &cle)
	assert.Contains(t, cle.Path, config.BuildersFile)
}

func TestNew_BuildsExecutorWithAPI(t *testing.T) {
	rec := &recorder{}
	a := newApp(t, rec)

	assert.Equal(t, env.CLI, rec.api)
	assert.Same(t, rec, a.Executor())
	got, ok := a.Instance("executor")
	require.True(t, ok)
	assert.Same(t, rec, got)
	assert.Equal(t, app.Created, a.State())
}

func TestNew_PinsKernelInstances(t *testing.T) {
	a := newApp(t, &recorder{})

	for _, name := range []string{"container", "path", "settings", "logger", "environment", "executor"} {
		assert.True(t, a.Resolved(name), name)
	}
	assert.Equal(t, a.Base().Get(), a.BasePath())
	assert.Equal(t, env.CLI, a.Environment().API())
	assert.Equal(t, "Kernel", a.Settings().App.Name)
	assert.True(t, a.IsLocal())
	assert.False(t, a.IsProduction())
	assert.False(t, a.IsTesting())
	assert.True(t, a.IsDebug())
	assert.Equal(t, app.Version, a.Version())

	_, err := uuid.Parse(a.ID())
	assert.NoError(t, err)
	assert.NotEqual(t, a.ID(), newApp(t, &recorder{}).ID())
}

func TestNew_AutowiresExecutorWithoutBuilder(t *testing.T) {
	base := project(t, "# no builders\n")

	a, err := app.New(
		app.WithBasePath(base),
		app.WithEnvironment(cliEnv()),
		app.WithLogger(zap.NewNop()),
	)
	require.NoError(t, err)
	assert.IsType(t, &executor.CLI{}, a.Executor())
}

func TestNew_ExecutorFromCatalog(t *testing.T) {
	base := project(t, "executor: kernel.executor\n")
	httpEnv := env.FromMap(map[string]string{"REQUEST_METHOD": "GET"}, nil)

	a, err := app.New(app.WithBasePath(base), app.WithEnvironment(httpEnv), app.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	assert.IsType(t, &executor.HTTP{}, a.Executor())
}

func TestNew_ExecutorWrongType(t *testing.T) {
	base := project(t, "executor: test.bad\n")

	_, err := app.New(
		app.WithBasePath(base),
		app.WithEnvironment(cliEnv()),
		app.WithLogger(zap.NewNop()),
		app.WithCatalog(config.Catalog{"test.bad": func(env.API) string { return "nope" }}),
	)
	assert.ErrorContains(t, err, "executor resolved to string")
}

func TestNew_LoggerFromBuildersFile(t *testing.T) {
	base := project(t, "executor: kernel.executor\nlogger: logging.nop\n")

	a, err := app.New(app.WithBasePath(base), app.WithEnvironment(cliEnv()))
	require.NoError(t, err)
	assert.NotNil(t, a.Logger())
	assert.True(t, a.Resolved("logger"))
}

func TestNew_ExtraProviders(t *testing.T) {
	rec := &recorder{}
	extra := &greeter{}
	a := newApp(t, rec, app.WithProviders(extra))

	got, err := a.Build("greeting", "kernel")
	require.NoError(t, err)
	assert.Equal(t, "hello kernel", got)
	assert.True(t, extra.booted)
	assert.Contains(t, a.Providers.Providers(), container.ServiceProvider(extra))
}

type greeter struct {
	container.BaseProvider
	booted bool
}

func (g *greeter) Register(c *container.Container) {
	c.SetBuilder("greeting", func(name string) string { return "hello " + name })
}

func (g *greeter) Boot(*container.Container) error {
	g.booted = true
	return nil
}

// ── Execute ──────────────────────────────────────────────────────────────────

func TestExecute_PreparesThenExecutes(t *testing.T) {
	rec := &recorder{}
	a := newApp(t, rec)

	require.NoError(t, a.Execute(context.Background()))
	assert.Equal(t, []string{"prepare", "execute"}, rec.calls)
	assert.Same(t, a.Container, rec.prepared)
	assert.Equal(t, app.Executed, a.State())

	assert.ErrorIs(t, a.Execute(context.Background()), app.ErrAlreadyExecuted)
	assert.Equal(t, []string{"prepare", "execute"}, rec.calls)
}

func TestExecute_PrepareErrorStopsRun(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{prepareErr: boom}
	a := newApp(t, rec)

	assert.ErrorIs(t, a.Execute(context.Background()), boom)
	assert.Equal(t, []string{"prepare"}, rec.calls)
	assert.Equal(t, app.Created, a.State())
	assert.ErrorIs(t, a.Execute(context.Background()), app.ErrAlreadyExecuted)
}

func TestExecute_ExecuteErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{executeErr: boom}
	a := newApp(t, rec)

	assert.ErrorIs(t, a.Execute(context.Background()), boom)
	assert.Equal(t, app.Prepared, a.State())
}

func TestNew_AutowiredCLIPrepares(t *testing.T) {
	base := project(t, "# autowired executor\n")
	a, err := app.New(
		app.WithBasePath(base),
		app.WithEnvironment(cliEnv("types")),
		app.WithLogger(zap.NewNop()),
	)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	cli, ok := a.Executor().(*executor.CLI)
	require.True(t, ok)
	require.NoError(t, cli.Prepare(a.Container))
	assert.NotNil(t, cli.Root())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "created", app.Created.String())
	assert.Equal(t, "prepared", app.Prepared.String())
	assert.Equal(t, "executed", app.Executed.String())
	assert.Equal(t, "State(9)", app.State(9).String())
}
