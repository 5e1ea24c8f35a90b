package executor

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/go-kernel/framework/config"
	"github.com/km-arc/go-kernel/framework/container"
	"github.com/km-arc/go-kernel/framework/docs"
	"github.com/km-arc/go-kernel/framework/env"
	gohttp "github.com/km-arc/go-kernel/framework/http"
	"github.com/km-arc/go-kernel/framework/routing"
	"github.com/km-arc/go-kernel/framework/view"
)

// HTTP serves the single request described by the environment through the
// router and writes the CGI response to Out.
type HTTP struct {
	streams Streams
	c       *container.Container
	log     *zap.Logger
	router  *routing.Router
	req     *http.Request
}

// NewHTTP creates an HTTP executor reading the body from s.In.
func NewHTTP(s Streams) *HTTP {
	return &HTTP{streams: s}
}

// Prepare rebuilds the request and registers the kernel routes.
func (x *HTTP) Prepare(c *container.Container) error {
	log, err := container.Shared[*zap.Logger](c, "logger")
	if err != nil {
		return err
	}
	environment, err := container.Shared[*env.Environment](c, "environment")
	if err != nil {
		return err
	}
	router, err := container.Shared[*routing.Router](c, "router")
	if err != nil {
		return err
	}
	req, err := gohttp.RequestFromEnv(environment, x.streams.In)
	if err != nil {
		return err
	}

	x.c, x.log, x.router, x.req = c, log, router, req
	x.routes()
	return nil
}

// Router returns the prepared router, nil before Prepare.
func (x *HTTP) Router() *routing.Router { return x.router }

// Execute dispatches the request once.
func (x *HTTP) Execute(ctx context.Context) error {
	if x.req == nil {
		return ErrNotPrepared
	}
	x.log.Debug("http executing", zap.String("method", x.req.Method), zap.String("uri", x.req.RequestURI))
	return gohttp.Dispatch(x.router, x.req.WithContext(ctx), x.streams.Out)
}

func (x *HTTP) routes() {
	x.router.Get("/", x.welcome)
	x.router.Get("/_container", x.inspect)
	x.router.Get("/docs/{type}", x.document)
	x.router.NotFound(x.missing)
}

func (x *HTTP) missing(w http.ResponseWriter, r *http.Request) {
	gohttp.NewResponse(w).NotFound("no route for " + r.URL.Path)
}

func (x *HTTP) welcome(w http.ResponseWriter, _ *http.Request) {
	name := "Kernel"
	if s, err := container.Shared[*config.Settings](x.c, "settings"); err == nil {
		name = s.App.Name
	}
	gohttp.NewResponse(w).Success(map[string]any{"message": "Welcome to " + name})
}

func (x *HTTP) inspect(w http.ResponseWriter, _ *http.Request) {
	builders, instances := x.c.Names()
	gohttp.NewResponse(w).Success(map[string]any{
		"builders":  builders,
		"instances": instances,
		"types":     x.c.Types().Names(),
	})
}

func (x *HTTP) document(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)

	page, err := docs.Lookup(x.c.Types(), req.Param("type"), map[string]any{"api": "http"})
	if errors.Is(err, container.ErrTypeNotFound) {
		res.NotFound(err.Error())
		return
	}
	switch {
	case req.WantsJSON():
		res.Success(page)
	case req.Query("format") == "text":
		res.Text(http.StatusOK, page.String())
	default:
		engine, err := container.Shared[*view.Engine](x.c, "view")
		if err != nil || !engine.Exists(DocsView) {
			res.Text(http.StatusOK, page.String())
			return
		}
		res.View(engine, DocsView, page)
	}
}
