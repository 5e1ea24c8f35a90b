// Package http holds the kernel's HTTP plumbing: request and response
// helpers, and the single-shot CGI dispatch the http executor runs.
//
// # CGI dispatch
//
// A CGI gateway starts the process once per request. The request is rebuilt
// from the environment snapshot, served once, and written back to stdout:
//
//	req, err := gohttp.RequestFromEnv(environment, os.Stdin)
//	if err != nil { ... }
//	err = gohttp.Dispatch(router, req, os.Stdout)
//
// # Response
//
//	res := gohttp.NewResponse(w)
//	res.Success(map[string]any{"message": "ok"}) // 200 {"data": {...}}
//	res.NotFound("unknown type")                 // 404 {"message": "..."}
//	res.View(engine, "docs", page)               // text/html
package http
