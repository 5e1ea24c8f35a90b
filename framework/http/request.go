package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Request wraps *http.Request with input helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// Param returns a route parameter.
func (req *Request) Param(key string) string {
	return chi.URLParam(req.raw, key)
}

// Header returns a request header value.
func (req *Request) Header(key string, fallback ...string) string {
	v := req.raw.Header.Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// WantsJSON reports whether the client prefers a JSON response.
func (req *Request) WantsJSON() bool {
	if req.Query("format") == "json" {
		return true
	}
	return strings.Contains(req.raw.Header.Get("Accept"), "application/json")
}
