// Package env snapshots the process environment the kernel was started in:
// whether it runs as a command or as a CGI-style HTTP handler, and the
// server variables of that API.
package env

import (
	"os"
	"strconv"
	"strings"
	"unicode"
)

// API is the interface the process was invoked through.
type API string

const (
	CLI  API = "cli"
	HTTP API = "http"
)

var serverHTTP = []string{
	"HTTP_HOST",
	"REQUEST_METHOD",
	"SERVER_PROTOCOL",
	"SERVER_ADDR",
	"QUERY_STRING",
	"DOCUMENT_ROOT",
	"HTTP_REFERER",
	"HTTP_USER_AGENT",
	"HTTP_ACCEPT",
	"HTTPS",
	"REMOTE_ADDR",
	"REQUEST_URI",
	"SCRIPT_NAME",
	"PATH_INFO",
	"CONTENT_TYPE",
	"CONTENT_LENGTH",
}

// Environment is an immutable snapshot taken at construction.
type Environment struct {
	api    API
	server map[string]string
	args   []string
}

// New snapshots os.Environ and os.Args.
func New() *Environment {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return FromMap(vars, os.Args)
}

// FromMap builds a snapshot from explicit variables and arguments.
func FromMap(vars map[string]string, args []string) *Environment {
	e := &Environment{api: Detect(vars), server: make(map[string]string)}
	switch e.api {
	case HTTP:
		for _, name := range serverHTTP {
			if v, ok := vars[name]; ok {
				e.server[name] = sanitize(v)
			}
		}
	default:
		e.args = append([]string(nil), args...)
		e.server["argv"] = sanitize(strings.Join(args, " "))
		e.server["argc"] = strconv.Itoa(len(args))
	}
	return e
}

// Detect reports HTTP when a CGI gateway or request method is present.
func Detect(vars map[string]string) API {
	if vars["GATEWAY_INTERFACE"] != "" || vars["REQUEST_METHOD"] != "" {
		return HTTP
	}
	return CLI
}

// API returns the detected interface.
func (e *Environment) API() API { return e.api }

// Server returns a snapshotted variable, or "" when absent.
func (e *Environment) Server(name string) string { return e.server[name] }

// Lookup is Server with presence.
func (e *Environment) Lookup(name string) (string, bool) {
	v, ok := e.server[name]
	return v, ok
}

// Vars returns a copy of every snapshotted variable.
func (e *Environment) Vars() map[string]string {
	out := make(map[string]string, len(e.server))
	for k, v := range e.server {
		out[k] = v
	}
	return out
}

// Args returns the command-line arguments, empty for HTTP.
func (e *Environment) Args() []string { return append([]string(nil), e.args...) }

// sanitize drops control characters.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
