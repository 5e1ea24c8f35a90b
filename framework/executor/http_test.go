package executor_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-kernel/framework/env"
	"github.com/km-arc/go-kernel/framework/executor"
)

// ── helpers ──────────────────────────────────────────────────────────────────

type cgiResponse struct {
	status string
	header map[string]string
	body   string
}

func parseCGI(t *testing.T, raw string) cgiResponse {
	t.Helper()
	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok, raw)

	res := cgiResponse{header: map[string]string{}, body: body}
	for _, line := range strings.Split(head, "\r\n") {
		k, v, _ := strings.Cut(line, ": ")
		if k == "Status" {
			res.status = v
			continue
		}
		res.header[k] = v
	}
	return res
}

func serve(t *testing.T, base string, vars map[string]string) cgiResponse {
	t.Helper()
	vars["GATEWAY_INTERFACE"] = "CGI/1.1"
	if vars["REQUEST_METHOD"] == "" {
		vars["REQUEST_METHOD"] = "GET"
	}
	s, out := streams()
	x := executor.NewHTTP(s)
	require.NoError(t, x.Prepare(kernel(t, base, env.FromMap(vars, nil))))
	require.NoError(t, x.Execute(context.Background()))
	return parseCGI(t, out.String())
}

// ── routes ───────────────────────────────────────────────────────────────────

func TestHTTP_Welcome(t *testing.T) {
	res := serve(t, t.TempDir(), map[string]string{"REQUEST_URI": "/"})

	assert.Equal(t, "200 OK", res.status)
	assert.Equal(t, "application/json", res.header["Content-Type"])
	assert.JSONEq(t, `{"data":{"message":"Welcome to Kernel"}}`, res.body)
}

func TestHTTP_Container(t *testing.T) {
	res := serve(t, t.TempDir(), map[string]string{"REQUEST_URI": "/_container"})
	require.Equal(t, "200 OK", res.status)

	var body struct {
		Data struct {
			Builders  []string `json:"builders"`
			Instances []string `json:"instances"`
			Types     []string `json:"types"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.body), &body))
	assert.Equal(t, []string{"explorer", "finder", "router", "view"}, body.Data.Builders)
	assert.Contains(t, body.Data.Instances, "router")
	assert.Equal(t, []string{"Gadget"}, body.Data.Types)
}

func TestHTTP_Docs(t *testing.T) {
	base := t.TempDir()

	res := serve(t, base, map[string]string{"REQUEST_URI": "/docs/Gadget"})
	assert.Equal(t, "200 OK", res.status)
	assert.Equal(t, "text/plain; charset=utf-8", res.header["Content-Type"])
	assert.True(t, strings.HasPrefix(res.body, "Gadget\n\nGadget builds widgets."), res.body)

	res = serve(t, base, map[string]string{"REQUEST_URI": "/docs/gadget", "HTTP_ACCEPT": "application/json"})
	assert.Equal(t, "application/json", res.header["Content-Type"])
	assert.Contains(t, res.body, `"Type":"Gadget"`)

	writeFile(t, base, "views/docs.html", "<h1>{{.Type}}</h1>")
	res = serve(t, base, map[string]string{"REQUEST_URI": "/docs/Gadget"})
	assert.Equal(t, "text/html; charset=utf-8", res.header["Content-Type"])
	assert.Equal(t, "<h1>Gadget</h1>", res.body)

	res = serve(t, base, map[string]string{"REQUEST_URI": "/docs/Gadget?format=text"})
	assert.Equal(t, "text/plain; charset=utf-8", res.header["Content-Type"])
}

func TestHTTP_DocsUnknownType(t *testing.T) {
	res := serve(t, t.TempDir(), map[string]string{"REQUEST_URI": "/docs/Missing"})

	assert.Equal(t, "404 Not Found", res.status)
	assert.Contains(t, res.body, "Missing")
}

func TestHTTP_UnknownRoute(t *testing.T) {
	res := serve(t, t.TempDir(), map[string]string{"REQUEST_URI": "/nowhere"})
	assert.Equal(t, "404 Not Found", res.status)
	assert.Equal(t, "application/json", res.header["Content-Type"])
	assert.Contains(t, res.body, "no route for /nowhere")
}

func TestHTTP_PrepareRejectsBadRequest(t *testing.T) {
	s, _ := streams()
	e := env.FromMap(map[string]string{
		"GATEWAY_INTERFACE": "CGI/1.1",
		"REQUEST_METHOD":    "GET",
		"SERVER_PROTOCOL":   "bogus",
	}, nil)

	err := executor.NewHTTP(s).Prepare(kernel(t, t.TempDir(), e))
	assert.Error(t, err)
}

func TestHTTP_RouterAfterPrepare(t *testing.T) {
	s, _ := streams()
	x := executor.NewHTTP(s)
	assert.Nil(t, x.Router())

	e := env.FromMap(map[string]string{"REQUEST_METHOD": "GET"}, nil)
	require.NoError(t, x.Prepare(kernel(t, t.TempDir(), e)))
	assert.Len(t, x.Router().Routes(), 3)
}
