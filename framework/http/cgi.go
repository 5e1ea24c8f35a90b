package http

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/cgi"
	"sort"

	"github.com/km-arc/go-kernel/framework/env"
)

// DefaultProtocol is assumed when the gateway does not report SERVER_PROTOCOL.
const DefaultProtocol = "HTTP/1.1"

// RequestFromEnv rebuilds the request the gateway handed to the process
// from the environment snapshot. body is the request body (stdin for CGI).
func RequestFromEnv(e *env.Environment, body io.Reader) (*http.Request, error) {
	vars := e.Vars()
	if vars["SERVER_PROTOCOL"] == "" {
		vars["SERVER_PROTOCOL"] = DefaultProtocol
	}
	if vars["REQUEST_URI"] == "" && vars["SCRIPT_NAME"] == "" && vars["PATH_INFO"] == "" {
		vars["REQUEST_URI"] = "/"
	}
	req, err := cgi.RequestFromMap(vars)
	if err != nil {
		return nil, fmt.Errorf("http: building request from environment: %w", err)
	}
	if body != nil {
		req.Body = io.NopCloser(body)
	}
	return req, nil
}

// Dispatch serves req once through h and writes a CGI response to out:
// a Status line, the headers in name order, a blank line, then the body.
func Dispatch(h http.Handler, req *http.Request, out io.Writer) error {
	rw := newResponseWriter()
	h.ServeHTTP(rw, req)
	return rw.writeTo(out)
}

// responseWriter buffers one response for Dispatch.
type responseWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: make(http.Header)}
}

func (w *responseWriter) Header() http.Header { return w.header }

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) Write(p []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	return w.body.Write(p)
}

func (w *responseWriter) writeTo(out io.Writer) error {
	w.WriteHeader(http.StatusOK)
	if w.header.Get("Content-Type") == "" && w.body.Len() > 0 {
		w.header.Set("Content-Type", http.DetectContentType(w.body.Bytes()))
	}

	bw := bufio.NewWriter(out)
	fmt.Fprintf(bw, "Status: %d %s\r\n", w.status, http.StatusText(w.status))
	names := make([]string, 0, len(w.header))
	for k := range w.header {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		for _, v := range w.header[k] {
			fmt.Fprintf(bw, "%s: %s\r\n", k, v)
		}
	}
	bw.WriteString("\r\n")
	if _, err := bw.Write(w.body.Bytes()); err != nil {
		return err
	}
	return bw.Flush()
}
