// Package executor holds the two ways the kernel runs: as a command (cli)
// or as a single CGI-style request (http).
package executor

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/km-arc/go-kernel/framework/container"
	"github.com/km-arc/go-kernel/framework/env"
)

// Executor runs the application once. Prepare pulls what it needs from the
// container; Execute does the work.
type Executor interface {
	Prepare(c *container.Container) error
	Execute(ctx context.Context) error
}

// Streams is the process IO an executor reads from and writes to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process's standard streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// ForAPI returns the executor serving api.
//
//	x, err := executor.ForAPI(env.CLI, executor.StdStreams())
func ForAPI(api env.API, s Streams) (Executor, error) {
	switch api {
	case env.CLI:
		return NewCLI(s), nil
	case env.HTTP:
		return NewHTTP(s), nil
	}
	return nil, fmt.Errorf("executor: no executor for api %q", api)
}

// FromEnvironment picks the executor for the detected API.
func FromEnvironment(e *env.Environment) (Executor, error) {
	return ForAPI(e.API(), StdStreams())
}
