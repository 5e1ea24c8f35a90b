package executor

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/km-arc/go-kernel/framework/config"
	"github.com/km-arc/go-kernel/framework/container"
	"github.com/km-arc/go-kernel/framework/env"
)

// ErrNotPrepared is returned by Execute before a successful Prepare.
var ErrNotPrepared = errors.New("executor: not prepared")

// Commander contributes one sub-command to the CLI.
type Commander interface {
	Command() *cobra.Command
}

// CLI runs one cobra command tree over the process arguments.
type CLI struct {
	streams Streams
	root    *cobra.Command
	args    []string
	log     *zap.Logger
}

// NewCLI creates a CLI executor writing to s.
func NewCLI(s Streams) *CLI {
	return &CLI{streams: s}
}

// Prepare builds the command tree from the container's services.
func (x *CLI) Prepare(c *container.Container) error {
	log, err := container.Shared[*zap.Logger](c, "logger")
	if err != nil {
		return err
	}
	settings, err := container.Shared[*config.Settings](c, "settings")
	if err != nil {
		return err
	}
	environment, err := container.Shared[*env.Environment](c, "environment")
	if err != nil {
		return err
	}

	x.log = log
	if args := environment.Args(); len(args) > 1 {
		x.args = args[1:]
	} else {
		x.args = []string{}
	}

	x.root = &cobra.Command{
		Use:           "kernel",
		Short:         settings.App.Name + " kernel",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	for _, cmd := range Commands(c) {
		x.root.AddCommand(cmd.Command())
	}
	x.root.SetIn(x.streams.In)
	x.root.SetOut(x.streams.Out)
	x.root.SetErr(x.streams.Err)
	return nil
}

// Root returns the prepared command tree, nil before Prepare.
func (x *CLI) Root() *cobra.Command { return x.root }

// Execute runs the command selected by the process arguments.
func (x *CLI) Execute(ctx context.Context) error {
	if x.root == nil {
		return ErrNotPrepared
	}
	x.root.SetArgs(x.args)
	x.log.Debug("cli executing", zap.Strings("args", x.args))
	return x.root.ExecuteContext(ctx)
}
