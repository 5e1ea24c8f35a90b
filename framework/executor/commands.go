package executor

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-kernel/framework/container"
	"github.com/km-arc/go-kernel/framework/docs"
	"github.com/km-arc/go-kernel/framework/finder"
	"github.com/km-arc/go-kernel/framework/view"
)

// Commands returns the built-in commands bound to c.
func Commands(c *container.Container) []Commander {
	return []Commander{
		&BuildersCommand{c: c},
		&TypesCommand{c: c},
		&MakeCommand{factory: &container.Factory{Container: c}},
		&ScanCommand{c: c},
		&HandlersCommand{c: c},
		&DocsCommand{c: c},
	}
}

// ── builders ─────────────────────────────────────────────────────────────────

type BuildersCommand struct {
	c         *container.Container
	instances bool
}

func (s *BuildersCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "builders",
		Short: "List builder names",
		Args:  cobra.NoArgs,
		RunE:  s.Run,
	}
	cmd.Flags().BoolVar(&s.instances, "instances", false, "list cached instances instead")
	return cmd
}

func (s *BuildersCommand) Run(cmd *cobra.Command, _ []string) error {
	builders, instances := s.c.Names()
	names := builders
	if s.instances {
		names = instances
	}
	return lines(cmd.OutOrStdout(), names)
}

// ── types ────────────────────────────────────────────────────────────────────

type TypesCommand struct {
	c *container.Container
}

func (s *TypesCommand) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List autowirable type names",
		Args:  cobra.NoArgs,
		RunE:  s.Run,
	}
}

func (s *TypesCommand) Run(cmd *cobra.Command, _ []string) error {
	return lines(cmd.OutOrStdout(), s.c.Types().Names())
}

// ── make ─────────────────────────────────────────────────────────────────────

type MakeCommand struct {
	factory *container.Factory
}

func (s *MakeCommand) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "make <type>",
		Short: "Autowire a registered type and print it",
		Args:  cobra.ExactArgs(1),
		RunE:  s.Run,
	}
}

func (s *MakeCommand) Run(cmd *cobra.Command, args []string) error {
	v, ok, err := s.factory.Make(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("make: unknown type %q", args[0])
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%#v\n", v)
	return err
}

// ── scan ─────────────────────────────────────────────────────────────────────

type ScanCommand struct {
	c         *container.Container
	scope     string
	lowercase bool
	flat      bool
}

func (s *ScanCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "List file names under path in every scope directory",
		Args:  cobra.ExactArgs(1),
		RunE:  s.Run,
	}
	cmd.Flags().StringVar(&s.scope, "scope", "", "limit the scan to one scope")
	cmd.Flags().BoolVar(&s.lowercase, "lower", false, "lower-case the names")
	cmd.Flags().BoolVar(&s.flat, "flat", false, "do not descend into subdirectories")
	return cmd
}

func (s *ScanCommand) Run(cmd *cobra.Command, args []string) error {
	f, err := container.Shared[*finder.Finder](s.c, "finder")
	if err != nil {
		return err
	}
	names, err := f.Scan(args[0], s.scope, s.lowercase, !s.flat)
	if err != nil {
		return err
	}
	return lines(cmd.OutOrStdout(), names)
}

// ── handlers ─────────────────────────────────────────────────────────────────

type HandlersCommand struct {
	c *container.Container
}

func (s *HandlersCommand) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "handlers [pattern]",
		Short: "List handler sources below the base path",
		Args:  cobra.MaximumNArgs(1),
		RunE:  s.Run,
	}
}

func (s *HandlersCommand) Run(cmd *cobra.Command, args []string) error {
	e, err := container.Shared[*finder.Explorer](s.c, "explorer")
	if err != nil {
		return err
	}
	pattern := ""
	if len(args) == 1 {
		pattern = args[0]
	}
	names, err := e.Handlers(pattern)
	if err != nil {
		return err
	}
	return lines(cmd.OutOrStdout(), names)
}

// ── docs ─────────────────────────────────────────────────────────────────────

type DocsCommand struct {
	c    *container.Container
	html bool
}

func (s *DocsCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs <type>",
		Short: "Print the documentation of a registered type",
		Args:  cobra.ExactArgs(1),
		RunE:  s.Run,
	}
	cmd.Flags().BoolVar(&s.html, "html", false, "render through the docs view")
	return cmd
}

func (s *DocsCommand) Run(cmd *cobra.Command, args []string) error {
	page, err := docs.Lookup(s.c.Types(), args[0], map[string]any{"api": "cli"})
	if err != nil {
		return err
	}
	out := page.String()
	if s.html {
		engine, err := container.Shared[*view.Engine](s.c, "view")
		if err != nil {
			return err
		}
		if out, err = docs.Render(engine, DocsView, page); err != nil {
			return err
		}
	}
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}

// DocsView is the view rendering documentation pages.
const DocsView = "docs"

func lines(w io.Writer, ss []string) error {
	for _, s := range ss {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}
	return nil
}
