package container

// Definition is one named builder read from a Source.
type Definition struct {
	Name    string
	Builder any
}

// Source supplies the initial builder set, in file order. A Source that
// cannot be read fails container construction.
type Source interface {
	Load() ([]Definition, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func() ([]Definition, error)

func (f SourceFunc) Load() ([]Definition, error) { return f() }

// ── Sharing ───────────────────────────────────────────────────────────────────

// Provide shares name with consumer. With an instance, that exact value is
// pinned in the consumer. Without one, the consumer receives this
// container's builder and builds name on its own from then on.
//
//	parent.Provide(child, "logger")          // child can now build "logger"
//	parent.Provide(child, "config", cfg)     // child sees cfg as "config"
func (c *Container) Provide(consumer *Container, name string, instance ...any) error {
	if len(instance) > 0 && instance[0] != nil {
		consumer.SetInstance(name, instance[0])
		return nil
	}
	fn, ok := c.Builder(name)
	if !ok {
		return &NameNotBoundError{Name: name}
	}
	consumer.setBuilder(name, fn)
	return nil
}

// Inform hands consumer this container's base path and a copy of every builder.
func (c *Container) Inform(consumer *Container) {
	consumer.basePath = c.basePath
	consumer.SetBuilders(c.Builders())
}
