// Package container provides the kernel's dependency-injection container:
// named builders resolved lazily into singleton instances, reflection-driven
// autowiring of constructors, and parent → child sharing.
//
// # Builders and instances
//
// A container holds two maps sharing one namespace. Builders are funcs of any
// arity returning T or (T, error); storing one never calls it. Instances are
// values pinned under a name and returned by identity. A pinned instance
// always wins over the builder of the same name.
//
//	c, err := container.New()
//	c.SetBuilder("logger", func(level string) (*zap.Logger, error) { ... })
//	c.SetInstance("config", cfg)
//
//	// or, with the entry decided at the call site
//	c.Set("logger", container.Builder(newLogger))
//	c.Set("config", container.Instance(cfg))
//
// # Dispatch
//
//	c.Get("logger")                  // instance, else the raw builder
//	c.Build("logger", "debug")       // call builder "logger", not cached
//	c.Build("buildLogger", "debug")  // call builder "logger", cache under "logger"
//	c.NewInstance("logger", "debug") // same as above
//	c.CallBuilder("logger", "debug") // plain forwarding call
//
//	log, err := container.Shared[*zap.Logger](c, "logger") // instance, else build and cache once
//
// # Autowiring
//
// Go has no constructor reflection by type name, so autowirable types are
// registered in a Types registry with their constructor and, where the
// autowirer needs them, parameter names, defaults and optionality:
//
//	types := container.NewTypes()
//	types.Register("Gadget", NewGadget)                              // func(*Widget) *Gadget
//	types.Register("Thing", NewThing, container.Named("count").Default(5))
//	container.RegisterType[Widget](types, "Widget")                  // no constructor
//
//	f, _ := container.NewFactory(container.WithTypes(types))
//	g, ok, err := f.Make("Gadget")
//
// A parameter of named type T is looked up under the key "t" (lower-cased,
// pointer stripped): instance first, then builder (called and cached), then T
// itself autowired. Func-typed parameters receive the builder registered
// under the parameter's name. Cycles fail with ErrCyclicDependency.
//
// # Sharing
//
//	parent.Provide(child, "logger")       // copy the builder
//	parent.Provide(child, "config", cfg)  // pin the instance
//
// # Service providers
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppProvider{})
//	registry.Boot()
package container
