package container

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error below matches one of them with errors.Is.
var (
	ErrNameNotBound          = errors.New("container: name not bound")
	ErrUnresolvableParameter = errors.New("container: unresolvable parameter")
	ErrConfigLoad            = errors.New("container: config load failure")
	ErrCyclicDependency      = errors.New("container: cyclic dependency")
	ErrTypeNotFound          = errors.New("container: type not found")
	ErrBuilderPanic          = errors.New("container: panic during builder call")
)

// NameNotBoundError is returned when a name has neither a cached instance
// nor a registered builder.
type NameNotBoundError struct {
	Name string
}

func (e *NameNotBoundError) Error() string {
	return fmt.Sprintf("container: no builder or instance bound for [%s]", e.Name)
}

func (e *NameNotBoundError) Unwrap() error { return ErrNameNotBound }

// UnresolvableParameterError names the constructor parameter that could not
// be satisfied and the type being constructed.
type UnresolvableParameterError struct {
	Param string
	Type  string
	Cause error
}

func (e *UnresolvableParameterError) Error() string {
	param := e.Param
	if param == "" {
		param = "#?"
	}
	msg := fmt.Sprintf("container: unable to resolve parameter [%s] of [%s]", param, e.Type)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UnresolvableParameterError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnresolvableParameter}
	}
	return []error{ErrUnresolvableParameter, e.Cause}
}

// ConfigLoadError reports a builders source that could not be read.
type ConfigLoadError struct {
	Path string
	Err  error
}

func (e *ConfigLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("container: loading builders: %v", e.Err)
	}
	return fmt.Sprintf("container: loading builders from %s: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() []error { return []error{ErrConfigLoad, e.Err} }

// CycleError lists the resolution chain that led back to a key already in progress.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("container: cyclic dependency [%s]", strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicDependency }

func typeNotFound(name string) error {
	return fmt.Errorf("%w: [%s]", ErrTypeNotFound, name)
}
