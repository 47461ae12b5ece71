// Package werror defines the error kinds from the error-handling design
// (spec §7): typed structs implementing error, in the teacher's own style
// (core/errors.go's SpecNotCompiled, UnknownNode, BadBranching).
package werror

// InvalidArgumentError reports bad input to an API call.
type InvalidArgumentError struct {
	What string
}

func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.What
}

// IOError reports a file read/write failure. Save returns it to the
// caller; Load swallows it and returns an empty Properties instead.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return "io error during " + e.Op + " of " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// CycleError reports that a hook ordering graph contains a cycle. The
// dispatcher logs it, skips the cyclic component, and continues.
type CycleError struct {
	Hooks []string
}

func (e *CycleError) Error() string {
	s := "cycle detected among hooks:"
	for i, h := range e.Hooks {
		if i > 0 {
			s += ","
		}
		s += " " + h
	}
	return s
}

// ServiceUnavailableError reports that the request bus or media server
// transport is down. Hooks requiring it no-op with a notice.
type ServiceUnavailableError struct {
	Service string
}

func (e *ServiceUnavailableError) Error() string {
	return e.Service + " is not available"
}

// HookError reports that a hook executor failed. The dispatcher logs it
// at warning level and continues with the next hook.
type HookError struct {
	Hook string
	Err  error
}

func (e *HookError) Error() string {
	return "hook " + e.Hook + " failed: " + e.Err.Error()
}

func (e *HookError) Unwrap() error { return e.Err }
