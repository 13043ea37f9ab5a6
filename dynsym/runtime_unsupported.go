//go:build !linux || !(amd64 || arm64)

// Package dynsym binds the host interpreter's entry points at run time.
package dynsym

import (
	"fmt"

	"github.com/sliverarmory/luahook"
)

var errUnsupported = fmt.Errorf("dynsym is only supported on linux/amd64 and linux/arm64: %w", luahook.ErrUnavailable)

// Runtime reports every entry point as unavailable on this platform.
type Runtime struct{}

var _ luahook.HostRuntime = (*Runtime)(nil)

func Next() *Runtime {
	return &Runtime{}
}

func Open(path string) (*Runtime, error) {
	_ = path
	return nil, errUnsupported
}

func (r *Runtime) DoFile() (luahook.ScriptFunc, error)         { return nil, errUnsupported }
func (r *Runtime) DoString() (luahook.ScriptFunc, error)       { return nil, errUnsupported }
func (r *Runtime) GetGlobal() (luahook.GetGlobalFunc, error)   { return nil, errUnsupported }
func (r *Runtime) GetString() (luahook.GetStringFunc, error)   { return nil, errUnsupported }
func (r *Runtime) IsFunction() (luahook.PredicateFunc, error)  { return nil, errUnsupported }
func (r *Runtime) IsTable() (luahook.PredicateFunc, error)     { return nil, errUnsupported }
func (r *Runtime) IsString() (luahook.PredicateFunc, error)    { return nil, errUnsupported }
func (r *Runtime) IsNil() (luahook.PredicateFunc, error)       { return nil, errUnsupported }
func (r *Runtime) StrLibOpen() (luahook.OpenLibFunc, error)    { return nil, errUnsupported }
func (r *Runtime) IOLibOpen() (luahook.OpenLibFunc, error)     { return nil, errUnsupported }
func (r *Runtime) SetGlobal() (luahook.SetGlobalFunc, error)   { return nil, errUnsupported }
func (r *Runtime) Param() (luahook.ParamFunc, error)           { return nil, errUnsupported }
func (r *Runtime) PushNumber() (luahook.PushNumberFunc, error) { return nil, errUnsupported }

func (r *Runtime) PushCClosure() (luahook.PushCClosureFunc, error) {
	return nil, errUnsupported
}
