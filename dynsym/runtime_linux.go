//go:build linux && (amd64 || arm64)

// Package dynsym binds the host interpreter's entry points at run time.
package dynsym

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"

	"github.com/sliverarmory/luahook"
	_ "github.com/sliverarmory/luahook/dynsym/internal/cgobootstrap"
)

// rtldNext is glibc's RTLD_NEXT pseudo-handle, ((void *) -1).
const rtldNext = ^uintptr(0)

// Runtime resolves entry points through dlsym. It implements
// luahook.HostRuntime.
type Runtime struct {
	handle uintptr
}

var _ luahook.HostRuntime = (*Runtime)(nil)

// Next returns a runtime resolving each symbol in the objects loaded after
// the calling one, skipping the interposed definitions of the shim itself.
func Next() *Runtime {
	return &Runtime{handle: rtldNext}
}

// Open returns a runtime resolving symbols inside the library at path.
func Open(path string) (*Runtime, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen(%s): %w", path, err)
	}
	return &Runtime{handle: handle}, nil
}

func (r *Runtime) lookup(name string) (uintptr, error) {
	addr, err := purego.Dlsym(r.handle, name)
	if err != nil {
		return 0, fmt.Errorf("dlsym(%s): %w", name, err)
	}
	if addr == 0 {
		return 0, fmt.Errorf("dlsym(%s): %w", name, luahook.ErrUnavailable)
	}
	return addr, nil
}

// register binds the C function name to fptr.
func (r *Runtime) register(name string, fptr any) error {
	addr, err := r.lookup(name)
	if err != nil {
		return err
	}
	purego.RegisterFunc(fptr, addr)
	return nil
}

// scriptFunc adapts an int fn(char *) entry point. An empty argument is
// passed as NULL.
func (r *Runtime) scriptFunc(name string) (luahook.ScriptFunc, error) {
	var raw func(arg uintptr) int32
	if err := r.register(name, &raw); err != nil {
		return nil, err
	}
	return func(arg string) int {
		if arg == "" {
			return int(raw(0))
		}
		b, err := cStringBytes(arg)
		if err != nil {
			return -1
		}
		rc := raw(cStringPtr(b))
		runtime.KeepAlive(b)
		return int(rc)
	}, nil
}

func (r *Runtime) predicate(name string) (luahook.PredicateFunc, error) {
	var raw func(obj uint32) int32
	if err := r.register(name, &raw); err != nil {
		return nil, err
	}
	return func(obj luahook.Object) bool {
		return raw(uint32(obj)) != 0
	}, nil
}

func (r *Runtime) openLib(name string) (luahook.OpenLibFunc, error) {
	var raw func()
	if err := r.register(name, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// DoFile binds int lua_dofile(char *filename).
func (r *Runtime) DoFile() (luahook.ScriptFunc, error) {
	return r.scriptFunc(luahook.SymDoFile)
}

// DoString binds int lua_dostring(char *string).
func (r *Runtime) DoString() (luahook.ScriptFunc, error) {
	return r.scriptFunc(luahook.SymDoString)
}

// GetGlobal binds lua_Object lua_getglobal(char *name).
func (r *Runtime) GetGlobal() (luahook.GetGlobalFunc, error) {
	return r.objectByName(luahook.SymGetGlobal)
}

// objectByName adapts an unsigned int fn(char *) entry point.
func (r *Runtime) objectByName(name string) (luahook.GetGlobalFunc, error) {
	var raw func(name uintptr) uint32
	if err := r.register(name, &raw); err != nil {
		return nil, err
	}
	return func(arg string) luahook.Object {
		b, err := cStringBytes(arg)
		if err != nil {
			return luahook.NoObject
		}
		obj := raw(cStringPtr(b))
		runtime.KeepAlive(b)
		return luahook.Object(obj)
	}, nil
}

// GetString binds char *lua_getstring(lua_Object object).
func (r *Runtime) GetString() (luahook.GetStringFunc, error) {
	return r.stringOf(luahook.SymGetString)
}

// stringOf adapts a char *fn(unsigned int) entry point. A NULL result
// reports false.
func (r *Runtime) stringOf(name string) (luahook.GetStringFunc, error) {
	var raw func(obj uint32) uintptr
	if err := r.register(name, &raw); err != nil {
		return nil, err
	}
	return func(obj luahook.Object) (string, bool) {
		return cStringFromPtr(raw(uint32(obj)))
	}, nil
}

func (r *Runtime) IsFunction() (luahook.PredicateFunc, error) {
	return r.predicate(luahook.SymIsFunction)
}

func (r *Runtime) IsTable() (luahook.PredicateFunc, error) {
	return r.predicate(luahook.SymIsTable)
}

func (r *Runtime) IsString() (luahook.PredicateFunc, error) {
	return r.predicate(luahook.SymIsString)
}

func (r *Runtime) IsNil() (luahook.PredicateFunc, error) {
	return r.predicate(luahook.SymIsNil)
}

func (r *Runtime) StrLibOpen() (luahook.OpenLibFunc, error) {
	return r.openLib(luahook.SymStrLibOpen)
}

func (r *Runtime) IOLibOpen() (luahook.OpenLibFunc, error) {
	return r.openLib(luahook.SymIOLibOpen)
}

// PushCClosure binds void lua_pushcclosure(lua_CFunction fn, int n).
func (r *Runtime) PushCClosure() (luahook.PushCClosureFunc, error) {
	var raw func(fn uintptr, n int32)
	if err := r.register(luahook.SymPushCClosure, &raw); err != nil {
		return nil, err
	}
	return func(fn uintptr, upvalues int) {
		raw(fn, int32(upvalues))
	}, nil
}

// SetGlobal binds void lua_setglobal(char *name).
func (r *Runtime) SetGlobal() (luahook.SetGlobalFunc, error) {
	var raw func(name uintptr)
	if err := r.register(luahook.SymSetGlobal, &raw); err != nil {
		return nil, err
	}
	return func(name string) {
		b, err := cStringBytes(name)
		if err != nil {
			return
		}
		raw(cStringPtr(b))
		runtime.KeepAlive(b)
	}, nil
}

// Param binds lua_Object lua_lua2C(int number), the function behind the
// lua_getparam macro.
func (r *Runtime) Param() (luahook.ParamFunc, error) {
	return r.objectByIndex(luahook.SymParam)
}

// objectByIndex adapts an unsigned int fn(int) entry point.
func (r *Runtime) objectByIndex(name string) (luahook.ParamFunc, error) {
	var raw func(n int32) uint32
	if err := r.register(name, &raw); err != nil {
		return nil, err
	}
	return func(n int) luahook.Object {
		return luahook.Object(raw(int32(n)))
	}, nil
}

// PushNumber binds void lua_pushnumber(double n).
func (r *Runtime) PushNumber() (luahook.PushNumberFunc, error) {
	var raw func(n float64)
	if err := r.register(luahook.SymPushNumber, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
