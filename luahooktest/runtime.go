// Package luahooktest provides a deterministic HostRuntime for tests and the
// simulator. It emulates a Lua 3.1 global namespace, the C-to-Lua stack used
// by native functions, and the bootstrap templates of package luahook.
package luahooktest

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/sliverarmory/luahook"
)

// Kind is the type of an emulated interpreter value.
type Kind int

const (
	KindNil Kind = iota
	KindFunction
	KindTable
	KindString
	KindNumber
)

// Value is an emulated interpreter value.
type Value struct {
	Kind   Kind
	Str    string
	Num    float64
	Addr   uintptr
	Fields map[string]Value
}

func Nil() Value             { return Value{} }
func Function() Value        { return Value{Kind: KindFunction} }
func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func Table() Value           { return Value{Kind: KindTable, Fields: map[string]Value{}} }

// IsFunction reports whether v is callable.
func (v Value) IsFunction() bool { return v.Kind == KindFunction }

// LibraryStyle selects which naming convention a library open installs.
type LibraryStyle string

const (
	StyleNone   LibraryStyle = "none"
	StyleLegacy LibraryStyle = "legacy"
	StyleTable  LibraryStyle = "table"
	StyleBoth   LibraryStyle = "both"
)

// FileHook runs in place of an emulated script file and returns its status.
type FileHook func(rt *Runtime) int

// Runtime is a fake luahook.HostRuntime. The zero value is not usable; call
// New.
type Runtime struct {
	mu       sync.Mutex
	globals  map[string]Value
	objects  []Value
	params   []Value
	stack    []Value
	disabled map[string]bool

	stringStyle LibraryStyle
	ioStyle     LibraryStyle
	results     map[string]int
	fileHooks   map[string]FileHook
	scriptRC    map[string]int

	fileCalls   []string
	scriptCalls []string
	strOpens    int
	ioOpens     int
}

var _ luahook.HostRuntime = (*Runtime)(nil)

// New returns a runtime exporting every entry point, with no libraries.
func New() *Runtime {
	return &Runtime{
		globals:     map[string]Value{},
		disabled:    map[string]bool{},
		stringStyle: StyleNone,
		ioStyle:     StyleNone,
		results:     map[string]int{},
		fileHooks:   map[string]FileHook{},
		scriptRC:    map[string]int{},
	}
}

// Disable makes the named entry points unresolvable.
func (rt *Runtime) Disable(names ...string) *Runtime {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, name := range names {
		rt.disabled[name] = true
	}
	return rt
}

// SetStringLibrary selects what lua_strlibopen installs.
func (rt *Runtime) SetStringLibrary(style LibraryStyle) *Runtime {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.stringStyle = style
	return rt
}

// SetIOLibrary selects what lua_iolibopen installs.
func (rt *Runtime) SetIOLibrary(style LibraryStyle) *Runtime {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.ioStyle = style
	return rt
}

// SetResult sets the status returned by lua_dofile for path.
func (rt *Runtime) SetResult(path string, rc int) *Runtime {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.results[path] = rc
	return rt
}

// OnDoFile replaces the emulated execution of path. The hook runs without
// the runtime lock held and may use the runtime's other methods.
func (rt *Runtime) OnDoFile(path string, hook FileHook) *Runtime {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.fileHooks[path] = hook
	return rt
}

// FailScript makes lua_dostring return rc for text without running it.
func (rt *Runtime) FailScript(text string, rc int) *Runtime {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.scriptRC[text] = rc
	return rt
}

// Define sets a global.
func (rt *Runtime) Define(name string, v Value) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.globals[name] = v
}

// DefineFunctions sets each name to a function value.
func (rt *Runtime) DefineFunctions(names ...string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, name := range names {
		rt.globals[name] = Function()
	}
}

// Global returns the value of a global.
func (rt *Runtime) Global(name string) Value {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.globals[name]
}

// FileCalls returns every path passed to lua_dofile, in call order.
func (rt *Runtime) FileCalls() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]string(nil), rt.fileCalls...)
}

// CountFileCalls returns how often path was passed to lua_dofile.
func (rt *Runtime) CountFileCalls(path string) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	n := 0
	for _, call := range rt.fileCalls {
		if call == path {
			n++
		}
	}
	return n
}

// ScriptCalls returns every text passed to lua_dostring, in call order.
func (rt *Runtime) ScriptCalls() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]string(nil), rt.scriptCalls...)
}

// LibraryOpens returns how often the string and io libraries were opened.
func (rt *Runtime) LibraryOpens() (strlib int, iolib int) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.strOpens, rt.ioOpens
}

// Invoke calls a native function with args as its parameters and returns
// the values it pushed.
func (rt *Runtime) Invoke(fn func(), args ...Value) []Value {
	rt.mu.Lock()
	rt.params = append([]Value(nil), args...)
	rt.stack = nil
	rt.mu.Unlock()

	fn()

	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := rt.stack
	rt.params, rt.stack = nil, nil
	return out
}

func (rt *Runtime) lookup(name string) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.disabled[name] {
		return fmt.Errorf("%s: undefined symbol: %w", name, luahook.ErrUnavailable)
	}
	return nil
}

// handle stores v and returns its object handle, or NoObject for nil. The
// caller holds rt.mu.
func (rt *Runtime) handle(v Value) luahook.Object {
	if v.Kind == KindNil {
		return luahook.NoObject
	}
	return rt.store(v)
}

// store returns a handle for v, nil included. The caller holds rt.mu.
func (rt *Runtime) store(v Value) luahook.Object {
	rt.objects = append(rt.objects, v)
	return luahook.Object(len(rt.objects))
}

func (rt *Runtime) object(obj luahook.Object) Value {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if obj == luahook.NoObject || int(obj) > len(rt.objects) {
		return Value{}
	}
	return rt.objects[obj-1]
}

func (rt *Runtime) doFile(path string) int {
	rt.mu.Lock()
	rt.fileCalls = append(rt.fileCalls, path)
	hook := rt.fileHooks[path]
	rc := rt.results[path]
	rt.mu.Unlock()

	if hook != nil {
		return hook(rt)
	}
	return rc
}

func (rt *Runtime) doString(text string) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.scriptCalls = append(rt.scriptCalls, text)
	if rc, ok := rt.scriptRC[text]; ok {
		return rc
	}
	switch text {
	case luahook.IOProbeScript:
		rt.emulateIOProbe()
	case luahook.StringPatchScript:
		rt.emulateStringPatch()
	default:
		return 1
	}
	return 0
}

func (rt *Runtime) emulateIOProbe() {
	status := "missing"
	io := rt.globals["io"]
	switch {
	case io.Kind == KindTable && io.Fields["open"].IsFunction():
		status = "ready"
	case rt.globals["writeto"].IsFunction() && rt.globals["write"].IsFunction():
		status = "ready"
	}
	rt.globals[luahook.IOStatusGlobal] = String(status)
}

func (rt *Runtime) emulateStringPatch() {
	tbl := rt.globals["string"]
	if tbl.Kind == KindTable && tbl.Fields == nil {
		tbl.Fields = map[string]Value{}
		rt.globals["string"] = tbl
	}
	if tbl.Kind == KindTable {
		for _, alias := range luahook.StringAliases {
			if !rt.globals[alias.Global].IsFunction() && tbl.Fields[alias.Member].IsFunction() {
				rt.globals[alias.Global] = tbl.Fields[alias.Member]
			}
		}
	} else {
		tbl = Table()
		rt.globals["string"] = tbl
	}
	for _, alias := range luahook.StringAliases {
		if !tbl.Fields[alias.Member].IsFunction() && rt.globals[alias.Global].IsFunction() {
			tbl.Fields[alias.Member] = rt.globals[alias.Global]
		}
	}
}

func (rt *Runtime) openStringLibrary() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.strOpens++
	if rt.stringStyle == StyleLegacy || rt.stringStyle == StyleBoth {
		for _, alias := range luahook.StringAliases {
			rt.globals[alias.Global] = Function()
		}
	}
	if rt.stringStyle == StyleTable || rt.stringStyle == StyleBoth {
		tbl := Table()
		for _, alias := range luahook.StringAliases {
			tbl.Fields[alias.Member] = Function()
		}
		rt.globals["string"] = tbl
	}
}

func (rt *Runtime) openIOLibrary() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.ioOpens++
	if rt.ioStyle == StyleLegacy || rt.ioStyle == StyleBoth {
		for _, name := range luahook.LegacyIOFunctions {
			rt.globals[name] = Function()
		}
	}
	if rt.ioStyle == StyleTable || rt.ioStyle == StyleBoth {
		tbl := Table()
		tbl.Fields["open"] = Function()
		rt.globals["io"] = tbl
	}
}

func (rt *Runtime) DoFile() (luahook.ScriptFunc, error) {
	if err := rt.lookup(luahook.SymDoFile); err != nil {
		return nil, err
	}
	return rt.doFile, nil
}

func (rt *Runtime) DoString() (luahook.ScriptFunc, error) {
	if err := rt.lookup(luahook.SymDoString); err != nil {
		return nil, err
	}
	return rt.doString, nil
}

func (rt *Runtime) GetGlobal() (luahook.GetGlobalFunc, error) {
	if err := rt.lookup(luahook.SymGetGlobal); err != nil {
		return nil, err
	}
	return func(name string) luahook.Object {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		return rt.handle(rt.globals[name])
	}, nil
}

func (rt *Runtime) GetString() (luahook.GetStringFunc, error) {
	if err := rt.lookup(luahook.SymGetString); err != nil {
		return nil, err
	}
	return func(obj luahook.Object) (string, bool) {
		v := rt.object(obj)
		switch v.Kind {
		case KindString:
			return v.Str, true
		case KindNumber:
			return strconv.FormatFloat(v.Num, 'g', 14, 64), true
		default:
			return "", false
		}
	}, nil
}

func (rt *Runtime) IsFunction() (luahook.PredicateFunc, error) {
	if err := rt.lookup(luahook.SymIsFunction); err != nil {
		return nil, err
	}
	return func(obj luahook.Object) bool { return rt.object(obj).Kind == KindFunction }, nil
}

func (rt *Runtime) IsTable() (luahook.PredicateFunc, error) {
	if err := rt.lookup(luahook.SymIsTable); err != nil {
		return nil, err
	}
	return func(obj luahook.Object) bool { return rt.object(obj).Kind == KindTable }, nil
}

func (rt *Runtime) IsString() (luahook.PredicateFunc, error) {
	if err := rt.lookup(luahook.SymIsString); err != nil {
		return nil, err
	}
	return func(obj luahook.Object) bool {
		kind := rt.object(obj).Kind
		return kind == KindString || kind == KindNumber
	}, nil
}

func (rt *Runtime) IsNil() (luahook.PredicateFunc, error) {
	if err := rt.lookup(luahook.SymIsNil); err != nil {
		return nil, err
	}
	return func(obj luahook.Object) bool { return rt.object(obj).Kind == KindNil }, nil
}

func (rt *Runtime) StrLibOpen() (luahook.OpenLibFunc, error) {
	if err := rt.lookup(luahook.SymStrLibOpen); err != nil {
		return nil, err
	}
	return rt.openStringLibrary, nil
}

func (rt *Runtime) IOLibOpen() (luahook.OpenLibFunc, error) {
	if err := rt.lookup(luahook.SymIOLibOpen); err != nil {
		return nil, err
	}
	return rt.openIOLibrary, nil
}

func (rt *Runtime) PushCClosure() (luahook.PushCClosureFunc, error) {
	if err := rt.lookup(luahook.SymPushCClosure); err != nil {
		return nil, err
	}
	return func(fn uintptr, _ int) {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		rt.stack = append(rt.stack, Value{Kind: KindFunction, Addr: fn})
	}, nil
}

func (rt *Runtime) SetGlobal() (luahook.SetGlobalFunc, error) {
	if err := rt.lookup(luahook.SymSetGlobal); err != nil {
		return nil, err
	}
	return func(name string) {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		var v Value
		if n := len(rt.stack); n > 0 {
			v = rt.stack[n-1]
			rt.stack = rt.stack[:n-1]
		}
		rt.globals[name] = v
	}, nil
}

func (rt *Runtime) Param() (luahook.ParamFunc, error) {
	if err := rt.lookup(luahook.SymParam); err != nil {
		return nil, err
	}
	return func(n int) luahook.Object {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		if n < 1 || n > len(rt.params) {
			return luahook.NoObject
		}
		return rt.store(rt.params[n-1])
	}, nil
}

func (rt *Runtime) PushNumber() (luahook.PushNumberFunc, error) {
	if err := rt.lookup(luahook.SymPushNumber); err != nil {
		return nil, err
	}
	return func(n float64) {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		rt.stack = append(rt.stack, Number(n))
	}, nil
}
