package luahook

import "errors"

// Object is an interpreter value handle (lua_Object).
type Object uint32

// NoObject is the handle returned for nil globals and absent parameters.
const NoObject Object = 0

// ErrUnavailable reports a capability the host process does not export.
var ErrUnavailable = errors.New("luahook: entry point unavailable")

// Callables bound from the host interpreter.
type (
	// ScriptFunc runs a script by path (lua_dofile) or by text (lua_dostring)
	// and returns the interpreter's status code. An empty argument is passed
	// to the interpreter as NULL.
	ScriptFunc func(arg string) int

	GetGlobalFunc    func(name string) Object
	GetStringFunc    func(obj Object) (string, bool)
	PredicateFunc    func(obj Object) bool
	OpenLibFunc      func()
	PushCClosureFunc func(fn uintptr, upvalues int)
	SetGlobalFunc    func(name string)
	ParamFunc        func(n int) Object
	PushNumberFunc   func(n float64)
)

// Entry point names looked up in the host process.
const (
	SymDoFile       = "lua_dofile"
	SymDoString     = "lua_dostring"
	SymGetGlobal    = "lua_getglobal"
	SymGetString    = "lua_getstring"
	SymIsFunction   = "lua_isfunction"
	SymIsTable      = "lua_istable"
	SymIsString     = "lua_isstring"
	SymIsNil        = "lua_isnil"
	SymStrLibOpen   = "lua_strlibopen"
	SymIOLibOpen    = "lua_iolibopen"
	SymPushCClosure = "lua_pushcclosure"
	SymSetGlobal    = "lua_setglobal"
	SymParam        = "lua_lua2C"
	SymPushNumber   = "lua_pushnumber"
)

// HostRuntime locates the real interpreter entry points. Each method returns
// a nil callable and a non-nil error when the capability is unavailable.
// Methods are called once per process, from Hook.EnsureInitialized.
type HostRuntime interface {
	DoFile() (ScriptFunc, error)
	DoString() (ScriptFunc, error)
	GetGlobal() (GetGlobalFunc, error)
	GetString() (GetStringFunc, error)
	IsFunction() (PredicateFunc, error)
	IsTable() (PredicateFunc, error)
	IsString() (PredicateFunc, error)
	IsNil() (PredicateFunc, error)
	StrLibOpen() (OpenLibFunc, error)
	IOLibOpen() (OpenLibFunc, error)
	PushCClosure() (PushCClosureFunc, error)
	SetGlobal() (SetGlobalFunc, error)
	Param() (ParamFunc, error)
	PushNumber() (PushNumberFunc, error)
}

// Symbols is the resolved symbol table. A nil field means the capability is
// unavailable and every feature depending on it degrades to a no-op.
type Symbols struct {
	DoFile       ScriptFunc
	DoString     ScriptFunc
	GetGlobal    GetGlobalFunc
	GetString    GetStringFunc
	IsFunction   PredicateFunc
	IsTable      PredicateFunc
	IsString     PredicateFunc
	IsNil        PredicateFunc
	StrLibOpen   OpenLibFunc
	IOLibOpen    OpenLibFunc
	PushCClosure PushCClosureFunc
	SetGlobal    SetGlobalFunc
	Param        ParamFunc
	PushNumber   PushNumberFunc
}

// Missing returns the names of unresolved entry points in lookup order.
func (s *Symbols) Missing() []string {
	var missing []string
	for _, entry := range s.entries() {
		if !entry.resolved {
			missing = append(missing, entry.name)
		}
	}
	return missing
}

type symbolEntry struct {
	name     string
	resolved bool
}

func (s *Symbols) entries() []symbolEntry {
	return []symbolEntry{
		{SymDoFile, s.DoFile != nil},
		{SymDoString, s.DoString != nil},
		{SymGetGlobal, s.GetGlobal != nil},
		{SymGetString, s.GetString != nil},
		{SymIsFunction, s.IsFunction != nil},
		{SymIsTable, s.IsTable != nil},
		{SymIsString, s.IsString != nil},
		{SymIsNil, s.IsNil != nil},
		{SymStrLibOpen, s.StrLibOpen != nil},
		{SymIOLibOpen, s.IOLibOpen != nil},
		{SymPushCClosure, s.PushCClosure != nil},
		{SymSetGlobal, s.SetGlobal != nil},
		{SymParam, s.Param != nil},
		{SymPushNumber, s.PushNumber != nil},
	}
}

// globalString reads a string-valued global. It reports false when the
// global is nil, not a string, or the accessors are unavailable.
func (s *Symbols) globalString(name string) (string, bool) {
	if s.GetGlobal == nil || s.GetString == nil {
		return "", false
	}
	obj := s.GetGlobal(name)
	if obj == NoObject {
		return "", false
	}
	return s.GetString(obj)
}

// globalIsFunction reports whether name resolves to a callable value.
func (s *Symbols) globalIsFunction(name string) bool {
	if s.GetGlobal == nil || s.IsFunction == nil {
		return false
	}
	obj := s.GetGlobal(name)
	if obj == NoObject {
		return false
	}
	return s.IsFunction(obj)
}
