package luahook

// EnsureInitialized resolves the real entry points exactly once. Concurrent
// first callers block until resolution has finished. Failures are logged
// one per entry point and leave the symbol unset.
func (h *Hook) EnsureInitialized() {
	h.resolveOnce.Do(h.resolveSymbols)
}

// Symbols returns a copy of the resolved symbol table.
func (h *Hook) Symbols() Symbols {
	h.EnsureInitialized()
	return h.symbols
}

func (h *Hook) resolveSymbols() {
	host := h.host
	if host == nil {
		h.logger.Info("failed to resolve entry points: no host runtime")
		return
	}

	s := &h.symbols
	s.DoFile = bind(h, SymDoFile, host.DoFile)
	s.DoString = bind(h, SymDoString, host.DoString)
	s.GetGlobal = bind(h, SymGetGlobal, host.GetGlobal)
	s.GetString = bind(h, SymGetString, host.GetString)
	s.IsFunction = bind(h, SymIsFunction, host.IsFunction)
	s.IsTable = bind(h, SymIsTable, host.IsTable)
	s.IsString = bind(h, SymIsString, host.IsString)
	s.IsNil = bind(h, SymIsNil, host.IsNil)
	s.StrLibOpen = bind(h, SymStrLibOpen, host.StrLibOpen)
	s.IOLibOpen = bind(h, SymIOLibOpen, host.IOLibOpen)
	s.PushCClosure = bind(h, SymPushCClosure, host.PushCClosure)
	s.SetGlobal = bind(h, SymSetGlobal, host.SetGlobal)
	s.Param = bind(h, SymParam, host.Param)
	s.PushNumber = bind(h, SymPushNumber, host.PushNumber)
}

func bind[F any](h *Hook, name string, lookup func() (F, error)) F {
	fn, err := lookup()
	if err != nil {
		h.logger.Info("failed to resolve "+name, "error", err)
		var zero F
		return zero
	}
	return fn
}
