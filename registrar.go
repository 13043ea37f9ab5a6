package luahook

const defaultWriteMode = "a"

// registerNativeHelpers exposes the native write helper as NativeWriteGlobal.
// It runs at most once, after a successful string patch.
func (h *Hook) registerNativeHelpers() {
	if h.nativeHelper == 0 {
		return
	}
	if !h.claim(func(f *flags) *bool { return &f.nativeHelpersRegistered }) {
		return
	}

	s := &h.symbols
	if s.PushCClosure == nil || s.SetGlobal == nil {
		h.logger.Info("native helper registration skipped",
			"global", NativeWriteGlobal,
			"pushcclosure", s.PushCClosure != nil,
			"setglobal", s.SetGlobal != nil)
		h.metrics.BootstrapSteps.WithLabelValues(stepNativeHelper, "unavailable").Inc()
		return
	}

	s.PushCClosure(h.nativeHelper, 0)
	s.SetGlobal(NativeWriteGlobal)
	h.metrics.BootstrapSteps.WithLabelValues(stepNativeHelper, "ok").Inc()
	h.logger.Info("registered native helper " + NativeWriteGlobal)
}

// NativeWriteFile is the body of the native helper. It reads its arguments
// from the interpreter (path, content and an optional mode defaulting to
// append), writes the file, and pushes 1 on success or 0 on failure.
func (h *Hook) NativeWriteFile() {
	h.EnsureInitialized()

	push := h.symbols.PushNumber
	if push == nil {
		return
	}
	if h.nativeWrite() {
		push(1)
	} else {
		push(0)
	}
}

func (h *Hook) nativeWrite() bool {
	path, ok := h.stringParam(1)
	if !ok {
		return false
	}
	content, ok := h.stringParam(2)
	if !ok {
		return false
	}

	mode := defaultWriteMode
	if h.symbols.Param != nil && !h.isNil(h.symbols.Param(3)) {
		m, ok := h.stringParam(3)
		if !ok {
			return false
		}
		mode = m
	}

	if err := WriteFile(path, content, mode); err != nil {
		h.logger.Debug("native write failed", "path", path, "error", err)
		return false
	}
	return true
}

// isNil reports whether obj is absent or an explicit nil. Without lua_isnil
// only an absent parameter counts.
func (h *Hook) isNil(obj Object) bool {
	if obj == NoObject {
		return true
	}
	return h.symbols.IsNil != nil && h.symbols.IsNil(obj)
}

func (h *Hook) stringParam(n int) (string, bool) {
	s := &h.symbols
	if s.Param == nil || s.IsString == nil || s.GetString == nil {
		return "", false
	}
	obj := s.Param(n)
	if obj == NoObject || !s.IsString(obj) {
		return "", false
	}
	return s.GetString(obj)
}
