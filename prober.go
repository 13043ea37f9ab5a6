package luahook

import "strings"

const (
	stepStringLibOpen = "strlibopen"
	stepIOLibOpen     = "iolibopen"
	stepIOProbe       = "io_probe"
	stepStringPatch   = "string_patch"
	stepNativeHelper  = "native_helper"
)

var (
	stringLibAttempted = func(f *flags) *bool { return &f.stringLibOpenAttempted }
	stringLibDone      = func(f *flags) *bool { return &f.stringLibOpenDone }
	ioLibAttempted     = func(f *flags) *bool { return &f.ioLibOpenAttempted }
	ioLibDone          = func(f *flags) *bool { return &f.ioLibOpenDone }
	patchAttempted     = func(f *flags) *bool { return &f.stringPatchAttempted }
)

// IsReady reports whether every required global resolves to a function.
// Before checking it runs each pending bootstrap step once: opening the
// string library, opening the I/O library with its probe, and the string
// compatibility patch. The patch is claimed only after both library opens
// have returned; a caller arriving while one is still running skips it.
func (h *Hook) IsReady() bool {
	h.EnsureInitialized()

	if h.claim(stringLibAttempted) {
		h.openStringLibrary()
		h.mark(stringLibDone)
	}
	if h.claim(ioLibAttempted) {
		h.openIOLibrary()
		h.mark(ioLibDone)
	}
	if h.claimAfter(patchAttempted, stringLibDone, ioLibDone) {
		if h.patchStringLibrary() {
			h.registerNativeHelpers()
		}
	}

	missing := h.missingGlobals()
	ready := len(missing) == 0
	if ready {
		h.metrics.ReadinessPolls.WithLabelValues("true").Inc()
		return true
	}
	h.metrics.ReadinessPolls.WithLabelValues("false").Inc()

	if h.claim(func(f *flags) *bool { return &f.missingGlobalsLogged }) {
		h.logger.Info("telemetry prerequisites missing: " + strings.Join(missing, ", "))
	}
	return false
}

func (h *Hook) missingGlobals() []string {
	var missing []string
	for _, name := range RequiredGlobals {
		if !h.symbols.globalIsFunction(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func (h *Hook) openStringLibrary() {
	open := h.symbols.StrLibOpen
	if open == nil {
		h.logger.Info(SymStrLibOpen + " unavailable; string library not opened")
		h.metrics.BootstrapSteps.WithLabelValues(stepStringLibOpen, "unavailable").Inc()
		return
	}
	open()
	h.metrics.BootstrapSteps.WithLabelValues(stepStringLibOpen, "ok").Inc()
	h.logger.Info(SymStrLibOpen + " invoked")
}

func (h *Hook) openIOLibrary() {
	open := h.symbols.IOLibOpen
	if open == nil {
		h.logger.Info(SymIOLibOpen + " unavailable; io library not opened")
		h.metrics.BootstrapSteps.WithLabelValues(stepIOLibOpen, "unavailable").Inc()
		return
	}
	open()
	h.metrics.BootstrapSteps.WithLabelValues(stepIOLibOpen, "ok").Inc()
	h.logger.Info(SymIOLibOpen + " invoked")

	h.probeIO()
	for _, name := range LegacyIOFunctions {
		h.logger.Info("io function availability", "name", name, "available", h.symbols.globalIsFunction(name))
	}
}

func (h *Hook) probeIO() {
	dostring := h.symbols.DoString
	if dostring == nil {
		h.logger.Info("io probe skipped: " + SymDoString + " unavailable")
		h.metrics.BootstrapSteps.WithLabelValues(stepIOProbe, "unavailable").Inc()
		return
	}
	if rc := dostring(IOProbeScript); rc != 0 {
		h.logger.Info("io probe script failed", "result", rc)
		h.metrics.BootstrapSteps.WithLabelValues(stepIOProbe, "error").Inc()
		return
	}
	h.metrics.BootstrapSteps.WithLabelValues(stepIOProbe, "ok").Inc()

	status, ok := h.symbols.globalString(IOStatusGlobal)
	if !ok {
		status = "unknown"
	}
	h.logger.Info("io probe status: " + status)
}

// patchStringLibrary runs StringPatchScript and reports whether it executed
// successfully.
func (h *Hook) patchStringLibrary() bool {
	dostring := h.symbols.DoString
	if dostring == nil {
		h.logger.Info("string compatibility patch skipped: " + SymDoString + " unavailable")
		h.metrics.BootstrapSteps.WithLabelValues(stepStringPatch, "unavailable").Inc()
		return false
	}

	rc := dostring(StringPatchScript)
	ok := rc == 0
	h.metrics.BootstrapSteps.WithLabelValues(stepStringPatch, outcome(ok)).Inc()
	if ok {
		h.logger.Info("string compatibility patch applied")
	} else {
		h.logger.Info("string compatibility patch failed", "result", rc)
	}

	for _, name := range RequiredGlobals {
		h.logger.Info("string primitive availability", "name", name, "available", h.symbols.globalIsFunction(name))
	}
	return ok
}
