package luahook

type decision int

const (
	decideNothing decision = iota
	decideInject
	decideWait
	decideRepeatInjected
	decideRepeatPending
)

// evaluate advances the injection state machine after an intercepted call.
// It runs on every call, whatever the argument or result, so that a pending
// injection is retried as soon as the interpreter becomes ready.
func (h *Hook) evaluate(filename string, result int) {
	trigger := h.isTrigger(filename, result)

	h.mu.Lock()
	first := trigger && !h.flags.requested
	if first {
		h.flags.requested = true
	}
	injected := h.flags.injected
	h.mu.Unlock()

	if first {
		h.logger.Info("detected " + h.cfg.TriggerScript + " load; telemetry injection requested")
	}

	ready := false
	if !injected {
		ready = h.IsReady()
	}

	h.mu.Lock()
	d := decideNothing
	pending := h.flags.requested && !h.flags.injected
	switch {
	case pending && ready:
		h.flags.injected = true
		d = decideInject
	case pending && !h.flags.waitLogged:
		h.flags.waitLogged = true
		d = decideWait
	case trigger && h.flags.injected:
		// Another caller claimed the injection, possibly while this one
		// was the first to see the trigger.
		d = decideRepeatInjected
	case trigger && !first && pending:
		d = decideRepeatPending
	}
	h.mu.Unlock()

	switch d {
	case decideInject:
		h.inject()
	case decideWait:
		h.logger.Info("waiting for telemetry prerequisites before injecting " + h.cfg.AuxiliaryScript)
	case decideRepeatInjected:
		h.logger.Info("repeat " + h.cfg.TriggerScript + " load; telemetry already injected")
	case decideRepeatPending:
		h.logger.Info("repeat " + h.cfg.TriggerScript + " load; telemetry injection pending")
	}
}

// inject runs the auxiliary script through the real lua_dofile. The caller
// must have claimed the injected flag.
func (h *Hook) inject() {
	defer h.writeMetricsSnapshot()

	dofile := h.symbols.DoFile
	if dofile == nil {
		h.logger.Info("telemetry injection skipped: real " + SymDoFile + " unavailable")
		h.metrics.Injections.WithLabelValues("skipped").Inc()
		return
	}

	h.logger.Info("injecting telemetry", "script", h.cfg.AuxiliaryScript)
	result := dofile(h.cfg.AuxiliaryScript)
	if result != 0 {
		h.metrics.Injections.WithLabelValues("error").Inc()
		h.logger.Info("telemetry script returned error code", "script", h.cfg.AuxiliaryScript, "result", result)
		h.logBootstrapError()
		return
	}

	h.metrics.Injections.WithLabelValues("ok").Inc()
	h.logger.Info("telemetry script executed", "script", h.cfg.AuxiliaryScript)
	if reason, ok := h.symbols.globalString(StubReasonGlobal); ok && reason != "" {
		h.logger.Info("telemetry stub reason: " + reason)
	}
}
