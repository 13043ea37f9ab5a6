// Package luahook interposes the Lua 3.1 lua_dofile entry point of a host
// process and injects an auxiliary script once the trigger script has been
// loaded and the interpreter exposes the string primitives it needs.
//
// The package contains no platform code. A HostRuntime supplies the real
// entry points: dynsym.Runtime in the preloaded shim, luahooktest.Runtime in
// tests and the simulator.
package luahook

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ForwardFailed is returned by DoFile when the real lua_dofile could not be
// resolved.
const ForwardFailed = -1

// Hook owns every piece of process state: the resolved symbol table, the
// one-shot flags, and the lock guarding them.
type Hook struct {
	cfg          Config
	host         HostRuntime
	logger       *slog.Logger
	registry     *prometheus.Registry
	metrics      *Metrics
	nativeHelper uintptr

	resolveOnce sync.Once
	symbols     Symbols

	mu    sync.Mutex
	flags flags
}

// Option customises a Hook.
type Option func(*Hook)

// WithConfig replaces the default identities. Empty TriggerScript,
// AuxiliaryScript and LogPath keep their defaults; an empty MetricsPath
// disables the metrics snapshot.
func WithConfig(cfg Config) Option {
	return func(h *Hook) {
		h.cfg = cfg.withDefaults()
	}
}

// WithLogger sets the event sink.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hook) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithNativeHelper sets the address of the C function registered as
// NativeWriteGlobal. Without it the registrar is a no-op.
func WithNativeHelper(fn uintptr) Option {
	return func(h *Hook) {
		h.nativeHelper = fn
	}
}

// WithRegistry registers the hook metrics in registry instead of a private one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(h *Hook) {
		if registry != nil {
			h.registry = registry
		}
	}
}

// New returns a hook over host. Symbols are not resolved until
// EnsureInitialized or the first DoFile.
func New(host HostRuntime, opts ...Option) *Hook {
	h := &Hook{
		cfg:  DefaultConfig(),
		host: host,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if h.registry == nil {
		h.registry = prometheus.NewRegistry()
	}
	h.metrics = newMetrics(h.registry)
	return h
}

// Config returns the identities in use.
func (h *Hook) Config() Config {
	return h.cfg
}

// Logger returns the event sink.
func (h *Hook) Logger() *slog.Logger {
	return h.logger
}

// Registry returns the registry holding the hook metrics.
func (h *Hook) Registry() *prometheus.Registry {
	return h.registry
}

// DoFile is the replacement for lua_dofile. It forwards filename to the real
// implementation, returns its result unchanged, and drives injection.
func (h *Hook) DoFile(filename string) int {
	h.EnsureInitialized()

	dofile := h.symbols.DoFile
	if dofile == nil {
		h.logger.Info("no real implementation found for " + SymDoFile)
		h.metrics.InterceptedCalls.WithLabelValues("unresolved").Inc()
		return ForwardFailed
	}

	result := dofile(filename)
	h.metrics.InterceptedCalls.WithLabelValues(outcome(result == 0)).Inc()

	if filename != "" {
		h.logger.Info(SymDoFile+" called", "file", filename, "result", result)
		if result != 0 && filename == h.cfg.AuxiliaryScript {
			h.logBootstrapError()
		}
	}

	h.evaluate(filename, result)
	return result
}

func (h *Hook) logBootstrapError() {
	if message, ok := h.symbols.globalString(BootstrapErrorGlobal); ok && message != "" {
		h.logger.Info("telemetry bootstrap error: " + message)
	}
}

func (h *Hook) isTrigger(filename string, result int) bool {
	if filename == "" || result != 0 {
		return false
	}
	return basename(filename) == h.cfg.TriggerScript
}

// basename returns the text after the last '/', or name itself.
func basename(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}
