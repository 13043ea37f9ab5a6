package luahook

// Interpreter globals shared with the injected script.
const (
	// BootstrapErrorGlobal is set by the auxiliary script when it fails.
	BootstrapErrorGlobal = "__telemetry_bootstrap_error"
	// StubReasonGlobal explains degraded behaviour after a nominal success.
	StubReasonGlobal = "__telemetry_stub_reason"
	// IOStatusGlobal is written by IOProbeScript.
	IOStatusGlobal = "__telemetry_io_status"
	// NativeWriteGlobal holds the native file-write helper.
	NativeWriteGlobal = "__telemetry_native_write"
)

// RequiredGlobals must all resolve to functions before injection.
var RequiredGlobals = []string{"strsub", "strfind", "strlen"}

// LegacyIOFunctions are the Lua 3.1 I/O globals reported after iolibopen.
var LegacyIOFunctions = []string{"writeto", "appendto", "write"}

// Config holds the fixed identities the hook works with.
type Config struct {
	// TriggerScript is compared against the basename of every loaded file.
	TriggerScript string `yaml:"trigger_script"`

	// AuxiliaryScript is the path injected once the trigger was seen.
	AuxiliaryScript string `yaml:"auxiliary_script"`

	// LogPath is where the shim writes its event log.
	LogPath string `yaml:"log_path"`

	// MetricsPath receives a Prometheus textfile snapshot after the
	// injection attempt. Empty disables the snapshot.
	MetricsPath string `yaml:"metrics_path"`
}

// DefaultConfig returns the identities compiled into the shim.
func DefaultConfig() Config {
	return Config{
		TriggerScript:   "_system.lua",
		AuxiliaryScript: "mods/telemetry.lua",
		LogPath:         "mods/telemetry.log",
		MetricsPath:     "mods/telemetry_hook.prom",
	}
}

// withDefaults fills empty script and log paths. MetricsPath is left as
// given since empty disables the snapshot.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TriggerScript == "" {
		c.TriggerScript = def.TriggerScript
	}
	if c.AuxiliaryScript == "" {
		c.AuxiliaryScript = def.AuxiliaryScript
	}
	if c.LogPath == "" {
		c.LogPath = def.LogPath
	}
	return c
}
