package luahook

// flags are one-shot: each moves from false to true once and never resets.
// All fields are guarded by Hook.mu.
type flags struct {
	requested               bool
	injected                bool
	waitLogged              bool
	missingGlobalsLogged    bool
	stringLibOpenAttempted  bool
	stringLibOpenDone       bool
	ioLibOpenAttempted      bool
	ioLibOpenDone           bool
	stringPatchAttempted    bool
	nativeHelpersRegistered bool
}

// claim sets *flag and reports whether this caller flipped it.
func (h *Hook) claim(flag func(*flags) *bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	f := flag(&h.flags)
	if *f {
		return false
	}
	*f = true
	return true
}

// claimAfter is claim, but only once every flag in after is already set.
// Callers arriving earlier leave flag untouched.
func (h *Hook) claimAfter(flag func(*flags) *bool, after ...func(*flags) *bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, done := range after {
		if !*done(&h.flags) {
			return false
		}
	}
	f := flag(&h.flags)
	if *f {
		return false
	}
	*f = true
	return true
}

// mark sets a completion flag.
func (h *Hook) mark(flag func(*flags) *bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	*flag(&h.flags) = true
}

// State is a snapshot of the injection state machine.
type State int

const (
	StateIdle State = iota
	StateRequested
	StateInjected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequested:
		return "requested"
	case StateInjected:
		return "injected"
	default:
		return "unknown"
	}
}

// State reports the current injection state.
func (h *Hook) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.flags.injected:
		return StateInjected
	case h.flags.requested:
		return StateRequested
	default:
		return StateIdle
	}
}
