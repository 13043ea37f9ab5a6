//go:build linux && cgo

package cgobootstrap

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
*/
import "C"

// Link libdl into cgo builds so dlsym(RTLD_NEXT, ...) resolves against the
// host's loader when the shim is preloaded into a process without it.
var _ = C.RTLD_NOW
