package dynsym

import (
	"errors"
	"strings"
	"unsafe"
)

func cStringBytes(s string) ([]byte, error) {
	if strings.ContainsRune(s, '\x00') {
		return nil, errors.New("string contains NUL")
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b, nil
}

func cStringPtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// maxCString bounds the scan for a terminator in foreign memory.
const maxCString = 1 << 20

// cStringFromPtr copies a NUL-terminated C string. It reports false for a
// NULL pointer.
func cStringFromPtr(ptr uintptr) (string, bool) {
	if ptr == 0 {
		return "", false
	}
	p := unsafe.Pointer(ptr)
	n := 0
	for n < maxCString && *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n)), true
}
