package main

/*
#include <stdint.h>

extern void luahook_native_write(void);

static uintptr_t luahook_native_write_addr(void) {
	return (uintptr_t)&luahook_native_write;
}
*/
import "C"

// nativeWriteAddr returns the C entry of the native write helper, suitable
// for lua_pushcclosure.
func nativeWriteAddr() uintptr {
	return uintptr(C.luahook_native_write_addr())
}
