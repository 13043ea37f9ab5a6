// Command shim is the preloadable lua_dofile interposer.
//
//	go build -buildmode=c-shared -o libluahook.so ./shim
//	LD_PRELOAD=./libluahook.so ./game
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"github.com/sliverarmory/luahook"
	"github.com/sliverarmory/luahook/dynsym"
	"github.com/sliverarmory/luahook/eventlog"
)

var hook = luahook.New(
	dynsym.Next(),
	luahook.WithLogger(eventlog.New(luahook.DefaultConfig().LogPath)),
	luahook.WithNativeHelper(nativeWriteAddr()),
)

func init() {
	symbols := hook.Symbols()
	hook.Logger().Info("lua hook shim loaded", "unresolved", len(symbols.Missing()))
}

//export lua_dofile
func lua_dofile(filename *C.char) C.int {
	name := ""
	if filename != nil {
		name = C.GoString(filename)
	}
	return C.int(hook.DoFile(name))
}

//export luahook_native_write
func luahook_native_write() {
	hook.NativeWriteFile()
}

func main() {}
