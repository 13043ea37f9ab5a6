//go:build linux && (amd64 || arm64)

package dynsym

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliverarmory/luahook"
)

func TestNextWithoutInterpreter(t *testing.T) {
	rt := Next()

	_, err := rt.DoFile()
	assert.Error(t, err)
	_, err = rt.PushNumber()
	assert.Error(t, err)

	var buf bytes.Buffer
	hook := luahook.New(rt, luahook.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	assert.Equal(t, luahook.ForwardFailed, hook.DoFile("_system.lua"))
	assert.Contains(t, buf.String(), "no real implementation found for lua_dofile")
	assert.Equal(t, luahook.StateIdle, hook.State())
}

func TestOpenMissingLibrary(t *testing.T) {
	_, err := Open("/nonexistent/liblua.so")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dlopen(/nonexistent/liblua.so)")
}

// libc binds C library functions whose signatures match the interpreter
// entry points, so the adapters make real foreign calls.
func libc(t *testing.T) *Runtime {
	t.Helper()
	rt, err := Open("libc.so.6")
	if err != nil {
		t.Skipf("libc.so.6 not loadable: %v", err)
	}
	return rt
}

func TestScriptFuncPassesCString(t *testing.T) {
	rt := libc(t)

	atoi, err := rt.scriptFunc("atoi")
	require.NoError(t, err)
	assert.Equal(t, 42, atoi("42"))
	assert.Equal(t, -7, atoi("-7"))
	assert.Equal(t, -1, atoi("4\x002"), "embedded NUL is rejected before the call")
}

func TestScriptFuncPassesNullForEmpty(t *testing.T) {
	rt := libc(t)
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("system(NULL) needs /bin/sh")
	}

	// system(NULL) reports whether a shell exists; system("") would run an
	// empty command and return 0.
	system, err := rt.scriptFunc("system")
	require.NoError(t, err)
	assert.NotZero(t, system(""))

	unsetenv, err := rt.scriptFunc("unsetenv")
	require.NoError(t, err)
	assert.Equal(t, 0, unsetenv("LUAHOOK_DYNSYM_UNSET"))
}

func TestObjectByNameReturnsHandle(t *testing.T) {
	rt := libc(t)

	strlen, err := rt.objectByName("strlen")
	require.NoError(t, err)
	assert.Equal(t, luahook.Object(18), strlen("mods/telemetry.lua"))
	assert.Equal(t, luahook.Object(0), strlen(""))
}

func TestObjectByIndexPassesInt(t *testing.T) {
	rt := libc(t)

	abs, err := rt.objectByIndex("abs")
	require.NoError(t, err)
	assert.Equal(t, luahook.Object(7), abs(-7))
	assert.Equal(t, luahook.Object(3), abs(3))
}

func TestPredicatePassesHandle(t *testing.T) {
	rt := libc(t)

	isdigit, err := rt.predicate("isdigit")
	require.NoError(t, err)
	assert.True(t, isdigit(luahook.Object('7')))
	assert.False(t, isdigit(luahook.Object('x')))
}

func TestStringOfCopiesResult(t *testing.T) {
	rt := libc(t)

	strerror, err := rt.stringOf("strerror")
	require.NoError(t, err)
	msg, ok := strerror(luahook.Object(syscall.ENOENT))
	assert.True(t, ok)
	assert.True(t, strings.EqualFold(syscall.ENOENT.Error(), msg), msg)

	f, err := os.Create(filepath.Join(t.TempDir(), "not-a-tty"))
	require.NoError(t, err)
	defer f.Close()

	ttyname, err := rt.stringOf("ttyname")
	require.NoError(t, err)
	_, ok = ttyname(luahook.Object(f.Fd()))
	assert.False(t, ok, "NULL result reports false")
}

func TestOpenLibCallsVoidFunction(t *testing.T) {
	rt := libc(t)

	tzset, err := rt.openLib("tzset")
	require.NoError(t, err)
	assert.NotPanics(t, func() { tzset() })

	_, err = rt.openLib("lua_strlibopen")
	assert.Error(t, err)
}
