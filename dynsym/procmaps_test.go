package dynsym

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMaps = `55d0c0a00000-55d0c0a21000 r--p 00000000 fd:01 1311 /usr/games/grim/residual
55d0c0a21000-55d0c0b40000 r-xp 00021000 fd:01 1311 /usr/games/grim/residual
7f2a10000000-7f2a10028000 r--p 00000000 fd:01 2048 /usr/lib/x86_64-linux-gnu/libc.so.6
7f2a10028000-7f2a101bd000 r-xp 00028000 fd:01 2048 /usr/lib/x86_64-linux-gnu/libc.so.6
7f2a20000000-7f2a20004000 r-xp 00001000 fd:01 4096 /tmp/lua hook/libluahook.so (deleted)
7ffd5a1f0000-7ffd5a211000 rw-p 00000000 00:00 0 [stack]
7ffd5a3f2000-7ffd5a3f4000 r-xp 00000000 00:00 0 [vdso]
garbage line
`

func TestParseProcMaps(t *testing.T) {
	got := ParseProcMaps(sampleMaps)
	require.Len(t, got, 3)

	assert.Equal(t, Mapping{
		Start:  0x55d0c0a21000,
		Offset: 0x21000,
		Perms:  "r-xp",
		Path:   "/usr/games/grim/residual",
	}, got[0])
	assert.Equal(t, "/usr/lib/x86_64-linux-gnu/libc.so.6", got[1].Path)
	assert.Equal(t, "/tmp/lua hook/libluahook.so", got[2].Path)
}

func TestParseHexUintptr(t *testing.T) {
	v, err := parseHexUintptr("7fFf0a")
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x7fff0a), v)

	_, err = parseHexUintptr("12g4")
	assert.Error(t, err)
}

func TestProvidersOfSelf(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("requires /proc")
	}

	providers, err := Providers(0, "malloc")
	require.NoError(t, err)
	if len(providers) == 0 {
		t.Skip("no mapped object defines malloc")
	}
	for _, p := range providers {
		assert.True(t, strings.HasPrefix(p.Path, "/"), p.Path)
		assert.NotZero(t, p.Offset)
	}
}

func TestParseMappingRejectsMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"7f00-7f10 r-xp 0 fd:01 1",
		"7f00 r-xp 00000000 fd:01 1 /lib/liblua.so",
		"zz00-7f10 r-xp 00000000 fd:01 1 /lib/liblua.so",
		"7f00-7f10 r-xp 0000q000 fd:01 1 /lib/liblua.so",
		"7f00-7f10 r--p 00000000 fd:01 1 /lib/liblua.so",
	} {
		_, ok := parseMapping(line)
		assert.False(t, ok, line)
	}
}
