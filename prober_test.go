package luahook_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliverarmory/luahook"
	"github.com/sliverarmory/luahook/luahooktest"
)

func TestIsReadyBootstrapsOnce(t *testing.T) {
	rt := luahooktest.New().
		SetStringLibrary(luahooktest.StyleNone).
		SetIOLibrary(luahooktest.StyleLegacy)
	hook, log := newHook(t, rt)

	for i := 0; i < 10; i++ {
		assert.False(t, hook.IsReady())
	}

	strOpens, ioOpens := rt.LibraryOpens()
	assert.Equal(t, 1, strOpens)
	assert.Equal(t, 1, ioOpens)
	assert.Equal(t, []string{luahook.IOProbeScript, luahook.StringPatchScript}, rt.ScriptCalls())
	assert.Equal(t, 1, log.count("telemetry prerequisites missing"))
	assert.Equal(t, 1, log.count("lua_strlibopen invoked"))
	assert.Equal(t, 1, log.count("lua_iolibopen invoked"))
}

func TestIOProbeReportsStatusAndLegacyFunctions(t *testing.T) {
	tests := []struct {
		style  luahooktest.LibraryStyle
		status string
		legacy bool
	}{
		{style: luahooktest.StyleLegacy, status: "ready", legacy: true},
		{style: luahooktest.StyleTable, status: "ready", legacy: false},
		{style: luahooktest.StyleNone, status: "missing", legacy: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			rt := luahooktest.New().SetIOLibrary(tt.style)
			hook, log := newHook(t, rt)

			hook.IsReady()

			assert.Equal(t, luahooktest.String(tt.status), rt.Global(luahook.IOStatusGlobal))
			assert.Contains(t, log.String(), "io probe status: "+tt.status)
			for _, name := range luahook.LegacyIOFunctions {
				want := "io function availability name=" + name + " available=false"
				if tt.legacy {
					want = "io function availability name=" + name + " available=true"
				}
				assert.Contains(t, log.String(), want)
			}
		})
	}
}

func TestIOProbeFailureKeepsGoing(t *testing.T) {
	rt := luahooktest.New().
		SetStringLibrary(luahooktest.StyleLegacy).
		FailScript(luahook.IOProbeScript, 1)
	hook, log := newHook(t, rt)

	assert.True(t, hook.IsReady())
	assert.Contains(t, log.String(), "io probe script failed result=1")
	assert.Equal(t, luahooktest.KindNil, rt.Global(luahook.IOStatusGlobal).Kind)
}

func TestStringPatchBackfillsGlobalsFromTable(t *testing.T) {
	rt := luahooktest.New().SetStringLibrary(luahooktest.StyleTable)
	hook, log := newHook(t, rt)

	require.True(t, hook.IsReady())
	for _, alias := range luahook.StringAliases {
		assert.True(t, rt.Global(alias.Global).IsFunction(), alias.Global)
	}
	assert.Contains(t, log.String(), "string compatibility patch applied")
	assert.Contains(t, log.String(), "string primitive availability name=strfind available=true")
	assert.Zero(t, log.count("telemetry prerequisites missing"))
}

func TestStringPatchBackfillsTableFromGlobals(t *testing.T) {
	rt := luahooktest.New().SetStringLibrary(luahooktest.StyleLegacy)
	hook, _ := newHook(t, rt)

	require.True(t, hook.IsReady())
	tbl := rt.Global("string")
	require.Equal(t, luahooktest.KindTable, tbl.Kind)
	for _, alias := range luahook.StringAliases {
		assert.True(t, tbl.Fields[alias.Member].IsFunction(), alias.Member)
	}
}

func TestStringPatchFailureSkipsNativeHelper(t *testing.T) {
	rt := luahooktest.New().
		SetStringLibrary(luahooktest.StyleTable).
		FailScript(luahook.StringPatchScript, 1)
	hook, log := newHook(t, rt)

	assert.False(t, hook.IsReady())
	assert.Contains(t, log.String(), "string compatibility patch failed result=1")
	assert.Contains(t, log.String(), "string primitive availability name=strsub available=false")
	assert.Equal(t, luahooktest.KindNil, rt.Global(luahook.NativeWriteGlobal).Kind)
}

func TestStringPatchTemplateCoversAliases(t *testing.T) {
	for _, alias := range luahook.StringAliases {
		assert.Contains(t, luahook.StringPatchScript, alias.Global+" = string."+alias.Member)
		assert.Contains(t, luahook.StringPatchScript, "string."+alias.Member+" = "+alias.Global)
	}
	assert.True(t, strings.Contains(luahook.IOProbeScript, luahook.IOStatusGlobal))
}
