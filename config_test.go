package luahook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigWithDefaults(t *testing.T) {
	def := DefaultConfig()

	got := Config{}.withDefaults()
	assert.Equal(t, def.TriggerScript, got.TriggerScript)
	assert.Equal(t, def.AuxiliaryScript, got.AuxiliaryScript)
	assert.Equal(t, def.LogPath, got.LogPath)
	assert.Empty(t, got.MetricsPath)

	custom := Config{
		TriggerScript:   "boot.lua",
		AuxiliaryScript: "inject.lua",
		LogPath:         "logs/hook.log",
		MetricsPath:     "hook.prom",
	}
	assert.Equal(t, custom, custom.withDefaults())
}

func TestWithConfigKeepsEmptyMetricsPath(t *testing.T) {
	h := New(nil, WithConfig(Config{TriggerScript: "boot.lua"}))

	assert.Equal(t, "boot.lua", h.Config().TriggerScript)
	assert.Equal(t, DefaultConfig().LogPath, h.Config().LogPath)
	assert.Empty(t, h.Config().MetricsPath)
}
