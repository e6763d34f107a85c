package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vda5050go/core/vda"
)

const sampleTOML = `
[global]
log_level = "debug"
async_bus = true

[agv_description]
manufacturer = "Acme"
serial_number = "AGV-001"
supported_action_types = ["pick", "drop"]

[agv_description.physical_parameters]
speed_max = 2.5

[module.scheduler]
node_reached.xy = 0.1
node_reached.theta = 0.05
state_update_period_ms = 100

[custom.fleet]
zone = "warehouse-a"
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Global.LogLevel)
	assert.True(t, cfg.Global.AsyncBus)
	assert.Equal(t, "Acme", cfg.AGVDescription.Manufacturer)
	assert.Equal(t, []string{"pick", "drop"}, cfg.AGVDescription.SupportedActions)
	assert.Equal(t, 2.5, cfg.AGVDescription.PhysicalParameters.SpeedMax)

	m, ok := cfg.ModuleConfig("scheduler")
	require.True(t, ok)
	assert.Equal(t, 0.1, m.NodeReached.XY)
	assert.Equal(t, int64(100), m.StateUpdatePeriod)

	_, ok = cfg.ModuleConfig("missing")
	assert.False(t, ok)

	assert.Equal(t, "warehouse-a", cfg.Custom["fleet"].(map[string]any)["zone"])
}

func TestParse_MalformedSurfacesTomlError(t *testing.T) {
	_, err := Parse([]byte("not = [valid toml"))
	require.Error(t, err)
	var vErr *vda.Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, vda.ErrToml, vErr.Kind)
}

func TestLoad_MissingFileSurfacesTomlError(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	require.Error(t, err)
	var vErr *vda.Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, vda.ErrToml, vErr.Kind)
}

func TestModuleConfig_NilConfig(t *testing.T) {
	var cfg *Config
	_, ok := cfg.ModuleConfig("anything")
	assert.False(t, ok)
}
