// Package config loads the text-format (TOML) configuration file described
// in spec §6: a [global] section, an [agv_description] section, a
// [module.*] table of per-module subconfigs, and an opaque [custom.*] table.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/vda5050go/core/vda"
)

// Global holds process-wide settings: the log level name (parsed by the
// logging package) and whether the event bus runs synchronous or
// asynchronous dispatch.
type Global struct {
	LogLevel string `toml:"log_level"`
	AsyncBus bool   `toml:"async_bus"`
}

// AGVDescription mirrors the factsheet-adjacent identity and capability
// fields a driver publishes about the AGV it controls.
type AGVDescription struct {
	Manufacturer       string   `toml:"manufacturer"`
	SerialNumber       string   `toml:"serial_number"`
	SeriesName         string   `toml:"series_name"`
	PhysicalParameters Physical `toml:"physical_parameters"`
	SupportedActions   []string `toml:"supported_action_types"`
}

// Physical captures the AGV's dimensions and performance envelope.
type Physical struct {
	SpeedMin  float64 `toml:"speed_min"`
	SpeedMax  float64 `toml:"speed_max"`
	AccelMax  float64 `toml:"acceleration_max"`
	DecelMax  float64 `toml:"deceleration_max"`
	HeightMax float64 `toml:"height_max"`
	WidthMax  float64 `toml:"width_max"`
	LengthMax float64 `toml:"length_max"`
}

// NodeTolerance holds the xy and theta tolerances of a module's
// node_reached table. The values are decoded but nothing in this module
// reads them: handler.NavigationSink.EvalPosition decides node-reached from
// the goal node's deviation radius alone (0.1 when unset) and does not
// compare the heading.
type NodeTolerance struct {
	XY    float64 `toml:"xy"`
	Theta float64 `toml:"theta"`
}

// Module holds the per-module subconfig tables named in spec §6:
// node-reached tolerances, timer periods, the MQTT broker address, and a
// query timeout. engine.New reads QueryTimeoutMs of the "validate" module as
// the validation pipeline's query timeout; no field changes the
// accept-by-default answer to an unanswered query.
type Module struct {
	NodeReached       NodeTolerance `toml:"node_reached"`
	StateUpdatePeriod int64         `toml:"state_update_period_ms"`
	VisualizationHz   float64       `toml:"visualization_hz"`
	MQTTBroker        string        `toml:"mqtt_broker"`
	QueryTimeoutMs    int64         `toml:"query_timeout_ms"`
}

// Config is the root of the TOML document.
type Config struct {
	Global         Global            `toml:"global"`
	AGVDescription AGVDescription    `toml:"agv_description"`
	Module         map[string]Module `toml:"module"`
	Custom         map[string]any    `toml:"custom"`
}

// Load reads and parses the TOML file at path. Malformed TOML surfaces as
// vda.Error{Kind: ErrToml}, matching spec §7's error taxonomy.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &vda.Error{Kind: vda.ErrToml, Component: "config", Function: "Load", Message: path, Cause: err}
	}
	return Parse(data)
}

// Parse decodes data as a TOML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, &vda.Error{Kind: vda.ErrToml, Component: "config", Function: "Parse", Message: "decode failed", Cause: err}
	}
	return &cfg, nil
}

// ModuleConfig looks up a named module subconfig, returning the zero value
// and false if it is absent rather than panicking on a nil map lookup.
func (c *Config) ModuleConfig(name string) (Module, bool) {
	if c == nil || c.Module == nil {
		return Module{}, false
	}
	m, ok := c.Module[name]
	return m, ok
}
