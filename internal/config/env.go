package config

import "os"

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "CREW_DATA_DIR",
		apply: func(c *Config, v string) {
			c.DataDir = v
		},
	},
	{
		envVar: "CREW_LISTEN",
		apply: func(c *Config, v string) {
			c.Listen = v
		},
	},
	{
		envVar: "CREW_PLANNER_CMD",
		apply: func(c *Config, v string) {
			c.Planner.Command = v
		},
	},
	{
		envVar: "CREW_PLANNER_MODEL",
		apply: func(c *Config, v string) {
			c.Planner.Model = v
		},
	},
	{
		envVar: "CREW_AGENT_CMD",
		apply: func(c *Config, v string) {
			c.Agent.Command = v
		},
	},
	{
		envVar: "CREW_AGENT_MODEL",
		apply: func(c *Config, v string) {
			c.Agent.Model = v
		},
	},
	{
		envVar: "CREW_LOG_LEVEL",
		apply: func(c *Config, v string) {
			c.LogLevel = v
		},
	},
}

// applyEnvOverrides modifies config in place with environment values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}
