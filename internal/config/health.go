package config

import "os/exec"

// ProviderHealth reports whether a capability's CLI appears usable.
// The core never interprets credentials; presence of the binary is
// the only signal surfaced.
type ProviderHealth struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Available bool   `json:"available"`
}

// Health summarizes which providers appear configured.
func (c *Config) Health() []ProviderHealth {
	return []ProviderHealth{
		checkProvider("planner", c.Planner.Command),
		checkProvider("agent", c.Agent.Command),
	}
}

func checkProvider(name, command string) ProviderHealth {
	_, err := exec.LookPath(command)
	return ProviderHealth{
		Name:      name,
		Command:   command,
		Available: err == nil,
	}
}
