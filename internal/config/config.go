// Package config loads the VM's runtime tunables from the environment
// using github.com/caarlos0/env/v6.
package config

import (
	"github.com/caarlos0/env/v6"

	"github.com/mna/glox/lang/machine"
)

// VM holds the environment-configurable knobs that feed a machine.Config.
type VM struct {
	GCInitialThreshold int64 `env:"GLOX_GC_INITIAL_THRESHOLD" envDefault:"1048576"`
	GCGrowFactor       int64 `env:"GLOX_GC_GROW_FACTOR" envDefault:"2"`
	StressGC           bool  `env:"GLOX_STRESS_GC" envDefault:"false"`
	MaxCallDepth       int   `env:"GLOX_MAX_CALL_DEPTH" envDefault:"64"`
	MaxSteps           int64 `env:"GLOX_MAX_STEPS" envDefault:"0"`
}

// Load parses environment variables into a VM config, falling back to
// machine.DefaultConfig's values for anything unset.
func Load() (VM, error) {
	cfg := VM{}
	if err := env.Parse(&cfg); err != nil {
		return VM{}, err
	}
	return cfg, nil
}

// Machine converts the loaded environment config into a machine.Config.
func (c VM) Machine() machine.Config {
	return machine.Config{
		GCInitialThreshold: c.GCInitialThreshold,
		GCGrowFactor:       c.GCGrowFactor,
		StressGC:           c.StressGC,
		MaxCallDepth:       c.MaxCallDepth,
		MaxSteps:           c.MaxSteps,
	}
}
