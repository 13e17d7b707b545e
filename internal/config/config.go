// Package config loads the VM's tunable limits and native-object
// bindings from a vellum.yaml file.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
)

// Config holds the values spec.md leaves as fixed constants on the VM
// (stack capacity, call-frame bound, microtask drain batch size) plus
// which of the required native objects to bind — useful for running a
// script in a restricted sandbox (e.g. no fetch) without touching code.
type Config struct {
	StackCapacity        int      `yaml:"stack_capacity"`
	MaxCallFrames        int      `yaml:"max_call_frames"`
	MicrotaskBatchSize   int      `yaml:"microtask_batch_size"`
	Natives              []string `yaml:"natives"`
}

// Default matches the constants vm.go compiles in when no vellum.yaml is
// present.
func Default() *Config {
	return &Config{
		StackCapacity:      1 << 16,
		MaxCallFrames:      256,
		MicrotaskBatchSize: 0, // 0 means "drain to empty", the VM's built-in behavior
		Natives: []string{
			"console", "Math", "Object", "Date", "performance",
			"Promise", "setTimeout", "clearTimeout", "setInterval",
			"clearInterval", "fetch",
		},
	}
}

// Load reads and parses path, filling in Default() for any field the
// file omits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HasNative reports whether name is in the configured native allowlist.
func (c *Config) HasNative(name string) bool {
	for _, n := range c.Natives {
		if n == name {
			return true
		}
	}
	return false
}
