// Package config loads the flow configuration: which model variants run
// each iteration, how many iterations, and the acceptance threshold.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// #region types

// VariantConfig is one model/temperature pairing. Each variant runs its
// own divergence-refinement-evaluation chain every iteration.
type VariantConfig struct {
	Name     string  `json:"name"`
	Model    string  `json:"model"`
	HighTemp float32 `json:"high_temp"`
	LowTemp  float32 `json:"low_temp"`
}

// FlowConfig is the full run topology.
type FlowConfig struct {
	Iterations        int             `json:"iterations"`
	AcceptThreshold   float64         `json:"accept_threshold"`
	JudgeTemperature  float32         `json:"judge_temperature"`
	Variants          []VariantConfig `json:"variants"`
	ResearchURLs      []string        `json:"research_urls,omitempty"`
	RunTimeoutSeconds int             `json:"run_timeout_seconds,omitempty"`
}

// RunTimeout returns the configured run deadline, zero when unlimited.
func (c FlowConfig) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSeconds) * time.Second
}

// #endregion types

// #region defaults

// Default returns a single-variant flow with the standard thresholds.
func Default() FlowConfig {
	cfg := FlowConfig{
		Iterations:       1,
		AcceptThreshold:  5.0,
		JudgeTemperature: 0.1,
		Variants: []VariantConfig{
			{Name: "default", Model: "gpt-4o-mini", HighTemp: 0.9, LowTemp: 0.2},
		},
	}
	if v := os.Getenv("FLOW_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Iterations = n
		}
	}
	if v := os.Getenv("FLOW_ACCEPT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.AcceptThreshold = f
		}
	}
	if v := os.Getenv("RUN_TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			cfg.RunTimeoutSeconds = sec
		}
	}
	return cfg
}

// #endregion defaults

// #region load

// Load reads a flow config file and validates it.
func Load(path string) (FlowConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FlowConfig{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return FlowConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return FlowConfig{}, err
	}
	return cfg, nil
}

// Validate checks the run preconditions.
func (c FlowConfig) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1, got %d", c.Iterations)
	}
	if len(c.Variants) == 0 {
		return fmt.Errorf("at least one variant must be configured")
	}
	for _, v := range c.Variants {
		if v.Name == "" {
			return fmt.Errorf("variant with empty name")
		}
		if v.Model == "" {
			return fmt.Errorf("variant %q has no model", v.Name)
		}
	}
	if c.AcceptThreshold <= 0 || c.AcceptThreshold > 10 {
		return fmt.Errorf("accept threshold %.1f outside (0, 10]", c.AcceptThreshold)
	}
	return nil
}

// #endregion load
