package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/wlan-sim/wlan-sim/sim"
)

// Tuning is the YAML shape of a cost-weight table. Omitted fields keep the
// engine defaults; present fields must be non-negative.
type Tuning struct {
	Weights       *sim.Weights         `yaml:"weights"`
	Smoothing     *sim.SmoothingConfig `yaml:"smoothing"`
	RSSIThreshold *float64             `yaml:"rssi_threshold"`
}

// LoadTuning reads and validates a YAML tuning file.
func LoadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if t.Weights != nil {
		for name, v := range map[string]float64{
			"distance":     t.Weights.Distance,
			"signal":       t.Weights.Signal,
			"airtime":      t.Weights.Airtime,
			"sticky":       t.Weights.Sticky,
			"interference": t.Weights.Interference,
			"pressure":     t.Weights.Pressure,
		} {
			if v < 0 {
				return nil, fmt.Errorf("%s: weight %s must be non-negative", path, name)
			}
		}
	}
	if t.Smoothing != nil {
		if t.Smoothing.Decay <= 0 || t.Smoothing.Decay > 1 || t.Smoothing.Gain <= 0 || t.Smoothing.Gain > 1 {
			return nil, fmt.Errorf("%s: smoothing constants must be in (0, 1]", path)
		}
	}

	return &t, nil
}

// Apply overlays the tuning onto an engine configuration.
func (t *Tuning) Apply(cfg *sim.Config) {
	if t.Weights != nil {
		cfg.Weights = *t.Weights
	}
	if t.Smoothing != nil {
		cfg.Smoothing = *t.Smoothing
	}
	if t.RSSIThreshold != nil {
		cfg.RSSIThreshold = *t.RSSIThreshold
	}
}
