package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/wlan-sim/wlan-sim/sim"
)

// Define structs for YAML scenario files
type ScenarioFile struct {
	Band   string      `yaml:"band"`
	Floors []FloorSpec `yaml:"floors"`
	APs    []APSpec    `yaml:"aps"`
	Users  []UserSpec  `yaml:"users"`
}

type FloorSpec struct {
	Level int        `yaml:"level"`
	Rooms []sim.Room `yaml:"rooms"`
}

type APSpec struct {
	ID              string  `yaml:"id"`
	Floor           int     `yaml:"floor"`
	Room            string  `yaml:"room"`
	X               float64 `yaml:"x"`
	Y               float64 `yaml:"y"`
	Channel         int     `yaml:"channel"`
	AirtimeCapacity float64 `yaml:"airtime_capacity"`
	MaxClients      int     `yaml:"max_clients"`
	CoverageRadius  float64 `yaml:"coverage_radius"`
}

type UserSpec struct {
	ID            string  `yaml:"id"`
	Floor         int     `yaml:"floor"`
	Room          string  `yaml:"room"`
	X             float64 `yaml:"x"`
	Y             float64 `yaml:"y"`
	AirtimeDemand float64 `yaml:"airtime_demand"`
	AssignedAP    string  `yaml:"assigned_ap"`
}

// LoadScenario reads a YAML scenario file and materializes the engine input.
// Band-derived AP fields (coverage radius, path loss) fall back to the file's
// band when unset; interference scores are always recomputed from the
// channel plan.
func LoadScenario(path string) (*sim.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file ScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if !sim.ValidBand(file.Band) {
		return nil, fmt.Errorf("scenario %s: invalid band %q", path, file.Band)
	}
	if len(file.Floors) == 0 || len(file.APs) == 0 {
		return nil, fmt.Errorf("scenario %s: needs at least one floor and one AP", path)
	}

	scn := &sim.Scenario{Band: file.Band}

	levels := make(map[int]bool, len(file.Floors))
	for _, f := range file.Floors {
		if len(f.Rooms) == 0 {
			return nil, fmt.Errorf("scenario %s: floor %d has no rooms", path, f.Level)
		}
		scn.Floors = append(scn.Floors, &sim.Floor{Level: f.Level, Rooms: f.Rooms})
		levels[f.Level] = true
	}

	channels := sim.BandChannels(file.Band)
	for i, a := range file.APs {
		if !levels[a.Floor] {
			return nil, fmt.Errorf("scenario %s: AP %s on unknown floor %d", path, a.ID, a.Floor)
		}
		ap := &sim.AccessPoint{
			ID:             a.ID,
			Floor:          a.Floor,
			Room:           a.Room,
			X:              a.X,
			Y:              a.Y,
			Band:           file.Band,
			Channel:        a.Channel,
			BaseCapacity:   a.AirtimeCapacity,
			MaxClients:     a.MaxClients,
			CoverageRadius: a.CoverageRadius,
		}
		if ap.Channel == 0 {
			ap.Channel = channels[i%len(channels)]
		}
		if ap.BaseCapacity <= 0 {
			return nil, fmt.Errorf("scenario %s: AP %s needs a positive airtime_capacity", path, a.ID)
		}
		if ap.CoverageRadius <= 0 {
			ap.CoverageRadius = sim.BandCoverage(file.Band)
		}
		scn.APs = append(scn.APs, ap)
	}
	sim.RecomputeInterference(scn.APs)

	for _, u := range file.Users {
		if !levels[u.Floor] {
			return nil, fmt.Errorf("scenario %s: user %s on unknown floor %d", path, u.ID, u.Floor)
		}
		demand := u.AirtimeDemand
		if demand <= 0 {
			demand = 1
		}
		scn.Users = append(scn.Users, &sim.User{
			ID:            u.ID,
			Floor:         u.Floor,
			Room:          u.Room,
			X:             u.X,
			Y:             u.Y,
			RSSI:          sim.RSSIFloor,
			AirtimeDemand: demand,
			AssignedAP:    u.AssignedAP,
		})
	}

	return scn, nil
}
