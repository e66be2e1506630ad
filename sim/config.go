package sim

// Weights holds the tunable non-negative multipliers for each cost term.
type Weights struct {
	Distance     float64 `yaml:"distance"`
	Signal       float64 `yaml:"signal"`
	Airtime      float64 `yaml:"airtime"`
	Sticky       float64 `yaml:"sticky"`
	Interference float64 `yaml:"interference"`
	Pressure     float64 `yaml:"pressure"`
}

// SmoothingConfig groups the exponential-decay constants applied when AP
// loads are rebuilt each tick: load = load*Decay + instantaneous*Gain.
// Both must be in (0, 1]. These are empirically tuned values carried over
// from the source system, kept configurable rather than re-derived.
type SmoothingConfig struct {
	Decay float64 `yaml:"decay"`
	Gain  float64 `yaml:"gain"`
}

// MobilityConfig groups the user movement parameters.
type MobilityConfig struct {
	DirectionChangeProb float64 // chance per tick of a random re-direction
	HotspotProb         float64 // chance per tick of steering toward a hotspot
	SpeedMin            float64 // lower bound for re-randomized speed
	SpeedMax            float64 // upper bound for re-randomized speed
}

// Config groups every engine tunable.
type Config struct {
	// Alpha is the capacity-elasticity smoothing constant for
	// dynamic_capacity = base * (1 + Alpha * ln(1 + activeUsers)).
	Alpha float64

	// SolverInterval is the tick cadence of the global MCMF solve.
	// All other ticks run the greedy rebalancer only.
	SolverInterval uint64

	// GraceTicks is the hysteresis policy for users that lose coverage:
	// they keep their last assignment for this many ticks before being
	// marked unassigned. 0 disables the grace window.
	GraceTicks int

	// OverloadAlarmTicks is the number of consecutive overloaded ticks
	// after which an AP raises a persistent-overload alarm.
	OverloadAlarmTicks int

	// RSSIThreshold is the hysteresis threshold (dBm) below which the cost
	// model applies the sticky penalty.
	RSSIThreshold float64

	Weights   Weights
	Smoothing SmoothingConfig
	Mobility  MobilityConfig
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		Alpha:              0.25,
		SolverInterval:     5,
		GraceTicks:         0,
		OverloadAlarmTicks: 3,
		RSSIThreshold:      -75,
		Weights: Weights{
			Distance:     0.2,
			Signal:       0.5,
			Airtime:      1.0,
			Sticky:       0.5,
			Interference: 0.2,
			Pressure:     1.0,
		},
		Smoothing: SmoothingConfig{Decay: 0.7, Gain: 0.3},
		Mobility: MobilityConfig{
			DirectionChangeProb: 0.05,
			HotspotProb:         0.02,
			SpeedMin:            0.5,
			SpeedMax:            1.5,
		},
	}
}
