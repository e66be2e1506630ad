package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wlan-sim/wlan-sim/server"
	sim "github.com/wlan-sim/wlan-sim/sim"
)

var (
	// CLI flags shared by run and serve
	seed           int64   // Master seed for scenario generation and mobility
	logLevel       string  // Log verbosity level
	scenarioFile   string  // Optional YAML scenario file (generated when empty)
	weightsFile    string  // Optional YAML cost-weight table
	totalUsers     int     // Generated scenario: user count
	band           string  // Generated scenario: frequency band (2.4, 5, 6)
	alpha          float64 // Capacity elasticity constant
	solverInterval uint64  // Global MCMF cadence in ticks
	graceTicks     int     // Coverage-loss hysteresis window
	smoothingDecay float64 // Load smoothing decay constant
	smoothingGain  float64 // Load smoothing gain constant

	// run-only flags
	ticks uint64 // Number of ticks to simulate

	// serve-only flags
	listenAddr   string        // HTTP/websocket listen address
	tickInterval time.Duration // Wall-clock delay between ticks
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "wlan-sim",
	Short: "Tick-driven simulator for WLAN user-to-AP load balancing",
}

// runCmd executes a headless simulation and prints the final metrics
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation for a fixed number of ticks",
	Run: func(cmd *cobra.Command, args []string) {
		engine := buildEngine()

		logrus.Infof("Starting simulation: %d ticks, solver every %d, seed %d", ticks, solverInterval, seed)
		start := time.Now()
		for i := uint64(0); i < ticks; i++ {
			engine.Step()
		}
		logrus.Infof("Simulation complete in %s.", time.Since(start).Round(time.Millisecond))

		metrics := engine.Metrics()
		metrics.Print()
	},
}

// serveCmd runs the simulation loop alongside the websocket/HTTP server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation and publish state over websocket/HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		engine := buildEngine()

		srv := server.New(engine, server.Config{
			Addr:         listenAddr,
			TickInterval: tickInterval,
		})
		if err := srv.Run(); err != nil {
			logrus.Fatalf("server exited: %v", err)
		}
	},
}

// buildEngine assembles configuration, scenario and engine from the flags.
func buildEngine() *sim.Engine {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)

	cfg := sim.DefaultConfig()
	cfg.Alpha = alpha
	cfg.SolverInterval = solverInterval
	cfg.GraceTicks = graceTicks
	cfg.Smoothing = sim.SmoothingConfig{Decay: smoothingDecay, Gain: smoothingGain}

	if weightsFile != "" {
		tuning, err := LoadTuning(weightsFile)
		if err != nil {
			logrus.Fatalf("unable to read weights config: %v", err)
		}
		tuning.Apply(&cfg)
	}

	key := sim.NewSimulationKey(seed)
	rng := sim.NewPartitionedRNG(key)

	var scenario *sim.Scenario
	if scenarioFile != "" {
		scenario, err = LoadScenario(scenarioFile)
		if err != nil {
			logrus.Fatalf("unable to read scenario file: %v", err)
		}
		logrus.Infof("Loaded scenario %s: %d floors, %d APs, %d users",
			scenarioFile, len(scenario.Floors), len(scenario.APs), len(scenario.Users))
	} else {
		params := sim.DefaultScenarioParams()
		params.TotalUsers = totalUsers
		params.Band = band
		scenario = sim.GenerateScenario(params, rng.ForSubsystem(sim.SubsystemScenario))
		logrus.Infof("Generated scenario: %d floors, %d APs, %d users",
			len(scenario.Floors), len(scenario.APs), len(scenario.Users))
	}

	return sim.NewEngine(cfg, scenario, key)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, serveCmd} {
		c.Flags().Int64Var(&seed, "seed", 42, "Seed for scenario generation and mobility")
		c.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
		c.Flags().StringVar(&scenarioFile, "scenario", "", "YAML scenario file (generated when empty)")
		c.Flags().StringVar(&weightsFile, "weights", "", "YAML cost-weight table")
		c.Flags().IntVar(&totalUsers, "users", 175, "Generated scenario: total user count")
		c.Flags().StringVar(&band, "band", "5", "Generated scenario: frequency band (2.4, 5, 6)")
		c.Flags().Float64Var(&alpha, "alpha", 0.25, "Capacity elasticity constant")
		c.Flags().Uint64Var(&solverInterval, "solver-interval", 5, "Run the global MCMF solve every N ticks")
		c.Flags().IntVar(&graceTicks, "grace-ticks", 0, "Ticks a user keeps its AP after losing coverage")
		c.Flags().Float64Var(&smoothingDecay, "smoothing-decay", 0.7, "Load smoothing decay constant")
		c.Flags().Float64Var(&smoothingGain, "smoothing-gain", 0.3, "Load smoothing gain constant")
	}

	runCmd.Flags().Uint64Var(&ticks, "ticks", 1000, "Number of ticks to simulate")

	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8000", "HTTP/websocket listen address")
	serveCmd.Flags().DurationVar(&tickInterval, "tick-interval", 200*time.Millisecond, "Wall-clock delay between ticks")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}
