// Tracks simulation-wide counters for final reporting and for observing the
// optimal-vs-heuristic balance over a run.

package sim

import "fmt"

// Metrics aggregates statistics about the simulation. Mutated only inside
// step(); read via Snapshot or Print after the run.
type Metrics struct {
	Ticks           uint64 // completed ticks
	OptimalSolves   int    // successful MCMF solves
	SolverFailures  int    // MCMF failures that fell back to greedy
	SolverSkips     int    // solves skipped by the cheap overload guard
	GreedyRuns      int    // greedy rebalancer invocations
	GreedyMoves     int    // users moved by the rebalancer
	AlarmsRaised    int    // persistent-overload alarms
	UnassignedUsers int    // users unassigned after the latest tick
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Ticks                : %d\n", m.Ticks)
	fmt.Printf("Optimal solves       : %d\n", m.OptimalSolves)
	fmt.Printf("Solver failures      : %d\n", m.SolverFailures)
	fmt.Printf("Solver skips (guard) : %d\n", m.SolverSkips)
	fmt.Printf("Greedy runs          : %d\n", m.GreedyRuns)
	fmt.Printf("Greedy moves         : %d\n", m.GreedyMoves)
	fmt.Printf("Alarms raised        : %d\n", m.AlarmsRaised)
	fmt.Printf("Unassigned users     : %d\n", m.UnassignedUsers)
}
