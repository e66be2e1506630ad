// Package sim provides the core assignment and rebalancing engine for the
// WLAN load-balancing simulator.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - entities.go: User and AccessPoint records, assignment semantics
//   - engine.go: the tick pipeline (mobility, signal, load, reassignment)
//   - mcmf.go: the min-cost max-flow solve behind the global reassignment
//
// # Architecture
//
// The engine owns all entity state and mutates it only inside Step(), under
// a single mutex (single-writer model). Every tick runs mobility, coverage
// and load recomputation, then either a global min-cost max-flow solve over
// a freshly built bipartite network (every SolverInterval ticks) or the
// greedy overload corrector (all other ticks, and as the fallback whenever
// the solver fails or is predicted infeasible).
//
// Floor is a hard partition: no candidate edge ever crosses floors, enforced
// at graph construction. Capacity is load-elastic and always read through
// CapacityModel so the optimal and heuristic paths agree on what "full"
// means.
//
// External consumers (transport, CLI, tests) read sanitized snapshots; they
// never hold references into live entities.
package sim
