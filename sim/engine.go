// The simulation engine owns the authoritative entity state and the tick
// counter, and drives the per-tick pipeline:
//
//	mobility -> signal/coverage -> load accounting -> reassignment -> alarms
//
// Reassignment runs the global MCMF solve every SolverInterval ticks and the
// greedy rebalancer on every other tick, falling back to greedy when the
// solver fails or when the cheap overload guard predicts a doomed solve.
//
// Single-writer model: all entity mutation happens inside Step() under one
// mutex; external readers get sanitized snapshots under the same mutex, so a
// snapshot fully precedes or fully follows any tick's mutation.

package sim

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Engine is the simulation core. Construct with NewEngine; drive with Step.
type Engine struct {
	mu sync.Mutex

	cfg    Config
	users  []*User
	aps    []*AccessPoint
	floors map[int]*Floor
	band   string

	tick    uint64
	ticking bool

	cost       *CostModel
	capacity   CapacityModel
	builder    *FlowGraphBuilder
	solver     *MCMFSolver
	rebalancer *GreedyRebalancer
	mobility   *MobilityModel
	disruptor  *Disruptor
	rng        *PartitionedRNG

	assignments    map[string]string
	overloadStreak map[string]int
	alarms         []Alarm
	metrics        Metrics
}

// NewEngine builds an engine over a scenario. The scenario's entities become
// engine-owned; callers must not retain references into them.
func NewEngine(cfg Config, scn *Scenario, key SimulationKey) *Engine {
	floors := make(map[int]*Floor, len(scn.Floors))
	for _, f := range scn.Floors {
		floors[f.Level] = f
	}

	rng := NewPartitionedRNG(key)
	e := &Engine{
		cfg:            cfg,
		users:          scn.Users,
		aps:            scn.APs,
		floors:         floors,
		band:           scn.Band,
		cost:           NewCostModel(cfg),
		capacity:       CapacityModel{Alpha: cfg.Alpha},
		builder:        NewFlowGraphBuilder(cfg),
		solver:         &MCMFSolver{},
		rebalancer:     NewGreedyRebalancer(cfg),
		disruptor:      NewDisruptor(),
		rng:            rng,
		assignments:    make(map[string]string, len(scn.Users)),
		overloadStreak: make(map[string]int, len(scn.APs)),
	}
	e.mobility = NewMobilityModel(cfg.Mobility, scn.Floors, rng.ForSubsystem(SubsystemMobility))

	for _, u := range e.users {
		e.assignments[u.ID] = u.AssignedAP
	}
	return e
}

// Tick returns the monotonically increasing tick counter.
func (e *Engine) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Ticking reports whether the engine has left the Idle state.
func (e *Engine) Ticking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticking
}

// Step advances the simulation by one tick. It always runs to completion;
// it must not be re-entered before the previous call returns (the engine
// mutex serializes callers that try).
func (e *Engine) Step() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ticking = true

	e.moveUsers()
	e.recomputeSignal()
	e.recomputeLoad()
	e.reassign()
	e.disruptor.Update(e.floors[e.disruptor.Floor], e.aps)
	e.checkOverload()
	e.publishAssignments()

	e.tick++
	e.metrics.Ticks = e.tick
	logrus.Debugf("[tick %07d] step complete: %d users, %d aps, %d unassigned",
		e.tick, len(e.users), len(e.aps), e.metrics.UnassignedUsers)
}

// moveUsers advances every user's position by its velocity.
func (e *Engine) moveUsers() {
	for _, u := range e.users {
		e.mobility.Move(u)
	}
}

// recomputeSignal evaluates, per user, every same-floor AP within coverage
// and records the strongest estimated RSSI. A user with no AP in range is
// explicitly disconnected (subject to the configured grace window) rather
// than left with a stale assignment.
func (e *Engine) recomputeSignal() {
	for _, u := range e.users {
		best := float64(RSSIFloor) - 1
		found := false
		for _, ap := range e.aps {
			if ap.Floor != u.Floor {
				continue
			}
			dist := Distance(u.X, u.Y, ap.X, ap.Y)
			if dist > ap.CoverageRadius {
				continue
			}
			if est := EstimateRSSI(dist, PathLossExponent(ap.Band)); est > best {
				best = est
				found = true
			}
		}

		if found {
			u.RSSI = int(math.Round(best))
			u.graceLeft = e.cfg.GraceTicks
			continue
		}

		u.RSSI = RSSIFloor
		if u.graceLeft > 0 {
			u.graceLeft--
			continue
		}
		u.AssignedAP = Unassigned
	}
}

// recomputeLoad rebuilds connected sets from assignments and folds the
// instantaneous airtime sums into the smoothed per-AP load.
func (e *Engine) recomputeLoad() {
	instant := make(map[string]float64, len(e.aps))
	byID := make(map[string]*AccessPoint, len(e.aps))
	for _, ap := range e.aps {
		ap.Connected = ap.Connected[:0]
		byID[ap.ID] = ap
	}
	for _, u := range e.users {
		if u.AssignedAP == Unassigned {
			continue
		}
		ap, ok := byID[u.AssignedAP]
		if !ok {
			u.AssignedAP = Unassigned
			continue
		}
		ap.Connected = append(ap.Connected, u.ID)
		instant[ap.ID] += u.AirtimeDemand
	}
	for _, ap := range e.aps {
		ap.Load = sanitizeFloat(ap.Load, 0)*e.cfg.Smoothing.Decay + instant[ap.ID]*e.cfg.Smoothing.Gain
	}
}

// reassign runs the global solve on its cadence and the greedy corrector
// otherwise. Solver failure is a degraded-mode event, never fatal.
func (e *Engine) reassign() {
	if e.tick%e.cfg.SolverInterval == 0 {
		if e.solverDoomed() {
			e.metrics.SolverSkips++
			logrus.Debugf("[tick %07d] solver skipped: raw user count exceeds capacity", e.tick)
			e.runGreedy()
			return
		}

		graph, index := e.builder.Build(e.users, e.aps)
		result, err := e.solver.Solve(graph, index)
		if err != nil {
			e.metrics.SolverFailures++
			logrus.Warnf("[tick %07d] degraded mode: mcmf solve failed (%v), falling back to greedy", e.tick, err)
			e.runGreedy()
			return
		}

		e.applySolverResult(result)
		e.metrics.OptimalSolves++
		return
	}

	e.runGreedy()
}

// solverDoomed is the cheap guard: if some AP's raw connected-user count
// already exceeds its dynamic capacity, a global solve cannot produce a
// feasible improvement worth its cost this tick.
func (e *Engine) solverDoomed() bool {
	for _, ap := range e.aps {
		if float64(len(ap.Connected)) > e.capacity.Dynamic(ap) {
			return true
		}
	}
	return false
}

func (e *Engine) runGreedy() {
	report := e.rebalancer.Redistribute(e.aps, e.users)
	e.metrics.GreedyRuns++
	e.metrics.GreedyMoves += report.Moves
}

// applySolverResult writes the solver's mapping back onto the users and
// rebuilds the materialized per-AP views from scratch.
func (e *Engine) applySolverResult(result *SolveResult) {
	for _, u := range e.users {
		if apID, ok := result.Assignments[u.ID]; ok {
			u.AssignedAP = apID
		}
	}
	rebuildBookkeeping(e.aps, e.users)
}

// checkOverload tracks consecutive overloaded ticks per AP and raises
// persistent-overload alarms for observability.
func (e *Engine) checkOverload() {
	e.alarms = e.alarms[:0]
	for _, ap := range e.aps {
		capacity := e.capacity.Dynamic(ap)
		if ap.Load > capacity {
			e.overloadStreak[ap.ID]++
		} else {
			e.overloadStreak[ap.ID] = 0
			continue
		}
		if streak := e.overloadStreak[ap.ID]; streak >= e.cfg.OverloadAlarmTicks {
			e.alarms = append(e.alarms, Alarm{
				APID:     ap.ID,
				Tick:     e.tick,
				Ticks:    streak,
				Load:     ap.Load,
				Capacity: capacity,
			})
			if streak == e.cfg.OverloadAlarmTicks {
				e.metrics.AlarmsRaised++
				logrus.Infof("[tick %07d] alarm: %s overloaded for %d consecutive ticks (load %.1f > cap %.1f)",
					e.tick, ap.ID, streak, ap.Load, capacity)
			}
		}
	}
}

// publishAssignments rebuilds the total user->AP mapping. Every user appears,
// unassigned ones included; the engine never silently drops a user.
func (e *Engine) publishAssignments() {
	clear(e.assignments)
	unassigned := 0
	for _, u := range e.users {
		e.assignments[u.ID] = u.AssignedAP
		if u.AssignedAP == Unassigned {
			unassigned++
		}
	}
	e.metrics.UnassignedUsers = unassigned
}

// Snapshot returns an immutable, sanitized copy of the current state. Safe
// to call concurrently with Step; construction holds the engine mutex so it
// is never torn mid-structure.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Tick:        e.tick,
		Users:       make([]User, 0, len(e.users)),
		APs:         make([]AccessPoint, 0, len(e.aps)),
		Assignments: make(map[string]string, len(e.assignments)),
		Metrics:     e.metrics,
	}
	for _, u := range e.users {
		snap.Users = append(snap.Users, sanitizedUser(u))
	}
	for _, ap := range e.aps {
		snap.APs = append(snap.APs, sanitizedAP(ap))
	}
	for id, apID := range e.assignments {
		snap.Assignments[id] = apID
	}
	if len(e.alarms) > 0 {
		snap.Alarms = append([]Alarm(nil), e.alarms...)
	}
	return snap
}

// Metrics returns a copy of the run counters.
func (e *Engine) Metrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

// AddUser creates a user at a random position on the given floor. The user
// starts unassigned; the next tick's reassignment places it.
func (e *Engine) AddUser(level int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	floor, ok := e.floors[level]
	if !ok {
		return "", fmt.Errorf("engine: unknown floor %d", level)
	}

	rng := e.rng.ForSubsystem(SubsystemScenario)
	room := floor.Rooms[rng.Intn(len(floor.Rooms))]
	u := &User{
		ID:            "User_" + uuid.NewString()[:8],
		Floor:         level,
		Room:          room.Name,
		X:             room.X + rng.Float64()*room.Width,
		Y:             room.Y + rng.Float64()*room.Height,
		VX:            rng.Float64()*2 - 1,
		VY:            rng.Float64()*2 - 1,
		RSSI:          RSSIFloor,
		AirtimeDemand: float64(1 + rng.Intn(5)),
		AssignedAP:    Unassigned,
	}
	e.users = append(e.users, u)
	e.assignments[u.ID] = Unassigned
	logrus.Infof("added %s on floor %d", u.ID, level)
	return u.ID, nil
}

// RemoveUser removes one user from the given floor (the most recently added
// one there). Returns the removed ID.
func (e *Engine) RemoveUser(level int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := len(e.users) - 1; i >= 0; i-- {
		if e.users[i].Floor != level {
			continue
		}
		u := e.users[i]
		e.users = append(e.users[:i], e.users[i+1:]...)
		delete(e.assignments, u.ID)
		logrus.Infof("removed %s from floor %d", u.ID, level)
		return u.ID, nil
	}
	return "", fmt.Errorf("engine: no users on floor %d", level)
}

// SetBand switches every AP to the given band, updating the band-derived
// coverage radius, channel plan and interference scores. Users the smaller
// coverage no longer reaches disconnect on the next tick.
func (e *Engine) SetBand(band string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !ValidBand(band) {
		return fmt.Errorf("engine: invalid band %q", band)
	}
	e.band = band
	channels := BandChannels(band)
	for i, ap := range e.aps {
		ap.Band = band
		ap.CoverageRadius = BandCoverage(band)
		ap.Channel = channels[i%len(channels)]
	}
	RecomputeInterference(e.aps)
	logrus.Infof("band switched to %s", band)
	return nil
}

// Band returns the current frequency band.
func (e *Engine) Band() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.band
}

// InjectLoad adds raw load onto an AP, modelling an out-of-band external
// mutation. The next tick's overload detection sees and reacts to it.
func (e *Engine) InjectLoad(apID string, amount float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ap := range e.aps {
		if ap.ID == apID {
			ap.Load += amount
			return nil
		}
	}
	return fmt.Errorf("engine: unknown AP %q", apID)
}

// DeployDisruptor activates the load-injecting actor on its current floor.
func (e *Engine) DeployDisruptor() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disruptor.Deploy()
	e.disruptor.SetFloor(e.disruptor.Floor, e.floors[e.disruptor.Floor])
}

// WithdrawDisruptor deactivates the disruptor.
func (e *Engine) WithdrawDisruptor() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disruptor.Withdraw()
}

// MoveDisruptorToFloor relocates the disruptor.
func (e *Engine) MoveDisruptorToFloor(level int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	floor, ok := e.floors[level]
	if !ok {
		return fmt.Errorf("engine: unknown floor %d", level)
	}
	e.disruptor.SetFloor(level, floor)
	return nil
}

// SteerDisruptor sets the disruptor's direction of travel.
func (e *Engine) SteerDisruptor(vx, vy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disruptor.SetVelocity(vx, vy)
}

// Counts returns the user and AP counts, for status reporting.
func (e *Engine) Counts() (users, aps int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.users), len(e.aps)
}
