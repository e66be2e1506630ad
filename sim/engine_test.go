package sim

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoAPScenario is a single floor with two APs and a handful of users placed
// well inside coverage of both.
func twoAPScenario() *Scenario {
	floor := &Floor{Level: 1, Rooms: []Room{
		{Name: "Hall", X: 0, Y: 0, Width: 600, Height: 400},
	}}
	aps := []*AccessPoint{
		{ID: "AP_1_1", Floor: 1, Room: "Hall", X: 150, Y: 200, Band: Band5, Channel: 36, BaseCapacity: 100, MaxClients: 20, CoverageRadius: 450},
		{ID: "AP_1_2", Floor: 1, Room: "Hall", X: 450, Y: 200, Band: Band5, Channel: 40, BaseCapacity: 100, MaxClients: 20, CoverageRadius: 450},
	}
	RecomputeInterference(aps)
	users := []*User{
		{ID: "User_1", Floor: 1, Room: "Hall", X: 140, Y: 190, AirtimeDemand: 2, RSSI: -60, AssignedAP: "AP_1_1"},
		{ID: "User_2", Floor: 1, Room: "Hall", X: 160, Y: 210, AirtimeDemand: 3, RSSI: -62, AssignedAP: "AP_1_1"},
		{ID: "User_3", Floor: 1, Room: "Hall", X: 440, Y: 200, AirtimeDemand: 2, RSSI: -58, AssignedAP: "AP_1_2"},
	}
	rebuildBookkeeping(aps, users)
	return &Scenario{Floors: []*Floor{floor}, APs: aps, Users: users, Band: Band5}
}

func TestEngine_StepAdvancesTick(t *testing.T) {
	e := NewEngine(DefaultConfig(), twoAPScenario(), NewSimulationKey(1))

	assert.Equal(t, uint64(0), e.Tick())
	assert.False(t, e.Ticking())

	e.Step()
	assert.Equal(t, uint64(1), e.Tick())
	assert.True(t, e.Ticking())

	e.Step()
	assert.Equal(t, uint64(2), e.Tick())
}

func TestEngine_EveryUserAppearsInAssignments(t *testing.T) {
	// GIVEN a scenario that includes a user on a floor with no APs at all
	scn := twoAPScenario()
	scn.Floors = append(scn.Floors, &Floor{Level: 2, Rooms: []Room{
		{Name: "Attic", X: 0, Y: 0, Width: 600, Height: 400},
	}})
	scn.Users = append(scn.Users, &User{
		ID: "User_stranded", Floor: 2, Room: "Attic", X: 300, Y: 200, AirtimeDemand: 1, AssignedAP: "AP_1_1",
	})

	e := NewEngine(DefaultConfig(), scn, NewSimulationKey(1))
	e.Step()

	snap := e.Snapshot()
	require.Len(t, snap.Assignments, 4)

	// the stranded user is disconnected, never dropped from the mapping
	assert.Equal(t, Unassigned, snap.Assignments["User_stranded"])
	for _, u := range snap.Users {
		if u.ID == "User_stranded" {
			assert.Equal(t, RSSIFloor, u.RSSI)
		}
	}
	assert.Equal(t, 1, snap.Metrics.UnassignedUsers)
}

func TestEngine_ConnectedSetsMatchAssignments(t *testing.T) {
	e := NewEngine(DefaultConfig(), twoAPScenario(), NewSimulationKey(3))
	for i := 0; i < 10; i++ {
		e.Step()
	}

	snap := e.Snapshot()
	for _, ap := range snap.APs {
		want := 0
		for _, assigned := range snap.Assignments {
			if assigned == ap.ID {
				want++
			}
		}
		assert.Len(t, ap.Connected, want, "AP %s connected set diverges from assignments", ap.ID)
		for _, uid := range ap.Connected {
			assert.Equal(t, ap.ID, snap.Assignments[uid])
		}
	}
}

func TestEngine_DeterministicForIdenticalSeeds(t *testing.T) {
	run := func() Snapshot {
		params := DefaultScenarioParams()
		params.TotalUsers = 40
		params.FloorLevels = 2
		params.FloorDensity = map[int]float64{1: 0.5, 2: 0.5}

		key := NewSimulationKey(99)
		rng := NewPartitionedRNG(key)
		scn := GenerateScenario(params, rng.ForSubsystem(SubsystemScenario))
		e := NewEngine(DefaultConfig(), scn, key)
		for i := 0; i < 12; i++ {
			e.Step()
		}
		return e.Snapshot()
	}

	a, b := run(), run()
	assert.Equal(t, a.Assignments, b.Assignments)
	assert.Equal(t, a.Users, b.Users)
	assert.Equal(t, a.APs, b.APs)
	assert.Equal(t, a.Metrics, b.Metrics)
}

func TestEngine_GraceWindowDelaysDisconnect(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GraceTicks = 2
	e := NewEngine(cfg, twoAPScenario(), NewSimulationKey(1))

	// establish coverage once so the grace window arms
	e.recomputeSignal()
	u := e.users[0]
	require.Equal(t, "AP_1_1", u.AssignedAP)

	// teleport out of everyone's coverage
	u.X, u.Y = 1e6, 1e6

	e.recomputeSignal()
	assert.Equal(t, "AP_1_1", u.AssignedAP, "first out-of-coverage tick is inside the grace window")
	e.recomputeSignal()
	assert.Equal(t, "AP_1_1", u.AssignedAP, "second out-of-coverage tick is inside the grace window")
	e.recomputeSignal()
	assert.Equal(t, Unassigned, u.AssignedAP, "grace exhausted")
	assert.Equal(t, RSSIFloor, u.RSSI)
}

func TestEngine_NoGraceDisconnectsImmediately(t *testing.T) {
	e := NewEngine(DefaultConfig(), twoAPScenario(), NewSimulationKey(1))
	u := e.users[0]
	u.X, u.Y = 1e6, 1e6

	e.recomputeSignal()
	assert.Equal(t, Unassigned, u.AssignedAP)
}

// overloadScenario has one tiny AP with far more connected demand than its
// dynamic capacity admits and no alternative to move to.
func overloadScenario() *Scenario {
	floor := &Floor{Level: 1, Rooms: []Room{
		{Name: "Hall", X: 0, Y: 0, Width: 400, Height: 400},
	}}
	aps := []*AccessPoint{
		{ID: "AP_tiny", Floor: 1, Room: "Hall", X: 200, Y: 200, Band: Band5, Channel: 36, BaseCapacity: 2, MaxClients: 20, CoverageRadius: 450},
	}
	var users []*User
	for i := 0; i < 6; i++ {
		users = append(users, &User{
			ID: "User_" + string(rune('a'+i)), Floor: 1, Room: "Hall",
			X: 180 + float64(i)*8, Y: 200, AirtimeDemand: 4, RSSI: -60, AssignedAP: "AP_tiny",
		})
	}
	rebuildBookkeeping(aps, users)
	return &Scenario{Floors: []*Floor{floor}, APs: aps, Users: users, Band: Band5}
}

func TestEngine_SolverSkippedWhenGuardTrips(t *testing.T) {
	// six raw users exceed the tiny AP's dynamic capacity, so the tick-0
	// global solve is skipped in favor of the greedy pass
	e := NewEngine(DefaultConfig(), overloadScenario(), NewSimulationKey(1))
	e.Step()

	m := e.Metrics()
	assert.Equal(t, 1, m.SolverSkips)
	assert.Equal(t, 0, m.OptimalSolves)
	assert.Equal(t, 1, m.GreedyRuns)
}

func TestEngine_PersistentOverloadRaisesOneAlarm(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OverloadAlarmTicks = 3
	e := NewEngine(cfg, overloadScenario(), NewSimulationKey(1))

	for i := 0; i < 2; i++ {
		e.Step()
	}
	assert.Equal(t, 0, e.Metrics().AlarmsRaised, "streak below threshold must not alarm")

	e.Step()
	m := e.Metrics()
	assert.Equal(t, 1, m.AlarmsRaised)

	snap := e.Snapshot()
	require.Len(t, snap.Alarms, 1)
	assert.Equal(t, "AP_tiny", snap.Alarms[0].APID)
	assert.Equal(t, 3, snap.Alarms[0].Ticks)
	assert.Greater(t, snap.Alarms[0].Load, snap.Alarms[0].Capacity)

	// the streak keeps the alarm visible but the raised counter stays at one
	e.Step()
	assert.Equal(t, 1, e.Metrics().AlarmsRaised)
	assert.Len(t, e.Snapshot().Alarms, 1)
}

func TestEngine_AddAndRemoveUser(t *testing.T) {
	e := NewEngine(DefaultConfig(), twoAPScenario(), NewSimulationKey(1))

	id, err := e.AddUser(1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "User_"))

	users, _ := e.Counts()
	assert.Equal(t, 4, users)
	assert.Equal(t, Unassigned, e.Snapshot().Assignments[id])

	_, err = e.AddUser(99)
	assert.Error(t, err)

	removed, err := e.RemoveUser(1)
	require.NoError(t, err)
	assert.Equal(t, id, removed, "the most recently added user on the floor goes first")
	users, _ = e.Counts()
	assert.Equal(t, 3, users)
	_, ok := e.Snapshot().Assignments[removed]
	assert.False(t, ok)

	_, err = e.RemoveUser(99)
	assert.Error(t, err)
}

func TestEngine_AddedUserGetsPlacedNextTick(t *testing.T) {
	e := NewEngine(DefaultConfig(), twoAPScenario(), NewSimulationKey(1))
	id, err := e.AddUser(1)
	require.NoError(t, err)

	e.Step()
	assigned := e.Snapshot().Assignments[id]
	assert.NotEqual(t, Unassigned, assigned)
}

func TestEngine_SetBandRedrivesRadioPlan(t *testing.T) {
	e := NewEngine(DefaultConfig(), twoAPScenario(), NewSimulationKey(1))

	require.NoError(t, e.SetBand(Band6))
	assert.Equal(t, Band6, e.Band())

	channels := BandChannels(Band6)
	snap := e.Snapshot()
	for i, ap := range snap.APs {
		assert.Equal(t, Band6, ap.Band)
		assert.Equal(t, BandCoverage(Band6), ap.CoverageRadius)
		assert.Equal(t, channels[i%len(channels)], ap.Channel)
	}

	assert.Error(t, e.SetBand("60"))
	assert.Equal(t, Band6, e.Band(), "rejected band must not change state")
}

func TestEngine_InjectLoad(t *testing.T) {
	e := NewEngine(DefaultConfig(), twoAPScenario(), NewSimulationKey(1))
	before := apLoad(t, e.Snapshot(), "AP_1_1")

	require.NoError(t, e.InjectLoad("AP_1_1", 50))
	assert.InDelta(t, before+50, apLoad(t, e.Snapshot(), "AP_1_1"), 1e-9)

	assert.Error(t, e.InjectLoad("AP_nope", 10))
}

func TestEngine_DisruptorInjectsWhileDeployedOnly(t *testing.T) {
	// a user-free floor isolates the disruptor's contribution to AP load
	scn := twoAPScenario()
	scn.Users = nil
	for _, ap := range scn.APs {
		ap.Connected = nil
		ap.Load = 0
	}
	cfg := DefaultConfig()
	e := NewEngine(cfg, scn, NewSimulationKey(1))

	e.DeployDisruptor()
	e.SteerDisruptor(1, 0)
	e.Step()

	// centered on a 600x400 floor, both APs sit inside the impact radius
	snap := e.Snapshot()
	for _, ap := range snap.APs {
		assert.InDelta(t, 10.0, ap.Load, 1e-9, "AP %s", ap.ID)
	}

	e.WithdrawDisruptor()
	e.Step()

	// no fresh injection, and the greedy bookkeeping pass rebuilds loads
	// from assignments, so a user-free floor returns to zero
	snap = e.Snapshot()
	for _, ap := range snap.APs {
		assert.InDelta(t, 0.0, ap.Load, 1e-9, "AP %s", ap.ID)
	}
}

func TestEngine_MoveDisruptorValidatesFloor(t *testing.T) {
	e := NewEngine(DefaultConfig(), twoAPScenario(), NewSimulationKey(1))
	assert.NoError(t, e.MoveDisruptorToFloor(1))
	assert.Error(t, e.MoveDisruptorToFloor(42))
}

func TestEngine_SnapshotIsSanitizedAndDetached(t *testing.T) {
	e := NewEngine(DefaultConfig(), twoAPScenario(), NewSimulationKey(1))
	e.users[0].X = math.NaN()
	e.aps[0].Load = math.Inf(1)

	snap := e.Snapshot()
	assert.Equal(t, 0.0, snap.Users[0].X)
	assert.Equal(t, 0.0, snap.APs[0].Load)

	// mutating the snapshot must not leak back into the engine
	if len(snap.APs[0].Connected) > 0 {
		snap.APs[0].Connected[0] = "tampered"
		assert.NotEqual(t, "tampered", e.aps[0].Connected[0])
	}
	snap.Assignments["User_1"] = "tampered"
	assert.NotEqual(t, "tampered", e.Snapshot().Assignments["User_1"])
}

func apLoad(t *testing.T, snap Snapshot, id string) float64 {
	t.Helper()
	for _, ap := range snap.APs {
		if ap.ID == id {
			return ap.Load
		}
	}
	t.Fatalf("AP %s not in snapshot", id)
	return 0
}
