// Deterministic initial-population generation: floor geometry, APs with
// band/channel plans and co-channel interference scores, and users placed
// inside rooms without overcommitting any AP at t=0.

package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Scenario is the static input the engine consumes at construction.
type Scenario struct {
	Floors []*Floor
	APs    []*AccessPoint
	Users  []*User
	Band   string
}

// ScenarioParams tunes generation. Zero values fall back to the reference
// campus: seven floors, 175 users, 5 GHz band.
type ScenarioParams struct {
	TotalUsers   int
	Band         string
	FloorLevels  int
	APsPerFloor  int
	FloorDensity map[int]float64
}

// Per-AP admission limits used only while seeding: no AP starts above this
// share of its base capacity, and client counts are bounded.
const (
	airtimeUtilizationSafety = 0.80
	avgAirtimePerUser        = 3.0
	minSeedClients           = 18
	maxSeedClients           = 30
)

// defaultFloorDensity is the reference population share per floor level.
var defaultFloorDensity = map[int]float64{
	7: 0.18,
	6: 0.17,
	5: 0.16,
	4: 0.16,
	3: 0.14,
	2: 0.10,
	1: 0.09,
}

// DefaultScenarioParams returns the reference campus parameters.
func DefaultScenarioParams() ScenarioParams {
	return ScenarioParams{
		TotalUsers:   175,
		Band:         Band5,
		FloorLevels:  7,
		APsPerFloor:  4,
		FloorDensity: defaultFloorDensity,
	}
}

// GenerateScenario builds a scenario from params, drawing every random value
// from rng so the same seed reproduces the same population.
func GenerateScenario(params ScenarioParams, rng *rand.Rand) *Scenario {
	if params.TotalUsers == 0 {
		params = DefaultScenarioParams()
	}
	if !ValidBand(params.Band) {
		params.Band = Band5
	}
	if params.FloorDensity == nil {
		params.FloorDensity = defaultFloorDensity
	}

	floors := defaultFloors(params.FloorLevels)
	aps := generateAPs(floors, params, rng)
	users := generateUsers(floors, aps, params, rng)

	return &Scenario{Floors: floors, APs: aps, Users: users, Band: params.Band}
}

// defaultFloors lays out identical floors: two wings split by a corridor,
// 1200x1200 units overall.
func defaultFloors(levels int) []*Floor {
	if levels <= 0 {
		levels = 7
	}
	floors := make([]*Floor, 0, levels)
	for lvl := 1; lvl <= levels; lvl++ {
		floors = append(floors, &Floor{
			Level: lvl,
			Rooms: []Room{
				{Name: "North Wing", X: 0, Y: 0, Width: 1200, Height: 450},
				{Name: "Corridor", X: 0, Y: 450, Width: 1200, Height: 300},
				{Name: "South Wing", X: 0, Y: 750, Width: 1200, Height: 450},
			},
		})
	}
	return floors
}

// generateAPs places APs along each floor's corridor and assigns the band's
// channel plan round-robin.
func generateAPs(floors []*Floor, params ScenarioParams, rng *rand.Rand) []*AccessPoint {
	perFloor := params.APsPerFloor
	if perFloor <= 0 {
		perFloor = 4
	}
	channels := BandChannels(params.Band)

	var aps []*AccessPoint
	for _, floor := range floors {
		corridor := floor.Rooms[1]
		for i := 0; i < perFloor; i++ {
			base := float64(90 + rng.Intn(51)) // 90..140 resource units
			safeAirtime := base * airtimeUtilizationSafety
			maxClients := int(safeAirtime / avgAirtimePerUser)
			maxClients = max(minSeedClients, min(maxClients, maxSeedClients))

			aps = append(aps, &AccessPoint{
				ID:             fmt.Sprintf("AP_%d_%d", floor.Level, i+1),
				Floor:          floor.Level,
				Room:           corridor.Name,
				X:              corridor.X + corridor.Width*(float64(i)+0.5)/float64(perFloor),
				Y:              corridor.Y + corridor.Height/2,
				Band:           params.Band,
				Channel:        channels[len(aps)%len(channels)],
				BaseCapacity:   base,
				MaxClients:     maxClients,
				CoverageRadius: BandCoverage(params.Band),
			})
		}
	}
	RecomputeInterference(aps)
	return aps
}

// RecomputeInterference scores each AP against same-band neighbors:
// +1 per co-channel AP, +0.5 per adjacent-channel AP (within 5 channels).
func RecomputeInterference(aps []*AccessPoint) {
	for _, ap := range aps {
		score := 0.0
		for _, other := range aps {
			if other.ID == ap.ID || other.Band != ap.Band {
				continue
			}
			diff := other.Channel - ap.Channel
			if diff < 0 {
				diff = -diff
			}
			switch {
			case diff == 0:
				score += 1.0
			case diff <= 5:
				score += 0.5
			}
		}
		ap.InterferenceScore = roundTo(score, 2)
	}
}

// generateUsers distributes users across floors by density targets, capped
// by each floor's seeding capacity, and assigns each to the nearest AP that
// can safely admit it.
func generateUsers(floors []*Floor, aps []*AccessPoint, params ScenarioParams, rng *rand.Rand) []*User {
	type apState struct {
		ap          *AccessPoint
		userCount   int
		airtimeUsed float64
	}
	states := make(map[string]*apState, len(aps))
	for _, ap := range aps {
		states[ap.ID] = &apState{ap: ap}
	}

	targets := floorTargets(aps, params)
	byLevel := make(map[int]*Floor, len(floors))
	for _, f := range floors {
		byLevel[f.Level] = f
	}

	levels := make([]int, 0, len(targets))
	for lvl := range targets {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)

	var users []*User
	for _, level := range levels {
		floor := byLevel[level]
		if floor == nil || targets[level] <= 0 {
			continue
		}

		var floorAPs []*AccessPoint
		for _, ap := range aps {
			if ap.Floor == level {
				floorAPs = append(floorAPs, ap)
			}
		}

		placed := 0
		for attempts := 0; placed < targets[level] && attempts < targets[level]*15; attempts++ {
			room := floor.Rooms[rng.Intn(len(floor.Rooms))]
			const pad = 6
			x := room.X + pad + rng.Float64()*(room.Width-2*pad)
			y := room.Y + pad + rng.Float64()*(room.Height-2*pad)
			demand := float64(1 + rng.Intn(5))

			var best *apState
			bestDist := math.Inf(1)
			for _, ap := range floorAPs {
				st := states[ap.ID]
				if st.userCount >= ap.MaxClients {
					continue
				}
				if st.airtimeUsed+demand > ap.BaseCapacity*airtimeUtilizationSafety {
					continue
				}
				if d := Distance(x, y, ap.X, ap.Y); d < bestDist {
					bestDist = d
					best = st
				}
			}
			if best == nil {
				break // floor seeding capacity exhausted
			}

			u := &User{
				ID:            fmt.Sprintf("User_%d", len(users)+1),
				Floor:         level,
				Room:          room.Name,
				X:             roundTo(x, 2),
				Y:             roundTo(y, 2),
				VX:            rng.Float64()*3 - 1.5,
				VY:            rng.Float64()*3 - 1.5,
				RSSI:          int(math.Round(EstimateRSSI(bestDist, PathLossExponent(best.ap.Band)))),
				AirtimeDemand: demand,
				AssignedAP:    best.ap.ID,
			}
			users = append(users, u)
			best.userCount++
			best.airtimeUsed += demand
			placed++
		}
	}

	// materialize the t=0 connected sets and loads
	rebuildBookkeeping(aps, users)
	return users
}

// floorTargets converts density shares into per-floor user counts, capped by
// each floor's total seeding client capacity. Rounding leftovers go to the
// top floor.
func floorTargets(aps []*AccessPoint, params ScenarioParams) map[int]int {
	floorCaps := make(map[int]int)
	for _, ap := range aps {
		floorCaps[ap.Floor] += ap.MaxClients
	}

	targets := make(map[int]int, len(params.FloorDensity))
	assigned := 0
	top := 0
	for lvl, share := range params.FloorDensity {
		targets[lvl] = int(float64(params.TotalUsers) * share)
		assigned += targets[lvl]
		if lvl > top {
			top = lvl
		}
	}
	if diff := params.TotalUsers - assigned; diff != 0 && top != 0 {
		targets[top] += diff
	}
	for lvl, t := range targets {
		targets[lvl] = min(t, floorCaps[lvl])
	}
	return targets
}
