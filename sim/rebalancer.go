// Greedy overload correction on the live assignment. Runs every tick as the
// cheap counterpart to the periodic global MCMF solve: it never rebuilds the
// whole network, it only evicts weakest-signal users from overloaded APs to
// nearby same-floor APs with spare capacity.

package sim

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// RebalanceReport summarizes one Redistribute pass. An AP left overloaded
// because no alternative existed is an accepted, reported outcome, not a
// failure.
type RebalanceReport struct {
	OverloadedAPs   int
	Moves           int
	StillOverloaded []string
}

// GreedyRebalancer performs local, incremental overload correction.
type GreedyRebalancer struct {
	Capacity CapacityModel
}

// NewGreedyRebalancer builds a rebalancer sharing the engine's capacity model.
func NewGreedyRebalancer(cfg Config) *GreedyRebalancer {
	return &GreedyRebalancer{Capacity: CapacityModel{Alpha: cfg.Alpha}}
}

// Redistribute corrects overloaded APs in place. It first rebuilds every
// AP's connected set and load strictly from the users' AssignedAP fields:
// stale load or membership values are never trusted. APs are then processed
// in sorted-ID order for reproducibility.
func (r *GreedyRebalancer) Redistribute(aps []*AccessPoint, users []*User) RebalanceReport {
	rebuildBookkeeping(aps, users)

	sortedAPs := make([]*AccessPoint, len(aps))
	copy(sortedAPs, aps)
	sort.Slice(sortedAPs, func(i, j int) bool { return sortedAPs[i].ID < sortedAPs[j].ID })

	usersByID := make(map[string]*User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	var report RebalanceReport
	for _, ap := range sortedAPs {
		if ap.Load <= r.Capacity.Dynamic(ap) {
			continue
		}
		report.OverloadedAPs++

		// weakest signal first (RSSI is negative, so the most negative
		// value pops first); insertion order breaks ties
		pq := &MinQueue[*User]{}
		for _, uid := range ap.Connected {
			u := usersByID[uid]
			if u == nil {
				continue
			}
			pq.Push(u, float64(u.RSSI))
		}

		for ap.Load > r.Capacity.Dynamic(ap) {
			u, ok := pq.Pop()
			if !ok {
				break
			}
			target := r.findAlternative(u, ap, sortedAPs)
			if target == nil {
				// remaining users stay put; the AP may stay overloaded
				break
			}
			moveUser(u, ap, target)
			report.Moves++
			logrus.Debugf("rebalancer: moved %s from %s to %s", u.ID, ap.ID, target.ID)
		}

		if ap.Load > r.Capacity.Dynamic(ap) {
			report.StillOverloaded = append(report.StillOverloaded, ap.ID)
		}
	}

	if report.Moves > 0 {
		logrus.Debugf("rebalancer: %d moves across %d overloaded APs", report.Moves, report.OverloadedAPs)
	}
	return report
}

// findAlternative searches same-floor APs with spare capacity whose coverage
// reaches the user, picking the one with the strongest estimated RSSI.
// Strict improvement over sorted iteration makes ties resolve by AP ID.
func (r *GreedyRebalancer) findAlternative(u *User, current *AccessPoint, sortedAPs []*AccessPoint) *AccessPoint {
	var best *AccessPoint
	bestRSSI := float64(RSSIFloor) - 1

	for _, cand := range sortedAPs {
		if cand.ID == current.ID || cand.Floor != u.Floor {
			continue
		}
		if cand.Load >= r.Capacity.Dynamic(cand) {
			continue
		}
		dist := Distance(u.X, u.Y, cand.X, cand.Y)
		if dist > cand.CoverageRadius {
			continue
		}
		if est := EstimateRSSI(dist, PathLossExponent(cand.Band)); est > bestRSSI {
			bestRSSI = est
			best = cand
		}
	}
	return best
}

// rebuildBookkeeping derives connected sets and instantaneous loads from the
// authoritative per-user assignment fields. Users assigned to an unknown AP
// are healed to Unassigned.
func rebuildBookkeeping(aps []*AccessPoint, users []*User) map[string]*AccessPoint {
	byID := make(map[string]*AccessPoint, len(aps))
	for _, ap := range aps {
		ap.Connected = ap.Connected[:0]
		ap.Load = 0
		byID[ap.ID] = ap
	}
	for _, u := range users {
		if u.AssignedAP == Unassigned {
			continue
		}
		ap, ok := byID[u.AssignedAP]
		if !ok {
			u.AssignedAP = Unassigned
			continue
		}
		ap.Connected = append(ap.Connected, u.ID)
		ap.Load += u.AirtimeDemand
	}
	return byID
}

// moveUser reassigns u from one AP to another, keeping loads and connected
// sets consistent with the assignment field.
func moveUser(u *User, from, to *AccessPoint) {
	u.AssignedAP = to.ID
	from.Load -= u.AirtimeDemand
	to.Load += u.AirtimeDemand
	from.Connected = removeID(from.Connected, u.ID)
	to.Connected = append(to.Connected, u.ID)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
