// Min-cost max-flow over the assignment network via successive shortest
// augmenting paths (SPFA on the residual graph). Because every source->user
// edge has capacity one and the network is bipartite, the resulting flow is
// exactly a maximum-cardinality, minimum-cost partial matching.

package sim

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateGraph reports a network the solver cannot work on at all.
// Distinct from a successful solve that leaves every user unassigned.
var ErrDegenerateGraph = errors.New("mcmf: degenerate flow network")

// SolveResult is the outcome of a successful solve. Assignments is total
// over the users present in the graph: unmatched users map to Unassigned.
type SolveResult struct {
	Assignments map[string]string
	Matched     int
	TotalCost   float64
}

// MCMFSolver computes min-cost max-flow assignments. Stateless; safe to
// reuse across ticks.
type MCMFSolver struct{}

// Solve runs successive shortest-path augmentation until no augmenting path
// from source to sink remains, then reads the user->AP matching off the
// saturated candidate edges.
//
// Determinism: nodes and edges are laid out in sorted-ID order by the
// builder, SPFA relaxes edges in that fixed order, and only strict distance
// improvements update the parent pointers, so cost ties always resolve the
// same way on identical input.
func (s *MCMFSolver) Solve(g *FlowNetwork, idx *GraphIndex) (*SolveResult, error) {
	if g == nil || idx == nil || g.NumNodes() < 2 {
		return nil, ErrDegenerateGraph
	}
	if idx.Source < 0 || idx.Sink < 0 || idx.Source >= g.NumNodes() || idx.Sink >= g.NumNodes() || idx.Source == idx.Sink {
		return nil, ErrDegenerateGraph
	}

	res := &SolveResult{Assignments: make(map[string]string, len(idx.UserNode))}

	// Each augmentation matches at least one more user, so the number of
	// rounds is bounded by the user count. Exceeding it means the residual
	// graph is corrupt (e.g. a negative cycle), which is a solver failure.
	maxRounds := len(idx.UserNode) + 1
	rounds := 0
	for {
		dist, parentEdge, err := s.shortestPath(g, idx.Source, idx.Sink)
		if err != nil {
			return nil, err
		}
		if math.IsInf(dist[idx.Sink], 1) {
			break // no augmenting path left: flow is maximal
		}

		rounds++
		if rounds > maxRounds {
			return nil, fmt.Errorf("mcmf: augmentation did not converge after %d rounds", maxRounds)
		}

		// bottleneck along the path (always 1 through a user edge, but the
		// general form keeps sink edges with larger capacities correct)
		bottleneck := math.MaxInt
		for v := idx.Sink; v != idx.Source; {
			e := parentEdge[v]
			if r := g.Residual(e); r < bottleneck {
				bottleneck = r
			}
			v = g.Edges[e^1].To
		}

		for v := idx.Sink; v != idx.Source; {
			e := parentEdge[v]
			g.Edges[e].Flow += bottleneck
			g.Edges[e^1].Flow -= bottleneck
			v = g.Edges[e^1].To
		}
		res.TotalCost += dist[idx.Sink] * float64(bottleneck)
	}

	for userID, edges := range idx.UserEdges {
		res.Assignments[userID] = Unassigned
		for _, e := range edges {
			if g.Edges[e].Flow >= 1 {
				res.Assignments[userID] = idx.NodeAP[g.Edges[e].To]
				res.Matched++
				break
			}
		}
	}
	// users with no candidate edge at all still appear in the output
	for userID := range idx.UserNode {
		if _, ok := res.Assignments[userID]; !ok {
			res.Assignments[userID] = Unassigned
		}
	}

	return res, nil
}

// shortestPath runs SPFA from source, returning tentative distances and the
// incoming edge of each node on its shortest path. Edge costs are
// non-negative by construction; the relaxation counter still guards against
// a corrupted graph looping forever.
func (s *MCMFSolver) shortestPath(g *FlowNetwork, source, sink int) ([]float64, []int, error) {
	n := g.NumNodes()
	dist := make([]float64, n)
	parentEdge := make([]int, n)
	inQueue := make([]bool, n)
	relaxations := make([]int, n)

	for i := range dist {
		dist[i] = math.Inf(1)
		parentEdge[i] = -1
	}
	dist[source] = 0

	queue := []int{source}
	inQueue[source] = true

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		inQueue[u] = false

		relaxations[u]++
		if relaxations[u] > n {
			return nil, nil, fmt.Errorf("mcmf: negative cycle detected at node %d", u)
		}

		for _, e := range g.Adj[u] {
			edge := g.Edges[e]
			if g.Residual(e) <= 0 {
				continue
			}
			if nd := dist[u] + edge.Cost; nd < dist[edge.To] {
				dist[edge.To] = nd
				parentEdge[edge.To] = e
				if !inQueue[edge.To] {
					queue = append(queue, edge.To)
					inQueue[edge.To] = true
				}
			}
		}
	}

	return dist, parentEdge, nil
}
