// Bipartite flow-network construction for the assignment problem:
//
//	source -> user (cap 1, cost 0)
//	user   -> ap   (cap 1, cost = CostModel.Cost), same floor only
//	ap     -> sink (cap = FlowCapacity(dynamic), cost 0)
//
// Cross-floor edges are never materialized; the floor partition is enforced
// at construction, not filtered afterward.

package sim

import "sort"

// FlowEdge is one directed edge in the residual network. Reverse edges are
// created automatically with zero capacity and negated cost.
type FlowEdge struct {
	To   int
	Cap  int
	Flow int
	Cost float64
}

// FlowNetwork is a capacitated, cost-weighted digraph stored as an edge list
// with per-node adjacency into it. Edge order is insertion order, which the
// solver relies on for deterministic tie-breaking.
type FlowNetwork struct {
	Edges []FlowEdge
	Adj   [][]int
}

// NewFlowNetwork creates a network with n nodes and no edges.
func NewFlowNetwork(n int) *FlowNetwork {
	return &FlowNetwork{Adj: make([][]int, n)}
}

// NumNodes returns the node count.
func (g *FlowNetwork) NumNodes() int { return len(g.Adj) }

// AddEdge inserts a forward edge and its residual twin, returning the
// forward edge's index.
func (g *FlowNetwork) AddEdge(from, to, capacity int, cost float64) int {
	idx := len(g.Edges)
	g.Edges = append(g.Edges, FlowEdge{To: to, Cap: capacity, Cost: cost})
	g.Edges = append(g.Edges, FlowEdge{To: from, Cap: 0, Cost: -cost})
	g.Adj[from] = append(g.Adj[from], idx)
	g.Adj[to] = append(g.Adj[to], idx+1)
	return idx
}

// Residual returns the remaining capacity of edge i.
func (g *FlowNetwork) Residual(i int) int {
	return g.Edges[i].Cap - g.Edges[i].Flow
}

// GraphIndex maps external identifiers to internal node handles so the
// solver's result can be interpreted.
type GraphIndex struct {
	Source int
	Sink   int

	UserNode map[string]int
	APNode   map[string]int

	// UserEdges holds, per user ID, the indexes of that user's outgoing
	// candidate edges, in deterministic (sorted AP ID) order.
	UserEdges map[string][]int

	// NodeAP inverts APNode.
	NodeAP map[int]string
}

// FlowGraphBuilder constructs assignment networks for (users, aps)
// snapshots using a shared cost and capacity model.
type FlowGraphBuilder struct {
	Cost     *CostModel
	Capacity CapacityModel
}

// NewFlowGraphBuilder wires a builder to the models derived from cfg.
func NewFlowGraphBuilder(cfg Config) *FlowGraphBuilder {
	return &FlowGraphBuilder{
		Cost:     NewCostModel(cfg),
		Capacity: CapacityModel{Alpha: cfg.Alpha},
	}
}

// Build constructs the flow network for a snapshot. Users and APs are laid
// out in sorted-ID order so identical snapshots produce identical networks.
// Every user gets a node even if it has no same-floor AP; such users simply
// stay unmatched.
func (b *FlowGraphBuilder) Build(users []*User, aps []*AccessPoint) (*FlowNetwork, *GraphIndex) {
	sortedUsers := make([]*User, len(users))
	copy(sortedUsers, users)
	sort.Slice(sortedUsers, func(i, j int) bool { return sortedUsers[i].ID < sortedUsers[j].ID })

	sortedAPs := make([]*AccessPoint, len(aps))
	copy(sortedAPs, aps)
	sort.Slice(sortedAPs, func(i, j int) bool { return sortedAPs[i].ID < sortedAPs[j].ID })

	// node layout: 0 = source, 1 = sink, then users, then APs
	idx := &GraphIndex{
		Source:    0,
		Sink:      1,
		UserNode:  make(map[string]int, len(sortedUsers)),
		APNode:    make(map[string]int, len(sortedAPs)),
		UserEdges: make(map[string][]int, len(sortedUsers)),
		NodeAP:    make(map[int]string, len(sortedAPs)),
	}

	g := NewFlowNetwork(2 + len(sortedUsers) + len(sortedAPs))

	for i, u := range sortedUsers {
		idx.UserNode[u.ID] = 2 + i
	}
	for i, ap := range sortedAPs {
		node := 2 + len(sortedUsers) + i
		idx.APNode[ap.ID] = node
		idx.NodeAP[node] = ap.ID
	}

	for _, u := range sortedUsers {
		g.AddEdge(idx.Source, idx.UserNode[u.ID], 1, 0)
	}

	for _, u := range sortedUsers {
		for _, ap := range sortedAPs {
			if u.Floor != ap.Floor {
				continue
			}
			e := g.AddEdge(idx.UserNode[u.ID], idx.APNode[ap.ID], 1, b.Cost.Cost(u, ap))
			idx.UserEdges[u.ID] = append(idx.UserEdges[u.ID], e)
		}
	}

	for _, ap := range sortedAPs {
		capacity := FlowCapacity(b.Capacity.Dynamic(ap))
		g.AddEdge(idx.APNode[ap.ID], idx.Sink, capacity, 0)
	}

	return g, idx
}
