package graph

import "sort"

// Visitor is called once per live node during a walk.
//
// Setting *quit aborts the walk immediately: no further nodes are visited.
// Setting *skipOutboundPaths tells the walker that this node could not make
// progress (e.g. it still lacks known dimensions), so no node reachable
// only through this node should be visited during the remainder of this
// walk call — a node reachable via another, unblocked path is still
// visited. Returning a non-nil error aborts the walk and propagates the
// error to the walk's caller, annotated with the node id.
type Visitor func(g *Graph, nodeID int32) (quit bool, skipOutboundPaths bool, err error)

// WalkDependencyWise visits every live node exactly once, in an order such
// that every predecessor of a node is visited before that node — the
// traversal the executor, dimension propagator, and both flatten passes
// rely on. Tombstoned (Null) nodes and tombstoned edges are ignored
// entirely, both for ordering and for visiting.
func WalkDependencyWise(g *Graph, visit Visitor) error {
	order, err := topologicalOrder(g)
	if err != nil {
		return err
	}
	return walk(g, order, visit)
}

// WalkFree visits every live node exactly once; the order is unspecified
// but deterministic for a given graph shape (ascending node id). Used by
// force_populate_dimensions, where no node may depend on ordering to make
// progress.
func WalkFree(g *Graph, visit Visitor) error {
	order := make([]int32, 0, len(g.Nodes))
	for i := range g.Nodes {
		if g.Nodes[i].Type != NodeNull {
			order = append(order, int32(i))
		}
	}
	return walk(g, order, visit)
}

// walk drives a single pass over order, honoring quit and propagating
// skip_outbound_paths via a parent-blocked check: a node is skipped outright
// (visitor never called) exactly when every one of its live predecessors
// was itself blocked by an earlier skip_outbound_paths. This assumes order
// places every predecessor before its dependents, which holds for
// topologicalOrder and is vacuously fine for WalkFree (a node with no
// predecessors in the blocked set is never pruned).
func walk(g *Graph, order []int32, visit Visitor) error {
	blocked := make(map[int32]bool, len(order))

	for _, nodeID := range order {
		// An earlier visitor may have tombstoned this node without quitting.
		if g.Nodes[nodeID].Type == NodeNull {
			continue
		}
		if allLivePredecessorsBlocked(g, nodeID, blocked) {
			blocked[nodeID] = true
			continue
		}

		quit, skip, err := visit(g, nodeID)
		if err != nil {
			return Wrap(err, "graph.walk node "+nodeIDString(nodeID))
		}
		if skip {
			blocked[nodeID] = true
		}
		if quit {
			return nil
		}
	}
	return nil
}

// allLivePredecessorsBlocked reports whether nodeID has at least one live
// incoming edge and every source of a live incoming edge is blocked. A node
// with no live predecessors is never considered blocked by this check.
func allLivePredecessorsBlocked(g *Graph, nodeID int32, blocked map[int32]bool) bool {
	sawPredecessor := false
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.Type == EdgeNull || e.To != nodeID {
			continue
		}
		sawPredecessor = true
		if !blocked[e.From] {
			return false
		}
	}
	return sawPredecessor
}

// topologicalOrder computes a deterministic Kahn topological sort over live
// nodes and live edges: ties (multiple ready nodes) are broken by ascending
// id, which is what makes two sequential walks over an unchanged graph
// visit nodes in the same order.
func topologicalOrder(g *Graph) ([]int32, error) {
	indegree := make(map[int32]int, len(g.Nodes))
	live := make([]int32, 0, len(g.Nodes))
	for i := range g.Nodes {
		if g.Nodes[i].Type != NodeNull {
			live = append(live, int32(i))
			indegree[int32(i)] = 0
		}
	}
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.Type == EdgeNull {
			continue
		}
		indegree[e.To]++
	}

	ready := make([]int32, 0, len(live))
	for _, id := range live {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })

	order := make([]int32, 0, len(live))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		for i := range g.Edges {
			e := &g.Edges[i]
			if e.Type == EdgeNull || e.From != n {
				continue
			}
			indegree[e.To]--
			if indegree[e.To] == 0 {
				ready = append(ready, e.To)
			}
		}
	}

	if len(order) != len(live) {
		return nil, NewError(KindGraphInvalid, "graph contains a cycle among live nodes; dependency-wise walk requires an acyclic graph")
	}
	return order, nil
}
