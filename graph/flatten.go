package graph

import "context"

// preOptimizeFlatten and postOptimizeFlatten share a structure: walk the
// graph with a visitor that, on finding a node whose composite state
// satisfies the stage's Ready gate, invokes that node's single-node rewrite,
// then quits the walk and signals the driver to re-walk from scratch. When
// the call leaves the graph unchanged (see graphRewritten), the node's stage
// flag is set and the walk continues instead. The driver repeats until a
// full walk completes without triggering a rewrite.
//
// Restarting after every rewrite avoids reasoning about stale node ids
// inside a walk, at the cost of O(n^2) walks — acceptable because graphs
// here are small (tens to hundreds of nodes).

// preOptimizeFlatten runs the pre-optimize flatten stage to a fixed point.
// It does not call g.Validate after each rewrite — only the post-optimize
// stage does.
func preOptimizeFlatten(ctx context.Context, job *Job, g *Graph) (*Graph, error) {
	for {
		rewrote := false
		var rewriteErr error

		err := WalkDependencyWise(g, func(wg *Graph, nodeID int32) (bool, bool, error) {
			if err := updateState(wg, nodeID); err != nil {
				return false, false, err
			}
			n, err := wg.Node(nodeID)
			if err != nil {
				return false, false, err
			}

			if n.State.readyFor(ReadyForPreOptimizeFlatten, PreOptimizeFlattened) {
				ops := job.registry.Lookup(n.OpName)
				if ops == nil {
					return false, false, NewError(KindGraphInvalid, "no node operation registered for %q (node #%d)", n.OpName, nodeID)
				}
				prevCount := len(wg.Nodes)
				next, err := ops.PreOptimizeFlatten(ctx, wg, nodeID)
				if err != nil {
					rewriteErr = Wrap(err, "pre_optimize_flatten node "+nodeIDString(nodeID))
					return true, false, nil
				}
				if !graphRewritten(next, nodeID, prevCount) {
					// Inapplicable at this node: mark it flattened and keep
					// walking rather than restarting the whole pass.
					nr, err := next.nodeRef(nodeID)
					if err != nil {
						return false, false, err
					}
					nr.State = nr.State.Set(PreOptimizeFlattened)
					g = next
					return false, false, nil
				}
				g = next
				rewrote = true
				return true, false, nil
			}

			if !n.State.Has(InputDimensionsKnown) {
				return false, true, nil
			}
			return false, false, nil
		})
		if err != nil {
			return g, err
		}
		if rewriteErr != nil {
			return g, rewriteErr
		}
		if !rewrote {
			return g, nil
		}
	}
}

// graphRewritten reports whether a node-module flatten call actually
// replaced nodeID with a subgraph, as opposed to reporting "inapplicable"
// and returning the graph unchanged (most operations, most of the time).
// A rewrite either grows the node slice (the replacement subgraph) or
// tombstones nodeID itself; anything else is a no-op the driver must not
// mistake for progress, or it would restart the walk forever without the
// node's Flattened flag ever advancing.
func graphRewritten(after *Graph, nodeID int32, prevCount int) bool {
	if len(after.Nodes) != prevCount {
		return true
	}
	if n, err := after.Node(nodeID); err == nil && n.Type == NodeNull {
		return true
	}
	return false
}

// postOptimizeFlatten is the post-optimize counterpart. Unlike
// preOptimizeFlatten, it validates the graph immediately after every
// rewrite, since by this stage the optimizer has already run and any
// structural damage a rewrite introduces should be caught before execute.
func postOptimizeFlatten(ctx context.Context, job *Job, g *Graph) (*Graph, error) {
	for {
		rewrote := false
		var rewriteErr error

		err := WalkDependencyWise(g, func(wg *Graph, nodeID int32) (bool, bool, error) {
			if err := updateState(wg, nodeID); err != nil {
				return false, false, err
			}
			n, err := wg.Node(nodeID)
			if err != nil {
				return false, false, err
			}

			if n.State.readyFor(ReadyForPostOptimizeFlatten, PostOptimizeFlattened) {
				ops := job.registry.Lookup(n.OpName)
				if ops == nil {
					return false, false, NewError(KindGraphInvalid, "no node operation registered for %q (node #%d)", n.OpName, nodeID)
				}
				prevCount := len(wg.Nodes)
				next, err := ops.PostOptimizeFlatten(ctx, wg, nodeID)
				if err != nil {
					rewriteErr = Wrap(err, "post_optimize_flatten node "+nodeIDString(nodeID))
					return true, false, nil
				}
				if !graphRewritten(next, nodeID, prevCount) {
					nr, err := next.nodeRef(nodeID)
					if err != nil {
						return false, false, err
					}
					nr.State = nr.State.Set(PostOptimizeFlattened)
					g = next
					return false, false, nil
				}
				if err := next.Validate(); err != nil {
					rewriteErr = Wrap(err, "post_optimize_flatten validate after node "+nodeIDString(nodeID))
					return true, false, nil
				}
				g = next
				rewrote = true
				return true, false, nil
			}

			if !n.State.Has(InputDimensionsKnown) {
				return false, true, nil
			}
			return false, false, nil
		})
		if err != nil {
			return g, err
		}
		if rewriteErr != nil {
			return g, rewriteErr
		}
		if !rewrote {
			return g, nil
		}
	}
}
