package graph

import "context"

// optimize is currently a no-op peephole stage: it visits nodes and
// promotes ReadyForOptimize to Optimized. It is reserved as a hook for
// future rewrites (constant folding of adjacent operations, redundant
// decode/encode elimination) and accepts the same re-walk discipline as
// flatten so a future rewrite can quit-and-restart exactly like a flatten
// pass without changing the driver shape.
func optimize(ctx context.Context, job *Job, g *Graph) error {
	for {
		rewrote := false

		err := WalkDependencyWise(g, func(wg *Graph, nodeID int32) (bool, bool, error) {
			n, err := wg.Node(nodeID)
			if err != nil {
				return false, false, err
			}
			if n.State.readyFor(ReadyForOptimize, Optimized) {
				nr, err := wg.nodeRef(nodeID)
				if err != nil {
					return false, false, err
				}
				nr.State = nr.State.Set(Optimized)
			}
			return false, false, nil
		})
		if err != nil {
			return err
		}
		if !rewrote {
			return nil
		}
	}
}
