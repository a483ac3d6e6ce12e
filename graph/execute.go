package graph

import "context"

// executeWhereCertain is a single dependency-wise walk: for each node,
// update_state runs, and if the node is not yet Executed and its state
// satisfies ReadyForExecution, its operation runs under the job's clock,
// TicksElapsed accumulates, Executed is set, and notify_node_complete
// fires. A node that is not yet executable skips its outbound paths for
// this walk; the outer pass loop will retry it on a later pass once its
// blockers clear.
func executeWhereCertain(ctx context.Context, job *Job, g *Graph) error {
	return WalkDependencyWise(g, func(wg *Graph, nodeID int32) (bool, bool, error) {
		if err := updateState(wg, nodeID); err != nil {
			return false, false, err
		}
		n, err := wg.Node(nodeID)
		if err != nil {
			return false, false, err
		}

		if n.State.readyFor(ReadyForExecution, Executed) {
			if err := executeNode(ctx, job, wg, nodeID, n); err != nil {
				return false, false, err
			}
		}

		n, err = wg.Node(nodeID)
		if err != nil {
			return false, false, err
		}
		if !n.State.Has(Executed) {
			return false, true, nil
		}
		job.notifyGraphChanged(ctx, wg)
		return false, false, nil
	})
}

func executeNode(ctx context.Context, job *Job, g *Graph, nodeID int32, n Node) error {
	start := job.clock.NowTicks()

	ops := job.registry.Lookup(n.OpName)
	if ops == nil {
		return NewError(KindGraphInvalid, "no node operation registered for %q (node #%d)", n.OpName, nodeID)
	}
	if err := ops.Execute(ctx, job, g, nodeID); err != nil {
		return Wrap(err, "execute node "+nodeIDString(nodeID))
	}

	elapsed := job.clock.NowTicks() - start
	nr, err := g.nodeRef(nodeID)
	if err != nil {
		return err
	}
	nr.TicksElapsed += elapsed
	nr.State = nr.State.Set(Executed)

	job.metrics.observeNodeTicks(n.Type, elapsed)
	job.tickTracker.Record(nodeOpLabel(n), elapsed)
	job.notifyNodeComplete(ctx, g, nodeID)
	return nil
}

func nodeOpLabel(n Node) string {
	switch n.Type {
	case NodeDecoder:
		return "decoder"
	case NodeEncoder:
		return "encoder"
	default:
		if n.OpName != "" {
			return n.OpName
		}
		return "operation"
	}
}
