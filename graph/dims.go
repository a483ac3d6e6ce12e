package graph

import "context"

// populateDimensionsWhereCertain is a dependency-wise walk: for every node
// lacking dimensions, it calls updateState, and if InputDimensionsKnown is
// now set, asks the node's registered operation to compute dimensions with
// forceEstimate=false. If dimensions are still unknown afterward, the walk
// is told to skip this node's outbound paths — there is no point visiting
// nodes that can only ever depend on this one's dimensions.
func populateDimensionsWhereCertain(ctx context.Context, job *Job, g *Graph) error {
	return WalkDependencyWise(g, func(g *Graph, nodeID int32) (bool, bool, error) {
		return dimensionsVisitor(ctx, job, g, nodeID, false)
	})
}

// ForcePopulateDimensions is the force_estimate=true, free-walk counterpart
// to the dimension-propagation phase the pass loop runs internally. It is
// exposed on Job for hosts that need a best-effort dimension estimate
// ahead of a full Execute call (e.g. pre-flight validation of an
// input-bound graph before committing to a job). The fixed-point pass
// loop itself never calls this — it only ever uses the certain,
// dependency-wise variant.
func (j *Job) ForcePopulateDimensions(ctx context.Context, g *Graph) error {
	return WalkFree(g, func(g *Graph, nodeID int32) (bool, bool, error) {
		return dimensionsVisitor(ctx, j, g, nodeID, true)
	})
}

func dimensionsVisitor(ctx context.Context, job *Job, g *Graph, nodeID int32, forceEstimate bool) (quit bool, skip bool, err error) {
	n, err := g.Node(nodeID)
	if err != nil {
		return false, false, err
	}

	if n.ResultWidth > 0 {
		return false, false, nil
	}

	if err := updateState(g, nodeID); err != nil {
		return false, false, err
	}
	n, err = g.Node(nodeID)
	if err != nil {
		return false, false, err
	}

	if n.State.Has(InputDimensionsKnown) {
		ops := job.registry.Lookup(n.OpName)
		if ops == nil {
			return false, false, NewError(KindGraphInvalid, "no node operation registered for %q (node #%d)", n.OpName, nodeID)
		}

		start := job.clock.NowTicks()
		if err := ops.PopulateDimensions(ctx, g, nodeID, forceEstimate); err != nil {
			return false, false, Wrap(err, "populate_dimensions node "+nodeIDString(nodeID))
		}
		elapsed := job.clock.NowTicks() - start
		nr, err := g.nodeRef(nodeID)
		if err != nil {
			return false, false, err
		}
		nr.TicksElapsed += elapsed
	}

	n, err = g.Node(nodeID)
	if err != nil {
		return false, false, err
	}
	if n.ResultWidth <= 0 {
		return false, true, nil
	}
	job.notifyGraphChanged(ctx, g)
	return false, false, nil
}
