package infer

// addUpperBound records id <: bound on both nodes.
// If bound is already a lower bound of id, the two are equal and get equated
func (cs *ConstraintSystem) addUpperBound(id, bound NodeID) {
	id, bound = cs.find(id), cs.find(bound)
	if id == bound {
		return
	}
	n, b := cs.nodes[id], cs.nodes[bound]
	if !n.upperBounds.Insert(bound) {
		return
	}
	b.lowerBounds.Insert(id)
	cs.logger.Debug("added upper bound", "node", n, "bound", b)

	if n.lowerBounds.Contains(bound) {
		cs.logger.Debug("bounds imply equality", "a", n, "b", b)
		cs.equate(id, bound)
	}
}

// addLowerBound records bound <: id on both nodes
func (cs *ConstraintSystem) addLowerBound(id, bound NodeID) {
	cs.addUpperBound(bound, id)
}
