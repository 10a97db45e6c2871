package tangle

import "github.com/iotaledger/hornet-core/packages/model/hornet"

// PropagateSolidity walks the children of hash (which must have just become
// solid) and marks every child solid whose other parent is also solid,
// continuing into their children in turn. The walk is iterative,
// deduplicated by a visited set and terminates because the tangle is
// acyclic. Grounded on the teacher's checkSolidity/approversMap shape.
func (t *Tangle) PropagateSolidity(hash hornet.Hash) {
	visited := make(map[string]struct{})
	queue := []hornet.Hash{hash}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if _, seen := visited[string(current)]; seen {
			continue
		}
		visited[string(current)] = struct{}{}

		for _, child := range t.Children(current) {
			meta, ok := t.GetMetadata(child)
			if !ok || meta.IsSolid() {
				continue
			}
			tx, ok := t.Get(child)
			if !ok {
				continue
			}
			if !t.parentsSolid(uniqueParents(tx.Trunk, tx.Branch)) {
				continue
			}
			meta.setSolid()
			t.Events.TransactionSolid.Trigger(child)
			queue = append(queue, child)
		}
	}
}
