package forest

type queuedNode struct {
	node     *treeNode
	priority float32
}

// marginQueue is a max-heap of tree nodes keyed by hyperplane margin,
// so the search always expands the most promising subtree next.
type marginQueue struct {
	items []queuedNode
}

func (q *marginQueue) len() int { return len(q.items) }

func (q *marginQueue) push(item queuedNode) {
	q.items = append(q.items, item)
	i := len(q.items) - 1
	for i > 0 {
		p := (i - 1) / 2
		if q.items[i].priority <= q.items[p].priority {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *marginQueue) pop() queuedNode {
	root := q.items[0]
	n := len(q.items)
	q.items[0] = q.items[n-1]
	q.items = q.items[:n-1]

	i := 0
	n--
	for {
		l := 2*i + 1
		if l >= n {
			break
		}
		best := l
		if r := l + 1; r < n && q.items[r].priority > q.items[l].priority {
			best = r
		}
		if q.items[best].priority <= q.items[i].priority {
			break
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
	return root
}
