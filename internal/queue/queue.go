// Package queue provides value-based binary heaps keyed by distance,
// used by the search backends for top-k selection and graph traversal.
package queue

// Item is an (id, distance) pair ordered by distance.
type Item struct {
	ID       uint32
	Distance float32
}

// Heap is a binary heap of Items. Zero value is not usable; construct with
// NewMin or NewMax.
type Heap struct {
	max   bool
	items []Item
}

// NewMin creates a min-heap (closest on top).
func NewMin(capacity int) *Heap {
	return &Heap{items: make([]Item, 0, capacity)}
}

// NewMax creates a max-heap (farthest on top).
func NewMax(capacity int) *Heap {
	return &Heap{max: true, items: make([]Item, 0, capacity)}
}

// Len returns the number of items.
func (h *Heap) Len() int { return len(h.items) }

// Top returns the root without removing it.
func (h *Heap) Top() (Item, bool) {
	if len(h.items) == 0 {
		return Item{}, false
	}
	return h.items[0], true
}

// Push inserts an item.
func (h *Heap) Push(item Item) {
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
}

// Pop removes and returns the root.
func (h *Heap) Pop() (Item, bool) {
	n := len(h.items)
	if n == 0 {
		return Item{}, false
	}
	root := h.items[0]
	last := h.items[n-1]
	h.items = h.items[:n-1]
	if n-1 > 0 {
		h.items[0] = last
		h.siftDown(0)
	}
	return root, true
}

// PushBounded pushes item into a max-heap capped at bound items, evicting
// the farthest when full. Reports whether the item was kept.
func (h *Heap) PushBounded(item Item, bound int) bool {
	if h.Len() < bound {
		h.Push(item)
		return true
	}
	top, _ := h.Top()
	if item.Distance >= top.Distance {
		return false
	}
	h.items[0] = item
	h.siftDown(0)
	return true
}

// Drain pops all items, closest first for a max-heap.
func (h *Heap) Drain() []Item {
	out := make([]Item, len(h.items))
	for i := len(h.items) - 1; i >= 0; i-- {
		out[i], _ = h.Pop()
	}
	if !h.max {
		// Min-heap pops closest first; reverse back to ascending order.
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func (h *Heap) less(i, j int) bool {
	if h.max {
		return h.items[i].Distance > h.items[j].Distance
	}
	return h.items[i].Distance < h.items[j].Distance
}

func (h *Heap) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !h.less(i, p) {
			return
		}
		h.items[i], h.items[p] = h.items[p], h.items[i]
		i = p
	}
}

func (h *Heap) siftDown(i int) {
	n := len(h.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && h.less(r, l) {
			best = r
		}
		if !h.less(best, i) {
			return
		}
		h.items[i], h.items[best] = h.items[best], h.items[i]
		i = best
	}
}
