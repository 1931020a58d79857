package astar

import "container/heap"

// openItem is one entry in the open set: a reference to an arena vertex plus
// its search keys. Ties break on lower h first, then lower g, then
// insertion order.
type openItem struct {
	vertex    int
	g, h      float64
	order     int
	heapIndex int
}

func (o openItem) f() float64 { return o.g + o.h }

// openQueue is a container/heap priority queue. Entries are never re-keyed:
// every push refers to a freshly appended arena vertex, so a popped entry is
// always used as is.
type openQueue []*openItem

func (q openQueue) Len() int { return len(q) }

func (q openQueue) Less(i, j int) bool {
	if q[i].f() != q[j].f() {
		return q[i].f() < q[j].f()
	}
	if q[i].h != q[j].h {
		return q[i].h < q[j].h
	}
	if q[i].g != q[j].g {
		return q[i].g < q[j].g
	}
	return q[i].order < q[j].order
}

func (q openQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].heapIndex = i
	q[j].heapIndex = j
}

func (q *openQueue) Push(x interface{}) {
	item := x.(*openItem)
	item.heapIndex = len(*q)
	*q = append(*q, item)
}

func (q *openQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

var _ heap.Interface = (*openQueue)(nil)
