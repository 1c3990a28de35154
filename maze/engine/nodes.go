package engine

import "container/heap"

const noParent = -1

// searchNode is one arena record. Parent links are arena indices, so the
// whole tree is released together when the arena goes out of scope.
type searchNode struct {
	pos    Point
	parent int
	g      int
	h      int
	seq    int // insertion order, breaks (f, h) ties
	heapAt int // position in the open heap, -1 once popped
}

func (n *searchNode) f() int {
	return n.g + n.h
}

// nodePool holds every node discovered during one search
type nodePool struct {
	nodes  []searchNode
	byCell []int // flat cell index -> node id, -1 if undiscovered
	closed []bool
	open   openSet
}

func newNodePool(cells int) *nodePool {
	p := &nodePool{
		nodes:  make([]searchNode, 0, 64),
		byCell: make([]int, cells),
		closed: make([]bool, cells),
	}
	for i := range p.byCell {
		p.byCell[i] = noParent
	}
	p.open.pool = p
	return p
}

// lookup returns the node discovered at a cell, if any
func (p *nodePool) lookup(cell int) (int, bool) {
	id := p.byCell[cell]
	return id, id != noParent
}

// push creates a node and places it on the open set
func (p *nodePool) push(cell int, pos Point, parent, g, h int) int {
	id := len(p.nodes)
	p.nodes = append(p.nodes, searchNode{
		pos:    pos,
		parent: parent,
		g:      g,
		h:      h,
		seq:    id,
		heapAt: -1,
	})
	p.byCell[cell] = id
	heap.Push(&p.open, id)
	return id
}

// relax lowers an open node's cost and re-parents it. It keeps the node's
// original insertion order.
func (p *nodePool) relax(id, parent, g int) {
	n := &p.nodes[id]
	n.g = g
	n.parent = parent
	heap.Fix(&p.open, n.heapAt)
}

// popMin removes the open node with the lowest (f, h, seq)
func (p *nodePool) popMin() int {
	return heap.Pop(&p.open).(int)
}

func (p *nodePool) close(cell int) {
	p.closed[cell] = true
}

func (p *nodePool) isClosed(cell int) bool {
	return p.closed[cell]
}

// trace walks parent links from id back to the root, target first
func (p *nodePool) trace(id int) []Point {
	var path []Point
	for id != noParent {
		n := &p.nodes[id]
		path = append(path, n.pos)
		id = n.parent
	}
	return path
}

// openSet is a binary heap of node ids ordered by f, then h, then insertion
type openSet struct {
	ids  []int
	pool *nodePool
}

func (o openSet) Len() int { return len(o.ids) }

func (o openSet) Less(i, j int) bool {
	a, b := &o.pool.nodes[o.ids[i]], &o.pool.nodes[o.ids[j]]
	if af, bf := a.f(), b.f(); af != bf {
		return af < bf
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}

func (o openSet) Swap(i, j int) {
	o.ids[i], o.ids[j] = o.ids[j], o.ids[i]
	o.pool.nodes[o.ids[i]].heapAt = i
	o.pool.nodes[o.ids[j]].heapAt = j
}

func (o *openSet) Push(x any) {
	id := x.(int)
	o.pool.nodes[id].heapAt = len(o.ids)
	o.ids = append(o.ids, id)
}

func (o *openSet) Pop() any {
	old := o.ids
	n := len(old)
	id := old[n-1]
	o.ids = old[:n-1]
	o.pool.nodes[id].heapAt = -1
	return id
}
