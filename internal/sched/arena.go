package sched

// nilNode is the tree's null link. Nodes reference each other by arena
// index, never by pointer, so ownership of a node is explicit and single.
const nilNode = int32(-1)

type nodeColor uint8

const (
	colorRed nodeColor = iota
	colorBlack
)

// rbNode is one slot in the arena. key duplicates the owning task's
// vruntime at insertion time so tree ordering stays stable even while
// the task keeps accumulating virtual time elsewhere.
type rbNode struct {
	key    uint64
	task   *Task
	parent int32
	left   int32
	right  int32
	color  nodeColor
	inUse  bool
}

// nodeArena is a fixed-capacity slab of tree nodes with a free list.
// Both alloc and release are O(1) and touch no general-purpose heap, so
// add/pick stay allocation-free after construction. Exhaustion is a
// checked, recoverable condition.
type nodeArena struct {
	nodes []rbNode
	free  []int32
}

func newNodeArena(capacity int) *nodeArena {
	if capacity < 1 {
		capacity = 1
	}
	a := &nodeArena{
		nodes: make([]rbNode, capacity),
		free:  make([]int32, 0, capacity),
	}
	// Stack the free list so low indices hand out first.
	for i := capacity - 1; i >= 0; i-- {
		a.free = append(a.free, int32(i))
	}
	return a
}

func (a *nodeArena) alloc() (int32, error) {
	if len(a.free) == 0 {
		return nilNode, ErrArenaExhausted
	}
	i := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	a.nodes[i] = rbNode{
		parent: nilNode,
		left:   nilNode,
		right:  nilNode,
		color:  colorRed,
		inUse:  true,
	}
	return i, nil
}

func (a *nodeArena) release(i int32) {
	if i == nilNode || !a.nodes[i].inUse {
		return
	}
	a.nodes[i] = rbNode{parent: nilNode, left: nilNode, right: nilNode}
	a.free = append(a.free, i)
}

func (a *nodeArena) capacity() int { return len(a.nodes) }
func (a *nodeArena) inUse() int    { return len(a.nodes) - len(a.free) }

// reset returns every node to the free list.
func (a *nodeArena) reset() {
	a.free = a.free[:0]
	for i := len(a.nodes) - 1; i >= 0; i-- {
		a.nodes[i] = rbNode{parent: nilNode, left: nilNode, right: nilNode}
		a.free = append(a.free, int32(i))
	}
}
