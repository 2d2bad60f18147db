package sched

// rbTree is the CFS runqueue index: a red-black tree over arena nodes,
// keyed by vruntime. Equal keys insert to the right, so extraction order
// among ties follows arrival order, which keeps runs reproducible.
//
// The leftmost node is cached and maintained incrementally on insert and
// delete, giving O(1) access to the next task to run. Extraction performs
// a full structural delete-and-rebalance; nodes are never orphaned in the
// arena.
type rbTree struct {
	arena    *nodeArena
	root     int32
	leftmost int32
	size     int
}

func newRBTree(arena *nodeArena) *rbTree {
	return &rbTree{arena: arena, root: nilNode, leftmost: nilNode}
}

func (t *rbTree) Size() int { return t.size }

// Leftmost returns the arena index of the minimum-key node, nilNode when
// the tree is empty. Repeated calls without intervening mutation return
// the identical node.
func (t *rbTree) Leftmost() int32 { return t.leftmost }

func (t *rbTree) nodeAt(i int32) *rbNode { return &t.arena.nodes[i] }

// Insert allocates a node from the arena, performs a standard BST insert
// keyed on key, and rebalances. Returns the new node's index, or
// ErrArenaExhausted with the tree untouched.
func (t *rbTree) Insert(key uint64, task *Task) (int32, error) {
	n, err := t.arena.alloc()
	if err != nil {
		return nilNode, err
	}
	nodes := t.arena.nodes
	nodes[n].key = key
	nodes[n].task = task

	parent := nilNode
	cur := t.root
	allLeft := true
	for cur != nilNode {
		parent = cur
		if key < nodes[cur].key {
			cur = nodes[cur].left
		} else {
			cur = nodes[cur].right
			allLeft = false
		}
	}
	nodes[n].parent = parent
	switch {
	case parent == nilNode:
		t.root = n
	case key < nodes[parent].key:
		nodes[parent].left = n
	default:
		nodes[parent].right = n
	}

	t.insertFixup(n)
	t.size++

	// The new node is the minimum exactly when the search never went
	// right (covers the empty-tree case too).
	if allLeft {
		t.leftmost = n
	}
	return n, nil
}

// Delete removes node i with a full delete-and-rebalance and returns it
// to the arena. Deleting an unknown or already-free index is a no-op.
func (t *rbTree) Delete(i int32) {
	if i == nilNode || !t.arena.nodes[i].inUse {
		return
	}
	nodes := t.arena.nodes

	if i == t.leftmost {
		t.leftmost = t.successor(i)
	}

	y := i
	yColor := nodes[y].color
	var x, xParent int32

	switch {
	case nodes[i].left == nilNode:
		x = nodes[i].right
		xParent = nodes[i].parent
		t.transplant(i, x)
	case nodes[i].right == nilNode:
		x = nodes[i].left
		xParent = nodes[i].parent
		t.transplant(i, x)
	default:
		y = t.minimum(nodes[i].right)
		yColor = nodes[y].color
		x = nodes[y].right
		if nodes[y].parent == i {
			xParent = y
		} else {
			xParent = nodes[y].parent
			t.transplant(y, x)
			nodes[y].right = nodes[i].right
			nodes[nodes[y].right].parent = y
		}
		t.transplant(i, y)
		nodes[y].left = nodes[i].left
		nodes[nodes[y].left].parent = y
		nodes[y].color = nodes[i].color
	}

	if yColor == colorBlack {
		t.deleteFixup(x, xParent)
	}
	t.size--
	t.arena.release(i)
}

// replace the subtree rooted at u with the subtree rooted at v.
func (t *rbTree) transplant(u, v int32) {
	nodes := t.arena.nodes
	p := nodes[u].parent
	switch {
	case p == nilNode:
		t.root = v
	case u == nodes[p].left:
		nodes[p].left = v
	default:
		nodes[p].right = v
	}
	if v != nilNode {
		nodes[v].parent = p
	}
}

func (t *rbTree) minimum(i int32) int32 {
	nodes := t.arena.nodes
	for nodes[i].left != nilNode {
		i = nodes[i].left
	}
	return i
}

func (t *rbTree) successor(i int32) int32 {
	nodes := t.arena.nodes
	if nodes[i].right != nilNode {
		return t.minimum(nodes[i].right)
	}
	p := nodes[i].parent
	for p != nilNode && i == nodes[p].right {
		i = p
		p = nodes[p].parent
	}
	return p
}

func (t *rbTree) rotateLeft(x int32) {
	nodes := t.arena.nodes
	y := nodes[x].right
	nodes[x].right = nodes[y].left
	if nodes[y].left != nilNode {
		nodes[nodes[y].left].parent = x
	}
	nodes[y].parent = nodes[x].parent
	switch {
	case nodes[x].parent == nilNode:
		t.root = y
	case x == nodes[nodes[x].parent].left:
		nodes[nodes[x].parent].left = y
	default:
		nodes[nodes[x].parent].right = y
	}
	nodes[y].left = x
	nodes[x].parent = y
}

func (t *rbTree) rotateRight(x int32) {
	nodes := t.arena.nodes
	y := nodes[x].left
	nodes[x].left = nodes[y].right
	if nodes[y].right != nilNode {
		nodes[nodes[y].right].parent = x
	}
	nodes[y].parent = nodes[x].parent
	switch {
	case nodes[x].parent == nilNode:
		t.root = y
	case x == nodes[nodes[x].parent].right:
		nodes[nodes[x].parent].right = y
	default:
		nodes[nodes[x].parent].left = y
	}
	nodes[y].right = x
	nodes[x].parent = y
}

func (t *rbTree) insertFixup(n int32) {
	nodes := t.arena.nodes
	for {
		parent := nodes[n].parent
		if parent == nilNode || nodes[parent].color != colorRed {
			break
		}
		gparent := nodes[parent].parent
		if parent == nodes[gparent].left {
			uncle := nodes[gparent].right
			if uncle != nilNode && nodes[uncle].color == colorRed {
				nodes[uncle].color = colorBlack
				nodes[parent].color = colorBlack
				nodes[gparent].color = colorRed
				n = gparent
				continue
			}
			if n == nodes[parent].right {
				t.rotateLeft(parent)
				parent, n = n, parent
			}
			nodes[parent].color = colorBlack
			nodes[gparent].color = colorRed
			t.rotateRight(gparent)
		} else {
			uncle := nodes[gparent].left
			if uncle != nilNode && nodes[uncle].color == colorRed {
				nodes[uncle].color = colorBlack
				nodes[parent].color = colorBlack
				nodes[gparent].color = colorRed
				n = gparent
				continue
			}
			if n == nodes[parent].left {
				t.rotateRight(parent)
				parent, n = n, parent
			}
			nodes[parent].color = colorBlack
			nodes[gparent].color = colorRed
			t.rotateLeft(gparent)
		}
	}
	nodes[t.root].color = colorBlack
}

// deleteFixup restores the red-black invariants after removing a black
// node. x may be nilNode (a leaf counts as black), so its parent is
// threaded through explicitly.
func (t *rbTree) deleteFixup(x, parent int32) {
	nodes := t.arena.nodes
	for x != t.root && (x == nilNode || nodes[x].color == colorBlack) {
		if parent == nilNode {
			break
		}
		if x == nodes[parent].left {
			w := nodes[parent].right
			if w != nilNode && nodes[w].color == colorRed {
				nodes[w].color = colorBlack
				nodes[parent].color = colorRed
				t.rotateLeft(parent)
				w = nodes[parent].right
			}
			if w == nilNode {
				x = parent
				parent = nodes[x].parent
				continue
			}
			wl, wr := nodes[w].left, nodes[w].right
			if (wl == nilNode || nodes[wl].color == colorBlack) &&
				(wr == nilNode || nodes[wr].color == colorBlack) {
				nodes[w].color = colorRed
				x = parent
				parent = nodes[x].parent
			} else {
				if wr == nilNode || nodes[wr].color == colorBlack {
					if wl != nilNode {
						nodes[wl].color = colorBlack
					}
					nodes[w].color = colorRed
					t.rotateRight(w)
					w = nodes[parent].right
				}
				nodes[w].color = nodes[parent].color
				nodes[parent].color = colorBlack
				if nodes[w].right != nilNode {
					nodes[nodes[w].right].color = colorBlack
				}
				t.rotateLeft(parent)
				x = t.root
				parent = nilNode
			}
		} else {
			w := nodes[parent].left
			if w != nilNode && nodes[w].color == colorRed {
				nodes[w].color = colorBlack
				nodes[parent].color = colorRed
				t.rotateRight(parent)
				w = nodes[parent].left
			}
			if w == nilNode {
				x = parent
				parent = nodes[x].parent
				continue
			}
			wl, wr := nodes[w].left, nodes[w].right
			if (wl == nilNode || nodes[wl].color == colorBlack) &&
				(wr == nilNode || nodes[wr].color == colorBlack) {
				nodes[w].color = colorRed
				x = parent
				parent = nodes[x].parent
			} else {
				if wl == nilNode || nodes[wl].color == colorBlack {
					if wr != nilNode {
						nodes[wr].color = colorBlack
					}
					nodes[w].color = colorRed
					t.rotateLeft(w)
					w = nodes[parent].left
				}
				nodes[w].color = nodes[parent].color
				nodes[parent].color = colorBlack
				if nodes[w].left != nilNode {
					nodes[nodes[w].left].color = colorBlack
				}
				t.rotateRight(parent)
				x = t.root
				parent = nilNode
			}
		}
	}
	if x != nilNode {
		nodes[x].color = colorBlack
	}
}

// clear drops every node without walking the tree; the arena reset
// reclaims the slots.
func (t *rbTree) clear() {
	t.root = nilNode
	t.leftmost = nilNode
	t.size = 0
	t.arena.reset()
}
