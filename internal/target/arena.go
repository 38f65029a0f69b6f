package target

// NodeID indexes a statement node in an Arena.
type NodeID int32

// Arena owns all statement nodes of one generated function. Nodes reference
// children by NodeID, so deep-copying a subtree is an explicit CloneSubtree
// call rather than an accidental pointer share.
type Arena struct {
	nodes []Node
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// New appends a node and returns its id.
func (a *Arena) New(n Node) NodeID {
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes) - 1)
}

// At returns the node for id. The pointer stays valid until the next New or
// CloneSubtree call; callers must not hold it across allocations.
func (a *Arena) At(id NodeID) *Node {
	return &a.nodes[id]
}

// Len reports the number of allocated nodes.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Nodes returns the backing node slice, for structural comparison in tests.
func (a *Arena) Nodes() []Node {
	return a.nodes
}

// CloneSubtree deep-copies the statement rooted at id and returns the copy's
// id. Expressions are shared (they are immutable); child lists are not.
func (a *Arena) CloneSubtree(id NodeID) NodeID {
	src := a.nodes[id]
	children := make([]NodeID, len(src.Children))
	for i, c := range src.Children {
		children[i] = a.CloneSubtree(c)
	}
	src.Children = children
	if src.Args != nil {
		src.Args = append([]Expr(nil), src.Args...)
	}
	return a.New(src)
}

// CloneList deep-copies a statement list in order.
func (a *Arena) CloneList(ids []NodeID) []NodeID {
	if len(ids) == 0 {
		return nil
	}
	co := make([]NodeID, len(ids))
	for i, id := range ids {
		co[i] = a.CloneSubtree(id)
	}
	return co
}

// AddChildren appends statements to the body of a For or Block node.
func (a *Arena) AddChildren(id NodeID, children ...NodeID) {
	n := &a.nodes[id]
	n.Children = append(n.Children, children...)
}

// FuncDef is the function definition exposed to the emission backend: a name
// plus the arena-backed statement list forming its body. The body may be
// empty; the symbol itself is always expected by the emitted program's main
// driver.
type FuncDef struct {
	Name  string
	Arena *Arena
	Body  []NodeID
}
