package octree

// Item is an indexed object. The octree only requires a fixed position in
// world space.
type Item interface {
	Position() Vector3f
}

// Node is a cubic region of space. A leaf node holds items directly, an
// internal node holds up to 8 child nodes, one per octant. A node is never
// both at once.
//
// Node is a pure data holder; all transitions are performed by the Octree.
type Node struct {
	// The geometric centroid of the region. Not related to the positions of
	// the items the node contains.
	Center Vector3f

	// The edge length of the region. Children are created with half of it.
	Size float32

	leaf     bool
	items    []Item
	branches [8]*Node
}

// NewNode returns a leaf node with the given items and empty child slots.
func NewNode(center Vector3f, size float32, items []Item) *Node {
	return &Node{
		Center: center,
		Size:   size,
		leaf:   true,
		items:  items,
	}
}

// IsLeaf reports whether the node holds items directly.
func (n *Node) IsLeaf() bool {
	return n.leaf
}

// Items returns the items held by a leaf node. Internal nodes hold none.
func (n *Node) Items() []Item {
	return n.items
}

// Branch returns the child node at the given octant index, which may be nil.
func (n *Node) Branch(i int) *Node {
	return n.branches[i]
}
