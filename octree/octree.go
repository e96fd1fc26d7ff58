package octree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Octree Spatial Index
//
// A recursively subdivided cube implementing the SpatialIndex interface.
// The particularities are:
//   - the world is a single cube centered on the origin. Positions are
//     expected to lie within +-worldSize/2 on every axis. Placement beyond
//     that is undefined unless StrictBounds is set.
//   - every node is either a leaf holding items or an internal node holding
//     up to 8 children, one per octant. A leaf that exceeds MaxItemsPerLeaf
//     is promoted to an internal node and its items are redistributed.
//   - the tree is append-only. Nodes are created lazily on insertion and are
//     never merged back or removed.

const (
	// The number of items a leaf can hold before it gets subdivided.
	DefaultMaxItemsPerLeaf = 5

	// The level past which a leaf absorbs items instead of subdividing.
	// Without it, items sharing an exact position would drive promotion into
	// the same octant forever.
	DefaultMaxDepth = 32
)

const (
	ErrTypeInvalidWorldSize = "invalid_world_size"
	ErrTypeOutOfBounds      = "out_of_bounds"
)

// Options configures an Octree. Zero values fall back to defaults.
type Options struct {
	// The leaf-to-internal promotion threshold. Higher values produce
	// shallower trees with more items per leaf scan.
	MaxItemsPerLeaf int

	// The maximum tree depth.
	MaxDepth int

	// When set, Insert rejects positions outside the world cube instead of
	// leaving their placement undefined.
	StrictBounds bool
}

type Octree struct {
	root            *Node
	worldSize       float32
	maxItemsPerLeaf int
	maxDepth        int
	strictBounds    bool
}

// New returns an octree bounding a cube of the given edge length centered on
// the origin. The root starts as an empty leaf.
func New(worldSize float32, opts Options) (*Octree, error) {
	if worldSize <= 0 {
		return nil, errors.New("world size must be positive").
			WithType(ErrTypeInvalidWorldSize).
			WithTag("world_size", worldSize)
	}

	if opts.MaxItemsPerLeaf <= 0 {
		opts.MaxItemsPerLeaf = DefaultMaxItemsPerLeaf
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	return &Octree{
		root:            NewNode(Vector3f{0, 0, 0}, worldSize, nil),
		worldSize:       worldSize,
		maxItemsPerLeaf: opts.MaxItemsPerLeaf,
		maxDepth:        opts.MaxDepth,
		strictBounds:    opts.StrictBounds,
	}, nil
}

// Root returns the root node.
func (o *Octree) Root() *Node {
	return o.root
}

// WorldSize returns the edge length of the root cube.
func (o *Octree) WorldSize() float32 {
	return o.worldSize
}

// Insert adds an item to the tree, creating and subdividing nodes as needed.
// With StrictBounds it returns an out_of_bounds error for positions outside
// the world cube; otherwise their placement is undefined.
func (o *Octree) Insert(item Item) error {
	if o.strictBounds && !item.Position().InCube(o.root.Center, o.worldSize) {
		return errors.New("position is outside the world cube").
			WithType(ErrTypeOutOfBounds).
			WithTag("world_size", o.worldSize)
	}

	o.insertNode(o.root, o.root.Size/2, o.root, item, 0)
	return nil
}

// insertNode inserts item into the subtree rooted at node and returns the
// node, creating it when the slot is empty. size is the edge length a node
// created in this slot gets, and parent supplies the centroid it is offset
// from. Insertion and lookup share branchIndex, so both always agree on
// which octant a position belongs to.
func (o *Octree) insertNode(node *Node, size float32, parent *Node, item Item, depth int) *Node {
	switch {
	case node == nil:
		// Empty slot: a new leaf holding just this item, centered on the
		// octant of the parent the item falls into.
		branch := branchIndex(parent.Center, item.Position())
		return NewNode(childCenter(parent.Center, size, branch), size, []Item{item})

	case !node.leaf:
		branch := branchIndex(node.Center, item.Position())
		node.branches[branch] = o.insertNode(node.branches[branch], node.Size/2, node, item, depth+1)

	case len(node.items) < o.maxItemsPerLeaf || depth >= o.maxDepth:
		node.items = append(node.items, item)

	default:
		// The leaf is full: promote it to an internal node and redistribute
		// its items, the new one included, into the octant children. The
		// leaf transiently holds maxItemsPerLeaf+1 items here.
		items := append(node.items, item)
		node.items = nil
		node.leaf = false

		half := node.Size / 2
		for _, it := range items {
			branch := branchIndex(node.Center, it.Position())
			node.branches[branch] = o.insertNode(node.branches[branch], half, node, it, depth+1)
		}
	}

	return node
}

// ItemsAt returns the item list of the leaf containing the given position.
// It reports false when the descent reaches an empty child slot.
func (o *Octree) ItemsAt(position Vector3f) ([]Item, bool) {
	node := o.descend(position)
	if node == nil {
		return nil, false
	}
	return node.items, true
}

// LeafCenterAt returns the region center of the leaf containing the given
// position. It reports false when the descent reaches an empty child slot.
func (o *Octree) LeafCenterAt(position Vector3f) (Vector3f, bool) {
	node := o.descend(position)
	if node == nil {
		return Vector3f{}, false
	}
	return node.Center, true
}

func (o *Octree) descend(position Vector3f) *Node {
	node := o.root
	for node != nil && !node.leaf {
		node = node.branches[branchIndex(node.Center, position)]
	}
	return node
}

// WalkLeaves visits every leaf exactly once, child slots in index order.
// The visited item slices are owned by the tree and must not be mutated.
func (o *Octree) WalkLeaves(visit func(center Vector3f, items []Item)) {
	walkLeaves(o.root, visit)
}

func walkLeaves(node *Node, visit func(center Vector3f, items []Item)) {
	if node == nil {
		return
	}
	if node.leaf {
		visit(node.Center, node.items)
		return
	}
	for branch := 0; branch < 8; branch++ {
		walkLeaves(node.branches[branch], visit)
	}
}

// Leaves returns every leaf's region center and item list, in walk order.
func (o *Octree) Leaves() []LeafRegion {
	var leaves []LeafRegion
	o.WalkLeaves(func(center Vector3f, items []Item) {
		leaves = append(leaves, LeafRegion{Center: center, Items: items})
	})
	return leaves
}

func (o *Octree) GetDebugInfo() SpatialDebugInfo {
	result := SpatialDebugInfo{
		WorldSize:       o.worldSize,
		MaxItemsPerLeaf: o.maxItemsPerLeaf,
		MaxDepth:        o.maxDepth,
	}

	var countNodes func(node *Node, depth uint32)
	countNodes = func(node *Node, depth uint32) {
		if node == nil {
			return
		}
		result.NodeCount++
		if node.leaf {
			result.LeafCount++
			result.ItemCount += (uint32)(len(node.items))
			if depth > result.DeepestLeaf {
				result.DeepestLeaf = depth
			}
			return
		}
		for branch := 0; branch < 8; branch++ {
			countNodes(node.branches[branch], depth+1)
		}
	}
	countNodes(o.root, 0)

	return result
}

// branchIndex maps a position to the octant of center it falls into. Each
// axis contributes one bit, set when the position is greater or equal to the
// center on that axis, so exact matches consistently route to the upper
// half.
func branchIndex(center Vector3f, position Vector3f) int {
	branch := 0
	if position.X >= center.X {
		branch |= 4
	}
	if position.Y >= center.Y {
		branch |= 2
	}
	if position.Z >= center.Z {
		branch |= 1
	}
	return branch
}

// childCenter returns the center of the child occupying the given octant of
// a parent centered on center. size is the child's edge length, so the
// offset is a quarter of the parent's. The per-axis signs come from the same
// bits branchIndex sets.
func childCenter(center Vector3f, size float32, branch int) Vector3f {
	offset := size / 2

	child := center
	if branch&4 != 0 {
		child.X += offset
	} else {
		child.X -= offset
	}
	if branch&2 != 0 {
		child.Y += offset
	} else {
		child.Y -= offset
	}
	if branch&1 != 0 {
		child.Z += offset
	} else {
		child.Z -= offset
	}
	return child
}
