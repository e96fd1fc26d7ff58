package octree

type SpatialDebugInfo struct {
	WorldSize       float32
	MaxItemsPerLeaf int
	MaxDepth        int
	NodeCount       uint32
	LeafCount       uint32
	ItemCount       uint32
	DeepestLeaf     uint32
}

// LeafRegion pairs a leaf's region center with the items it holds.
type LeafRegion struct {
	Center Vector3f
	Items  []Item
}

type SpatialIndex interface {
	Insert(item Item) error
	ItemsAt(position Vector3f) ([]Item, bool)
	LeafCenterAt(position Vector3f) (Vector3f, bool)
	WalkLeaves(visit func(center Vector3f, items []Item))
	Leaves() []LeafRegion

	// debug stuff:
	GetDebugInfo() SpatialDebugInfo
}
