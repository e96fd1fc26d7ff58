package models

import (
	"sync"

	"github.com/aukilabs/eihwaz/octree"
)

// IndexStore guards a spatial index for concurrent use. Insertions
// transiently restructure tree nodes, so every insertion takes the exclusive
// lock; reads only share it with each other.
type IndexStore struct {
	mutex sync.RWMutex
	index octree.SpatialIndex
	ids   SequentialIDGenerator
	count int
}

func NewIndexStore(index octree.SpatialIndex) *IndexStore {
	return &IndexStore{index: index}
}

// Add creates an object with the given name and position and inserts it into
// the index.
func (s *IndexStore) Add(name string, position octree.Vector3f) (*Object, error) {
	obj := NewObject(s.ids.New(), name, position)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.index.Insert(obj); err != nil {
		instrumentInsertError(err)
		return nil, err
	}

	s.count++
	instrumentCountObject()
	return obj, nil
}

// ObjectsAt returns the objects of the leaf containing the given position.
// It reports false when the position's subtree path is empty.
func (s *IndexStore) ObjectsAt(position octree.Vector3f) ([]*Object, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	items, ok := s.index.ItemsAt(position)
	if !ok {
		return nil, false
	}

	objects := make([]*Object, len(items))
	for i, it := range items {
		objects[i] = it.(*Object)
	}
	return objects, true
}

// RegionCenterAt returns the center of the leaf region that would contain
// the given position.
func (s *IndexStore) RegionCenterAt(position octree.Vector3f) (octree.Vector3f, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.index.LeafCenterAt(position)
}

// LeafObjects pairs a leaf's region center with the objects it holds.
type LeafObjects struct {
	Center  octree.Vector3f
	Objects []*Object
}

// Leaves returns every leaf's region center and objects, in index walk
// order.
func (s *IndexStore) Leaves() []LeafObjects {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var leaves []LeafObjects
	s.index.WalkLeaves(func(center octree.Vector3f, items []octree.Item) {
		objects := make([]*Object, len(items))
		for i, it := range items {
			objects[i] = it.(*Object)
		}
		leaves = append(leaves, LeafObjects{Center: center, Objects: objects})
	})
	return leaves
}

func (s *IndexStore) DebugInfo() octree.SpatialDebugInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	info := s.index.GetDebugInfo()
	instrumentLeafGauge((int)(info.LeafCount))
	return info
}

// ObjectCount returns the number of objects added to the store.
func (s *IndexStore) ObjectCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.count
}
