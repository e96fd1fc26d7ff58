package models

import "sync"

// A sequential id generator. The index is append-only, so ids are never
// reused.
type SequentialIDGenerator struct {
	mutex     sync.Mutex
	currentID uint32
}

// New returns a sequential id.
func (g *SequentialIDGenerator) New() uint32 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.currentID++
	return g.currentID
}
