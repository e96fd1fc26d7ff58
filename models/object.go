package models

import (
	"github.com/aukilabs/eihwaz/octree"
)

// Object is an indexed spatial object. Objects are immutable once created:
// the index is append-only and a position change would require re-insertion.
type Object struct {
	ID   uint32
	Name string

	position octree.Vector3f
}

func NewObject(id uint32, name string, position octree.Vector3f) *Object {
	return &Object{
		ID:       id,
		Name:     name,
		position: position,
	}
}

func (o *Object) Position() octree.Vector3f {
	return o.position
}
