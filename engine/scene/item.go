package scene

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/prism/engine/math"
)

// MeshRegion addresses a contiguous run of indices inside the shared geometry
// allocation. Regions are values; items carry their own copy.
type MeshRegion struct {
	IndexCount uint32
	StartIndex uint32
	BaseVertex int32
}

// RenderItem is one drawable instance: a mesh region, a material, a transform
// and the bookkeeping that keeps its constants current across the frame ring.
type RenderItem struct {
	ID uuid.UUID

	World        math.Mat4
	TexTransform math.Mat4

	// ObjIndex is the item's slot in the per-frame object constant buffer.
	ObjIndex int
	// MaterialIndex addresses the registry's material list.
	MaterialIndex int

	Region   MeshRegion
	Topology Topology
	Layer    Layer

	// FramesDirty counts the frame resource slots that still hold stale
	// constants for this item.
	FramesDirty int
}

// SetWorld replaces the world transform and marks the item dirty for every
// ring slot.
func (ri *RenderItem) SetWorld(world math.Mat4, ringDepth int) {
	ri.World = world
	ri.FramesDirty = ringDepth
}

// SetTexTransform replaces the texture transform and marks the item dirty for
// every ring slot.
func (ri *RenderItem) SetTexTransform(t math.Mat4, ringDepth int) {
	ri.TexTransform = t
	ri.FramesDirty = ringDepth
}
