package scene

import (
	"github.com/spaghettifunk/prism/engine/math"
)

// Material holds the surface parameters a shader samples per draw. Parameter
// edits must go through Touch (or the setters) so every in-flight constant
// buffer copy gets the new values replayed into it.
type Material struct {
	Name string

	DiffuseAlbedo math.Vec4
	FresnelR0     math.Vec3
	Roughness     float32
	Transform     math.Mat4

	// CBIndex is the material's slot in the per-frame material constant buffer.
	CBIndex int
	// TableIndex is the offset of the material's texture in the descriptor table.
	TableIndex int

	// FramesDirty counts the frame resource slots that still hold stale
	// constants for this material.
	FramesDirty int
}

// Touch restamps the dirty counter after a direct field edit.
func (m *Material) Touch(ringDepth int) {
	m.FramesDirty = ringDepth
}

// SetTransform updates the texture-coordinate transform and marks the material
// dirty for every ring slot.
func (m *Material) SetTransform(t math.Mat4, ringDepth int) {
	m.Transform = t
	m.FramesDirty = ringDepth
}
