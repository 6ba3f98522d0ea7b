package scene

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
)

// Registry owns all scene content: the shared geometry allocation and its
// named regions, the material list, the render items and their layer
// partition, and the light rig. It replaces ad-hoc name-keyed globals with one
// explicit object so lookups fail loudly at build time rather than silently at
// draw time.
type Registry struct {
	ringDepth int

	vertices []math.Vertex
	indices  []uint32
	regions  map[string]MeshRegion

	materials    []*Material
	materialByID map[string]int

	items  []*RenderItem
	layers [LayerCount][]int

	Rig LightRig
}

func NewRegistry(ringDepth int) *Registry {
	return &Registry{
		ringDepth:    ringDepth,
		regions:      map[string]MeshRegion{},
		materialByID: map[string]int{},
	}
}

// RingDepth returns the frame ring depth dirty counters are stamped with.
func (r *Registry) RingDepth() int {
	return r.ringDepth
}

// AddMesh appends the mesh's vertices and indices to the shared geometry
// allocation and registers a region addressing them under the given name.
func (r *Registry) AddMesh(name string, vertices []math.Vertex, indices []uint32) error {
	if _, exists := r.regions[name]; exists {
		err := fmt.Errorf("mesh region `%s` already registered", name)
		core.LogError(err.Error())
		return err
	}
	if len(vertices) == 0 || len(indices) == 0 {
		err := fmt.Errorf("mesh region `%s` has no geometry", name)
		core.LogError(err.Error())
		return err
	}

	r.regions[name] = MeshRegion{
		IndexCount: uint32(len(indices)),
		StartIndex: uint32(len(r.indices)),
		BaseVertex: int32(len(r.vertices)),
	}
	r.vertices = append(r.vertices, vertices...)
	r.indices = append(r.indices, indices...)
	return nil
}

// Region looks up a named mesh region.
func (r *Registry) Region(name string) (MeshRegion, bool) {
	region, ok := r.regions[name]
	return region, ok
}

// Geometry returns the shared vertex and index data for backend upload.
func (r *Registry) Geometry() ([]math.Vertex, []uint32) {
	return r.vertices, r.indices
}

// AddMaterial registers a material, assigning its constant buffer slot. The
// material starts fully dirty so its constants reach every ring slot.
func (r *Registry) AddMaterial(m *Material) (int, error) {
	if m.Name == "" {
		err := fmt.Errorf("material has no name")
		core.LogError(err.Error())
		return 0, err
	}
	if _, exists := r.materialByID[m.Name]; exists {
		err := fmt.Errorf("material `%s` already registered", m.Name)
		core.LogError(err.Error())
		return 0, err
	}

	m.CBIndex = len(r.materials)
	m.FramesDirty = r.ringDepth
	r.materials = append(r.materials, m)
	r.materialByID[m.Name] = m.CBIndex
	return m.CBIndex, nil
}

// MaterialByName resolves a material by its scene description name.
func (r *Registry) MaterialByName(name string) (*Material, bool) {
	idx, ok := r.materialByID[name]
	if !ok {
		return nil, false
	}
	return r.materials[idx], true
}

// Materials returns the material list ordered by constant buffer slot.
func (r *Registry) Materials() []*Material {
	return r.materials
}

// AddItem builds a render item from mesh and material names. Unknown names are
// content errors and fail immediately.
func (r *Registry) AddItem(meshName, materialName string, world, texTransform math.Mat4, layer Layer, topology Topology) (*RenderItem, error) {
	region, ok := r.regions[meshName]
	if !ok {
		err := fmt.Errorf("render item references unknown mesh region `%s`", meshName)
		core.LogError(err.Error())
		return nil, err
	}
	matIndex, ok := r.materialByID[materialName]
	if !ok {
		err := fmt.Errorf("render item references unknown material `%s`", materialName)
		core.LogError(err.Error())
		return nil, err
	}
	if layer < 0 || layer >= LayerCount {
		err := fmt.Errorf("render item for mesh `%s` has invalid layer %d", meshName, layer)
		core.LogError(err.Error())
		return nil, err
	}

	item := &RenderItem{
		ID:            uuid.New(),
		World:         world,
		TexTransform:  texTransform,
		ObjIndex:      len(r.items),
		MaterialIndex: matIndex,
		Region:        region,
		Topology:      topology,
		Layer:         layer,
		FramesDirty:   r.ringDepth,
	}
	r.items = append(r.items, item)
	r.layers[layer] = append(r.layers[layer], item.ObjIndex)
	core.LogDebug("item %s: mesh `%s`, material `%s`, layer %s, slot %d",
		item.ID, meshName, materialName, layer, item.ObjIndex)
	return item, nil
}

// Items returns every render item ordered by object constant slot.
func (r *Registry) Items() []*RenderItem {
	return r.items
}

// LayerItems returns the indices of the items in the given layer, in insertion
// order.
func (r *Registry) LayerItems(layer Layer) []int {
	return r.layers[layer]
}

// Item resolves an object constant slot back to its render item.
func (r *Registry) Item(objIndex int) *RenderItem {
	return r.items[objIndex]
}

// ItemByID finds a render item by its diagnostic identity.
func (r *Registry) ItemByID(id uuid.UUID) (*RenderItem, bool) {
	for _, it := range r.items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}
