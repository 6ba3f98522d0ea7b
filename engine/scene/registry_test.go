package scene

import (
	"testing"

	"github.com/google/uuid"

	"github.com/spaghettifunk/prism/engine/math"
)

func buildTestRegistry(t *testing.T, ringDepth int) *Registry {
	t.Helper()
	reg := NewRegistry(ringDepth)

	verts, indices := NewBox(1, 1, 1)
	if err := reg.AddMesh("box", verts, indices); err != nil {
		t.Fatalf("add mesh: %v", err)
	}
	if _, err := reg.AddMaterial(&Material{
		Name:          "stone",
		DiffuseAlbedo: math.NewVec4(1, 1, 1, 1),
		Transform:     math.NewMat4Identity(),
	}); err != nil {
		t.Fatalf("add material: %v", err)
	}
	return reg
}

func TestRegistryFailsFastOnUnknownNames(t *testing.T) {
	reg := buildTestRegistry(t, 3)
	id := math.NewMat4Identity()

	t.Run("unknown mesh", func(t *testing.T) {
		if _, err := reg.AddItem("missing", "stone", id, id, LayerOpaque, TopologyTriangleList); err == nil {
			t.Fatal("expected error for unknown mesh region")
		}
	})

	t.Run("unknown material", func(t *testing.T) {
		if _, err := reg.AddItem("box", "missing", id, id, LayerOpaque, TopologyTriangleList); err == nil {
			t.Fatal("expected error for unknown material")
		}
	})

	t.Run("duplicate material", func(t *testing.T) {
		if _, err := reg.AddMaterial(&Material{Name: "stone"}); err == nil {
			t.Fatal("expected error for duplicate material name")
		}
	})

	t.Run("duplicate mesh", func(t *testing.T) {
		verts, indices := NewBox(1, 1, 1)
		if err := reg.AddMesh("box", verts, indices); err == nil {
			t.Fatal("expected error for duplicate mesh region")
		}
	})
}

func TestRegistryLayerPartitioning(t *testing.T) {
	reg := buildTestRegistry(t, 3)
	id := math.NewMat4Identity()

	// Interleave insertions across layers.
	layers := []Layer{LayerTransparent, LayerOpaque, LayerAlphaTested, LayerOpaque, LayerTransparent}
	for _, l := range layers {
		if _, err := reg.AddItem("box", "stone", id, id, l, TopologyTriangleList); err != nil {
			t.Fatalf("add item: %v", err)
		}
	}

	if got := reg.LayerItems(LayerOpaque); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("opaque layer items = %v, want [1 3]", got)
	}
	if got := reg.LayerItems(LayerTransparent); len(got) != 2 || got[0] != 0 || got[1] != 4 {
		t.Errorf("transparent layer items = %v, want [0 4]", got)
	}
	if got := reg.LayerItems(LayerAlphaTested); len(got) != 1 || got[0] != 2 {
		t.Errorf("alpha tested layer items = %v, want [2]", got)
	}
	if got := reg.LayerItems(LayerAlphaTestedEffect); len(got) != 0 {
		t.Errorf("alpha tested effect layer items = %v, want empty", got)
	}
}

func TestRegistrySharedGeometryOffsets(t *testing.T) {
	reg := NewRegistry(3)

	boxVerts, boxIdx := NewBox(1, 1, 1)
	gridVerts, gridIdx := NewGrid(10, 10, 4, 4)
	if err := reg.AddMesh("box", boxVerts, boxIdx); err != nil {
		t.Fatalf("add box: %v", err)
	}
	if err := reg.AddMesh("grid", gridVerts, gridIdx); err != nil {
		t.Fatalf("add grid: %v", err)
	}

	grid, ok := reg.Region("grid")
	if !ok {
		t.Fatal("grid region missing")
	}
	if grid.StartIndex != uint32(len(boxIdx)) {
		t.Errorf("grid StartIndex = %d, want %d", grid.StartIndex, len(boxIdx))
	}
	if grid.BaseVertex != int32(len(boxVerts)) {
		t.Errorf("grid BaseVertex = %d, want %d", grid.BaseVertex, len(boxVerts))
	}
	if grid.IndexCount != uint32(len(gridIdx)) {
		t.Errorf("grid IndexCount = %d, want %d", grid.IndexCount, len(gridIdx))
	}

	verts, indices := reg.Geometry()
	if len(verts) != len(boxVerts)+len(gridVerts) {
		t.Errorf("shared vertex count = %d, want %d", len(verts), len(boxVerts)+len(gridVerts))
	}
	if len(indices) != len(boxIdx)+len(gridIdx) {
		t.Errorf("shared index count = %d, want %d", len(indices), len(boxIdx)+len(gridIdx))
	}
}

func TestRenderItemDirtyStamping(t *testing.T) {
	const ringDepth = 3
	reg := buildTestRegistry(t, ringDepth)
	id := math.NewMat4Identity()

	item, err := reg.AddItem("box", "stone", id, id, LayerOpaque, TopologyTriangleList)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if item.FramesDirty != ringDepth {
		t.Errorf("new item FramesDirty = %d, want %d", item.FramesDirty, ringDepth)
	}

	item.FramesDirty = 0
	item.SetWorld(math.NewMat4Translation(math.NewVec3(1, 2, 3)), ringDepth)
	if item.FramesDirty != ringDepth {
		t.Errorf("after SetWorld FramesDirty = %d, want %d", item.FramesDirty, ringDepth)
	}

	m, _ := reg.MaterialByName("stone")
	m.FramesDirty = 0
	m.Touch(ringDepth)
	if m.FramesDirty != ringDepth {
		t.Errorf("after Touch FramesDirty = %d, want %d", m.FramesDirty, ringDepth)
	}
}

func TestRenderItemIdentity(t *testing.T) {
	reg := buildTestRegistry(t, 3)
	id := math.NewMat4Identity()

	first, err := reg.AddItem("box", "stone", id, id, LayerOpaque, TopologyTriangleList)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	second, err := reg.AddItem("box", "stone", id, id, LayerTransparent, TopologyTriangleList)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	if first.ID == uuid.Nil || second.ID == uuid.Nil {
		t.Fatal("items must carry a diagnostic identity")
	}
	if first.ID == second.ID {
		t.Fatalf("items share identity %s", first.ID)
	}

	got, ok := reg.ItemByID(second.ID)
	if !ok {
		t.Fatalf("item %s not found by identity", second.ID)
	}
	if got != second {
		t.Errorf("ItemByID(%s) resolved the wrong item", second.ID)
	}

	if _, ok := reg.ItemByID(uuid.New()); ok {
		t.Error("unknown identity must not resolve")
	}
}
