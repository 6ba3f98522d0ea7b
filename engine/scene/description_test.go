package scene

import (
	"testing"

	"github.com/spaghettifunk/prism/engine/math"
)

const testSceneTOML = `
[[materials]]
name = "grass"
diffuse_albedo = [0.2, 0.6, 0.2, 1.0]
fresnel_r0 = [0.01, 0.01, 0.01]
roughness = 0.125

[[materials]]
name = "water"
diffuse_albedo = [0.0, 0.2, 0.6, 0.5]
fresnel_r0 = [0.1, 0.1, 0.1]
roughness = 0.0

[[items]]
mesh = "box"
material = "grass"
layer = "opaque"
position = [0.0, 1.0, 0.0]

[[items]]
mesh = "box"
material = "water"
layer = "transparent"
scale = [2.0, 2.0, 2.0]

[lighting]
ambient = [0.25, 0.25, 0.35, 1.0]

[[lighting.directional]]
strength = [0.9, 0.9, 0.7]
direction = [0.57735, -0.57735, 0.57735]

[[lighting.point]]
strength = [0.4, 0.0, 0.0]
position = [5.0, 3.5, 0.0]
falloff_start = 1.0
falloff_end = 12.0
`

func TestDescriptionApply(t *testing.T) {
	desc, err := ParseDescription([]byte(testSceneTOML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	reg := NewRegistry(3)
	verts, indices := NewBox(1, 1, 1)
	if err := reg.AddMesh("box", verts, indices); err != nil {
		t.Fatalf("add mesh: %v", err)
	}
	if err := desc.Apply(reg); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if len(reg.Materials()) != 2 {
		t.Fatalf("materials = %d, want 2", len(reg.Materials()))
	}
	grass, ok := reg.MaterialByName("grass")
	if !ok {
		t.Fatal("grass material missing")
	}
	if grass.Roughness != 0.125 {
		t.Errorf("grass roughness = %f, want 0.125", grass.Roughness)
	}

	if len(reg.Items()) != 2 {
		t.Fatalf("items = %d, want 2", len(reg.Items()))
	}
	if got := reg.LayerItems(LayerOpaque); len(got) != 1 {
		t.Errorf("opaque items = %v, want one", got)
	}
	if got := reg.LayerItems(LayerTransparent); len(got) != 1 {
		t.Errorf("transparent items = %v, want one", got)
	}

	// Second item's world carries the declared scale.
	second := reg.Item(1)
	if second.World.Data[0] != 2.0 {
		t.Errorf("scaled item World[0] = %f, want 2", second.World.Data[0])
	}

	if len(reg.Rig.Lights) != 2 {
		t.Fatalf("lights = %d, want 2", len(reg.Rig.Lights))
	}
	if reg.Rig.Ambient != math.NewVec4(0.25, 0.25, 0.35, 1.0) {
		t.Errorf("ambient = %v", reg.Rig.Ambient)
	}
	if reg.Rig.Lights[1].FalloffEnd != 12.0 {
		t.Errorf("point light falloff end = %f, want 12", reg.Rig.Lights[1].FalloffEnd)
	}
}

func TestDescriptionApplyFailsOnUnknownLayer(t *testing.T) {
	desc, err := ParseDescription([]byte(`
[[materials]]
name = "m"

[[items]]
mesh = "box"
material = "m"
layer = "translucent"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	reg := NewRegistry(3)
	verts, indices := NewBox(1, 1, 1)
	if err := reg.AddMesh("box", verts, indices); err != nil {
		t.Fatalf("add mesh: %v", err)
	}
	if err := desc.Apply(reg); err == nil {
		t.Fatal("expected error for unknown layer name")
	}
}

func TestDescriptionRoundTrip(t *testing.T) {
	desc, err := ParseDescription([]byte(testSceneTOML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	encoded, err := desc.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := ParseDescription(encoded)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}

	if len(again.Materials) != len(desc.Materials) || len(again.Items) != len(desc.Items) {
		t.Fatal("round trip lost materials or items")
	}
	if again.Materials[0] != desc.Materials[0] {
		t.Errorf("material changed in round trip: %+v vs %+v", again.Materials[0], desc.Materials[0])
	}
	if again.Lighting.Ambient != desc.Lighting.Ambient {
		t.Errorf("ambient changed in round trip")
	}
}

func TestApplyMaterialEditsRestampsDirty(t *testing.T) {
	desc, err := ParseDescription([]byte(testSceneTOML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	reg := NewRegistry(3)
	verts, indices := NewBox(1, 1, 1)
	if err := reg.AddMesh("box", verts, indices); err != nil {
		t.Fatalf("add mesh: %v", err)
	}
	if err := desc.Apply(reg); err != nil {
		t.Fatalf("apply: %v", err)
	}

	grass, _ := reg.MaterialByName("grass")
	grass.FramesDirty = 0

	edited := *desc
	edited.Materials[0].Roughness = 0.9
	edited.ApplyMaterialEdits(reg)

	if grass.Roughness != 0.9 {
		t.Errorf("roughness = %f, want 0.9", grass.Roughness)
	}
	if grass.FramesDirty != 3 {
		t.Errorf("FramesDirty = %d, want 3", grass.FramesDirty)
	}
}
