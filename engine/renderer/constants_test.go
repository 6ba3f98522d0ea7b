package renderer

import (
	"encoding/binary"
	"testing"

	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/scene"
)

func TestConstantBlockSizes(t *testing.T) {
	obj := ObjectConstants{}
	if got := len(obj.Encode()); got != ObjectConstantsSize {
		t.Errorf("object block = %d bytes, want %d", got, ObjectConstantsSize)
	}
	mat := MaterialConstants{}
	if got := len(mat.Encode()); got != MaterialConstantsSize {
		t.Errorf("material block = %d bytes, want %d", got, MaterialConstantsSize)
	}
	pass := PassConstants{}
	if got := len(pass.Encode()); got != PassConstantsSize {
		t.Errorf("pass block = %d bytes, want %d", got, PassConstantsSize)
	}
}

func TestObjectConstantsLittleEndianLayout(t *testing.T) {
	world := math.NewMat4Translation(math.NewVec3(1.5, -2.25, 8))
	c := ObjectConstants{
		World:             world,
		WorldInvTranspose: math.NewMat4Identity(),
		TexTransform:      math.NewMat4Identity(),
	}
	raw := c.Encode()

	for i, want := range world.Data {
		got := binary.LittleEndian.Uint32(raw[i*4:])
		if got != math.Float32bits(want) {
			t.Fatalf("world element %d encoded as %#x, want %#x", i, got, math.Float32bits(want))
		}
	}
}

func TestPassConstantsFieldOffsets(t *testing.T) {
	c := PassConstants{
		EyePos:       math.NewVec3(1, 2, 3),
		NearZ:        1.0,
		FarZ:         1000.0,
		AmbientLight: math.NewVec4(0.25, 0.25, 0.35, 1.0),
	}
	c.Lights[0] = scene.NewDirectionalLight(math.NewVec3(0.9, 0.9, 0.7), math.NewVec3(0, -1, 0))
	raw := c.Encode()

	const (
		eyeOffset     = 6 * 64
		rtSizeOffset  = eyeOffset + 16
		nearZOffset   = rtSizeOffset + 16
		ambientOffset = nearZOffset + 16
		lightsOffset  = ambientOffset + 16
	)

	f32At := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
	}

	if got := f32At(eyeOffset); got != 1 {
		t.Errorf("eye.x at %d = %f, want 1", eyeOffset, got)
	}
	if got := f32At(nearZOffset); got != 1.0 {
		t.Errorf("nearZ = %f, want 1", got)
	}
	if got := f32At(nearZOffset + 4); got != 1000.0 {
		t.Errorf("farZ = %f, want 1000", got)
	}
	if got := f32At(ambientOffset + 8); got != 0.35 {
		t.Errorf("ambient.z = %f, want 0.35", got)
	}
	// First light's direction sits after strength+falloffStart.
	if got := f32At(lightsOffset + 16 + 4); got != -1 {
		t.Errorf("light direction.y = %f, want -1", got)
	}
}

func TestUploadBufferStrideAlignment(t *testing.T) {
	cases := []struct {
		name     string
		size     uint64
		constant bool
		want     uint64
	}{
		{"object block padded", ObjectConstantsSize, true, 256},
		{"pass block padded", PassConstantsSize, true, 1280},
		{"exact multiple unchanged", 512, true, 512},
		{"structured packs tightly", 48, false, 48},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := alignStride(tc.size, tc.constant); got != tc.want {
				t.Errorf("stride = %d, want %d", got, tc.want)
			}
		})
	}
}

func alignStride(size uint64, constant bool) uint64 {
	if constant {
		return alignUp(size, ConstantAlignment)
	}
	return size
}
