package renderer

import (
	"encoding/binary"

	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/scene"
)

// Constant blocks are encoded explicitly, little-endian, so that the bytes a
// shader sees are exactly the bytes the update pass wrote, on any host.

const (
	// ConstantAlignment is the stride boundary for elements of a constant
	// buffer, matching the device's dynamic-offset alignment requirement.
	ConstantAlignment = 256

	mat4Size  = 64
	lightSize = 48

	ObjectConstantsSize   = 3 * mat4Size
	MaterialConstantsSize = 16 + 12 + 4 + mat4Size
	PassConstantsSize     = 6*mat4Size + 16 + 16 + 16 + 16 + scene.MaxLights*lightSize
)

// ObjectConstants is the per-item block. The update pass stores the matrices
// already transposed for column-major shader consumption.
type ObjectConstants struct {
	World             math.Mat4
	WorldInvTranspose math.Mat4
	TexTransform      math.Mat4
}

func (c *ObjectConstants) Encode() []byte {
	e := newEncoder(ObjectConstantsSize)
	e.mat4(c.World)
	e.mat4(c.WorldInvTranspose)
	e.mat4(c.TexTransform)
	return e.bytes()
}

// MaterialConstants is the per-material block.
type MaterialConstants struct {
	DiffuseAlbedo math.Vec4
	FresnelR0     math.Vec3
	Roughness     float32
	Transform     math.Mat4
}

func (c *MaterialConstants) Encode() []byte {
	e := newEncoder(MaterialConstantsSize)
	e.vec4(c.DiffuseAlbedo)
	e.vec3(c.FresnelR0)
	e.f32(c.Roughness)
	e.mat4(c.Transform)
	return e.bytes()
}

// PassConstants is the per-frame block, rebuilt in full every frame.
type PassConstants struct {
	View        math.Mat4
	InvView     math.Mat4
	Proj        math.Mat4
	InvProj     math.Mat4
	ViewProj    math.Mat4
	InvViewProj math.Mat4

	EyePos math.Vec3

	RenderTargetSize    math.Vec2
	InvRenderTargetSize math.Vec2

	NearZ     float32
	FarZ      float32
	TotalTime float32
	DeltaTime float32

	AmbientLight math.Vec4
	Lights       [scene.MaxLights]scene.Light
}

func (c *PassConstants) Encode() []byte {
	e := newEncoder(PassConstantsSize)
	e.mat4(c.View)
	e.mat4(c.InvView)
	e.mat4(c.Proj)
	e.mat4(c.InvProj)
	e.mat4(c.ViewProj)
	e.mat4(c.InvViewProj)
	e.vec3(c.EyePos)
	e.f32(0) // std140 padding after the vec3
	e.vec2(c.RenderTargetSize)
	e.vec2(c.InvRenderTargetSize)
	e.f32(c.NearZ)
	e.f32(c.FarZ)
	e.f32(c.TotalTime)
	e.f32(c.DeltaTime)
	e.vec4(c.AmbientLight)
	for i := range c.Lights {
		l := &c.Lights[i]
		e.vec3(l.Strength)
		e.f32(l.FalloffStart)
		e.vec3(l.Direction)
		e.f32(l.FalloffEnd)
		e.vec3(l.Position)
		e.f32(l.SpotPower)
	}
	return e.bytes()
}

type encoder struct {
	buf []byte
	off int
}

func newEncoder(size int) *encoder {
	return &encoder{buf: make([]byte, size)}
}

func (e *encoder) f32(v float32) {
	binary.LittleEndian.PutUint32(e.buf[e.off:], math.Float32bits(v))
	e.off += 4
}

func (e *encoder) vec2(v math.Vec2) {
	e.f32(v.X)
	e.f32(v.Y)
}

func (e *encoder) vec3(v math.Vec3) {
	e.f32(v.X)
	e.f32(v.Y)
	e.f32(v.Z)
}

func (e *encoder) vec4(v math.Vec4) {
	e.f32(v.X)
	e.f32(v.Y)
	e.f32(v.Z)
	e.f32(v.W)
}

func (e *encoder) mat4(m math.Mat4) {
	for _, v := range m.Data {
		e.f32(v)
	}
}

func (e *encoder) bytes() []byte {
	return e.buf
}
