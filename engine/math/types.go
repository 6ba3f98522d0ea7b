package math

// Vec2 is a 2-component float vector.
type Vec2 struct {
	X, Y float32
}

// Vec3 is a 3-component float vector.
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 is a 4-component float vector.
type Vec4 struct {
	X, Y, Z, W float32
}

// Mat4 is a 4x4 matrix stored row-major. Row vectors multiply on the left, so
// the translation of a transform lives in Data[12..14].
type Mat4 struct {
	Data [16]float32
}

// Vertex is a single mesh vertex. The layout matches the vertex input binding
// declared by the pipeline configurations.
type Vertex struct {
	Position Vec3
	Normal   Vec3
	Texcoord Vec2
}
