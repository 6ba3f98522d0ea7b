package scene

import (
	"github.com/spaghettifunk/prism/engine/math"
)

// Procedural meshes for the demo scene. Every builder returns vertices and
// indices ready for Registry.AddMesh.

// NewBox builds an axis-aligned box centered at the origin. Each face carries
// its own four vertices so normals stay flat.
func NewBox(width, height, depth float32) ([]math.Vertex, []uint32) {
	w2, h2, d2 := width*0.5, height*0.5, depth*0.5

	v := func(px, py, pz, nx, ny, nz, u, vv float32) math.Vertex {
		return math.Vertex{
			Position: math.NewVec3(px, py, pz),
			Normal:   math.NewVec3(nx, ny, nz),
			Texcoord: math.NewVec2(u, vv),
		}
	}

	vertices := []math.Vertex{
		// front
		v(-w2, -h2, -d2, 0, 0, -1, 0, 1),
		v(-w2, h2, -d2, 0, 0, -1, 0, 0),
		v(w2, h2, -d2, 0, 0, -1, 1, 0),
		v(w2, -h2, -d2, 0, 0, -1, 1, 1),
		// back
		v(-w2, -h2, d2, 0, 0, 1, 1, 1),
		v(w2, -h2, d2, 0, 0, 1, 0, 1),
		v(w2, h2, d2, 0, 0, 1, 0, 0),
		v(-w2, h2, d2, 0, 0, 1, 1, 0),
		// top
		v(-w2, h2, -d2, 0, 1, 0, 0, 1),
		v(-w2, h2, d2, 0, 1, 0, 0, 0),
		v(w2, h2, d2, 0, 1, 0, 1, 0),
		v(w2, h2, -d2, 0, 1, 0, 1, 1),
		// bottom
		v(-w2, -h2, -d2, 0, -1, 0, 1, 1),
		v(w2, -h2, -d2, 0, -1, 0, 0, 1),
		v(w2, -h2, d2, 0, -1, 0, 0, 0),
		v(-w2, -h2, d2, 0, -1, 0, 1, 0),
		// left
		v(-w2, -h2, d2, -1, 0, 0, 0, 1),
		v(-w2, h2, d2, -1, 0, 0, 0, 0),
		v(-w2, h2, -d2, -1, 0, 0, 1, 0),
		v(-w2, -h2, -d2, -1, 0, 0, 1, 1),
		// right
		v(w2, -h2, -d2, 1, 0, 0, 0, 1),
		v(w2, h2, -d2, 1, 0, 0, 0, 0),
		v(w2, h2, d2, 1, 0, 0, 1, 0),
		v(w2, -h2, d2, 1, 0, 0, 1, 1),
	}

	indices := make([]uint32, 0, 36)
	for face := uint32(0); face < 6; face++ {
		base := face * 4
		indices = append(indices,
			base, base+1, base+2,
			base, base+2, base+3)
	}
	return vertices, indices
}

// NewGrid builds a flat grid in the xz-plane with m rows and n columns of
// vertices.
func NewGrid(width, depth float32, m, n uint32) ([]math.Vertex, []uint32) {
	halfWidth := 0.5 * width
	halfDepth := 0.5 * depth

	dx := width / float32(n-1)
	dz := depth / float32(m-1)
	du := 1.0 / float32(n-1)
	dv := 1.0 / float32(m-1)

	vertices := make([]math.Vertex, 0, m*n)
	for i := uint32(0); i < m; i++ {
		z := halfDepth - float32(i)*dz
		for j := uint32(0); j < n; j++ {
			x := -halfWidth + float32(j)*dx
			vertices = append(vertices, math.Vertex{
				Position: math.NewVec3(x, 0, z),
				Normal:   math.NewVec3(0, 1, 0),
				Texcoord: math.NewVec2(float32(j)*du, float32(i)*dv),
			})
		}
	}

	indices := make([]uint32, 0, (m-1)*(n-1)*6)
	for i := uint32(0); i < m-1; i++ {
		for j := uint32(0); j < n-1; j++ {
			indices = append(indices,
				i*n+j, i*n+j+1, (i+1)*n+j,
				(i+1)*n+j, i*n+j+1, (i+1)*n+j+1)
		}
	}
	return vertices, indices
}

// NewSphere builds a sphere from slices and stacks, with poles as single
// vertices.
func NewSphere(radius float32, sliceCount, stackCount uint32) ([]math.Vertex, []uint32) {
	vertices := []math.Vertex{{
		Position: math.NewVec3(0, radius, 0),
		Normal:   math.NewVec3(0, 1, 0),
		Texcoord: math.NewVec2(0, 0),
	}}

	phiStep := math.Pi / float32(stackCount)
	thetaStep := math.TwoPi / float32(sliceCount)

	for i := uint32(1); i < stackCount; i++ {
		phi := float32(i) * phiStep
		for j := uint32(0); j <= sliceCount; j++ {
			theta := float32(j) * thetaStep
			pos := math.NewVec3(
				radius*math.Sin(phi)*math.Cos(theta),
				radius*math.Cos(phi),
				radius*math.Sin(phi)*math.Sin(theta),
			)
			vertices = append(vertices, math.Vertex{
				Position: pos,
				Normal:   pos.Normalized(),
				Texcoord: math.NewVec2(theta/math.TwoPi, phi/math.Pi),
			})
		}
	}

	vertices = append(vertices, math.Vertex{
		Position: math.NewVec3(0, -radius, 0),
		Normal:   math.NewVec3(0, -1, 0),
		Texcoord: math.NewVec2(0, 1),
	})

	indices := make([]uint32, 0)
	// top cap
	for i := uint32(1); i <= sliceCount; i++ {
		indices = append(indices, 0, i+1, i)
	}
	// interior stacks
	baseIndex := uint32(1)
	ringVertexCount := sliceCount + 1
	for i := uint32(0); i < stackCount-2; i++ {
		for j := uint32(0); j < sliceCount; j++ {
			indices = append(indices,
				baseIndex+i*ringVertexCount+j,
				baseIndex+i*ringVertexCount+j+1,
				baseIndex+(i+1)*ringVertexCount+j,
				baseIndex+(i+1)*ringVertexCount+j,
				baseIndex+i*ringVertexCount+j+1,
				baseIndex+(i+1)*ringVertexCount+j+1)
		}
	}
	// bottom cap
	southPoleIndex := uint32(len(vertices) - 1)
	baseIndex = southPoleIndex - ringVertexCount
	for i := uint32(0); i < sliceCount; i++ {
		indices = append(indices, southPoleIndex, baseIndex+i, baseIndex+i+1)
	}
	return vertices, indices
}

// NewCylinder builds a capped cylinder along the y-axis, allowing different
// top and bottom radii for cone shapes.
func NewCylinder(bottomRadius, topRadius, height float32, sliceCount, stackCount uint32) ([]math.Vertex, []uint32) {
	stackHeight := height / float32(stackCount)
	radiusStep := (topRadius - bottomRadius) / float32(stackCount)
	ringCount := stackCount + 1

	vertices := make([]math.Vertex, 0)
	for i := uint32(0); i < ringCount; i++ {
		y := -0.5*height + float32(i)*stackHeight
		r := bottomRadius + float32(i)*radiusStep

		dTheta := math.TwoPi / float32(sliceCount)
		for j := uint32(0); j <= sliceCount; j++ {
			c := math.Cos(float32(j) * dTheta)
			s := math.Sin(float32(j) * dTheta)

			// normal from the tangent frame of the slanted side
			dr := bottomRadius - topRadius
			tangent := math.NewVec3(-s, 0, c)
			bitangent := math.NewVec3(dr*c, -height, dr*s)
			vertices = append(vertices, math.Vertex{
				Position: math.NewVec3(r*c, y, r*s),
				Normal:   tangent.Cross(bitangent).Normalized(),
				Texcoord: math.NewVec2(float32(j)/float32(sliceCount), 1.0-float32(i)/float32(stackCount)),
			})
		}
	}

	indices := make([]uint32, 0)
	ringVertexCount := sliceCount + 1
	for i := uint32(0); i < stackCount; i++ {
		for j := uint32(0); j < sliceCount; j++ {
			indices = append(indices,
				i*ringVertexCount+j,
				(i+1)*ringVertexCount+j,
				(i+1)*ringVertexCount+j+1,
				i*ringVertexCount+j,
				(i+1)*ringVertexCount+j+1,
				i*ringVertexCount+j+1)
		}
	}

	vertices, indices = cylinderCap(vertices, indices, topRadius, 0.5*height, math.NewVec3(0, 1, 0), sliceCount, true)
	vertices, indices = cylinderCap(vertices, indices, bottomRadius, -0.5*height, math.NewVec3(0, -1, 0), sliceCount, false)
	return vertices, indices
}

func cylinderCap(vertices []math.Vertex, indices []uint32, radius, y float32, normal math.Vec3, sliceCount uint32, top bool) ([]math.Vertex, []uint32) {
	baseIndex := uint32(len(vertices))
	dTheta := math.TwoPi / float32(sliceCount)

	for i := uint32(0); i <= sliceCount; i++ {
		x := radius * math.Cos(float32(i)*dTheta)
		z := radius * math.Sin(float32(i)*dTheta)
		vertices = append(vertices, math.Vertex{
			Position: math.NewVec3(x, y, z),
			Normal:   normal,
			Texcoord: math.NewVec2(x/radius*0.5+0.5, z/radius*0.5+0.5),
		})
	}
	// center vertex
	vertices = append(vertices, math.Vertex{
		Position: math.NewVec3(0, y, 0),
		Normal:   normal,
		Texcoord: math.NewVec2(0.5, 0.5),
	})

	centerIndex := uint32(len(vertices) - 1)
	for i := uint32(0); i < sliceCount; i++ {
		if top {
			indices = append(indices, centerIndex, baseIndex+i+1, baseIndex+i)
		} else {
			indices = append(indices, centerIndex, baseIndex+i, baseIndex+i+1)
		}
	}
	return vertices, indices
}
