package scene

import (
	"github.com/spaghettifunk/prism/engine/math"
)

// OrbitCamera circles a focus point on a sphere. Theta is the azimuth, phi the
// polar angle from +y, radius the distance from the focus. Rotation and zoom
// keep phi and radius inside their limits so the view never flips or clips
// through the focus.
type OrbitCamera struct {
	Theta  float32
	Phi    float32
	Radius float32

	MinRadius float32
	MaxRadius float32

	Focus math.Vec3
}

// NewOrbitCamera builds a camera with the demo scene's starting placement.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Theta:     1.6 * math.Pi,
		Phi:       0.4 * math.Pi,
		Radius:    90.0,
		MinRadius: 5.0,
		MaxRadius: 150.0,
	}
}

// Rotate adjusts the azimuth and polar angles, clamping phi away from the
// poles.
func (c *OrbitCamera) Rotate(dTheta, dPhi float32) {
	c.Theta += dTheta
	c.Phi = math.Clamp(c.Phi+dPhi, 0.1, math.Pi-0.1)
}

// Zoom adjusts the orbit radius within its limits.
func (c *OrbitCamera) Zoom(dRadius float32) {
	c.Radius = math.Clamp(c.Radius+dRadius, c.MinRadius, c.MaxRadius)
}

// Eye returns the camera position in world space.
func (c *OrbitCamera) Eye() math.Vec3 {
	return math.SphericalToCartesian(c.Radius, c.Theta, c.Phi).Add(c.Focus)
}

// View builds the view matrix for the current placement.
func (c *OrbitCamera) View() math.Mat4 {
	return math.NewMat4LookAt(c.Eye(), c.Focus, math.NewVec3Up())
}
