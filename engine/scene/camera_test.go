package scene

import (
	"testing"

	"github.com/spaghettifunk/prism/engine/math"
)

func TestOrbitCameraClampsPhi(t *testing.T) {
	c := NewOrbitCamera()

	c.Rotate(0, 10.0)
	if got := c.Phi; got != math.Pi-0.1 {
		t.Errorf("phi after over-rotation = %f, want %f", got, math.Pi-0.1)
	}

	c.Rotate(0, -10.0)
	if got := c.Phi; got != 0.1 {
		t.Errorf("phi after under-rotation = %f, want 0.1", got)
	}
}

func TestOrbitCameraClampsRadius(t *testing.T) {
	c := NewOrbitCamera()

	c.Zoom(1000)
	if c.Radius != c.MaxRadius {
		t.Errorf("radius = %f, want max %f", c.Radius, c.MaxRadius)
	}
	c.Zoom(-1000)
	if c.Radius != c.MinRadius {
		t.Errorf("radius = %f, want min %f", c.Radius, c.MinRadius)
	}
}

func TestOrbitCameraViewLooksAtFocus(t *testing.T) {
	c := NewOrbitCamera()
	c.Focus = math.NewVec3(3, 1, -2)

	view := c.View()

	// The focus must land on the view-space -z axis, in front of the eye.
	p := c.Focus.Transform(view)
	if math.Abs(p.X) > 1e-4 || math.Abs(p.Y) > 1e-4 {
		t.Errorf("focus transformed to (%f, %f, %f), want x=y=0", p.X, p.Y, p.Z)
	}
	if math.Abs(math.Abs(p.Z)-c.Radius) > 1e-3 {
		t.Errorf("focus distance = %f, want %f", math.Abs(p.Z), c.Radius)
	}

	eye := c.Eye().Transform(view)
	if !eye.Compare(math.NewVec3Zero(), 1e-4) {
		t.Errorf("eye transformed to %v, want origin", eye)
	}
}
