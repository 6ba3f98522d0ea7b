package math

import (
	"testing"
)

const tolerance = 1e-5

func TestMat4IdentityMul(t *testing.T) {
	id := NewMat4Identity()
	m := NewMat4Translation(NewVec3(3, -2, 7)).Mul(NewMat4EulerY(0.8))

	if !m.Mul(id).Compare(m, tolerance) {
		t.Error("m * I != m")
	}
	if !id.Mul(m).Compare(m, tolerance) {
		t.Error("I * m != m")
	}
}

func TestMat4TranslationTransformsPoints(t *testing.T) {
	m := NewMat4Translation(NewVec3(1, 2, 3))
	got := NewVec3(10, 20, 30).Transform(m)
	want := NewVec3(11, 22, 33)
	if !got.Compare(want, tolerance) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMat4InverseRoundTrip(t *testing.T) {
	m := NewMat4Translation(NewVec3(5, -1, 2)).
		Mul(NewMat4EulerXYZ(0.3, 1.1, -0.7)).
		Mul(NewMat4Scale(NewVec3(2, 2, 2)))

	if !m.Mul(m.Inverse()).Compare(NewMat4Identity(), tolerance) {
		t.Error("m * m^-1 != I")
	}
}

func TestMat4TransposedIsInvolution(t *testing.T) {
	m := NewMat4LookAt(NewVec3(4, 3, 9), NewVec3Zero(), NewVec3Up())
	if !m.Transposed().Transposed().Compare(m, 0) {
		t.Error("transpose applied twice changed the matrix")
	}
}

func TestMat4InverseTransposeOfScale(t *testing.T) {
	// Non-uniform scale must invert per axis; translation must not leak in.
	m := NewMat4Scale(NewVec3(2, 4, 8)).Mul(NewMat4Translation(NewVec3(9, 9, 9)))
	got := m.InverseTranspose()

	want := NewMat4Scale(NewVec3(0.5, 0.25, 0.125))
	if !got.Compare(want, tolerance) {
		t.Errorf("got %v, want %v", got.Data, want.Data)
	}
}

func TestMat4LookAtMapsEyeToOrigin(t *testing.T) {
	eye := NewVec3(0, 25, -60)
	view := NewMat4LookAt(eye, NewVec3Zero(), NewVec3Up())

	got := eye.Transform(view)
	if !got.Compare(NewVec3Zero(), tolerance) {
		t.Errorf("eye transformed to %v, want origin", got)
	}
}

func TestSphericalToCartesian(t *testing.T) {
	// phi = pi/2 lands on the xz-plane, theta sweeps from +x toward +z.
	got := SphericalToCartesian(5, 0, HalfPi)
	if !got.Compare(NewVec3(5, 0, 0), tolerance) {
		t.Errorf("got %v, want (5, 0, 0)", got)
	}

	got = SphericalToCartesian(5, HalfPi, HalfPi)
	if !got.Compare(NewVec3(0, 0, 5), tolerance) {
		t.Errorf("got %v, want (0, 0, 5)", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
	if got := Clamp(-1.5, 0.0, 3.0); got != 0.0 {
		t.Errorf("got %f, want 0", got)
	}
	if got := Clamp(2, 0, 3); got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}
