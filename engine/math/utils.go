package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Lerp linearly interpolates between a and b by t in [0, 1].
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

const (
	Pi     = float32(3.14159265358979323846)
	TwoPi  = 2.0 * Pi
	HalfPi = 0.5 * Pi
)
