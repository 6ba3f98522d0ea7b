package scene

import (
	"github.com/spaghettifunk/prism/engine/math"
)

// MaxLights is the fixed size of the light array in the per-pass constants.
const MaxLights = 16

// Light is one light source. Which fields matter depends on the kind:
// directional lights use Strength+Direction, point lights Strength+Position+
// falloff range, spot lights all of them. The layout mirrors the shader struct
// so the slots pack in this exact field order.
type Light struct {
	Strength     math.Vec3
	FalloffStart float32
	Direction    math.Vec3
	FalloffEnd   float32
	Position     math.Vec3
	SpotPower    float32
}

// LightRig is the scene's complete lighting state, folded into the pass
// constants each frame.
type LightRig struct {
	Ambient math.Vec4
	Lights  []Light
}

// NewDirectionalLight builds a light shining along direction.
func NewDirectionalLight(strength, direction math.Vec3) Light {
	return Light{Strength: strength, Direction: direction}
}

// NewPointLight builds a light radiating from position, attenuating linearly
// between falloffStart and falloffEnd.
func NewPointLight(strength, position math.Vec3, falloffStart, falloffEnd float32) Light {
	return Light{
		Strength:     strength,
		Position:     position,
		FalloffStart: falloffStart,
		FalloffEnd:   falloffEnd,
	}
}

// NewSpotLight builds a cone light at position aimed along direction.
func NewSpotLight(strength, position, direction math.Vec3, falloffStart, falloffEnd, spotPower float32) Light {
	return Light{
		Strength:     strength,
		Position:     position,
		Direction:    direction,
		FalloffStart: falloffStart,
		FalloffEnd:   falloffEnd,
		SpotPower:    spotPower,
	}
}
