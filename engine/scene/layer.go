package scene

// Layer buckets render items by pipeline requirements. Items in earlier layers
// are always drawn before items in later ones.
type Layer int

const (
	LayerOpaque Layer = iota
	LayerAlphaTested
	LayerAlphaTestedEffect
	LayerTransparent
	LayerCount
)

// Layers lists every layer in draw order.
var Layers = [LayerCount]Layer{
	LayerOpaque,
	LayerAlphaTested,
	LayerAlphaTestedEffect,
	LayerTransparent,
}

func (l Layer) String() string {
	switch l {
	case LayerOpaque:
		return "opaque"
	case LayerAlphaTested:
		return "alpha_tested"
	case LayerAlphaTestedEffect:
		return "alpha_tested_effect"
	case LayerTransparent:
		return "transparent"
	}
	return "unknown"
}

// ParseLayer maps a scene description layer name to its Layer.
func ParseLayer(name string) (Layer, bool) {
	switch name {
	case "opaque":
		return LayerOpaque, true
	case "alpha_tested":
		return LayerAlphaTested, true
	case "alpha_tested_effect":
		return LayerAlphaTestedEffect, true
	case "transparent":
		return LayerTransparent, true
	}
	return 0, false
}

// Topology is the primitive interpretation of a mesh region's indices.
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyPointList
	TopologyLineList
)
