package scene

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
)

// Description is the on-disk scene content: materials, render items and the
// light rig, declared in TOML. Mesh names refer to regions registered in code
// before the description is applied.
type Description struct {
	Materials []MaterialDesc `toml:"materials"`
	Items     []ItemDesc     `toml:"items"`
	Lighting  LightingDesc   `toml:"lighting"`
}

type MaterialDesc struct {
	Name          string     `toml:"name"`
	DiffuseAlbedo [4]float32 `toml:"diffuse_albedo"`
	FresnelR0     [3]float32 `toml:"fresnel_r0"`
	Roughness     float32    `toml:"roughness"`
	Texture       string     `toml:"texture"`
}

type ItemDesc struct {
	Mesh     string     `toml:"mesh"`
	Material string     `toml:"material"`
	Layer    string     `toml:"layer"`
	Position [3]float32 `toml:"position"`
	Scale    [3]float32 `toml:"scale"`
	TexScale [3]float32 `toml:"tex_scale"`
}

type LightingDesc struct {
	Ambient     [4]float32  `toml:"ambient"`
	Directional []LightDesc `toml:"directional"`
	Point       []LightDesc `toml:"point"`
	Spot        []LightDesc `toml:"spot"`
}

type LightDesc struct {
	Strength     [3]float32 `toml:"strength"`
	Direction    [3]float32 `toml:"direction"`
	Position     [3]float32 `toml:"position"`
	FalloffStart float32    `toml:"falloff_start"`
	FalloffEnd   float32    `toml:"falloff_end"`
	SpotPower    float32    `toml:"spot_power"`
}

// LoadDescription reads and parses a scene TOML file.
func LoadDescription(path string) (*Description, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read scene description `%s`: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	return ParseDescription(raw)
}

// ParseDescription parses scene TOML bytes.
func ParseDescription(raw []byte) (*Description, error) {
	d := &Description{}
	if err := toml.Unmarshal(raw, d); err != nil {
		err = fmt.Errorf("failed to parse scene description: %w", err)
		core.LogError(err.Error())
		return nil, err
	}
	return d, nil
}

// Encode serializes the description back to TOML.
func (d *Description) Encode() ([]byte, error) {
	return toml.Marshal(d)
}

// Apply builds the description's materials, items and lights into the
// registry. Mesh regions must already be registered; unknown names fail here.
func (d *Description) Apply(reg *Registry) error {
	for i := range d.Materials {
		md := &d.Materials[i]
		m := &Material{
			Name:          md.Name,
			DiffuseAlbedo: vec4(md.DiffuseAlbedo),
			FresnelR0:     vec3(md.FresnelR0),
			Roughness:     md.Roughness,
			Transform:     math.NewMat4Identity(),
			TableIndex:    i,
		}
		if _, err := reg.AddMaterial(m); err != nil {
			return err
		}
	}

	for i := range d.Items {
		id := &d.Items[i]
		layer, ok := ParseLayer(id.Layer)
		if !ok {
			err := fmt.Errorf("item for mesh `%s` has unknown layer `%s`", id.Mesh, id.Layer)
			core.LogError(err.Error())
			return err
		}

		world := math.NewMat4Scale(orOne(id.Scale)).Mul(math.NewMat4Translation(vec3(id.Position)))
		tex := math.NewMat4Scale(orOne(id.TexScale))
		if _, err := reg.AddItem(id.Mesh, id.Material, world, tex, layer, TopologyTriangleList); err != nil {
			return err
		}
	}

	reg.Rig = d.Lighting.rig()
	return nil
}

// ApplyMaterialEdits pushes the description's material parameters onto the
// registry's existing materials and restamps their dirty counters. Used by the
// live-reload watcher; materials added or removed on disk are ignored until
// the next full build.
func (d *Description) ApplyMaterialEdits(reg *Registry) {
	for i := range d.Materials {
		md := &d.Materials[i]
		m, ok := reg.MaterialByName(md.Name)
		if !ok {
			core.LogWarn("live edit references unknown material `%s`, skipping", md.Name)
			continue
		}
		m.DiffuseAlbedo = vec4(md.DiffuseAlbedo)
		m.FresnelR0 = vec3(md.FresnelR0)
		m.Roughness = md.Roughness
		m.Touch(reg.RingDepth())
	}
	reg.Rig = d.Lighting.rig()
}

func (l *LightingDesc) rig() LightRig {
	rig := LightRig{Ambient: vec4(l.Ambient)}
	for _, ld := range l.Directional {
		rig.Lights = append(rig.Lights, NewDirectionalLight(vec3(ld.Strength), vec3(ld.Direction)))
	}
	for _, ld := range l.Point {
		rig.Lights = append(rig.Lights, NewPointLight(vec3(ld.Strength), vec3(ld.Position), ld.FalloffStart, ld.FalloffEnd))
	}
	for _, ld := range l.Spot {
		rig.Lights = append(rig.Lights, NewSpotLight(vec3(ld.Strength), vec3(ld.Position), vec3(ld.Direction), ld.FalloffStart, ld.FalloffEnd, ld.SpotPower))
	}
	if len(rig.Lights) > MaxLights {
		core.LogWarn("scene declares %d lights, truncating to %d", len(rig.Lights), MaxLights)
		rig.Lights = rig.Lights[:MaxLights]
	}
	return rig
}

func vec3(a [3]float32) math.Vec3 {
	return math.NewVec3(a[0], a[1], a[2])
}

func vec4(a [4]float32) math.Vec4 {
	return math.NewVec4(a[0], a[1], a[2], a[3])
}

func orOne(a [3]float32) math.Vec3 {
	if a == [3]float32{} {
		return math.NewVec3One()
	}
	return vec3(a)
}
