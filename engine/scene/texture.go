package scene

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"

	"github.com/spaghettifunk/prism/engine/core"
)

// Texture is decoded image data ready for backend upload, always RGBA8 with
// rows packed tightly.
type Texture struct {
	Name   string
	Width  uint32
	Height uint32
	Pixels []byte
}

// LoadTexture decodes a PNG or BMP file.
func LoadTexture(name, path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		err = fmt.Errorf("failed to open texture `%s`: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		err = fmt.Errorf("failed to decode texture `%s`: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	core.LogDebug("decoded %s texture `%s` (%dx%d)", format, name, img.Bounds().Dx(), img.Bounds().Dy())

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &Texture{
		Name:   name,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Pixels: rgba.Pix,
	}, nil
}

// NewSolidTexture builds a single-color texture, used when a material declares
// no image or a file fails to load in development.
func NewSolidTexture(name string, r, g, b, a uint8, size uint32) *Texture {
	pixels := make([]byte, size*size*4)
	for i := uint32(0); i < size*size; i++ {
		pixels[i*4+0] = r
		pixels[i*4+1] = g
		pixels[i*4+2] = b
		pixels[i*4+3] = a
	}
	return &Texture{Name: name, Width: size, Height: size, Pixels: pixels}
}
