package loaders

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
)

// TextureLoader decodes any registered image format into tightly packed RGBA8.
type TextureLoader struct{}

func (tl *TextureLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data := ToRGBA(img)
	core.LogDebug("decoded %s texture %s: %dx%d", format, filepath.Base(path), data.Width, data.Height)

	return &metadata.Resource{
		ID:       core.NewID(),
		Type:     metadata.ResourceTypeImage,
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(data.Pixels)),
		Data:     data,
	}, nil
}

func (tl *TextureLoader) Unload(res *metadata.Resource) error {
	res.Free()
	return nil
}

// ToRGBA copies img into zero-origin, non-premultiplied RGBA with stride
// width*4.
func ToRGBA(img image.Image) *metadata.TextureData {
	bounds := img.Bounds()
	rgba, ok := img.(*image.NRGBA)
	if !ok || bounds.Min != (image.Point{}) || rgba.Stride != bounds.Dx()*4 {
		rgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return &metadata.TextureData{
		Pixels:   rgba.Pix[:bounds.Dx()*bounds.Dy()*4],
		Width:    uint32(bounds.Dx()),
		Height:   uint32(bounds.Dy()),
		Channels: 4,
	}
}
