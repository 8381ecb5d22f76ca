// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package rescache

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/divide-framework/divide/driver"
	"github.com/divide-framework/divide/engine"
)

// TextureLoader decodes 2D textures from PNG, JPEG or BMP source
// bytes and uploads them as a single-level, single-layer
// engine.Texture.
type TextureLoader struct{}

// Load implements Loader[*engine.Texture].
func (TextureLoader) Load(data []byte) (*engine.Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)

	tex, err := engine.New2D(&engine.TexParam{
		PixelFmt: driver.RGBA8un,
		Dim3D:    driver.Dim3D{Width: b.Dx(), Height: b.Dy(), Depth: 0},
		Layers:   1,
		Levels:   1,
		Samples:  1,
	})
	if err != nil {
		return nil, err
	}
	if !tex.IsValidView(0) {
		tex.Free()
		return nil, errors.New("rescache: texture has no view 0")
	}
	if err := tex.CopyToView(0, rgba.Pix, true); err != nil {
		tex.Free()
		return nil, err
	}
	return tex, nil
}

// Unload implements Loader[*engine.Texture].
func (TextureLoader) Unload(t *engine.Texture) {
	if t != nil {
		t.Free()
	}
}
