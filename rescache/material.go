// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package rescache

import (
	"errors"

	"gopkg.in/yaml.v3"

	"github.com/divide-framework/divide/engine"
)

// materialDoc is the on-disk YAML description of a PBR material.
// Texture references are intentionally absent: a material loaded
// from source bytes alone describes only its scalar factors, and
// gets its texture maps assigned afterward once the referenced
// textures are themselves resolved through a TextureLoader.
type materialDoc struct {
	BaseColor struct {
		Factor [4]float32 `yaml:"factor"`
	} `yaml:"baseColor"`
	MetalRough struct {
		Metalness float32 `yaml:"metalness"`
		Roughness float32 `yaml:"roughness"`
	} `yaml:"metalRough"`
	Emissive struct {
		Factor [3]float32 `yaml:"factor"`
	} `yaml:"emissive"`
	AlphaMode   string  `yaml:"alphaMode"`
	AlphaCutoff float32 `yaml:"alphaCutoff"`
	DoubleSided bool    `yaml:"doubleSided"`
}

// MaterialLoader decodes PBR materials from a small YAML dialect.
type MaterialLoader struct{}

// Load implements Loader[*engine.Material].
func (MaterialLoader) Load(data []byte) (*engine.Material, error) {
	var doc materialDoc
	doc.BaseColor.Factor = [4]float32{1, 1, 1, 1}
	doc.MetalRough.Metalness = 1
	doc.MetalRough.Roughness = 1
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	prop := engine.PBR{
		MetalRough:  engine.MetalRough{Metalness: doc.MetalRough.Metalness, Roughness: doc.MetalRough.Roughness},
		Emissive:    engine.EmissiveMap{Factor: doc.Emissive.Factor},
		AlphaCutoff: doc.AlphaCutoff,
		DoubleSided: doc.DoubleSided,
	}
	prop.BaseColor.Factor = doc.BaseColor.Factor
	switch doc.AlphaMode {
	case "", "opaque":
		prop.AlphaMode = engine.AlphaOpaque
	case "blend":
		prop.AlphaMode = engine.AlphaBlend
	case "mask":
		prop.AlphaMode = engine.AlphaMask
	default:
		return nil, errors.New("rescache: unknown alphaMode " + doc.AlphaMode)
	}
	return engine.NewPBR(&prop)
}

// Unload implements Loader[*engine.Material]. Materials own no GPU
// resources of their own (only texture references, whose lifetime
// is the loading TextureLoader's concern), so there is nothing to
// release here.
func (MaterialLoader) Unload(*engine.Material) {}
