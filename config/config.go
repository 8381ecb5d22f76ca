// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package config loads the engine's flat XML configuration file and
// converts it into the per-subsystem Config values each package's own
// constructor expects. Subsystem constructors never see the raw
// Root/flat key space — only the fields they declare they need, per
// the same descriptor-only-takes-what-it-needs discipline
// engine.Configure and kernel.DefaultConfig already follow.
package config

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/divide-framework/divide/engine"
	"github.com/divide-framework/divide/kernel"
)

// Root is the top-level document, matching spec.md §6.1's flat key
// space grouped under runtime/rendering/debug plus a handful of
// top-level keys.
type Root struct {
	XMLName xml.Name `xml:"config"`

	Language               string `xml:"language"`
	Title                  string `xml:"title"`
	DefaultTextureLocation string `xml:"defaultTextureLocation"`
	DefaultShadersLocation string `xml:"defaultShadersLocation"`

	Runtime   Runtime   `xml:"runtime"`
	Rendering Rendering `xml:"rendering"`
	Debug     Debug     `xml:"debug"`
}

// Runtime is the runtime.* key group.
type Runtime struct {
	TargetDisplay      int  `xml:"targetDisplay"`
	WindowedMode       bool `xml:"windowedMode"`
	ResolutionW        int  `xml:"resolution>w"`
	ResolutionH        int  `xml:"resolution>h"`
	SplashScreenSize   int  `xml:"splashScreenSize"`
	CameraViewDistance float32 `xml:"cameraViewDistance"`
	VerticalFOV        float32 `xml:"verticalFOV"`
	MaxWorkerThreads   int  `xml:"maxWorkerThreads"`
	EnableVSync        bool `xml:"enableVSync"`
	AdaptiveSync       bool `xml:"adaptiveSync"`
	FrameRateLimit     int  `xml:"frameRateLimit"`
}

// Rendering is the rendering.* key group.
type Rendering struct {
	MSAASamples                int     `xml:"MSAASamples"`
	AnisotropicFilteringLevel  int     `xml:"anisotropicFilteringLevel"`
	ReflectionResolutionFactor float32 `xml:"reflectionResolutionFactor"`
	TerrainDetailLevel         int     `xml:"terrainDetailLevel"`
	FogColour                  Colour  `xml:"fogColour"`
	FogDensity                 float32 `xml:"fogDensity"`
	LodThresholds              Vec4    `xml:"lodThresholds"`
	NumLightsPerScreenTile     int     `xml:"numLightsPerScreenTile"`
	LightThreadGroupSize       int     `xml:"lightThreadGroupSize"`

	PostFX        PostFX        `xml:"postFX"`
	ShadowMapping ShadowMapping `xml:"shadowMapping"`
}

// Colour is an RGBA colour, as the rendering.fogColour key.
type Colour struct {
	R float32 `xml:"r"`
	G float32 `xml:"g"`
	B float32 `xml:"b"`
	A float32 `xml:"a"`
}

// Vec4 is a four-component vector, as the rendering.lodThresholds key.
type Vec4 struct {
	X float32 `xml:"x"`
	Y float32 `xml:"y"`
	Z float32 `xml:"z"`
	W float32 `xml:"w"`
}

// PostFX is the rendering.postFX.* key group.
type PostFX struct {
	PostAAType                string  `xml:"postAAType"`
	PostAAQualityLevel        int     `xml:"PostAAQualityLevel"`
	EnableBloom                bool    `xml:"enableBloom"`
	BloomFactor                float32 `xml:"bloomFactor"`
	BloomThreshold             float32 `xml:"bloomThreshold"`
	EnableSSAO                 bool    `xml:"enableSSAO"`
	SSAORadius                 float32 `xml:"ssaoRadius"`
	SSAOPower                  float32 `xml:"ssaoPower"`
	SSAOKernelSizeIndex        int     `xml:"ssaoKernelSizeIndex"`
	EnableDepthOfField         bool    `xml:"enableDepthOfField"`
	EnableCameraBlur           bool    `xml:"enableCameraBlur"`
	EnableAdaptiveToneMapping  bool    `xml:"enableAdaptiveToneMapping"`
	VelocityScale              float32 `xml:"velocityScale"`
	EnablePerObjectMotionBlur  bool    `xml:"enablePerObjectMotionBlur"`
}

// ShadowMapping is the rendering.shadowMapping.* key group.
type ShadowMapping struct {
	Enabled  bool    `xml:"enabled"`
	Softness float32 `xml:"softness"`
	CSM      CSM     `xml:"csm"`
	Spot     Slice   `xml:"spot"`
	Point    Slice   `xml:"point"`
}

// CSM is the rendering.shadowMapping.csm.* key group (directional
// light cascaded shadow maps).
type CSM struct {
	ShadowMapResolution      int     `xml:"shadowMapResolution"`
	MSAASamples              int     `xml:"MSAASamples"`
	EnableBlurring            bool    `xml:"enableBlurring"`
	SplitLambda               float32 `xml:"splitLambda"`
	SplitCount                int     `xml:"splitCount"`
	AnisotropicFilteringLevel int     `xml:"anisotropicFilteringLevel"`
}

// Slice is the rendering.shadowMapping.{spot,point}.* key group, both
// of which share the same shape (a single shadow map / cube face, no
// cascading).
type Slice struct {
	ShadowMapResolution       int `xml:"shadowMapResolution"`
	AnisotropicFilteringLevel int `xml:"anisotropicFilteringLevel"`
}

// Debug is the debug.* key group.
type Debug struct {
	EnableRenderAPIDebugging bool   `xml:"enableRenderAPIDebugging"`
	UseShaderTextCache       bool   `xml:"useShaderTextCache"`
	UseShaderBinaryCache     bool   `xml:"useShaderBinaryCache"`
	MemFile                  string `xml:"memFile"`
	UseGeometryCache         bool   `xml:"useGeometryCache"`
	UseVegetationCache       bool   `xml:"useVegetationCache"`
	EnableTreeInstances      bool   `xml:"enableTreeInstances"`
	EnableGrassInstances     bool   `xml:"enableGrassInstances"`
}

// Load reads and parses the XML configuration file at path.
func Load(path string) (*Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var root Root
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &root, nil
}

// ToEngineConfig returns engine.DefaultConfig unchanged: none of
// §6.1's flat keys name any of engine.Config's fields (MaxLight,
// MaxDrawable, DoubleBuffered etc. are all compiled-in/call-site
// concerns), so there is nothing to convert. The method still exists
// so call sites go through the same conversion step uniformly rather
// than reaching past config into engine's defaults directly.
func (r *Root) ToEngineConfig() engine.Config {
	return engine.DefaultConfig()
}

// ToKernelConfig converts the relevant keys into a kernel.Config,
// starting from kernel.DefaultConfig.
func (r *Root) ToKernelConfig() kernel.Config {
	c := kernel.DefaultConfig()
	if r.Runtime.FrameRateLimit > 0 {
		c.TicksPerSecond = r.Runtime.FrameRateLimit
	}
	return c
}

// ShadowCascadeParams returns the split count and lambda that
// lightpool.CascadedGenerator.Generate expects, read out of
// rendering.shadowMapping.csm.
func (r *Root) ShadowCascadeParams() (splitCount int, splitLambda float32) {
	return r.Rendering.ShadowMapping.CSM.SplitCount, r.Rendering.ShadowMapping.CSM.SplitLambda
}

// RTPoolMSAASamples returns the sample count rtpool.TargetDesc.MSAASamples
// expects, read out of rendering.MSAASamples.
func (r *Root) RTPoolMSAASamples() int {
	return r.Rendering.MSAASamples
}
