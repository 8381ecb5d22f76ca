// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package wgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/divide-framework/divide/driver"
)

func textureFormat(pf driver.PixelFmt) wgpu.TextureFormat {
	switch pf {
	case driver.RGBA8un:
		return wgpu.TextureFormatRGBA8Unorm
	case driver.RGBA8n:
		return wgpu.TextureFormatRGBA8Snorm
	case driver.RGBA8sRGB:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case driver.BGRA8un:
		return wgpu.TextureFormatBGRA8Unorm
	case driver.BGRA8sRGB:
		return wgpu.TextureFormatBGRA8UnormSrgb
	case driver.RG8un:
		return wgpu.TextureFormatRG8Unorm
	case driver.RG8n:
		return wgpu.TextureFormatRG8Snorm
	case driver.R8un:
		return wgpu.TextureFormatR8Unorm
	case driver.R8n:
		return wgpu.TextureFormatR8Snorm
	case driver.RGBA16f:
		return wgpu.TextureFormatRGBA16Float
	case driver.RG16f:
		return wgpu.TextureFormatRG16Float
	case driver.R16f:
		return wgpu.TextureFormatR16Float
	case driver.RGBA32f:
		return wgpu.TextureFormatRGBA32Float
	case driver.RG32f:
		return wgpu.TextureFormatRG32Float
	case driver.R32f:
		return wgpu.TextureFormatR32Float
	case driver.D16un:
		return wgpu.TextureFormatDepth16Unorm
	case driver.D32f:
		return wgpu.TextureFormatDepth32Float
	case driver.S8ui:
		return wgpu.TextureFormatStencil8
	case driver.D24unS8ui:
		return wgpu.TextureFormatDepth24PlusStencil8
	case driver.D32fS8ui:
		return wgpu.TextureFormatDepth32FloatStencil8
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

func dimension(size driver.Dim3D) wgpu.TextureDimension {
	switch {
	case size.Depth > 0:
		return wgpu.TextureDimension3D
	case size.Height > 0:
		return wgpu.TextureDimension2D
	default:
		return wgpu.TextureDimension1D
	}
}

func bufferUsage(usg driver.Usage, visible bool) wgpu.BufferUsage {
	var u wgpu.BufferUsage
	if usg&driver.UVertexData != 0 {
		u |= wgpu.BufferUsageVertex
	}
	if usg&driver.UIndexData != 0 {
		u |= wgpu.BufferUsageIndex
	}
	if usg&driver.UShaderConst != 0 {
		u |= wgpu.BufferUsageUniform
	}
	if usg&(driver.UShaderRead|driver.UShaderWrite) != 0 {
		u |= wgpu.BufferUsageStorage
	}
	u |= wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	if visible {
		u |= wgpu.BufferUsageMapRead
	}
	return u
}

func textureUsage(usg driver.Usage) wgpu.TextureUsage {
	var u wgpu.TextureUsage
	if usg&driver.UShaderSample != 0 {
		u |= wgpu.TextureUsageTextureBinding
	}
	if usg&(driver.UShaderRead|driver.UShaderWrite) != 0 {
		u |= wgpu.TextureUsageStorageBinding
	}
	if usg&driver.URenderTarget != 0 {
		u |= wgpu.TextureUsageRenderAttachment
	}
	u |= wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst
	return u
}

func addrMode(a driver.AddrMode) wgpu.AddressMode {
	switch a {
	case driver.AMirror:
		return wgpu.AddressModeMirrorRepeat
	case driver.AClamp:
		return wgpu.AddressModeClampToEdge
	default:
		return wgpu.AddressModeRepeat
	}
}

func filterMode(f driver.Filter) wgpu.FilterMode {
	if f == driver.FLinear {
		return wgpu.FilterModeLinear
	}
	return wgpu.FilterModeNearest
}

func mipmapFilterMode(f driver.Filter) wgpu.MipmapFilterMode {
	if f == driver.FLinear {
		return wgpu.MipmapFilterModeLinear
	}
	return wgpu.MipmapFilterModeNearest
}

func compareFunc(c driver.CmpFunc) wgpu.CompareFunction {
	switch c {
	case driver.CLess:
		return wgpu.CompareFunctionLess
	case driver.CEqual:
		return wgpu.CompareFunctionEqual
	case driver.CLessEqual:
		return wgpu.CompareFunctionLessEqual
	case driver.CGreater:
		return wgpu.CompareFunctionGreater
	case driver.CNotEqual:
		return wgpu.CompareFunctionNotEqual
	case driver.CGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual
	case driver.CAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionNever
	}
}

func primitiveTopology(t driver.Topology) wgpu.PrimitiveTopology {
	switch t {
	case driver.TPoint:
		return wgpu.PrimitiveTopologyPointList
	case driver.TLine:
		return wgpu.PrimitiveTopologyLineList
	case driver.TLnStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case driver.TTriStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func vertexFormat(f driver.VertexFmt) wgpu.VertexFormat {
	switch f {
	case driver.Int8x2:
		return wgpu.VertexFormatSint8x2
	case driver.Int8x4:
		return wgpu.VertexFormatSint8x4
	case driver.UInt8x2:
		return wgpu.VertexFormatUint8x2
	case driver.UInt8x4:
		return wgpu.VertexFormatUint8x4
	case driver.Int16x2:
		return wgpu.VertexFormatSint16x2
	case driver.Int16x4:
		return wgpu.VertexFormatSint16x4
	case driver.UInt16x2:
		return wgpu.VertexFormatUint16x2
	case driver.UInt16x4:
		return wgpu.VertexFormatUint16x4
	case driver.Float32:
		return wgpu.VertexFormatFloat32
	case driver.Float32x2:
		return wgpu.VertexFormatFloat32x2
	case driver.Float32x3:
		return wgpu.VertexFormatFloat32x3
	case driver.Float32x4:
		return wgpu.VertexFormatFloat32x4
	case driver.Int32:
		return wgpu.VertexFormatSint32
	case driver.Int32x2:
		return wgpu.VertexFormatSint32x2
	case driver.Int32x3:
		return wgpu.VertexFormatSint32x3
	case driver.Int32x4:
		return wgpu.VertexFormatSint32x4
	case driver.UInt32:
		return wgpu.VertexFormatUint32
	case driver.UInt32x2:
		return wgpu.VertexFormatUint32x2
	case driver.UInt32x3:
		return wgpu.VertexFormatUint32x3
	case driver.UInt32x4:
		return wgpu.VertexFormatUint32x4
	default:
		return wgpu.VertexFormatFloat32x3
	}
}

func indexFormat(f driver.IndexFmt) wgpu.IndexFormat {
	if f == driver.Index32 {
		return wgpu.IndexFormatUint32
	}
	return wgpu.IndexFormatUint16
}
