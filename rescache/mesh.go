// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package rescache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/divide-framework/divide/driver"
	"github.com/divide-framework/divide/engine"
)

// Mesh source bytes hold a single indexed triangle-list primitive
// with position, normal and texcoord0 attributes, laid out as a
// 8-byte header followed by tightly packed attribute/index arrays:
//
//	uint32 vertexCount
//	uint32 indexCount  (0 for a non-indexed primitive)
//	[vertexCount]float32x3 position
//	[vertexCount]float32x3 normal
//	[vertexCount]float32x2 texcoord0
//	[indexCount]uint32 index (absent if indexCount == 0)
var errMeshTrunc = errors.New("rescache: truncated mesh data")

// MeshLoader decodes meshes from the fixed binary layout above.
type MeshLoader struct{}

// Load implements Loader[*engine.Mesh].
func (MeshLoader) Load(data []byte) (*engine.Mesh, error) {
	if len(data) < 8 {
		return nil, errMeshTrunc
	}
	vertCount := int(binary.LittleEndian.Uint32(data[0:4]))
	idxCount := int(binary.LittleEndian.Uint32(data[4:8]))
	if vertCount <= 0 {
		return nil, errors.New("rescache: mesh has no vertices")
	}

	off := int64(8)
	posLen := int64(vertCount) * 12
	normLen := int64(vertCount) * 12
	uvLen := int64(vertCount) * 8
	idxLen := int64(idxCount) * 4
	if int64(len(data)) < off+posLen+normLen+uvLen+idxLen {
		return nil, errMeshTrunc
	}

	src := bytes.NewReader(data)
	prim := engine.PrimitiveData{
		Topology:     driver.TTriangle,
		VertexCount:  vertCount,
		SemanticMask: engine.Position | engine.Normal | engine.TexCoord0,
	}
	prim.Semantics[engine.Position.I()] = engine.SemanticData{Format: driver.Float32x3, Offset: off}
	off += posLen
	prim.Semantics[engine.Normal.I()] = engine.SemanticData{Format: driver.Float32x3, Offset: off}
	off += normLen
	prim.Semantics[engine.TexCoord0.I()] = engine.SemanticData{Format: driver.Float32x2, Offset: off}
	off += uvLen

	if idxCount > 0 {
		prim.IndexCount = idxCount
		prim.Index = engine.IndexData{Format: driver.Index32, Offset: off}
	}

	mdata := engine.MeshData{
		Primitives: []engine.PrimitiveData{prim},
		Srcs:       []io.ReadSeeker{src},
	}
	return engine.NewMesh(&mdata)
}

// Unload implements Loader[*engine.Mesh].
func (MeshLoader) Unload(m *engine.Mesh) {
	if m != nil {
		m.Free()
	}
}
