package world

import (
	"github.com/snow-fourth/mc3DDD/internal/sim/world/logic/mathx"
	"github.com/snow-fourth/mc3DDD/internal/sim/world/terrain"
)

const (
	// ChunkSize is the side of a chunk's column footprint in blocks.
	ChunkSize = 8
	// RenderDistance is the Chebyshev streaming radius in chunks.
	RenderDistance = 3
	// RefreshThreshold is the per-axis observer displacement, in blocks,
	// beyond which the streaming set is recomputed.
	RefreshThreshold = 4.0
	// MaxPlaceY caps placement slightly above the generation ceiling so the
	// observer can build towers past the tallest terrain.
	MaxPlaceY = terrain.MaxHeight + 20
)

// Vec3i is an integer block coordinate. It is used directly as a map key;
// string-composite keys exist only on the snapshot wire format.
type Vec3i struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// ChunkKey addresses a chunk by its coordinate.
type ChunkKey struct {
	CX int
	CZ int
}

// ChunkCoordOf maps a world column to its chunk coordinate. Floor division,
// so negative columns map correctly (x=-1 belongs to chunk -1, not 0).
func ChunkCoordOf(x, z int) ChunkKey {
	return ChunkKey{
		CX: mathx.FloorDiv(x, ChunkSize),
		CZ: mathx.FloorDiv(z, ChunkSize),
	}
}

// Chebyshev returns the chessboard distance between two chunk keys.
func (k ChunkKey) Chebyshev(o ChunkKey) int {
	dx := mathx.AbsInt(k.CX - o.CX)
	dz := mathx.AbsInt(k.CZ - o.CZ)
	if dx > dz {
		return dx
	}
	return dz
}

// Block is a solid voxel. Identity is the position: at most one block per
// position, and never a block and water together.
type Block struct {
	Position Vec3i
	Material terrain.Material
}

// WaterBlock is a fluid voxel with a fill level in [0,1].
type WaterBlock struct {
	Position Vec3i
	Level    float64
}
