package world

import "github.com/snow-fourth/mc3DDD/internal/sim/world/terrain"

// Chunk owns the blocks and water whose columns fall inside its 8x8
// footprint. Ready flips to true only after a full generation pass; a
// non-ready chunk is invisible and non-solid to every consumer.
type Chunk struct {
	Key    ChunkKey
	Blocks map[Vec3i]terrain.Material
	Water  map[Vec3i]float64
	Ready  bool
}

func NewChunk(key ChunkKey) *Chunk {
	return &Chunk{
		Key:    key,
		Blocks: make(map[Vec3i]terrain.Material),
		Water:  make(map[Vec3i]float64),
	}
}

func (c *Chunk) owns(x, z int) bool {
	return ChunkCoordOf(x, z) == c.Key
}

// setBlock stores a solid block, displacing any water at the position.
func (c *Chunk) setBlock(pos Vec3i, m terrain.Material) {
	delete(c.Water, pos)
	c.Blocks[pos] = m
}

// setWater stores water unless the position already holds a solid block.
func (c *Chunk) setWater(pos Vec3i, level float64) {
	if _, solid := c.Blocks[pos]; solid {
		return
	}
	c.Water[pos] = level
}

// sink adapts the chunk for the terrain generator. Writes whose column lies
// outside the chunk are dropped: tree canopies overhang chunk borders and
// clip at them.
type chunkSink struct{ c *Chunk }

func (s chunkSink) SetBlock(x, y, z int, m terrain.Material) {
	if !s.c.owns(x, z) {
		return
	}
	s.c.setBlock(Vec3i{X: x, Y: y, Z: z}, m)
}

func (s chunkSink) SetWater(x, y, z int, level float64) {
	if !s.c.owns(x, z) {
		return
	}
	s.c.setWater(Vec3i{X: x, Y: y, Z: z}, level)
}
