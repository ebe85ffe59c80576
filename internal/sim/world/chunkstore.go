package world

import (
	"log"

	"github.com/snow-fourth/mc3DDD/internal/sim/world/terrain"
)

// Generator is what the chunk store needs from the terrain layer.
// *terrain.Generator satisfies it; tests substitute failing generators.
type Generator interface {
	HeightAt(x, z int) int
	Chunk(cx, cz, size int, sink terrain.Sink)
}

// ChunkStore owns the sparse chunk cache. Accessed only from the simulation
// goroutine; there is no locking discipline because there is no sharing.
type ChunkStore struct {
	gen     Generator
	chunks  map[ChunkKey]*Chunk
	metrics *Metrics
	log     *log.Logger
}

func NewChunkStore(gen Generator, m *Metrics, logger *log.Logger) *ChunkStore {
	if m == nil {
		m = NewMetrics(nil)
	}
	return &ChunkStore{
		gen:     gen,
		chunks:  make(map[ChunkKey]*Chunk),
		metrics: m,
		log:     logger,
	}
}

// GetOrGenerate returns the cached chunk, generating it on first request.
// A panicking generation pass is absorbed: the chunk is cached empty and
// not ready, so a bad chunk renders as nothing instead of killing the loop.
func (s *ChunkStore) GetOrGenerate(key ChunkKey) *Chunk {
	if ch, ok := s.chunks[key]; ok {
		return ch
	}
	ch := NewChunk(key)
	s.chunks[key] = ch
	s.generate(ch)
	s.metrics.ChunkLoads.Inc()
	s.metrics.LoadedChunks.Set(float64(len(s.chunks)))
	return ch
}

func (s *ChunkStore) generate(ch *Chunk) {
	defer func() {
		if r := recover(); r != nil {
			ch.Blocks = make(map[Vec3i]terrain.Material)
			ch.Water = make(map[Vec3i]float64)
			ch.Ready = false
			s.metrics.GenerationFailures.Inc()
			if s.log != nil {
				s.log.Printf("chunk (%d,%d): generation failed: %v", ch.Key.CX, ch.Key.CZ, r)
			}
		}
	}()
	s.gen.Chunk(ch.Key.CX, ch.Key.CZ, ChunkSize, chunkSink{c: ch})
	ch.Ready = true
}

// chunkAt returns the cached chunk holding the position, or nil.
func (s *ChunkStore) chunkAt(pos Vec3i) *Chunk {
	return s.chunks[ChunkCoordOf(pos.X, pos.Z)]
}

// RefreshLoaded makes the cache hold exactly the chunks within
// RenderDistance of the observer's chunk. Eviction is unconditional; a
// chunk's unsaved mutations die with it.
func (s *ChunkStore) RefreshLoaded(observerX, observerZ int) {
	center := ChunkCoordOf(observerX, observerZ)

	for key := range s.chunks {
		if key.Chebyshev(center) > RenderDistance {
			delete(s.chunks, key)
			s.metrics.ChunkEvictions.Inc()
		}
	}
	for dz := -RenderDistance; dz <= RenderDistance; dz++ {
		for dx := -RenderDistance; dx <= RenderDistance; dx++ {
			s.GetOrGenerate(ChunkKey{CX: center.CX + dx, CZ: center.CZ + dz})
		}
	}
	s.metrics.LoadedChunks.Set(float64(len(s.chunks)))
}

// Place inserts or overwrites a solid block, displacing water there. The
// target chunk is generated lazily if a valid position lands on an unloaded
// chunk. Water as a material and out-of-range heights are rejected.
func (s *ChunkStore) Place(pos Vec3i, m terrain.Material) bool {
	if !m.Solid() || pos.Y < 0 || pos.Y > MaxPlaceY {
		s.metrics.RejectedMutations.Inc()
		return false
	}
	ch := s.GetOrGenerate(ChunkCoordOf(pos.X, pos.Z))
	ch.setBlock(pos, m)
	return true
}

// Remove deletes the block at pos. At or below sea level the hole floods:
// a full water block takes the position. Unloaded targets are a no-op.
func (s *ChunkStore) Remove(pos Vec3i) bool {
	ch := s.chunkAt(pos)
	if ch == nil {
		s.metrics.RejectedMutations.Inc()
		return false
	}
	delete(ch.Blocks, pos)
	if pos.Y <= terrain.SeaLevel {
		ch.setWater(pos, 1.0)
	}
	return true
}

// AllBlocks flattens every ready chunk's blocks. Order is unspecified.
func (s *ChunkStore) AllBlocks() []Block {
	n := 0
	for _, ch := range s.chunks {
		if ch.Ready {
			n += len(ch.Blocks)
		}
	}
	out := make([]Block, 0, n)
	for _, ch := range s.chunks {
		if !ch.Ready {
			continue
		}
		for pos, m := range ch.Blocks {
			out = append(out, Block{Position: pos, Material: m})
		}
	}
	return out
}

// AllWater flattens every ready chunk's water. Order is unspecified.
func (s *ChunkStore) AllWater() []WaterBlock {
	n := 0
	for _, ch := range s.chunks {
		if ch.Ready {
			n += len(ch.Water)
		}
	}
	out := make([]WaterBlock, 0, n)
	for _, ch := range s.chunks {
		if !ch.Ready {
			continue
		}
		for pos, level := range ch.Water {
			out = append(out, WaterBlock{Position: pos, Level: level})
		}
	}
	return out
}

// Reset drops every cached chunk.
func (s *ChunkStore) Reset() {
	s.chunks = make(map[ChunkKey]*Chunk)
	s.metrics.LoadedChunks.Set(0)
}

// LoadedChunkCount reports the cache size.
func (s *ChunkStore) LoadedChunkCount() int { return len(s.chunks) }
