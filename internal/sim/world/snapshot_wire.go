package world

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/snow-fourth/mc3DDD/internal/sim/world/terrain"
)

// WorldSnapshot is the wire capture of the chunk cache: chunk-key string
// "{cx},{cz}" to a record whose block and water entries are explicit
// [positionKey, value] pairs. This shape round-trips exactly through
// Snapshot/Restore.
type WorldSnapshot map[string]ChunkRecord

type ChunkRecord struct {
	X           int          `json:"x"`
	Z           int          `json:"z"`
	Generated   bool         `json:"generated"`
	Blocks      []BlockEntry `json:"blocks"`
	WaterBlocks []WaterEntry `json:"waterBlocks"`
}

type BlockRecord struct {
	Position Vec3i  `json:"position"`
	Material string `json:"material"`
}

type WaterRecord struct {
	Position Vec3i   `json:"position"`
	Level    float64 `json:"level"`
}

// BlockEntry marshals as a two-element array [positionKey, block].
type BlockEntry struct {
	Key   string
	Block BlockRecord
}

func (e BlockEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Key, e.Block})
}

func (e *BlockEntry) UnmarshalJSON(b []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &e.Key); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &e.Block)
}

// WaterEntry marshals as a two-element array [positionKey, water].
type WaterEntry struct {
	Key   string
	Water WaterRecord
}

func (e WaterEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Key, e.Water})
}

func (e *WaterEntry) UnmarshalJSON(b []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &e.Key); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &e.Water)
}

func chunkKeyString(k ChunkKey) string { return fmt.Sprintf("%d,%d", k.CX, k.CZ) }
func posKeyString(p Vec3i) string      { return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z) }

func sortedBlockPositions(m map[Vec3i]terrain.Material) []Vec3i {
	out := make([]Vec3i, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return lessVec3i(out[i], out[j]) })
	return out
}

func sortedWaterPositions(m map[Vec3i]float64) []Vec3i {
	out := make([]Vec3i, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return lessVec3i(out[i], out[j]) })
	return out
}

func lessVec3i(a, b Vec3i) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// Snapshot captures every currently-cached chunk, ready or not. Entries are
// emitted in sorted position order so equal worlds produce equal payloads.
func (w *World) Snapshot() WorldSnapshot {
	snap := make(WorldSnapshot, len(w.store.chunks))
	for key, ch := range w.store.chunks {
		rec := ChunkRecord{
			X:           key.CX,
			Z:           key.CZ,
			Generated:   ch.Ready,
			Blocks:      make([]BlockEntry, 0, len(ch.Blocks)),
			WaterBlocks: make([]WaterEntry, 0, len(ch.Water)),
		}
		for _, pos := range sortedBlockPositions(ch.Blocks) {
			rec.Blocks = append(rec.Blocks, BlockEntry{
				Key: posKeyString(pos),
				Block: BlockRecord{
					Position: pos,
					Material: ch.Blocks[pos].String(),
				},
			})
		}
		for _, pos := range sortedWaterPositions(ch.Water) {
			rec.WaterBlocks = append(rec.WaterBlocks, WaterEntry{
				Key: posKeyString(pos),
				Water: WaterRecord{
					Position: pos,
					Level:    ch.Water[pos],
				},
			})
		}
		snap[chunkKeyString(key)] = rec
	}
	return snap
}

// Restore replaces the whole chunk cache with the snapshot's contents. The
// payload is validated in full before anything is touched: a corrupt
// snapshot leaves the current world intact, bumps the corrupt-snapshot
// counter and reports why, so a broken save never prevents starting play.
func (w *World) Restore(snap WorldSnapshot) error {
	chunks, err := buildChunks(snap)
	if err != nil {
		w.metrics.CorruptSnapshots.Inc()
		if w.log != nil {
			w.log.Printf("snapshot restore rejected: %v", err)
		}
		return err
	}
	w.store.chunks = chunks
	w.store.metrics.LoadedChunks.Set(float64(len(chunks)))
	w.primed = false
	w.rev++
	return nil
}

func buildChunks(snap WorldSnapshot) (map[ChunkKey]*Chunk, error) {
	chunks := make(map[ChunkKey]*Chunk, len(snap))
	for keyStr, rec := range snap {
		key := ChunkKey{CX: rec.X, CZ: rec.Z}
		if chunkKeyString(key) != keyStr {
			return nil, fmt.Errorf("chunk key %q does not match record (%d,%d)", keyStr, rec.X, rec.Z)
		}
		if _, dup := chunks[key]; dup {
			return nil, fmt.Errorf("duplicate chunk (%d,%d)", rec.X, rec.Z)
		}
		ch := NewChunk(key)
		ch.Ready = rec.Generated

		for _, e := range rec.Blocks {
			pos := e.Block.Position
			if posKeyString(pos) != e.Key {
				return nil, fmt.Errorf("chunk (%d,%d): block key %q does not match position %v", rec.X, rec.Z, e.Key, pos)
			}
			if !ch.owns(pos.X, pos.Z) {
				return nil, fmt.Errorf("chunk (%d,%d): block %v belongs to another chunk", rec.X, rec.Z, pos)
			}
			if pos.Y < 0 || pos.Y > MaxPlaceY {
				return nil, fmt.Errorf("chunk (%d,%d): block %v out of height range", rec.X, rec.Z, pos)
			}
			m, ok := terrain.ParseMaterial(e.Block.Material)
			if !ok || !m.Solid() {
				return nil, fmt.Errorf("chunk (%d,%d): bad material %q at %v", rec.X, rec.Z, e.Block.Material, pos)
			}
			if _, dup := ch.Blocks[pos]; dup {
				return nil, fmt.Errorf("chunk (%d,%d): duplicate block at %v", rec.X, rec.Z, pos)
			}
			ch.Blocks[pos] = m
		}

		for _, e := range rec.WaterBlocks {
			pos := e.Water.Position
			if posKeyString(pos) != e.Key {
				return nil, fmt.Errorf("chunk (%d,%d): water key %q does not match position %v", rec.X, rec.Z, e.Key, pos)
			}
			if !ch.owns(pos.X, pos.Z) {
				return nil, fmt.Errorf("chunk (%d,%d): water %v belongs to another chunk", rec.X, rec.Z, pos)
			}
			if e.Water.Level < 0 || e.Water.Level > 1 {
				return nil, fmt.Errorf("chunk (%d,%d): water level %v at %v out of [0,1]", rec.X, rec.Z, e.Water.Level, pos)
			}
			if _, solid := ch.Blocks[pos]; solid {
				return nil, fmt.Errorf("chunk (%d,%d): position %v holds both block and water", rec.X, rec.Z, pos)
			}
			if _, dup := ch.Water[pos]; dup {
				return nil, fmt.Errorf("chunk (%d,%d): duplicate water at %v", rec.X, rec.Z, pos)
			}
			ch.Water[pos] = e.Water.Level
		}

		chunks[key] = ch
	}
	return chunks, nil
}
