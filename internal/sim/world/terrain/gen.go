package terrain

import (
	"math"
	"math/rand"

	"github.com/snow-fourth/mc3DDD/internal/sim/world/logic/mathx"
)

const (
	// SeaLevel is the y below which empty terrain fills with water.
	SeaLevel = 20
	// MaxHeight is the world height ceiling in blocks.
	MaxHeight = 400
)

// Banding thresholds relative to SeaLevel.
const (
	snowAbove  = 160
	stoneAbove = 60
	soilDepth  = 4

	treeMinAbove = 2  // exclusive: h > SeaLevel+2
	treeMaxAbove = 40 // exclusive: h < SeaLevel+40
	treeProb     = 0.03
	canopyProb   = 0.7
	canopyTopPct = 0.5
)

// Sink receives generated blocks and water. Implementations may clip writes
// that fall outside the region being generated (tree canopies overhang).
type Sink interface {
	SetBlock(x, y, z int, m Material)
	SetWater(x, y, z int, level float64)
}

// Generator produces terrain deterministically from a seed. HeightAt is a
// pure function of the coordinate; the stochastic tree pass draws from a
// rand.Rand seeded per chunk, so a chunk regenerates identically.
type Generator struct {
	seed int64

	// Octave phase offsets, derived once from the seed.
	ph [6]float64
}

func NewGenerator(seed int64) *Generator {
	g := &Generator{seed: seed}
	r := rand.New(rand.NewSource(seed))
	for i := range g.ph {
		g.ph[i] = r.Float64() * 2 * math.Pi
	}
	return g
}

func (g *Generator) Seed() int64 { return g.seed }

// HeightAt returns the surface height of the column at (x, z): the sum of a
// large-scale ridge, a mid-scale hill and a small-scale ripple octave over
// SeaLevel, clamped to [0, MaxHeight].
func (g *Generator) HeightAt(x, z int) int {
	fx := float64(x)
	fz := float64(z)

	h := float64(SeaLevel)
	h += 120 * math.Sin(fx*0.004+g.ph[0]) * math.Cos(fz*0.0035+g.ph[1])
	h += 40 * math.Sin(fx*0.021+g.ph[2]) * math.Cos(fz*0.018+g.ph[3])
	h += 6 * math.Sin(fx*0.09+g.ph[4]) * math.Cos(fz*0.11+g.ph[5])

	return mathx.ClampInt(int(math.Floor(h)), 0, MaxHeight)
}

// TopMaterial returns the surface block material for a column of height h.
func TopMaterial(h int) Material {
	switch {
	case h > SeaLevel+snowAbove:
		return Snow
	case h > SeaLevel+stoneAbove:
		return Stone
	case h <= SeaLevel:
		return Sand
	default:
		return Grass
	}
}

// Chunk generates every column of the size×size chunk at chunk coordinate
// (cx, cz) into sink: solid columns down to y=0, water fill up to SeaLevel
// on submerged columns, and the stochastic tree pass.
func (g *Generator) Chunk(cx, cz, size int, sink Sink) {
	for lz := 0; lz < size; lz++ {
		for lx := 0; lx < size; lx++ {
			g.column(cx*size+lx, cz*size+lz, sink)
		}
	}

	// Trees draw from a per-chunk source so regeneration is reproducible
	// and tests can pin the seed.
	rng := rand.New(rand.NewSource(int64(mathx.Hash2(g.seed, cx, cz))))
	for lz := 0; lz < size; lz++ {
		for lx := 0; lx < size; lx++ {
			x := cx*size + lx
			z := cz*size + lz
			h := g.HeightAt(x, z)
			if h <= SeaLevel+treeMinAbove || h >= SeaLevel+treeMaxAbove {
				continue
			}
			if rng.Float64() >= treeProb {
				continue
			}
			g.tree(x, h, z, rng, sink)
		}
	}
}

func (g *Generator) column(x, z int, sink Sink) {
	h := g.HeightAt(x, z)

	for y := h; y >= 0; y-- {
		var m Material
		switch {
		case y == h:
			m = TopMaterial(h)
		case h > SeaLevel && y >= h-soilDepth:
			if h <= SeaLevel+1 {
				m = Sand
			} else {
				m = Dirt
			}
		default:
			m = Stone
		}
		sink.SetBlock(x, y, z, m)
	}

	if h < SeaLevel {
		for y := h + 1; y <= SeaLevel; y++ {
			sink.SetWater(x, y, z, 1.0)
		}
	}
}

// tree plants a wood trunk on the column surface and a grass-leaf canopy:
// a 5x5 footprint at the trunk top (each cell with probability canopyProb,
// trunk cell excluded) and a thinner second layer one block higher.
func (g *Generator) tree(x, h, z int, rng *rand.Rand, sink Sink) {
	trunk := 6 + rng.Intn(4)
	for i := 1; i <= trunk; i++ {
		sink.SetBlock(x, h+i, z, Wood)
	}

	top := h + trunk
	for dz := -2; dz <= 2; dz++ {
		for dx := -2; dx <= 2; dx++ {
			if dx == 0 && dz == 0 {
				continue
			}
			if rng.Float64() >= canopyProb {
				continue
			}
			sink.SetBlock(x+dx, top, z+dz, Grass)
			if rng.Float64() < canopyTopPct {
				sink.SetBlock(x+dx, top+1, z+dz, Grass)
			}
		}
	}
}
