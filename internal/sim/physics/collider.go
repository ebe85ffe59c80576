package physics

import "math"

// Observer bounding volume, in block units. The box hangs from eye level:
// top at Y, bottom one height below.
const (
	BoxWidth  = 0.6
	BoxHeight = 1.0

	// EyeOffset lifts the eye above a block's top face when standing on it.
	EyeOffset = 0.5
)

// Ground probe range. Overhangs above the top or caverns below the bottom
// are invisible to grounding; that is a known limitation of the bounded
// scan, not a bug to fix here.
const (
	groundScanTop    = 200
	groundScanBottom = -10

	// minStandHeight is returned when the probe finds no ground: standing
	// on a notional block at y=0.
	minStandHeight = 0.0 + EyeOffset + BoxHeight
)

// Vec3 is a world-space position or displacement in block units.
type Vec3 struct {
	X, Y, Z float64
}

// Cell is an occupied integer block coordinate. A cell's collision box is
// the unit cube centered on it.
type Cell struct {
	X, Y, Z int
}

// Resolver tests observer movement against a flat occupancy index. The
// index is rebuilt from the world's current block list each tick, which is
// O(loaded blocks) and bounded by the render distance.
type Resolver struct {
	cells map[Cell]struct{}
}

func NewResolver() *Resolver {
	return &Resolver{cells: make(map[Cell]struct{})}
}

// Rebuild replaces the occupancy index.
func (r *Resolver) Rebuild(cells []Cell) {
	idx := make(map[Cell]struct{}, len(cells))
	for _, c := range cells {
		idx[c] = struct{}{}
	}
	r.cells = idx
}

// Occupied reports whether a solid block fills the cell.
func (r *Resolver) Occupied(c Cell) bool {
	_, ok := r.cells[c]
	return ok
}

// Resolve applies the proposed delta one axis at a time, in the fixed
// order X, Y, Z. A colliding axis move is discarded outright (snapped back
// to the pre-delta value), not clipped to the surface. The order is what
// makes walls slidable: a rejected X still lets the Z test run from the
// corrected X. Diagonal moves into a corner can therefore stop slightly
// short of the surface.
func (r *Resolver) Resolve(pos, delta Vec3) Vec3 {
	cur := pos

	cur.X += delta.X
	if r.collides(cur) {
		cur.X = pos.X
	}
	cur.Y += delta.Y
	if r.collides(cur) {
		cur.Y = pos.Y
	}
	cur.Z += delta.Z
	if r.collides(cur) {
		cur.Z = pos.Z
	}
	return cur
}

// collides tests the observer box at eye position p against every occupied
// cell whose unit cube could overlap it.
func (r *Resolver) collides(p Vec3) bool {
	half := BoxWidth / 2
	minX, maxX := p.X-half, p.X+half
	minY, maxY := p.Y-BoxHeight, p.Y
	minZ, maxZ := p.Z-half, p.Z+half

	for cx := int(math.Floor(minX - 0.5)); cx <= int(math.Ceil(maxX+0.5)); cx++ {
		for cy := int(math.Floor(minY - 0.5)); cy <= int(math.Ceil(maxY+0.5)); cy++ {
			for cz := int(math.Floor(minZ - 0.5)); cz <= int(math.Ceil(maxZ+0.5)); cz++ {
				if !r.Occupied(Cell{X: cx, Y: cy, Z: cz}) {
					continue
				}
				if overlaps1(minX, maxX, float64(cx)) &&
					overlaps1(minY, maxY, float64(cy)) &&
					overlaps1(minZ, maxZ, float64(cz)) {
					return true
				}
			}
		}
	}
	return false
}

// overlaps1 is a strict 1D overlap test against a unit cube centered at c;
// touching faces do not collide.
func overlaps1(min, max, c float64) bool {
	return c-0.5 < max && c+0.5 > min
}

// GroundHeightAt scans the column containing (x, z) downward from
// groundScanTop for the first occupied cell and returns the eye height of
// an observer standing on it: one unit above the cell, plus EyeOffset.
func (r *Resolver) GroundHeightAt(x, z float64) float64 {
	cx := int(math.Floor(x + 0.5))
	cz := int(math.Floor(z + 0.5))
	for y := groundScanTop; y >= groundScanBottom; y-- {
		if r.Occupied(Cell{X: cx, Y: y, Z: cz}) {
			return float64(y+1) + EyeOffset
		}
	}
	return minStandHeight
}
