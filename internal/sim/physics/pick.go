package physics

import "math"

// PickResult is a raycast hit: the occupied cell, and the empty cell on
// the struck face where a new block would go.
type PickResult struct {
	Cell Cell
	Face Cell
}

// Raycast walks the view ray through the occupancy index cell by cell
// (Amanatides–Woo traversal over unit cubes centered on integers) and
// returns the first occupied cell within maxDist, if any. It is the
// pre-filter for place/remove requests: mutations only ever target cells
// the observer can actually see.
func (r *Resolver) Raycast(origin, dir Vec3, maxDist float64) (PickResult, bool) {
	n := math.Sqrt(dir.X*dir.X + dir.Y*dir.Y + dir.Z*dir.Z)
	if n == 0 {
		return PickResult{}, false
	}
	dir = Vec3{X: dir.X / n, Y: dir.Y / n, Z: dir.Z / n}

	cell := Cell{
		X: int(math.Floor(origin.X + 0.5)),
		Y: int(math.Floor(origin.Y + 0.5)),
		Z: int(math.Floor(origin.Z + 0.5)),
	}
	prev := cell

	stepX, tMaxX, tDeltaX := axisInit(origin.X, dir.X, cell.X)
	stepY, tMaxY, tDeltaY := axisInit(origin.Y, dir.Y, cell.Y)
	stepZ, tMaxZ, tDeltaZ := axisInit(origin.Z, dir.Z, cell.Z)

	for t := 0.0; t <= maxDist; {
		if r.Occupied(cell) {
			return PickResult{Cell: cell, Face: prev}, true
		}
		prev = cell
		switch {
		case tMaxX <= tMaxY && tMaxX <= tMaxZ:
			t = tMaxX
			tMaxX += tDeltaX
			cell.X += stepX
		case tMaxY <= tMaxZ:
			t = tMaxY
			tMaxY += tDeltaY
			cell.Y += stepY
		default:
			t = tMaxZ
			tMaxZ += tDeltaZ
			cell.Z += stepZ
		}
	}
	return PickResult{}, false
}

// axisInit computes the step direction, distance along the ray to the
// first cell boundary, and the per-cell boundary spacing for one axis.
func axisInit(o, d float64, c int) (step int, tMax, tDelta float64) {
	if d > 0 {
		return 1, (float64(c) + 0.5 - o) / d, 1 / d
	}
	if d < 0 {
		return -1, (o - (float64(c) - 0.5)) / -d, -1 / d
	}
	return 0, math.Inf(1), math.Inf(1)
}
