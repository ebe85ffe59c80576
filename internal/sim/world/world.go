package world

import (
	"log"
	"math"

	"github.com/snow-fourth/mc3DDD/internal/sim/world/terrain"
)

// World wraps the chunk store with movement-driven refresh throttling and
// is the mutation/flatten/snapshot entry point for everything outside the
// simulation step.
type World struct {
	store   *ChunkStore
	metrics *Metrics
	log     *log.Logger

	// Observer position at the last streaming refresh.
	refX, refZ float64
	primed     bool

	// rev bumps whenever the visible block/water sets may have changed.
	rev uint64
}

func New(gen Generator, m *Metrics, logger *log.Logger) *World {
	if m == nil {
		m = NewMetrics(nil)
	}
	return &World{
		store:   NewChunkStore(gen, m, logger),
		metrics: m,
		log:     logger,
	}
}

// Tick re-runs the streaming pass when the observer has moved more than
// RefreshThreshold blocks along either axis since the last refresh. That
// bounds streaming cost to roughly once per half chunk of travel instead
// of every frame.
func (w *World) Tick(observerX, observerZ float64) {
	if w.primed &&
		math.Abs(observerX-w.refX) <= RefreshThreshold &&
		math.Abs(observerZ-w.refZ) <= RefreshThreshold {
		return
	}
	w.store.RefreshLoaded(int(math.Floor(observerX)), int(math.Floor(observerZ)))
	w.refX = observerX
	w.refZ = observerZ
	w.primed = true
	w.rev++
}

func (w *World) Place(pos Vec3i, m terrain.Material) {
	if w.store.Place(pos, m) {
		w.rev++
	}
}

func (w *World) Remove(pos Vec3i) {
	if w.store.Remove(pos) {
		w.rev++
	}
}

func (w *World) Blocks() []Block     { return w.store.AllBlocks() }
func (w *World) Water() []WaterBlock { return w.store.AllWater() }

// Rev identifies the current visible state; consumers resend flattened
// lists only when it changes.
func (w *World) Rev() uint64 { return w.rev }

// Reset drops all chunks, for starting a fresh world with no snapshot. The
// next Tick re-streams around the observer.
func (w *World) Reset() {
	w.store.Reset()
	w.primed = false
	w.rev++
}
