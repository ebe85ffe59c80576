package world

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math"
	"time"

	"github.com/snow-fourth/mc3DDD/internal/protocol"
	"github.com/snow-fourth/mc3DDD/internal/sim/physics"
	"github.com/snow-fourth/mc3DDD/internal/sim/world/terrain"
)

// pickRange is how far, in blocks, a look-direction PLACE/REMOVE reaches.
const pickRange = 8.0

// SnapshotStore persists and retrieves whole-world captures by slot name.
// A missing slot surfaces as an error wrapping fs.ErrNotExist.
type SnapshotStore interface {
	Save(slot string, tick uint64, snap WorldSnapshot) error
	Load(slot string) (WorldSnapshot, error)
}

type EngineConfig struct {
	WorldID    string
	TickRateHz int
	Seed       int64

	Movement physics.MoverConfig

	SpawnX   float64
	SpawnZ   float64
	SpawnYaw float64
}

// Engine owns every piece of simulation state and runs it on one
// goroutine: world, collision index, mover, the client's held input. The
// transport talks to it only through channels.
type Engine struct {
	cfg     EngineConfig
	world   *World
	res     *physics.Resolver
	mover   *physics.Mover
	store   SnapshotStore
	metrics *Metrics
	log     *log.Logger

	inbox  chan []byte
	attach chan attachReq
	stop   chan struct{}

	client   chan<- []byte
	sessions int

	tick     uint64
	sentRev  uint64
	haveSent bool

	input physics.Input
	pitch float64
}

type attachReq struct {
	send  chan<- []byte
	reply chan protocol.WelcomeMsg
}

func NewEngine(cfg EngineConfig, gen Generator, store SnapshotStore, m *Metrics, logger *log.Logger) *Engine {
	if m == nil {
		m = NewMetrics(nil)
	}
	e := &Engine{
		cfg:     cfg,
		world:   New(gen, m, logger),
		res:     physics.NewResolver(),
		store:   store,
		metrics: m,
		log:     logger,
		inbox:   make(chan []byte, 256),
		attach:  make(chan attachReq),
		stop:    make(chan struct{}),
	}

	// Spawn at eye height over the terrain surface, before any chunk is
	// loaded; the first tick streams the surroundings in.
	spawnY := float64(gen.HeightAt(int(math.Floor(cfg.SpawnX)), int(math.Floor(cfg.SpawnZ)))+1) + physics.EyeOffset
	e.mover = physics.NewMover(e.res, cfg.Movement, physics.Vec3{X: cfg.SpawnX, Y: spawnY, Z: cfg.SpawnZ})
	e.input.Yaw = cfg.SpawnYaw
	return e
}

// Inbox is where the transport pushes raw client messages.
func (e *Engine) Inbox() chan<- []byte { return e.inbox }

// Attach registers the client's outbound channel and returns the WELCOME
// payload. A reconnecting client replaces the previous channel.
func (e *Engine) Attach(send chan<- []byte) protocol.WelcomeMsg {
	req := attachReq{send: send, reply: make(chan protocol.WelcomeMsg, 1)}
	select {
	case e.attach <- req:
		return <-req.reply
	case <-e.stop:
		return protocol.WelcomeMsg{}
	}
}

func (e *Engine) Stop() { close(e.stop) }

// Restore replaces the world from a snapshot. Only safe before Run starts;
// in-session loads go through the LOAD message instead.
func (e *Engine) Restore(snap WorldSnapshot) error {
	return e.world.Restore(snap)
}

// Run is the simulation loop. A frame-time accumulator converts ticker
// jitter into zero or more fixed-dt steps: a sub-interval frame steps
// nothing, a long stall steps several times to catch up.
func (e *Engine) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(e.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending [][]byte
	last := time.Now()
	var acc time.Duration

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stop:
			return nil
		case req := <-e.attach:
			e.handleAttach(req)
		case raw := <-e.inbox:
			pending = append(pending, raw)
		case now := <-ticker.C:
			acc += now.Sub(last)
			last = now
			// Never catch up by more than a second of sim time.
			if limit := time.Duration(e.cfg.TickRateHz) * interval; acc > limit {
				acc = limit
			}
			for acc >= interval {
				e.step(pending, interval)
				pending = pending[:0]
				acc -= interval
			}
		}
	}
}

// StepOnce advances the simulation by a single fixed tick, applying the
// given raw messages first. Deterministic path for tests and replays.
func (e *Engine) StepOnce(msgs [][]byte) uint64 {
	e.step(msgs, time.Second/time.Duration(e.cfg.TickRateHz))
	return e.tick
}

func (e *Engine) step(msgs [][]byte, dt time.Duration) {
	start := time.Now()
	e.tick++

	for _, raw := range msgs {
		e.apply(raw)
	}

	e.mover.Step(e.input, dt.Seconds())
	e.world.Tick(e.mover.Pos.X, e.mover.Pos.Z)
	e.rebuildIndex()

	e.send(e.stateMsg())
	if rev := e.world.Rev(); !e.haveSent || rev != e.sentRev {
		e.send(e.voxelsMsg(rev))
		e.sentRev = rev
		e.haveSent = true
	}

	e.metrics.StepDuration.Observe(time.Since(start).Seconds())
}

// rebuildIndex feeds the flattened solid set to the collision resolver.
// Happens every tick: mutations and streaming both change the set.
func (e *Engine) rebuildIndex() {
	blocks := e.world.Blocks()
	cells := make([]physics.Cell, len(blocks))
	for i, b := range blocks {
		cells[i] = physics.Cell{X: b.Position.X, Y: b.Position.Y, Z: b.Position.Z}
	}
	e.res.Rebuild(cells)
}

func (e *Engine) apply(raw []byte) {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		e.sendError(protocol.ErrProtoBadRequest, "malformed JSON")
		return
	}

	switch base.Type {
	case protocol.TypeInput:
		var msg protocol.InputMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			e.sendError(protocol.ErrProtoBadRequest, "bad INPUT")
			return
		}
		e.input = physics.Input{
			Forward: msg.Keys.Forward,
			Back:    msg.Keys.Back,
			Left:    msg.Keys.Left,
			Right:   msg.Keys.Right,
			Jump:    msg.Keys.Jump,
			Fly:     msg.Keys.Fly,
			Up:      msg.Keys.Up,
			Down:    msg.Keys.Down,
			Yaw:     msg.Yaw,
		}
		e.pitch = msg.Pitch

	case protocol.TypePlace:
		var msg protocol.PlaceMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			e.sendError(protocol.ErrProtoBadRequest, "bad PLACE")
			return
		}
		m, ok := terrain.ParseMaterial(msg.Material)
		if !ok || !m.Solid() {
			e.metrics.RejectedMutations.Inc()
			e.sendError(protocol.ErrBadRequest, fmt.Sprintf("material %q", msg.Material))
			return
		}
		pos, ok := e.targetPos(msg.Position, true)
		if !ok {
			e.sendError(protocol.ErrInvalidTarget, "nothing in reach")
			return
		}
		e.world.Place(pos, m)

	case protocol.TypeRemove:
		var msg protocol.RemoveMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			e.sendError(protocol.ErrProtoBadRequest, "bad REMOVE")
			return
		}
		pos, ok := e.targetPos(msg.Position, false)
		if !ok {
			e.sendError(protocol.ErrInvalidTarget, "nothing in reach")
			return
		}
		e.world.Remove(pos)

	case protocol.TypeSave:
		var msg protocol.SaveMsg
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Slot == "" {
			e.sendError(protocol.ErrProtoBadRequest, "bad SAVE")
			return
		}
		e.handleSave(msg.Slot)

	case protocol.TypeLoad:
		var msg protocol.LoadMsg
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Slot == "" {
			e.sendError(protocol.ErrProtoBadRequest, "bad LOAD")
			return
		}
		e.handleLoad(msg.Slot)

	default:
		e.sendError(protocol.ErrProtoBadRequest, fmt.Sprintf("unexpected type %q", base.Type))
	}
}

// targetPos resolves a mutation target: the explicit position when given,
// otherwise a ray pick along the look direction. Placing targets the face
// cell of the hit, removing the hit cell itself.
func (e *Engine) targetPos(explicit *protocol.BlockPos, face bool) (Vec3i, bool) {
	if explicit != nil {
		return Vec3i{X: explicit.X, Y: explicit.Y, Z: explicit.Z}, true
	}
	hit, ok := e.res.Raycast(e.mover.Pos, e.lookDir(), pickRange)
	if !ok {
		return Vec3i{}, false
	}
	c := hit.Cell
	if face {
		c = hit.Face
	}
	return Vec3i{X: c.X, Y: c.Y, Z: c.Z}, true
}

func (e *Engine) lookDir() physics.Vec3 {
	sy, cy := math.Sin(e.input.Yaw), math.Cos(e.input.Yaw)
	sp, cp := math.Sin(e.pitch), math.Cos(e.pitch)
	return physics.Vec3{X: -sy * cp, Y: sp, Z: -cy * cp}
}

func (e *Engine) handleSave(slot string) {
	if e.store == nil {
		e.sendError(protocol.ErrInternal, "persistence disabled")
		return
	}
	if err := e.store.Save(slot, e.tick, e.world.Snapshot()); err != nil {
		if e.log != nil {
			e.log.Printf("save %q: %v", slot, err)
		}
		e.sendError(protocol.ErrInternal, "save failed")
	}
}

func (e *Engine) handleLoad(slot string) {
	if e.store == nil {
		e.sendError(protocol.ErrInternal, "persistence disabled")
		return
	}
	snap, err := e.store.Load(slot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			e.sendError(protocol.ErrSlotNotFound, slot)
			return
		}
		if e.log != nil {
			e.log.Printf("load %q: %v", slot, err)
		}
		e.sendError(protocol.ErrSnapshotCorrupt, slot)
		return
	}
	if err := e.world.Restore(snap); err != nil {
		e.sendError(protocol.ErrSnapshotCorrupt, slot)
	}
}

func (e *Engine) handleAttach(req attachReq) {
	e.client = req.send
	e.sessions++
	// Force a full VOXELS frame on the next tick; the new client has
	// nothing yet regardless of the revision counter.
	e.haveSent = false
	req.reply <- protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       fmt.Sprintf("S%d", e.sessions),
		WorldParams: protocol.WorldParams{
			TickRateHz:     e.cfg.TickRateHz,
			ChunkSize:      ChunkSize,
			RenderDistance: RenderDistance,
			SeaLevel:       terrain.SeaLevel,
			MaxHeight:      terrain.MaxHeight,
			Seed:           e.cfg.Seed,
		},
		Spawn: protocol.SpawnState{
			Position: [3]float64{e.mover.Pos.X, e.mover.Pos.Y, e.mover.Pos.Z},
			Yaw:      e.input.Yaw,
		},
	}
}

func (e *Engine) stateMsg() protocol.StateMsg {
	return protocol.StateMsg{
		Type:         protocol.TypeState,
		Tick:         e.tick,
		Position:     [3]float64{e.mover.Pos.X, e.mover.Pos.Y, e.mover.Pos.Z},
		Yaw:          e.input.Yaw,
		Grounded:     e.mover.Grounded,
		Flying:       e.mover.Flying,
		LoadedChunks: e.world.store.LoadedChunkCount(),
	}
}

func (e *Engine) voxelsMsg(rev uint64) protocol.VoxelsMsg {
	blocks := e.world.Blocks()
	water := e.world.Water()
	msg := protocol.VoxelsMsg{
		Type:   protocol.TypeVoxels,
		Tick:   e.tick,
		Rev:    rev,
		Blocks: make([]protocol.WireBlock, len(blocks)),
		Water:  make([]protocol.WireWater, len(water)),
	}
	for i, b := range blocks {
		msg.Blocks[i] = protocol.WireBlock{
			Position: protocol.BlockPos{X: b.Position.X, Y: b.Position.Y, Z: b.Position.Z},
			Material: b.Material.String(),
		}
	}
	for i, w := range water {
		msg.Water[i] = protocol.WireWater{
			Position: protocol.BlockPos{X: w.Position.X, Y: w.Position.Y, Z: w.Position.Z},
			Level:    w.Level,
		}
	}
	return msg
}

func (e *Engine) sendError(code, message string) {
	e.send(protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: message})
}

// send marshals and hands the message to the client channel without
// blocking the loop. A slow client loses frames, not the simulation.
func (e *Engine) send(msg any) {
	if e.client == nil {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		if e.log != nil {
			e.log.Printf("marshal outbound: %v", err)
		}
		return
	}
	select {
	case e.client <- b:
	default:
	}
}
