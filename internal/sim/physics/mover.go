package physics

import "math"

// Input is one tick's decoded movement intent. Key bindings and pointer
// plumbing live with the client; only the composed flags arrive here.
type Input struct {
	Forward bool
	Back    bool
	Left    bool
	Right   bool

	Jump bool

	// Fly mode is active while held: gravity is bypassed and Up/Down drive
	// the vertical axis directly.
	Fly  bool
	Up   bool
	Down bool

	// Yaw is the look direction on the XZ plane, radians. Forward moves
	// along it.
	Yaw float64
}

// MoverConfig holds the movement constants, in block units and seconds.
type MoverConfig struct {
	MoveSpeed   float64
	FlySpeed    float64
	Gravity     float64
	JumpImpulse float64
}

// Mover sequences movement, gravity and collision per tick: compose a
// candidate velocity from input, have the resolver correct it axis by
// axis, then settle the grounded/airborne state against the ground probe.
type Mover struct {
	res *Resolver
	cfg MoverConfig

	Pos      Vec3
	VelY     float64
	Grounded bool
	Flying   bool
}

func NewMover(res *Resolver, cfg MoverConfig, start Vec3) *Mover {
	return &Mover{res: res, cfg: cfg, Pos: start}
}

// Step advances the observer by dt seconds under the given input.
func (m *Mover) Step(in Input, dt float64) {
	dx, dz := m.horizontal(in, dt)

	var dy float64
	m.Flying = in.Fly
	if m.Flying {
		// Fly mode drives the vertical axis directly; no accumulation.
		m.VelY = 0
		m.Grounded = false
		if in.Up {
			dy += m.cfg.FlySpeed * dt
		}
		if in.Down {
			dy -= m.cfg.FlySpeed * dt
		}
	} else {
		if in.Jump && m.Grounded {
			m.VelY = m.cfg.JumpImpulse
			m.Grounded = false
		}
		m.VelY -= m.cfg.Gravity * dt
		dy = m.VelY * dt
	}

	corrected := m.res.Resolve(m.Pos, Vec3{X: dx, Y: dy, Z: dz})

	if !m.Flying {
		ground := m.res.GroundHeightAt(corrected.X, corrected.Z)
		switch {
		case m.VelY <= 0 && corrected.Y <= ground:
			corrected.Y = ground
			m.VelY = 0
			m.Grounded = true
		case dy < 0 && corrected.Y == m.Pos.Y:
			// The downward step was rejected by a block under the box.
			// Settle on it instead of hovering a fraction above.
			m.VelY = 0
			m.Grounded = true
			if ground <= corrected.Y && corrected.Y-ground < 1 {
				corrected.Y = ground
			}
		case corrected.Y > ground:
			m.Grounded = false
		}
	}

	m.Pos = corrected
}

// horizontal composes the directional flags into a world-space step,
// normalized so a diagonal never outruns a single axis.
func (m *Mover) horizontal(in Input, dt float64) (dx, dz float64) {
	var fwd, strafe float64
	if in.Forward {
		fwd++
	}
	if in.Back {
		fwd--
	}
	if in.Right {
		strafe++
	}
	if in.Left {
		strafe--
	}
	if fwd == 0 && strafe == 0 {
		return 0, 0
	}

	n := math.Hypot(fwd, strafe)
	fwd /= n
	strafe /= n

	sin, cos := math.Sin(in.Yaw), math.Cos(in.Yaw)
	// Forward is -Z at yaw 0; strafing right is +X.
	dirX := strafe*cos - fwd*sin
	dirZ := -fwd*cos - strafe*sin

	speed := m.cfg.MoveSpeed * dt
	return dirX * speed, dirZ * speed
}
