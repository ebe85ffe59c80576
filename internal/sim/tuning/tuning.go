package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the server's knob file. Everything in it has a sensible
// default; a missing file means defaults, a present file overrides only
// what it names.
type Tuning struct {
	TickRateHz int   `yaml:"tick_rate_hz"`
	Seed       int64 `yaml:"seed"`

	Movement Movement `yaml:"movement"`

	Spawn Spawn `yaml:"spawn"`
}

// Movement holds the observer movement constants, in blocks and seconds.
type Movement struct {
	MoveSpeed   float64 `yaml:"move_speed"`
	FlySpeed    float64 `yaml:"fly_speed"`
	Gravity     float64 `yaml:"gravity"`
	JumpImpulse float64 `yaml:"jump_impulse"`
}

// Spawn is where a fresh observer starts, before the ground probe settles
// the height.
type Spawn struct {
	X   float64 `yaml:"x"`
	Z   float64 `yaml:"z"`
	Yaw float64 `yaml:"yaw"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz: 60,
		Seed:       1337,
		Movement: Movement{
			MoveSpeed:   4.3,
			FlySpeed:    10,
			Gravity:     24,
			JumpImpulse: 8.2,
		},
		Spawn: Spawn{X: 0.5, Z: 0.5},
	}
}

// Load reads the YAML file over the defaults. A missing path is not an
// error: the defaults come back as-is.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive, got %d", t.TickRateHz)
	}
	if t.Movement.MoveSpeed <= 0 || t.Movement.FlySpeed <= 0 {
		return fmt.Errorf("movement speeds must be positive")
	}
	if t.Movement.Gravity < 0 {
		return fmt.Errorf("gravity must not be negative, got %v", t.Movement.Gravity)
	}
	if t.Movement.JumpImpulse < 0 {
		return fmt.Errorf("jump_impulse must not be negative, got %v", t.Movement.JumpImpulse)
	}
	return nil
}
