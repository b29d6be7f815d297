package effect

import (
	"errors"
	"fmt"
	"math"

	"github.com/udisondev/combatcore/internal/config"
	"github.com/udisondev/combatcore/internal/model"
)

// timeEpsilon absorbs float drift from summing many small steps
// (ten 0.1s steps must cross a 1s tick boundary).
const timeEpsilon = 1e-9

var (
	// ErrInvalidDefinition is returned by Apply for malformed definitions.
	// The registry is not touched when it is returned.
	ErrInvalidDefinition = errors.New("invalid status effect definition")

	// ErrInvalidStep is returned by Advance for a negative or non-finite dt.
	ErrInvalidStep = errors.New("invalid simulation step")
)

// Kind is the closed set of status effect kinds.
// New behaviour means a new variant here, not a new implementation type.
type Kind uint8

const (
	KindStun Kind = iota
	KindSlow
	KindDamageOverTime

	kindCount
)

// Kinds lists every kind in slot order.
var Kinds = [kindCount]Kind{KindStun, KindSlow, KindDamageOverTime}

func (k Kind) String() string {
	switch k {
	case KindStun:
		return "Stun"
	case KindSlow:
		return "Slow"
	case KindDamageOverTime:
		return "DamageOverTime"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsValid reports whether k is a declared kind.
func (k Kind) IsValid() bool {
	return k < kindCount
}

// Definition is the template an effect is applied from.
type Definition struct {
	Kind            Kind
	Magnitude       float64 // per-tick base damage for periodic effects
	SlowAmount      float64 // fraction of speed removed while active
	Duration        float64 // seconds, > 0
	MaxStacks       uint32  // >= 1
	HasPeriodicTick bool
	TickInterval    float64 // seconds, > 0 when HasPeriodicTick
}

// NewDefinition builds a definition of kind with timing taken from defaults.
// DamageOverTime ticks every DefaultTickInterval with Magnitude damage.
// Slow removes Magnitude (a fraction) of the target's speed.
func NewDefinition(kind Kind, magnitude float64, timing config.EffectTiming) Definition {
	def := Definition{
		Kind:      kind,
		Magnitude: magnitude,
		Duration:  timing.DefaultDuration,
		MaxStacks: timing.DefaultMaxStacks,
	}
	switch kind {
	case KindDamageOverTime:
		def.HasPeriodicTick = true
		def.TickInterval = timing.DefaultTickInterval
	case KindSlow:
		def.SlowAmount = magnitude
	}
	return def
}

// Validate reports why d cannot be applied, wrapping ErrInvalidDefinition.
func (d Definition) Validate() error {
	if !d.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidDefinition, uint8(d.Kind))
	}
	if !isFinite(d.Duration) || d.Duration <= 0 {
		return fmt.Errorf("%w: %s duration %v must be positive", ErrInvalidDefinition, d.Kind, d.Duration)
	}
	if d.MaxStacks == 0 {
		return fmt.Errorf("%w: %s max stacks must be >= 1", ErrInvalidDefinition, d.Kind)
	}
	if !isFinite(d.Magnitude) || !isFinite(d.SlowAmount) {
		return fmt.Errorf("%w: %s magnitude is not finite", ErrInvalidDefinition, d.Kind)
	}
	if d.HasPeriodicTick {
		if !isFinite(d.TickInterval) || d.TickInterval <= 0 {
			return fmt.Errorf("%w: %s tick interval %v must be positive", ErrInvalidDefinition, d.Kind, d.TickInterval)
		}
		if d.Magnitude < 0 {
			return fmt.Errorf("%w: %s periodic magnitude %v is negative", ErrInvalidDefinition, d.Kind, d.Magnitude)
		}
	}
	return nil
}

// activeEffect is a running instance, one per (target, kind).
type activeEffect struct {
	def       Definition
	remaining float64
	stacks    uint32
	sinceTick float64

	// born is the registry step during which the instance was created.
	born uint64
}

// advance decrements remaining time by dt and accumulates tick time.
// Returns how many tick boundaries were crossed.
func (ae *activeEffect) advance(dt float64) int {
	ae.remaining -= dt
	if !ae.def.HasPeriodicTick {
		return 0
	}

	ae.sinceTick += dt
	ticks := 0
	for ae.sinceTick >= ae.def.TickInterval-timeEpsilon {
		ae.sinceTick -= ae.def.TickInterval
		ticks++
	}
	if ae.sinceTick < 0 {
		ae.sinceTick = 0
	}
	return ticks
}

// expired returns true once the remaining duration has run out.
func (ae *activeEffect) expired() bool {
	return ae.remaining <= timeEpsilon
}

// tickRequest builds the damage request emitted for one periodic tick.
func (ae *activeEffect) tickRequest(target model.TargetHandle) model.DamageRequest {
	return model.DamageRequest{
		Source:     target,
		Target:     target,
		BaseDamage: ae.def.Magnitude,
		Kind:       model.DamageStatus,
	}
}

// Snapshot is a read-only copy of an active effect.
type Snapshot struct {
	Definition        Definition
	RemainingDuration float64
	StackCount        uint32
	TimeSinceLastTick float64
}

func (ae *activeEffect) snapshot() Snapshot {
	return Snapshot{
		Definition:        ae.def,
		RemainingDuration: ae.remaining,
		StackCount:        ae.stacks,
		TimeSinceLastTick: ae.sinceTick,
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
