package combat

import (
	"errors"
	"fmt"

	"github.com/udisondev/combatcore/internal/config"
	"github.com/udisondev/combatcore/internal/game/effect"
	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/rng"
)

// DeliveryFunc receives the computed damage for one target.
// Implemented by the health/presentation side.
type DeliveryFunc func(amount int32)

// HitResult describes one resolved damage request, for observation.
type HitResult struct {
	Source       model.TargetHandle
	Target       model.TargetHandle
	Kind         model.DamageKind
	Amount       int32
	Crit         bool
	FromTick     bool // synthesized from a damage-over-time tick
	Delivered    bool // a delivery callback was registered and invoked
	Knockback    bool
	KnockbackDir model.Vec2
}

// Coordinator routes damage requests through the calculator to per-target
// delivery callbacks, and owns the status effect registry.
//
// It is the registry's observer: every periodic tick turns into a self-inflicted
// Status damage request resolved on the spot, so one Advance may deliver damage
// several times before returning.
//
// Not safe for concurrent use. Hosts with several goroutines serialize
// ResolveDamage, effect calls and Advance (one combat goroutine per coordinator).
type Coordinator struct {
	tuning   config.DamageTuning
	src      rng.Source
	registry *effect.Registry

	deliveries map[model.TargetHandle]DeliveryFunc

	// forward receives every registry notification after the coordinator
	// handled it (telemetry). nil when unused.
	forward effect.Observer

	// hitObserver is told about every successful resolution (nil when unused).
	hitObserver func(HitResult)

	// tickErrs collects tick resolution failures during one Advance.
	tickErrs []error
}

// NewCoordinator creates a Coordinator with its own effect registry.
// tuning is validated once here and read-only afterwards.
func NewCoordinator(tuning config.DamageTuning, src rng.Source) (*Coordinator, error) {
	if err := tuning.Validate(); err != nil {
		return nil, fmt.Errorf("new coordinator: %w", err)
	}
	if src == nil {
		return nil, errors.New("new coordinator: random source is nil")
	}

	c := &Coordinator{
		tuning:     tuning,
		src:        src,
		deliveries: make(map[model.TargetHandle]DeliveryFunc),
	}
	c.registry = effect.NewRegistry(c)
	return c, nil
}

// SetObserver sets an external observer for effect lifecycle notifications.
func (c *Coordinator) SetObserver(obs effect.Observer) {
	c.forward = obs
}

// SetHitObserver sets callback for observing resolved hits.
func (c *Coordinator) SetHitObserver(fn func(HitResult)) {
	c.hitObserver = fn
}

// Tuning returns the damage tuning in use.
func (c *Coordinator) Tuning() config.DamageTuning {
	return c.tuning
}

// RegisterDeliveryCallback sets the delivery callback for target.
// A second registration replaces the first. A nil fn unregisters.
func (c *Coordinator) RegisterDeliveryCallback(target model.TargetHandle, fn DeliveryFunc) {
	if fn == nil {
		delete(c.deliveries, target)
		return
	}
	c.deliveries[target] = fn
}

// UnregisterDeliveryCallback removes target's delivery callback, if any.
func (c *Coordinator) UnregisterDeliveryCallback(target model.TargetHandle) {
	delete(c.deliveries, target)
}

// HasDeliveryCallback reports whether target has a delivery callback.
func (c *Coordinator) HasDeliveryCallback(target model.TargetHandle) bool {
	_, ok := c.deliveries[target]
	return ok
}

// ResolveDamage validates a direct request, computes the amount and hands it
// to target's delivery callback.
//
// Without a registered callback the call still succeeds and returns the
// amount; delivery is best-effort. Requests where Source == Target are
// rejected with ErrInvalidRequest: self-damage only comes from ticks.
func (c *Coordinator) ResolveDamage(req model.DamageRequest) (int32, error) {
	return c.resolve(req, originDirect)
}

func (c *Coordinator) resolve(req model.DamageRequest, from origin) (int32, error) {
	if err := validateRequest(req, from); err != nil {
		return 0, err
	}

	hit, err := Calculate(req, c.tuning, c.src)
	if err != nil {
		return 0, err
	}

	deliver, ok := c.deliveries[req.Target]
	if ok {
		deliver(hit.Amount)
	}

	if c.hitObserver != nil {
		c.hitObserver(HitResult{
			Source:       req.Source,
			Target:       req.Target,
			Kind:         req.Kind,
			Amount:       hit.Amount,
			Crit:         hit.Crit,
			FromTick:     from == originTick,
			Delivered:    ok,
			Knockback:    req.CausesKnockback,
			KnockbackDir: req.KnockbackDir,
		})
	}

	return hit.Amount, nil
}

// ApplyStatusEffect applies def to target. See effect.Registry.Apply.
func (c *Coordinator) ApplyStatusEffect(target model.TargetHandle, def effect.Definition) (effect.ApplyResult, error) {
	return c.registry.Apply(target, def)
}

// RemoveStatusEffect removes the kind instance from target.
func (c *Coordinator) RemoveStatusEffect(target model.TargetHandle, kind effect.Kind) bool {
	return c.registry.Remove(target, kind)
}

// ClearStatusEffects removes all of target's effects. Returns how many were removed.
func (c *Coordinator) ClearStatusEffects(target model.TargetHandle) int {
	return c.registry.Clear(target)
}

// ActiveEffects returns snapshots of target's effects.
func (c *Coordinator) ActiveEffects(target model.TargetHandle) []effect.Snapshot {
	return c.registry.Active(target)
}

// StackCount returns the stack count of kind on target.
func (c *Coordinator) StackCount(target model.TargetHandle, kind effect.Kind) uint32 {
	return c.registry.StackCount(target, kind)
}

// IsStunned reports whether target is stunned.
func (c *Coordinator) IsStunned(target model.TargetHandle) bool {
	return c.registry.IsStunned(target)
}

// SpeedMultiplier returns target's movement factor under Slow.
func (c *Coordinator) SpeedMultiplier(target model.TargetHandle) float64 {
	return c.registry.SpeedMultiplier(target)
}

// Advance steps all status effects by dt seconds.
//
// Ticks are resolved as they happen, within this call. A negative dt is
// rejected (ErrInvalidRequest and effect.ErrInvalidStep both match) and
// nothing changes. Tick resolutions that failed are returned joined once the
// step has completed; the step itself is never cut short.
func (c *Coordinator) Advance(dt float64) error {
	c.tickErrs = nil

	if err := c.registry.Advance(dt); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if len(c.tickErrs) > 0 {
		err := errors.Join(c.tickErrs...)
		c.tickErrs = nil
		return fmt.Errorf("advance: %w", err)
	}
	return nil
}

// OnApplied implements effect.Observer.
func (c *Coordinator) OnApplied(target model.TargetHandle, def effect.Definition) {
	if c.forward != nil {
		c.forward.OnApplied(target, def)
	}
}

// OnRemoved implements effect.Observer.
func (c *Coordinator) OnRemoved(target model.TargetHandle, kind effect.Kind) {
	if c.forward != nil {
		c.forward.OnRemoved(target, kind)
	}
}

// OnStacked implements effect.Observer.
func (c *Coordinator) OnStacked(target model.TargetHandle, kind effect.Kind, stacks uint32) {
	if c.forward != nil {
		c.forward.OnStacked(target, kind, stacks)
	}
}

// OnTick implements effect.Observer.
// The tick becomes a self-inflicted Status request with no crit chance.
func (c *Coordinator) OnTick(target model.TargetHandle, req model.DamageRequest) {
	tick := model.DamageRequest{
		Source:     target,
		Target:     target,
		BaseDamage: req.BaseDamage,
		Kind:       model.DamageStatus,
		CritChance: 0,
	}

	if _, err := c.resolve(tick, originTick); err != nil {
		c.tickErrs = append(c.tickErrs, fmt.Errorf("tick on %s: %w", target, err))
	}

	if c.forward != nil {
		c.forward.OnTick(target, tick)
	}
}
