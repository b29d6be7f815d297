package effect

import (
	"fmt"

	"github.com/udisondev/combatcore/internal/model"
)

// ApplyStatus tells whether Apply created an instance or refreshed one.
type ApplyStatus uint8

const (
	NewlyApplied ApplyStatus = iota + 1
	Refreshed
)

func (s ApplyStatus) String() string {
	switch s {
	case NewlyApplied:
		return "NewlyApplied"
	case Refreshed:
		return "Refreshed"
	default:
		return "Unknown"
	}
}

// ApplyResult is the outcome of Apply.
// Stacks is the stack count after the call (1 for NewlyApplied).
type ApplyResult struct {
	Status ApplyStatus
	Stacks uint32
}

// targetEffects holds one slot per Kind.
type targetEffects struct {
	slots [kindCount]*activeEffect
}

func (te *targetEffects) count() int {
	n := 0
	for _, ae := range te.slots {
		if ae != nil {
			n++
		}
	}
	return n
}

// Registry tracks active status effects per target and advances them each
// simulation step.
//
// At most one instance exists per (target, kind). Re-applying a kind refreshes
// its duration and bumps the stack counter up to MaxStacks.
//
// Not safe for concurrent use: the owner serializes Apply, Remove and Advance.
// Observer callbacks may call back into the registry.
type Registry struct {
	observer Observer

	// Target keys are never dropped once seen; only their slots empty out.
	targets map[model.TargetHandle]*targetEffects
	// order keeps first-seen order so Advance visits targets deterministically.
	order []model.TargetHandle

	// step counts Advance calls; instances created mid-Advance wait for the next one.
	step uint64
}

// NewRegistry creates an empty Registry reporting to observer.
// A nil observer is replaced with NopObserver.
func NewRegistry(observer Observer) *Registry {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Registry{
		observer: observer,
		targets:  make(map[model.TargetHandle]*targetEffects),
	}
}

// Apply attaches def to target.
//
// No instance of def.Kind on target → a new one with full duration and one
// stack; OnApplied is emitted. Existing instance → its duration is reset to
// def.Duration (not extended), its definition is replaced by def and its stack
// count grows by one, capped at def.MaxStacks; OnStacked is emitted with the
// new count. Accumulated tick time is kept across a refresh.
func (r *Registry) Apply(target model.TargetHandle, def Definition) (ApplyResult, error) {
	if err := def.Validate(); err != nil {
		return ApplyResult{}, err
	}

	te := r.ensureTarget(target)
	if ae := te.slots[def.Kind]; ae != nil {
		ae.def = def
		ae.remaining = def.Duration
		if ae.stacks < def.MaxStacks {
			ae.stacks++
		} else {
			ae.stacks = def.MaxStacks
		}
		if !def.HasPeriodicTick {
			ae.sinceTick = 0
		}

		r.observer.OnStacked(target, def.Kind, ae.stacks)
		return ApplyResult{Status: Refreshed, Stacks: ae.stacks}, nil
	}

	te.slots[def.Kind] = &activeEffect{
		def:       def,
		remaining: def.Duration,
		stacks:    1,
		born:      r.step,
	}

	r.observer.OnApplied(target, def)
	return ApplyResult{Status: NewlyApplied, Stacks: 1}, nil
}

// Remove drops the kind instance from target.
// Returns false (and emits nothing) if none was active.
func (r *Registry) Remove(target model.TargetHandle, kind Kind) bool {
	te, ok := r.targets[target]
	if !ok || !kind.IsValid() || te.slots[kind] == nil {
		return false
	}

	te.slots[kind] = nil
	r.observer.OnRemoved(target, kind)
	return true
}

// Clear removes every active effect from target, emitting OnRemoved for each.
// Returns the number of effects removed.
func (r *Registry) Clear(target model.TargetHandle) int {
	removed := 0
	for _, kind := range Kinds {
		if r.Remove(target, kind) {
			removed++
		}
	}
	return removed
}

// Advance moves every active effect forward by dt seconds.
//
// Per effect: duration drops by dt; periodic effects accumulate dt and emit
// one OnTick per crossed interval (a 2.5s step over a 1s interval ticks
// twice); then an effect whose duration ran out is removed with OnRemoved.
// An effect still ticks on the step it expires.
//
// Negative or non-finite dt is rejected and nothing changes.
func (r *Registry) Advance(dt float64) error {
	if !isFinite(dt) || dt < 0 {
		return fmt.Errorf("%w: dt=%v", ErrInvalidStep, dt)
	}

	r.step++

	// Targets first seen during this step are appended past n and wait.
	n := len(r.order)
	for i := 0; i < n; i++ {
		target := r.order[i]
		te := r.targets[target]

		for _, kind := range Kinds {
			ae := te.slots[kind]
			if ae == nil || ae.born == r.step {
				continue
			}

			ticks := ae.advance(dt)
			for range ticks {
				r.observer.OnTick(target, ae.tickRequest(target))
				if te.slots[kind] != ae {
					break
				}
			}

			// Removed or replaced from inside an observer callback.
			if te.slots[kind] != ae {
				continue
			}

			if ae.expired() {
				te.slots[kind] = nil
				r.observer.OnRemoved(target, kind)
			}
		}
	}

	return nil
}

// Active returns snapshots of target's active effects in kind order.
func (r *Registry) Active(target model.TargetHandle) []Snapshot {
	te, ok := r.targets[target]
	if !ok {
		return nil
	}

	result := make([]Snapshot, 0, te.count())
	for _, ae := range te.slots {
		if ae != nil {
			result = append(result, ae.snapshot())
		}
	}
	return result
}

// Get returns the snapshot of the kind instance on target, if active.
func (r *Registry) Get(target model.TargetHandle, kind Kind) (Snapshot, bool) {
	ae := r.lookup(target, kind)
	if ae == nil {
		return Snapshot{}, false
	}
	return ae.snapshot(), true
}

// Has reports whether target has an active instance of kind.
func (r *Registry) Has(target model.TargetHandle, kind Kind) bool {
	return r.lookup(target, kind) != nil
}

// StackCount returns the stack count of kind on target, 0 when inactive.
func (r *Registry) StackCount(target model.TargetHandle, kind Kind) uint32 {
	if ae := r.lookup(target, kind); ae != nil {
		return ae.stacks
	}
	return 0
}

// IsStunned reports whether target is under an active Stun.
func (r *Registry) IsStunned(target model.TargetHandle) bool {
	return r.Has(target, KindStun)
}

// SpeedMultiplier returns the movement speed factor for target:
// 1 - SlowAmount of the active Slow, clamped to [0, 1]; 1 without Slow.
func (r *Registry) SpeedMultiplier(target model.TargetHandle) float64 {
	ae := r.lookup(target, KindSlow)
	if ae == nil {
		return 1
	}

	mul := 1 - ae.def.SlowAmount
	if mul < 0 {
		return 0
	}
	if mul > 1 {
		return 1
	}
	return mul
}

// Tracked reports whether target has ever held an effect.
func (r *Registry) Tracked(target model.TargetHandle) bool {
	_, ok := r.targets[target]
	return ok
}

// TargetCount returns the number of targets ever seen.
func (r *Registry) TargetCount() int {
	return len(r.order)
}

func (r *Registry) lookup(target model.TargetHandle, kind Kind) *activeEffect {
	te, ok := r.targets[target]
	if !ok || !kind.IsValid() {
		return nil
	}
	return te.slots[kind]
}

func (r *Registry) ensureTarget(target model.TargetHandle) *targetEffects {
	te, ok := r.targets[target]
	if !ok {
		te = &targetEffects{}
		r.targets[target] = te
		r.order = append(r.order, target)
	}
	return te
}
