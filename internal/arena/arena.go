// Package arena hosts combat simulations around a combat.Coordinator.
//
// An Arena owns its participants and its coordinator and drives both with a
// fixed timestep. Arenas share nothing, so RunAll can step several of them on
// separate goroutines while each coordinator stays single-threaded.
package arena

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/combatcore/internal/config"
	"github.com/udisondev/combatcore/internal/game/combat"
	"github.com/udisondev/combatcore/internal/game/effect"
	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/rng"
	"github.com/udisondev/combatcore/internal/telemetry"
)

const (
	attackInterval = 1.0 // seconds between actions at full speed

	normalDamage = 20.0
	normalCrit   = 0.10
	skillDamage  = 30.0
	skillCrit    = 0.20

	dotMagnitude  = 6.0
	slowMagnitude = 0.4

	// action roll thresholds: [0, normal) attack, [normal, skill) skill, rest effect
	normalShare = 0.60
	skillShare  = 0.85
)

// Participant is one combatant. HP is reduced by delivered damage.
type Participant struct {
	Handle      model.TargetHandle
	MaxHP       int32
	HP          int32
	Dead        bool
	DamageTaken int64
	HitsTaken   int

	cooldown float64
}

// Result summarizes an arena run.
type Result struct {
	ArenaID     int
	Steps       int
	Elapsed     float64
	Alive       int
	Kills       int
	DamageTotal int64
	TickHits    int
	Crits       int
}

// Arena is a single-threaded combat simulation.
type Arena struct {
	id     int
	dt     float64
	timing config.EffectTiming

	coord  *combat.Coordinator
	picker rng.Source
	logger *slog.Logger

	participants []*Participant
	byHandle     map[model.TargetHandle]*Participant

	result Result
}

// New creates an arena with cfg.Sim.Participants combatants.
// Damage rolls and action picks come from two PCG streams derived from seed,
// so equal seeds replay equal fights.
func New(id int, cfg config.Combat, seed uint64, logger *slog.Logger) (*Arena, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arena %d: %w", id, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("arena", id)

	coord, err := combat.NewCoordinator(cfg.Damage, rng.NewPCG(seed))
	if err != nil {
		return nil, fmt.Errorf("arena %d: %w", id, err)
	}

	a := &Arena{
		id:       id,
		dt:       cfg.Sim.StepSeconds,
		timing:   cfg.Effects,
		coord:    coord,
		picker:   rng.NewPCG(^seed),
		logger:   logger,
		byHandle: make(map[model.TargetHandle]*Participant, cfg.Sim.Participants),
		result:   Result{ArenaID: id},
	}

	coord.SetObserver(telemetry.NewLogObserver(logger))
	hitLog := telemetry.HitLogger(logger)
	coord.SetHitObserver(func(r combat.HitResult) {
		a.result.DamageTotal += int64(r.Amount)
		if r.FromTick {
			a.result.TickHits++
		}
		if r.Crit {
			a.result.Crits++
		}
		hitLog(r)
	})

	for i := range cfg.Sim.Participants {
		a.addParticipant(model.TargetHandle(i+1), cfg.Sim.MaxHP)
	}

	return a, nil
}

func (a *Arena) addParticipant(handle model.TargetHandle, maxHP int32) {
	p := &Participant{
		Handle:   handle,
		MaxHP:    maxHP,
		HP:       maxHP,
		cooldown: a.picker.UniformRange(0, attackInterval),
	}
	a.participants = append(a.participants, p)
	a.byHandle[handle] = p
	a.coord.RegisterDeliveryCallback(handle, func(amount int32) {
		a.takeDamage(p, amount)
	})
}

// takeDamage is the delivery callback body for p.
func (a *Arena) takeDamage(p *Participant, amount int32) {
	if p.Dead {
		return
	}

	p.HP -= amount
	p.DamageTaken += int64(amount)
	p.HitsTaken++

	if p.HP > 0 {
		return
	}

	p.HP = 0
	p.Dead = true
	a.result.Kills++

	// dead participants carry no effects and accept no more damage
	a.coord.ClearStatusEffects(p.Handle)
	a.coord.UnregisterDeliveryCallback(p.Handle)

	a.logger.Info("participant died",
		"target", p.Handle,
		"elapsed", a.result.Elapsed,
		"hits", p.HitsTaken)
}

// Coordinator returns the arena's coordinator.
func (a *Arena) Coordinator() *combat.Coordinator {
	return a.coord
}

// Participant returns the participant with handle, or nil.
func (a *Arena) Participant(handle model.TargetHandle) *Participant {
	return a.byHandle[handle]
}

// Alive returns the number of living participants.
func (a *Arena) Alive() int {
	n := 0
	for _, p := range a.participants {
		if !p.Dead {
			n++
		}
	}
	return n
}

// Step runs one simulation step: every ready participant acts, then status
// effects advance by the arena's timestep.
func (a *Arena) Step() error {
	for _, p := range a.participants {
		if p.Dead || a.coord.IsStunned(p.Handle) {
			continue
		}

		// Slow stretches the time between actions.
		p.cooldown -= a.dt * a.coord.SpeedMultiplier(p.Handle)
		if p.cooldown > 0 {
			continue
		}
		p.cooldown += attackInterval

		target := a.pickTarget(p)
		if target == nil {
			continue
		}
		if err := a.act(p, target); err != nil {
			return fmt.Errorf("arena %d step %d: %w", a.id, a.result.Steps, err)
		}
	}

	if err := a.coord.Advance(a.dt); err != nil {
		return fmt.Errorf("arena %d step %d: %w", a.id, a.result.Steps, err)
	}

	a.result.Steps++
	a.result.Elapsed += a.dt
	return nil
}

// act performs one action of p against target.
func (a *Arena) act(p, target *Participant) error {
	roll := a.picker.Uniform01()

	switch {
	case roll < normalShare:
		_, err := a.coord.ResolveDamage(model.DamageRequest{
			Source:     p.Handle,
			Target:     target.Handle,
			BaseDamage: normalDamage,
			Kind:       model.DamageNormal,
			CritChance: normalCrit,
		})
		return err

	case roll < skillShare:
		_, err := a.coord.ResolveDamage(model.DamageRequest{
			Source:          p.Handle,
			Target:          target.Handle,
			BaseDamage:      skillDamage,
			Kind:            model.DamageSkill,
			CritChance:      skillCrit,
			CausesKnockback: true,
			KnockbackDir:    model.Vec2{X: 1},
		})
		return err

	default:
		kind := effect.Kinds[int(a.picker.Uniform01()*float64(len(effect.Kinds)))%len(effect.Kinds)]
		magnitude := 0.0
		switch kind {
		case effect.KindDamageOverTime:
			magnitude = dotMagnitude
		case effect.KindSlow:
			magnitude = slowMagnitude
		}
		_, err := a.coord.ApplyStatusEffect(target.Handle, effect.NewDefinition(kind, magnitude, a.timing))
		return err
	}
}

// pickTarget returns a random living participant other than p.
func (a *Arena) pickTarget(p *Participant) *Participant {
	alive := make([]*Participant, 0, len(a.participants))
	for _, other := range a.participants {
		if other != p && !other.Dead {
			alive = append(alive, other)
		}
	}
	if len(alive) == 0 {
		return nil
	}
	idx := int(a.picker.Uniform01() * float64(len(alive)))
	if idx >= len(alive) {
		idx = len(alive) - 1
	}
	return alive[idx]
}

// Run steps the arena up to steps times, stopping early once at most one
// participant is alive or ctx is cancelled.
func (a *Arena) Run(ctx context.Context, steps int) (Result, error) {
	for range steps {
		if err := ctx.Err(); err != nil {
			return a.Result(), err
		}
		if a.Alive() <= 1 {
			break
		}
		if err := a.Step(); err != nil {
			return a.Result(), err
		}
	}

	res := a.Result()
	a.logger.Info("arena finished",
		"steps", res.Steps,
		"elapsed", res.Elapsed,
		"alive", res.Alive,
		"kills", res.Kills,
		"damage", res.DamageTotal)
	return res, nil
}

// Result returns the current summary.
func (a *Arena) Result() Result {
	res := a.result
	res.Alive = a.Alive()
	return res
}
