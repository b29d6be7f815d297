package combat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/combatcore/internal/config"
	"github.com/udisondev/combatcore/internal/game/effect"
	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/rng"
)

const (
	attacker model.TargetHandle = 10
	victim   model.TargetHandle = 20
)

// damageSink копит доставленный урон для одной цели.
type damageSink struct {
	total int32
	hits  []int32
}

func (s *damageSink) deliver(amount int32) {
	s.total += amount
	s.hits = append(s.hits, amount)
}

type notification struct {
	op     string
	target model.TargetHandle
	kind   effect.Kind
	stacks uint32
}

type forwardObserver struct {
	seen []notification
}

func (o *forwardObserver) OnApplied(target model.TargetHandle, def effect.Definition) {
	o.seen = append(o.seen, notification{op: "applied", target: target, kind: def.Kind})
}

func (o *forwardObserver) OnRemoved(target model.TargetHandle, kind effect.Kind) {
	o.seen = append(o.seen, notification{op: "removed", target: target, kind: kind})
}

func (o *forwardObserver) OnStacked(target model.TargetHandle, kind effect.Kind, stacks uint32) {
	o.seen = append(o.seen, notification{op: "stacked", target: target, kind: kind, stacks: stacks})
}

func (o *forwardObserver) OnTick(target model.TargetHandle, _ model.DamageRequest) {
	o.seen = append(o.seen, notification{op: "tick", target: target, kind: effect.KindDamageOverTime})
}

func newTestCoordinator(t *testing.T, src rng.Source) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(config.DefaultDamageTuning(), src)
	require.NoError(t, err)
	return c
}

func dotDefinition(magnitude, duration, interval float64) effect.Definition {
	return effect.Definition{
		Kind:            effect.KindDamageOverTime,
		Magnitude:       magnitude,
		Duration:        duration,
		MaxStacks:       3,
		HasPeriodicTick: true,
		TickInterval:    interval,
	}
}

func TestNewCoordinator_Errors(t *testing.T) {
	_, err := NewCoordinator(config.DefaultDamageTuning(), nil)
	require.Error(t, err)

	bad := config.DefaultDamageTuning()
	bad.StatusMultiplier = 0
	_, err = NewCoordinator(bad, rng.Constant(0))
	require.ErrorIs(t, err, config.ErrInvalidTuning)
}

func TestResolveDamage_Delivers(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))
	sink := &damageSink{}
	c.RegisterDeliveryCallback(victim, sink.deliver)

	amount, err := c.ResolveDamage(model.DamageRequest{Source: attacker, Target: victim, BaseDamage: 40, Kind: model.DamageSkill})
	require.NoError(t, err)

	assert.Equal(t, int32(60), amount)
	assert.Equal(t, []int32{60}, sink.hits)
}

func TestResolveDamage_NoCallbackStillSucceeds(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))

	amount, err := c.ResolveDamage(model.DamageRequest{Source: attacker, Target: victim, BaseDamage: 40})
	require.NoError(t, err)
	assert.Equal(t, int32(40), amount)
}

func TestResolveDamage_RejectsSelfTarget(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))
	sink := &damageSink{}
	c.RegisterDeliveryCallback(victim, sink.deliver)

	for _, kind := range []model.DamageKind{model.DamageNormal, model.DamageSkill, model.DamageStatus} {
		_, err := c.ResolveDamage(model.DamageRequest{Source: victim, Target: victim, BaseDamage: 10, Kind: kind})
		require.ErrorIs(t, err, ErrInvalidRequest, kind.String())
	}
	assert.Empty(t, sink.hits, "rejected requests never reach the callback")
}

func TestResolveDamage_RejectsNegative(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))
	sink := &damageSink{}
	c.RegisterDeliveryCallback(victim, sink.deliver)

	_, err := c.ResolveDamage(model.DamageRequest{Source: attacker, Target: victim, BaseDamage: -1})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, sink.hits)
}

func TestRegisterDeliveryCallback_LastWriteWins(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))
	first, second := &damageSink{}, &damageSink{}

	c.RegisterDeliveryCallback(victim, first.deliver)
	c.RegisterDeliveryCallback(victim, second.deliver)

	_, err := c.ResolveDamage(model.DamageRequest{Source: attacker, Target: victim, BaseDamage: 5})
	require.NoError(t, err)

	assert.Empty(t, first.hits)
	assert.Equal(t, []int32{5}, second.hits)
}

func TestUnregisterDeliveryCallback(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))
	sink := &damageSink{}

	c.RegisterDeliveryCallback(victim, sink.deliver)
	require.True(t, c.HasDeliveryCallback(victim))

	c.UnregisterDeliveryCallback(victim)
	assert.False(t, c.HasDeliveryCallback(victim))
	c.UnregisterDeliveryCallback(victim) // no-op

	_, err := c.ResolveDamage(model.DamageRequest{Source: attacker, Target: victim, BaseDamage: 5})
	require.NoError(t, err)
	assert.Empty(t, sink.hits)

	c.RegisterDeliveryCallback(victim, sink.deliver)
	c.RegisterDeliveryCallback(victim, nil)
	assert.False(t, c.HasDeliveryCallback(victim), "nil callback unregisters")
}

func TestEndToEnd_DamageOverTime(t *testing.T) {
	// 0.5 draws: crit roll misses (chance 0), variance lands on 1.0
	c := newTestCoordinator(t, rng.Constant(0.5))
	sink := &damageSink{}
	c.RegisterDeliveryCallback(victim, sink.deliver)

	res, err := c.ApplyStatusEffect(victim, dotDefinition(10, 3, 1))
	require.NoError(t, err)
	require.Equal(t, effect.NewlyApplied, res.Status)

	for range 3 {
		require.NoError(t, c.Advance(1.0))
	}

	assert.Equal(t, []int32{8, 8, 8}, sink.hits, "round(10 × 0.8 × 1.0) per tick")
	assert.Equal(t, int32(24), sink.total)
	assert.Empty(t, c.ActiveEffects(victim), "expired exactly at the third second")

	require.NoError(t, c.Advance(1.0))
	assert.Len(t, sink.hits, 3)
}

func TestAdvance_TickCatchUpDeliversTwice(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))
	sink := &damageSink{}
	c.RegisterDeliveryCallback(victim, sink.deliver)

	_, err := c.ApplyStatusEffect(victim, dotDefinition(10, 10, 1))
	require.NoError(t, err)

	require.NoError(t, c.Advance(2.5))
	assert.Len(t, sink.hits, 2)
}

func TestAdvance_HitObserverMarksTicks(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))
	var hits []HitResult
	c.SetHitObserver(func(r HitResult) { hits = append(hits, r) })

	_, err := c.ApplyStatusEffect(victim, dotDefinition(10, 5, 1))
	require.NoError(t, err)
	require.NoError(t, c.Advance(1))

	_, err = c.ResolveDamage(model.DamageRequest{
		Source: attacker, Target: victim, BaseDamage: 10,
		CausesKnockback: true, KnockbackDir: model.Vec2{X: 1},
	})
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, HitResult{
		Source: victim, Target: victim, Kind: model.DamageStatus, Amount: 8, FromTick: true,
	}, hits[0])
	assert.Equal(t, HitResult{
		Source: attacker, Target: victim, Kind: model.DamageNormal, Amount: 10,
		Knockback: true, KnockbackDir: model.Vec2{X: 1},
	}, hits[1])
}

func TestAdvance_NegativeStep(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))

	_, err := c.ApplyStatusEffect(victim, dotDefinition(10, 5, 1))
	require.NoError(t, err)

	err = c.Advance(-1)
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.ErrorIs(t, err, effect.ErrInvalidStep)

	snaps := c.ActiveEffects(victim)
	require.Len(t, snaps, 1)
	assert.Equal(t, 5.0, snaps[0].RemainingDuration)
}

func TestAdvance_TickErrorsReturnedAfterStep(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))
	sink := &damageSink{}
	c.RegisterDeliveryCallback(attacker, sink.deliver)

	// overflows int32 once multiplied out
	_, err := c.ApplyStatusEffect(victim, dotDefinition(1e12, 5, 1))
	require.NoError(t, err)
	_, err = c.ApplyStatusEffect(attacker, dotDefinition(10, 5, 1))
	require.NoError(t, err)

	err = c.Advance(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Equal(t, []int32{8}, sink.hits, "other targets still tick")

	require.Error(t, c.Advance(1))
	assert.Len(t, sink.hits, 2)
}

func TestApplyStatusEffect_ForwardsToObserver(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))
	obs := &forwardObserver{}
	c.SetObserver(obs)

	stun := effect.Definition{Kind: effect.KindStun, Duration: 1, MaxStacks: 2}

	_, err := c.ApplyStatusEffect(victim, stun)
	require.NoError(t, err)
	res, err := c.ApplyStatusEffect(victim, stun)
	require.NoError(t, err)
	assert.Equal(t, effect.ApplyResult{Status: effect.Refreshed, Stacks: 2}, res)
	assert.Equal(t, uint32(2), c.StackCount(victim, effect.KindStun))
	assert.True(t, c.IsStunned(victim))

	assert.True(t, c.RemoveStatusEffect(victim, effect.KindStun))
	assert.False(t, c.RemoveStatusEffect(victim, effect.KindStun))

	assert.Equal(t, []notification{
		{op: "applied", target: victim, kind: effect.KindStun},
		{op: "stacked", target: victim, kind: effect.KindStun, stacks: 2},
		{op: "removed", target: victim, kind: effect.KindStun},
	}, obs.seen)
}

func TestApplyStatusEffect_InvalidDefinition(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))

	_, err := c.ApplyStatusEffect(victim, effect.Definition{Kind: effect.KindSlow, Duration: 0, MaxStacks: 1})
	require.ErrorIs(t, err, effect.ErrInvalidDefinition)
	assert.Empty(t, c.ActiveEffects(victim))
}

func TestClearStatusEffects(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))

	_, err := c.ApplyStatusEffect(victim, effect.Definition{Kind: effect.KindSlow, SlowAmount: 0.25, Duration: 2, MaxStacks: 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, c.SpeedMultiplier(victim), 1e-12)

	assert.Equal(t, 1, c.ClearStatusEffects(victim))
	assert.Equal(t, 1.0, c.SpeedMultiplier(victim))
}

func TestDeliveryCallback_CanReenter(t *testing.T) {
	c := newTestCoordinator(t, rng.Constant(0.5))
	sink := &damageSink{}

	// the victim dies on the first tick and its effects are cleared
	c.RegisterDeliveryCallback(victim, func(amount int32) {
		sink.deliver(amount)
		c.ClearStatusEffects(victim)
		c.UnregisterDeliveryCallback(victim)
	})

	_, err := c.ApplyStatusEffect(victim, dotDefinition(10, 10, 1))
	require.NoError(t, err)

	require.NoError(t, c.Advance(3))
	assert.Equal(t, []int32{8}, sink.hits)
	assert.Empty(t, c.ActiveEffects(victim))
}
