package combat

import (
	"fmt"
	"math"

	"github.com/udisondev/combatcore/internal/config"
	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/rng"
)

// Hit is the breakdown of one damage computation.
type Hit struct {
	Amount int32
	Crit   bool
	// Variance is the multiplier drawn from [1-v, 1+v].
	Variance float64
}

// Compute returns the damage amount for req.
// See Calculate for the formula.
func Compute(req model.DamageRequest, tuning config.DamageTuning, src rng.Source) (int32, error) {
	hit, err := Calculate(req, tuning, src)
	if err != nil {
		return 0, err
	}
	return hit.Amount, nil
}

// Calculate computes damage for req: base × crit × kind × variance, rounded.
//
// Steps, in this order (each multiplies the running total):
//  1. base damage
//  2. one crit roll: Uniform01() < CritChance → × CritMultiplier
//  3. kind multiplier: Normal 1.0, Skill SkillMultiplier, Status StatusMultiplier
//  4. variance: × UniformRange(1-VarianceFraction, 1+VarianceFraction)
//  5. math.Round (half away from zero)
//
// Exactly two draws are consumed per call. The result is not clamped: a tiny
// positive amount may round to 0.
func Calculate(req model.DamageRequest, tuning config.DamageTuning, src rng.Source) (Hit, error) {
	if err := validateAmounts(req); err != nil {
		return Hit{}, err
	}

	amount := req.BaseDamage

	crit := src.Uniform01() < req.CritChance
	if crit {
		amount *= tuning.CritMultiplier
	}

	amount *= kindMultiplier(req.Kind, tuning)

	variance := src.UniformRange(1-tuning.VarianceFraction, 1+tuning.VarianceFraction)
	amount *= variance

	rounded := math.Round(amount)
	if rounded > math.MaxInt32 {
		return Hit{}, fmt.Errorf("%w: damage %.0f overflows int32", ErrInvalidRequest, rounded)
	}

	return Hit{
		Amount:   int32(rounded),
		Crit:     crit,
		Variance: variance,
	}, nil
}

// MaxDamage returns the upper bound Calculate can produce for req.
func MaxDamage(req model.DamageRequest, tuning config.DamageTuning) float64 {
	mul := math.Max(1, math.Max(tuning.SkillMultiplier, tuning.StatusMultiplier))
	return req.BaseDamage * tuning.CritMultiplier * mul * (1 + tuning.VarianceFraction)
}

// kindMultiplier maps a damage kind to its tuning multiplier.
func kindMultiplier(kind model.DamageKind, tuning config.DamageTuning) float64 {
	switch kind {
	case model.DamageSkill:
		return tuning.SkillMultiplier
	case model.DamageStatus:
		return tuning.StatusMultiplier
	default:
		return 1.0
	}
}
