package combat

import (
	"errors"
	"fmt"
	"math"

	"github.com/udisondev/combatcore/internal/model"
)

// ErrInvalidRequest is returned for damage requests rejected before computation.
// Rejection has no side effects: no roll, no delivery.
var ErrInvalidRequest = errors.New("invalid damage request")

// origin tells direct requests from ones synthesized by a periodic tick.
type origin uint8

const (
	originDirect origin = iota
	originTick
)

// ValidateRequest checks a direct request.
//
// Checks:
//   - BaseDamage finite and >= 0
//   - CritChance in [0, 1]
//   - Kind is declared
//   - Source != Target (self-damage only comes from damage-over-time ticks)
func ValidateRequest(req model.DamageRequest) error {
	return validateRequest(req, originDirect)
}

func validateRequest(req model.DamageRequest, from origin) error {
	if err := validateAmounts(req); err != nil {
		return err
	}

	if from == originDirect && req.Source == req.Target {
		return fmt.Errorf("%w: %s targets itself", ErrInvalidRequest, req.Source)
	}

	return nil
}

// validateAmounts checks the numeric fields the calculator consumes.
func validateAmounts(req model.DamageRequest) error {
	if math.IsNaN(req.BaseDamage) || math.IsInf(req.BaseDamage, 0) {
		return fmt.Errorf("%w: base damage is not finite", ErrInvalidRequest)
	}
	if req.BaseDamage < 0 {
		return fmt.Errorf("%w: base damage %.2f is negative", ErrInvalidRequest, req.BaseDamage)
	}
	if math.IsNaN(req.CritChance) || req.CritChance < 0 || req.CritChance > 1 {
		return fmt.Errorf("%w: crit chance %.3f outside [0, 1]", ErrInvalidRequest, req.CritChance)
	}
	if !req.Kind.IsValid() {
		return fmt.Errorf("%w: unknown damage kind %d", ErrInvalidRequest, req.Kind)
	}
	return nil
}
