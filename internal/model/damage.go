package model

// DamageKind classifies a damage source; each kind has its own multiplier.
type DamageKind uint8

const (
	DamageNormal DamageKind = iota
	DamageSkill
	DamageStatus
)

// String returns the kind name.
func (k DamageKind) String() string {
	switch k {
	case DamageNormal:
		return "normal"
	case DamageSkill:
		return "skill"
	case DamageStatus:
		return "status"
	default:
		return "unknown"
	}
}

// IsValid reports whether k is one of the declared kinds.
func (k DamageKind) IsValid() bool {
	return k <= DamageStatus
}

// DamageRequest describes one damage resolution.
// Value type, immutable once built; consumed once per resolution call.
type DamageRequest struct {
	Source          TargetHandle
	Target          TargetHandle
	BaseDamage      float64 // >= 0
	Kind            DamageKind
	CritChance      float64 // [0, 1]
	CausesKnockback bool
	KnockbackDir    Vec2
}
