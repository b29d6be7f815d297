package model

import "fmt"

// TargetHandle identifies a combat participant.
// Opaque to the combat core: only compared and hashed, never dereferenced.
// The participant registry that issues handles owns their lifecycle.
type TargetHandle uint64

// NoTarget is the zero handle. Never issued to a live participant.
const NoTarget TargetHandle = 0

// String returns a short debug representation.
func (h TargetHandle) String() string {
	return fmt.Sprintf("target#%d", uint64(h))
}

// Vec2 is a 2D direction/vector. Value type.
type Vec2 struct {
	X float64
	Y float64
}

// IsZero reports whether both components are zero.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}
