package effect

import "github.com/udisondev/combatcore/internal/model"

// Observer receives registry lifecycle notifications.
// Calls are synchronous, on the caller's stack, never buffered or deduplicated.
type Observer interface {
	OnApplied(target model.TargetHandle, def Definition)
	OnRemoved(target model.TargetHandle, kind Kind)
	OnStacked(target model.TargetHandle, kind Kind, stacks uint32)
	OnTick(target model.TargetHandle, req model.DamageRequest)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) OnApplied(model.TargetHandle, Definition)       {}
func (NopObserver) OnRemoved(model.TargetHandle, Kind)             {}
func (NopObserver) OnStacked(model.TargetHandle, Kind, uint32)     {}
func (NopObserver) OnTick(model.TargetHandle, model.DamageRequest) {}
