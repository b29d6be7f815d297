// Package telemetry logs combat activity through log/slog.
//
// The combat core never logs on its own; hosts plug LogObserver into
// Coordinator.SetObserver and HitLogger into Coordinator.SetHitObserver.
package telemetry

import (
	"log/slog"

	"github.com/udisondev/combatcore/internal/game/combat"
	"github.com/udisondev/combatcore/internal/game/effect"
	"github.com/udisondev/combatcore/internal/model"
)

// LogObserver is an effect.Observer writing lifecycle events at debug level.
type LogObserver struct {
	logger *slog.Logger
}

var _ effect.Observer = (*LogObserver)(nil)

// NewLogObserver creates a LogObserver. A nil logger means slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnApplied(target model.TargetHandle, def effect.Definition) {
	o.logger.Debug("effect applied",
		"target", target,
		"kind", def.Kind,
		"duration", def.Duration,
		"magnitude", def.Magnitude)
}

func (o *LogObserver) OnRemoved(target model.TargetHandle, kind effect.Kind) {
	o.logger.Debug("effect removed", "target", target, "kind", kind)
}

func (o *LogObserver) OnStacked(target model.TargetHandle, kind effect.Kind, stacks uint32) {
	o.logger.Debug("effect stacked", "target", target, "kind", kind, "stacks", stacks)
}

func (o *LogObserver) OnTick(target model.TargetHandle, req model.DamageRequest) {
	o.logger.Debug("effect tick", "target", target, "base", req.BaseDamage)
}

// HitLogger returns a hit observer logging every resolved hit at debug level.
func HitLogger(logger *slog.Logger) func(combat.HitResult) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(r combat.HitResult) {
		logger.Debug("damage resolved",
			"source", r.Source,
			"target", r.Target,
			"kind", r.Kind,
			"amount", r.Amount,
			"crit", r.Crit,
			"tick", r.FromTick,
			"delivered", r.Delivered)
	}
}
