package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/udisondev/combatcore/internal/arena"
	"github.com/udisondev/combatcore/internal/config"
	"github.com/udisondev/combatcore/internal/rng"
)

const CombatConfigPath = "config/combat.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := CombatConfigPath
	if p := os.Getenv("COMBAT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadCombat(cfgPath)
	if err != nil {
		return fmt.Errorf("loading combat config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	seed := cfg.Sim.Seed
	if seed == 0 {
		seed, err = rng.NewSeed()
		if err != nil {
			return fmt.Errorf("seeding simulation: %w", err)
		}
	}

	slog.Info("combat simulation starting",
		"config", cfgPath,
		"arenas", cfg.Sim.Arenas,
		"participants", cfg.Sim.Participants,
		"steps", cfg.Sim.Steps,
		"step_seconds", cfg.Sim.StepSeconds,
		"seed", seed)

	arenas := make([]*arena.Arena, 0, cfg.Sim.Arenas)
	for i := range cfg.Sim.Arenas {
		a, err := arena.New(i+1, cfg, seed+uint64(i), slog.Default())
		if err != nil {
			return fmt.Errorf("creating arena: %w", err)
		}
		arenas = append(arenas, a)
	}

	results, err := arena.RunAll(ctx, arenas, cfg.Sim.Steps)
	if err != nil {
		return fmt.Errorf("running arenas: %w", err)
	}

	var damage int64
	kills := 0
	for _, res := range results {
		damage += res.DamageTotal
		kills += res.Kills
	}

	slog.Info("combat simulation finished",
		"arenas", len(results),
		"kills", kills,
		"damage", damage,
		"seed", seed)
	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
