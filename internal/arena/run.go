package arena

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunAll runs every arena on its own goroutine and returns results in arena
// order. The first failure cancels the remaining arenas.
func RunAll(ctx context.Context, arenas []*Arena, steps int) ([]Result, error) {
	results := make([]Result, len(arenas))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range arenas {
		g.Go(func() error {
			res, err := a.Run(gctx, steps)
			results[i] = res
			if err != nil {
				return fmt.Errorf("arena %d: %w", a.id, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
