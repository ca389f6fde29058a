package api

import (
	"context"

	"github.com/banshee-data/vision.safety/internal/engine"
)

// Controller changes screens on behalf of HTTP clients.
type Controller interface {
	Select(ctx context.Context, screen engine.Screen) error
	BackToMenu(ctx context.Context) error
}

// LoopController runs screen changes on the engine loop goroutine.
type LoopController struct {
	Loop *engine.Loop
}

func (c LoopController) Select(ctx context.Context, screen engine.Screen) error {
	var selectErr error
	if err := c.Loop.Do(ctx, func(e *engine.Engine) { selectErr = e.Select(screen) }); err != nil {
		return err
	}
	return selectErr
}

func (c LoopController) BackToMenu(ctx context.Context) error {
	return c.Loop.Do(ctx, func(e *engine.Engine) { e.BackToMenu() })
}
