package main

import (
	"context"

	"github.com/rs/zerolog"
)

// setupLogging picks the level for the stderr logger carried in ctx.
// Console notices already cover normal runs, so only warnings get
// through unless debug is set.
func setupLogging(ctx context.Context, debug bool) context.Context {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.Ctx(ctx).Level(level)
	return logger.WithContext(ctx)
}
