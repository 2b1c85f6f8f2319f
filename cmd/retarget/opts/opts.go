package opts

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retarget/pkg/config"
	"github.com/walteh/retarget/pkg/log"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	// ConfigRequired is set when the config path was given explicitly,
	// making a missing file an error
	ConfigRequired bool
	Debug          bool
	Console        *log.Logger
}

// LoadConfig loads the config file and layers o on top of it
func (r *RootOpts) LoadConfig(ctx context.Context, o config.Overrides) (*config.Config, error) {
	cfg, err := config.LoadOptional(ctx, r.ConfigFile, r.ConfigRequired)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}
	if err := cfg.Merge(o); err != nil {
		return nil, errors.Errorf("applying flags: %w", err)
	}
	return cfg, nil
}
