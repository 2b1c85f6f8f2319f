package operation

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retarget/pkg/charset"
	"github.com/walteh/retarget/pkg/config"
	"github.com/walteh/retarget/pkg/hostip"
	"github.com/walteh/retarget/pkg/text"
)

// 🌐 Resolver finds the replacement address
type Resolver interface {
	Discover(ctx context.Context) hostip.Result
}

// 📋 Plan is everything fixed once per run before any file is touched
type Plan struct {
	// Target is the discovered address, zero when no rule uses ${ip}
	Target hostip.Result
	// Rules are expanded and in configured order
	Rules []text.ReplacementRule
	// Chain is the ordered decode fallback
	Chain charset.Chain
}

// 🏗️ Prepare discovers the target address, expands rule templates and
// builds the decode chain. A nil resolver is built from cfg.Discovery.
func Prepare(ctx context.Context, cfg *config.Config, resolver Resolver) (*Plan, error) {
	logger := zerolog.Ctx(ctx)

	if len(cfg.Rules) == 0 {
		return nil, ErrNoRules
	}

	chain, err := charset.NewChain(cfg.Encodings...)
	if err != nil {
		return nil, errors.Errorf("building decode chain: %w", err)
	}

	needsIP, err := cfg.NeedsIP()
	if err != nil {
		return nil, errors.Errorf("inspecting rule templates: %w", err)
	}

	plan := &Plan{Chain: chain}
	vars := text.Vars{Env: text.EnvVars()}

	if needsIP {
		if resolver == nil {
			opts, err := cfg.Discovery.Options()
			if err != nil {
				return nil, errors.Errorf("discovery options: %w", err)
			}
			resolver = hostip.NewResolver(opts)
		}
		plan.Target = resolver.Discover(ctx)
		vars.IP = plan.Target.String()
		logger.Debug().Str("ip", plan.Target.String()).Str("source", string(plan.Target.Source)).Msg("target resolved")
	} else {
		logger.Debug().Msg("no rule references ip, skipping discovery")
	}

	rules, err := cfg.ReplacementRules(vars)
	if err != nil {
		return nil, errors.Errorf("expanding rules: %w", err)
	}

	replacer := text.NewSimpleTextReplacer()
	if err := replacer.ValidateRules(rules); err != nil {
		return nil, errors.Errorf("validating rules: %w", err)
	}
	plan.Rules = rules

	return plan, nil
}
