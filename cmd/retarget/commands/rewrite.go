package commands

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retarget/cmd/retarget/opts"
	"github.com/walteh/retarget/pkg/config"
	"github.com/walteh/retarget/pkg/operation"
	"github.com/walteh/retarget/pkg/status"
)

// rewriteFlags are shared by apply and check
type rewriteFlags struct {
	overrides  config.Overrides
	reportPath string
	table      bool
}

func (f *rewriteFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringArrayVar(&f.overrides.Roots, "root", nil, "directory to scan, repeatable (default from config, else .)")
	fs.StringSliceVar(&f.overrides.Extensions, "ext", nil, "file suffixes to process, e.g. .ts,.tsx")
	fs.StringSliceVar(&f.overrides.ExcludeDirs, "exclude", nil, "directory names to skip at any depth")
	fs.StringArrayVar(&f.overrides.Replacements, "replace", nil, "extra old=new rule, new may use ${ip}")
	fs.StringVar(&f.overrides.IP, "ip", "", "use this address instead of discovering one")
	fs.StringVar(&f.reportPath, "report", "", "write a JSON or YAML run report to this file")
	fs.BoolVar(&f.table, "table", false, "print a summary table when done")
}

// run loads config, prepares the plan and runs the operation built by newOp
func (f *rewriteFlags) run(ctx context.Context, root *opts.RootOpts, command string, newOp func(operation.Options) operation.Operation) error {
	logger := zerolog.Ctx(ctx).With().Str("command", command).Logger()
	ctx = logger.WithContext(ctx)

	cfg, err := root.LoadConfig(ctx, f.overrides)
	if err != nil {
		return err
	}
	logger.Debug().Stringer("config", cfg).Str("location", cfg.Location()).Msg("configuration ready")

	plan, err := operation.Prepare(ctx, cfg, nil)
	if err != nil {
		return errors.Errorf("preparing run: %w", err)
	}

	op := newOp(operation.Options{
		Config:     cfg,
		Plan:       plan,
		StatusMgr:  status.New(".", &logger),
		Console:    root.Console,
		ReportPath: f.reportPath,
		ShowTable:  f.table,
	})

	if err := operation.NewRunner(&logger, true).Run(ctx, op); err != nil {
		return errors.Errorf("running %s: %w", command, err)
	}
	return nil
}
