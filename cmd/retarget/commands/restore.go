package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retarget/cmd/retarget/opts"
	"github.com/walteh/retarget/pkg/config"
	"github.com/walteh/retarget/pkg/operation"
	"github.com/walteh/retarget/pkg/status"
)

// NewRestoreCmd creates the restore command
func NewRestoreCmd(opts *opts.RootOpts) *cobra.Command {
	var overrides config.Overrides

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Put back files saved by apply --backup",
		Long: `Restore finds .retarget.bak files under the scan roots and copies each
one back over the file it was taken from, removing the backup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.Ctx(cmd.Context()).With().Str("command", "restore").Logger()
			ctx := logger.WithContext(cmd.Context())

			cfg, err := opts.LoadConfig(ctx, overrides)
			if err != nil {
				return err
			}

			op := operation.NewRestoreOperation(operation.Options{
				Config:    cfg,
				StatusMgr: status.New(".", &logger),
				Console:   opts.Console,
			})

			if err := operation.NewRunner(&logger, true).Run(ctx, op); err != nil {
				return errors.Errorf("running restore: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&overrides.Roots, "root", nil, "directory to scan, repeatable")
	cmd.Flags().StringSliceVar(&overrides.Extensions, "ext", nil, "restore backups of files with these suffixes")
	cmd.Flags().StringSliceVar(&overrides.ExcludeDirs, "exclude", nil, "directory names to skip at any depth")

	return cmd
}
