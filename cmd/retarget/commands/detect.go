package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retarget/cmd/retarget/opts"
	"github.com/walteh/retarget/pkg/config"
	"github.com/walteh/retarget/pkg/hostip"
)

// NewDetectIPCmd creates the detect-ip command
func NewDetectIPCmd(opts *opts.RootOpts) *cobra.Command {
	var overrides config.Overrides

	cmd := &cobra.Command{
		Use:   "detect-ip",
		Short: "Print the address apply would use for ${ip}",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := opts.LoadConfig(ctx, overrides)
			if err != nil {
				return err
			}

			discoveryOpts, err := cfg.Discovery.Options()
			if err != nil {
				return errors.Errorf("discovery options: %w", err)
			}

			result := hostip.NewResolver(discoveryOpts).Discover(ctx)
			if result.Err != nil {
				opts.Console.Warningf("address discovery failed, using %s: %v", result, result.Err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", result, result.Source)
			return err
		},
	}

	cmd.Flags().StringVar(&overrides.IP, "ip", "", "static address, reported as is when valid")

	return cmd
}
