package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/retarget/cmd/retarget/commands"
	"github.com/walteh/retarget/cmd/retarget/opts"
	"github.com/walteh/retarget/pkg/config"
	"github.com/walteh/retarget/pkg/log"
)

// newRootCmd builds the command tree. Options are filled in before any
// subcommand runs, once flags are parsed.
func newRootCmd() *cobra.Command {
	rootOpts := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "retarget",
		Short: "Point hard-coded addresses in a source tree at this machine",
		Long: `retarget walks one or more directory trees and rewrites configured
address and host strings in text files, typically replacing a stale
development IP with the address of the current machine.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd.Context(), rootOpts.Debug)
			cmd.SetContext(ctx)

			rootOpts.ConfigRequired = cmd.Flags().Changed("config")
			rootOpts.Console = log.NewWithZerolog(cmd.OutOrStdout(), *zerolog.Ctx(ctx))
			return nil
		},
	}

	addRootFlags(cmd, rootOpts)

	cmd.AddCommand(
		commands.NewApplyCmd(rootOpts),
		commands.NewCheckCmd(rootOpts),
		commands.NewRestoreCmd(rootOpts),
		commands.NewDetectIPCmd(rootOpts),
		newVersionCmd(),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", config.DefaultPath, "config file path")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
}
