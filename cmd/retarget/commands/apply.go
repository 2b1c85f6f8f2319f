package commands

import (
	"github.com/spf13/cobra"

	"github.com/walteh/retarget/cmd/retarget/opts"
	"github.com/walteh/retarget/pkg/operation"
)

// NewApplyCmd creates the apply command
func NewApplyCmd(opts *opts.RootOpts) *cobra.Command {
	flags := &rewriteFlags{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Rewrite configured addresses in place",
		Long: `Apply discovers the address of this machine (when a rule uses ${ip}),
then walks every scan root and rewrites matching files.
Files are decoded with the configured encodings and written back as UTF-8.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd.Context(), opts, "apply", operation.NewRewriteOperation)
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&flags.overrides.Backup, "backup", false, "keep a .retarget.bak copy of every rewritten file")

	return cmd
}
