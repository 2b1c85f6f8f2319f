package commands

import (
	"github.com/spf13/cobra"

	"github.com/walteh/retarget/cmd/retarget/opts"
	"github.com/walteh/retarget/pkg/operation"
)

// NewCheckCmd creates the check command
func NewCheckCmd(opts *opts.RootOpts) *cobra.Command {
	flags := &rewriteFlags{}
	var failOnChange bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Show which files apply would change",
		Long: `Check runs the same scan as apply without writing anything.
With --fail-on-change it exits non-zero when any file would change,
which makes it usable as a CI gate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd.Context(), opts, "check", func(o operation.Options) operation.Operation {
				o.FailOnChange = failOnChange
				return operation.NewCheckOperation(o)
			})
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&failOnChange, "fail-on-change", false, "exit non-zero when any file would change")

	return cmd
}
