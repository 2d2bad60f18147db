package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fairsched/internal/sched"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <free-pages>",
		Short: "Print the scheduler tier selected for a free-page count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("free-pages: %w", err)
			}
			tier := sched.DetectBestScheduler(pages)
			fmt.Fprintln(cmd.OutOrStdout(), tier.String())
			return nil
		},
	}
}
