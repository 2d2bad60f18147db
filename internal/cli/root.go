// Package cli wires the fairsched commands.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string

	logger *logrus.Entry
)

// NewRootCmd creates the root cobra command for the fairsched CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fairsched",
		Short: "fairsched — fairness-aware tiered CPU scheduler simulator",
		Long: "fairsched runs a CFS-style scheduler core with tiered fallback " +
			"(cfs → priority → round-robin → emergency) against synthetic workloads.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, err := logrus.ParseLevel(flagLogLevel)
			if err != nil {
				level = logrus.InfoLevel
			}
			l := logrus.New()
			l.SetLevel(level)
			logger = logrus.NewEntry(l)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config.yml (defaults apply when empty)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(),
		newDetectCmd(),
	)

	return root
}
