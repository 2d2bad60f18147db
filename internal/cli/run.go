package cli

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"fairsched/internal/sched"
	"fairsched/internal/sim"
)

func newRunCmd() *cobra.Command {
	var (
		freePages   uint64
		ticks       int64
		taskSpecs   []string
		taskCount   int
		tracePath   string
		metricsAddr string
		paced       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scheduling simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := sched.Load(flagConfig)

			wl := sim.DefaultWorkload(taskCount)
			if len(taskSpecs) > 0 {
				parsed, err := sim.ParseWorkload(taskSpecs)
				if err != nil {
					return err
				}
				wl = parsed
			}

			reg := prometheus.NewRegistry()
			metrics := sched.NewMetrics(reg)
			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
				go func() {
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						logger.WithError(err).Warn("metrics listener stopped")
					}
				}()
			}

			casc := sched.NewCascade(cfg,
				func() uint64 { return freePages },
				sched.WithLogger(logger),
				sched.WithMetrics(metrics),
			)
			if err := casc.Init(); err != nil {
				return fmt.Errorf("scheduler cascade: %w", err)
			}
			defer casc.Shutdown()

			opts := []sim.RunnerOption{sim.WithRunnerLogger(logger)}
			if tracePath != "" {
				tracer, err := sim.NewTracer(tracePath)
				if err != nil {
					return err
				}
				defer tracer.Close()
				opts = append(opts, sim.WithTracer(tracer))
			}
			if paced {
				opts = append(opts, sim.WithPacing())
			}

			runner := sim.NewRunner(casc, cfg, opts...)
			report, err := runner.Run(cmd.Context(), wl, ticks)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.String())
			return nil
		},
	}

	cmd.Flags().Uint64Var(&freePages, "free-pages", 200, "Free physical page count used for tier detection")
	cmd.Flags().Int64Var(&ticks, "ticks", 10000, "Number of timer ticks to simulate")
	cmd.Flags().StringArrayVar(&taskSpecs, "task", nil, "Task spec pid:nice[:budget-ticks] (repeatable)")
	cmd.Flags().IntVar(&taskCount, "tasks", 4, "Synthetic task count when no --task is given")
	cmd.Flags().StringVar(&tracePath, "trace", "", "Write a CSV event trace to this path")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address during the run")
	cmd.Flags().BoolVar(&paced, "paced", false, "Pace ticks with a real timer instead of running flat out")

	return cmd
}
