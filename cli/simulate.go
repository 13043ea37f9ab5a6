package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sliverarmory/luahook"
	"github.com/sliverarmory/luahook/luahooktest"
)

var (
	metricsOut string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>",
	Short: "Replay a scripted sequence of lua_dofile calls against an emulated interpreter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario, err := luahooktest.LoadScenario(args[0])
		if err != nil {
			return err
		}

		rt := scenario.NewRuntime()
		hook := luahook.New(rt,
			luahook.WithConfig(scenario.Config),
			luahook.WithLogger(newLogger(cmd)),
			luahook.WithNativeHelper(1),
		)

		report, err := scenario.Run(cmd.Context(), hook, rt)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "scenario:   %s\n", report.Name)
		fmt.Fprintf(out, "calls:      %d (%d failed)\n", report.Calls, report.Failed)
		fmt.Fprintf(out, "injections: %d\n", report.Injections)
		fmt.Fprintf(out, "state:      %s\n", report.State)

		if metricsOut != "" {
			if err := prometheus.WriteToTextfile(metricsOut, hook.Registry()); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
		}
		return report.Check(scenario.Expect)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write a Prometheus textfile snapshot after the run")
}
