package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cpsim/app"
	"github.com/kilianp07/cpsim/infra/logger"
	"github.com/kilianp07/cpsim/infra/mqtt"
	"github.com/kilianp07/cpsim/pkg/report"
)

var (
	dryRun     bool
	reportJSON bool
	reportHTML string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the cohort sweep against the broker",
	RunE:  run,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "simulate against an in-memory channel instead of the broker")
	runCmd.Flags().BoolVar(&reportJSON, "json", false, "print the sweep report as JSON")
	runCmd.Flags().StringVar(&reportHTML, "html", "", "also write the sweep report as an HTML chart to this file")
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var opts []app.Option
	if dryRun {
		opts = append(opts, app.WithConnector(mqtt.NewMockChannel()))
	}
	svc, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	res, runErr := svc.Run(ctx)
	if res == nil {
		return runErr
	}
	rep := report.Build(res)
	if l := svc.Latency(); l.Count > 0 || l.Failed > 0 {
		rep.Latency = &report.Latency{Count: l.Count, Failed: l.Failed, P50: l.P50, P95: l.P95, P99: l.P99, Max: l.Max}
	}
	if reportHTML != "" {
		if err := writeHTML(reportHTML, rep); err != nil {
			return err
		}
	}
	out := cmd.OutOrStdout()
	if reportJSON {
		if err := report.WriteJSON(out, rep); err != nil {
			return err
		}
	} else if err := report.Write(out, rep, report.IsTerminal(out)); err != nil {
		return err
	}
	return runErr
}

func writeHTML(path string, rep report.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return report.WriteHTML(f, rep)
}
