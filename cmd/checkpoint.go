package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cpsim/core/checkpoint"
	"github.com/kilianp07/cpsim/pkg/report"
)

var (
	historyLimit   int
	checkpointJSON bool
	checkpointHTML string
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Checkpoint commands",
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the last sweep checkpoint, or the sweep history",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()

		var cps []checkpoint.Checkpoint
		if historyLimit != 0 {
			if cfg.Checkpoint.HistoryDB == "" {
				return fmt.Errorf("--history needs checkpoint.history_db")
			}
			db, err := checkpoint.NewSQLiteStore(cfg.Checkpoint.HistoryDB)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			if cps, err = db.List(ctx, historyLimit); err != nil {
				return err
			}
		} else {
			cp, err := checkpoint.NewFileStore(cfg.Checkpoint.Path).Load(ctx)
			if errors.Is(err, checkpoint.ErrNotFound) {
				return fmt.Errorf("no checkpoint at %s", cfg.Checkpoint.Path)
			}
			if err != nil {
				return err
			}
			cps = append(cps, *cp)
		}

		if len(cps) == 0 {
			return fmt.Errorf("no sweeps recorded in %s", cfg.Checkpoint.HistoryDB)
		}
		if checkpointHTML != "" {
			if err := writeHTML(checkpointHTML, report.FromCheckpoint(cps[0])); err != nil {
				return err
			}
		}
		out := cmd.OutOrStdout()
		for i, cp := range cps {
			rep := report.FromCheckpoint(cp)
			if checkpointJSON {
				err = report.WriteJSON(out, rep)
			} else {
				if i > 0 {
					fmt.Fprintln(out)
				}
				err = report.Write(out, rep, report.IsTerminal(out))
			}
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	checkpointShowCmd.Flags().IntVar(&historyLimit, "history", 0, "show the last N sweeps from the history database (-1 for all)")
	checkpointShowCmd.Flags().BoolVar(&checkpointJSON, "json", false, "print as JSON")
	checkpointShowCmd.Flags().StringVar(&checkpointHTML, "html", "", "write the newest checkpoint as an HTML chart to this file")
	checkpointCmd.AddCommand(checkpointShowCmd)
	rootCmd.AddCommand(checkpointCmd)
}
