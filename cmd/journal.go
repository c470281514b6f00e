package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cpsim/config"
	"github.com/kilianp07/cpsim/core/factory"
	"github.com/kilianp07/cpsim/core/journal"
	"github.com/kilianp07/cpsim/core/model"
	"github.com/kilianp07/cpsim/infra/metrics"
)

var (
	journalPath   string
	journalTag    string
	journalType   string
	journalFailed bool
	journalSince  time.Duration
	journalJSON   bool
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the per-message journal written by the journal metrics sink",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := journalPath
		if path == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if path, err = journalPathOf(cfg); err != nil {
				return err
			}
		}
		store, err := journal.NewRotatingJSONLStore(path, 1, 1, 1)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		q := journal.Query{Tag: journalTag, Type: model.MessageType(journalType), FailedOnly: journalFailed}
		if journalSince > 0 {
			q.Start = time.Now().Add(-journalSince)
		}
		recs, err := store.Query(context.Background(), q)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if journalJSON {
			enc := json.NewEncoder(out)
			for _, r := range recs {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tTAG\tSEQ\tTYPE\tRESULT")
		for _, r := range recs {
			res := "ok"
			if !r.OK {
				res = r.Error
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.Timestamp.Format(time.RFC3339Nano), r.Tag, r.Seq, r.Type, res)
		}
		return tw.Flush()
	},
}

// journalPathOf returns the path of the configured journal sink.
func journalPathOf(cfg *config.Config) (string, error) {
	for _, s := range cfg.Metrics.Sinks {
		if s.Type != "journal" {
			continue
		}
		var jc metrics.JournalConfig
		if err := factory.Decode(s.Conf, &jc); err != nil {
			return "", fmt.Errorf("journal sink: %w", err)
		}
		jc.SetDefaults()
		return jc.Path, nil
	}
	return "", fmt.Errorf("no journal sink configured; pass --path")
}

func init() {
	journalCmd.Flags().StringVar(&journalPath, "path", "", "journal file (default from the journal sink config)")
	journalCmd.Flags().StringVar(&journalTag, "tag", "", "only this charge point tag")
	journalCmd.Flags().StringVar(&journalType, "type", "", "only this OCPP action, e.g. MeterValues")
	journalCmd.Flags().BoolVar(&journalFailed, "failed", false, "only failed publishes")
	journalCmd.Flags().DurationVar(&journalSince, "since", 0, "only records newer than this")
	journalCmd.Flags().BoolVar(&journalJSON, "json", false, "print JSONL")
	rootCmd.AddCommand(journalCmd)
}
