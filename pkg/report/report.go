// Package report summarises a sweep for terminals and files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/cpsim/core/checkpoint"
	"github.com/kilianp07/cpsim/simulator"
)

// Cohort holds the statistics of one cohort.
type Cohort struct {
	Size      int     `json:"size"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	Seconds   float64 `json:"duration_seconds"`
	// Agent run durations in seconds.
	MeanAgent   float64  `json:"mean_agent_seconds"`
	StdDevAgent float64  `json:"stddev_agent_seconds"`
	MaxAgent    float64  `json:"max_agent_seconds"`
	Errors      []string `json:"errors,omitempty"`
}

// Latency is the broker acknowledgment distribution, when measured.
type Latency struct {
	Count  int64         `json:"count"`
	Failed int64         `json:"failed"`
	P50    time.Duration `json:"p50"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Max    time.Duration `json:"max"`
}

// Report is the printable summary of a sweep.
type Report struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Interrupted bool      `json:"interrupted"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	Cohorts     []Cohort  `json:"cohorts"`
	Latency     *Latency  `json:"latency,omitempty"`
}

// Build computes the report of a sweep result.
func Build(res *simulator.Result) Report {
	cp := res.Checkpoint
	r := Report{
		Start:       cp.Start,
		End:         cp.End,
		Interrupted: cp.Interrupted,
		Succeeded:   cp.Succeeded,
		Failed:      cp.Failed,
	}
	for _, c := range res.Cohorts {
		durations := make([]float64, len(c.Agents))
		var errs []string
		for i, a := range c.Agents {
			durations[i] = a.Duration.Seconds()
			if a.Err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", a.Tag, a.Err))
			}
		}
		rc := Cohort{
			Size:      c.Size,
			Succeeded: c.Succeeded(),
			Failed:    c.Failed(),
			Seconds:   c.Duration.Seconds(),
			Errors:    errs,
		}
		if len(durations) > 0 {
			rc.MeanAgent, rc.StdDevAgent = stat.MeanStdDev(durations, nil)
			rc.MaxAgent = durations[0]
			for _, d := range durations[1:] {
				rc.MaxAgent = max(rc.MaxAgent, d)
			}
		}
		if len(durations) < 2 {
			rc.StdDevAgent = 0
		}
		r.Cohorts = append(r.Cohorts, rc)
	}
	return r
}

// FromCheckpoint builds a report from a persisted checkpoint. Per-agent
// statistics are not available there.
func FromCheckpoint(cp checkpoint.Checkpoint) Report {
	r := Report{
		Start:       cp.Start,
		End:         cp.End,
		Interrupted: cp.Interrupted,
		Succeeded:   cp.Succeeded,
		Failed:      cp.Failed,
	}
	for _, c := range cp.Cohorts {
		r.Cohorts = append(r.Cohorts, Cohort{
			Size:      c.Size,
			Succeeded: c.Succeeded,
			Failed:    c.Failed,
			Seconds:   c.DurationSeconds,
		})
	}
	return r
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type palette struct {
	ok, bad, warn, head *color.Color
}

func newPalette(colorize bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen, color.Bold),
		bad:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		head: color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{p.ok, p.bad, p.warn, p.head} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Write prints the report as a table. Colors are only emitted when
// colorize is set.
func Write(w io.Writer, r Report, colorize bool) error {
	p := newPalette(colorize)
	status := p.ok.Sprint("completed")
	if r.Interrupted {
		status = p.warn.Sprint("interrupted")
	}
	if _, err := fmt.Fprintf(w, "%s %s  %s -> %s (%s)\n", p.head.Sprint("sweep"), status,
		r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339), r.End.Sub(r.Start).Round(time.Millisecond)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COHORT\tOK\tFAILED\tDURATION\tAGENT MEAN\tAGENT STDDEV\tAGENT MAX")
	for _, c := range r.Cohorts {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.2fs\t%.2fs\t%.2fs\t%.2fs\n",
			c.Size, c.Succeeded, c.Failed, c.Seconds, c.MeanAgent, c.StdDevAgent, c.MaxAgent)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	total := p.ok.Sprintf("%d succeeded", r.Succeeded)
	failed := fmt.Sprintf("%d failed", r.Failed)
	if r.Failed > 0 {
		failed = p.bad.Sprint(failed)
	}
	if _, err := fmt.Fprintf(w, "total: %s, %s\n", total, failed); err != nil {
		return err
	}
	if l := r.Latency; l != nil && l.Count > 0 {
		if _, err := fmt.Fprintf(w, "publish latency: p50 %s  p95 %s  p99 %s  max %s  (%d acked, %d failed)\n",
			l.P50, l.P95, l.P99, l.Max, l.Count, l.Failed); err != nil {
			return err
		}
	}
	for _, c := range r.Cohorts {
		for _, e := range c.Errors {
			if _, err := fmt.Fprintf(w, "%s cohort %d: %s\n", p.bad.Sprint("error"), c.Size, e); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteJSON writes the report to w in JSON format.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
