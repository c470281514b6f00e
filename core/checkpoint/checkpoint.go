package checkpoint

import "time"

// CohortSummary is the outcome of one cohort.
type CohortSummary struct {
	Size            int     `json:"size"`
	Succeeded       int     `json:"succeeded"`
	Failed          int     `json:"failed"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Checkpoint records one scenario sweep.
type Checkpoint struct {
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	CohortSizes []int           `json:"cohort_sizes"`
	Cohorts     []CohortSummary `json:"cohorts"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
	Interrupted bool            `json:"interrupted"`
}

// New starts a checkpoint at start.
func New(start time.Time) *Checkpoint {
	return &Checkpoint{Start: start.UTC(), CohortSizes: []int{}, Cohorts: []CohortSummary{}}
}

// AddCohort appends a settled cohort.
func (c *Checkpoint) AddCohort(s CohortSummary) {
	c.CohortSizes = append(c.CohortSizes, s.Size)
	c.Cohorts = append(c.Cohorts, s)
	c.Succeeded += s.Succeeded
	c.Failed += s.Failed
}

// Finish stamps the end of the sweep.
func (c *Checkpoint) Finish(end time.Time) {
	c.End = end.UTC()
}

// Duration returns the wall-clock length of the sweep.
func (c Checkpoint) Duration() time.Duration {
	if c.End.IsZero() {
		return 0
	}
	return c.End.Sub(c.Start)
}
