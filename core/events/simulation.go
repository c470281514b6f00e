package events

import (
	"time"

	"github.com/kilianp07/cpsim/core/model"
)

// SessionEvent is published on every session phase transition.
type SessionEvent struct {
	Tag   string
	Seq   int
	Phase model.Phase
	Time  time.Time
}

// MessageEvent is published for every publish attempt. Err is nil on
// success.
type MessageEvent struct {
	Tag  string
	Seq  int
	Type model.MessageType
	Err  error
	Time time.Time
}

// AgentEvent is published when an agent's run resolves.
type AgentEvent struct {
	Tag      string
	Cohort   int
	Sessions int
	Duration time.Duration
	Err      error
}

// CohortEvent is published once a cohort has fully settled.
type CohortEvent struct {
	Size      int
	Succeeded int
	Failed    int
	Duration  time.Duration
	Time      time.Time
}

// SweepEvent is published after the last cohort settled.
type SweepEvent struct {
	Start       time.Time
	End         time.Time
	CohortSizes []int
	Succeeded   int
	Failed      int
	Interrupted bool
}
