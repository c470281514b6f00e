// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - SessionEvent: a charge session changed phase
//   - MessageEvent: one publish attempt and its outcome
//   - AgentEvent: a charge point agent settled
//   - CohortEvent: every agent of a cohort settled
//   - SweepEvent: the scenario sweep finished
package events
