// Package simulator drives simulated charge points against a publish channel.
//
// A Runner sweeps increasing cohort sizes. Each cohort runs one Agent per
// selected device concurrently; an Agent runs its sessions one after the
// other; a Session walks Idle, Authorizing, Charging, Stopping and Completed
// and owns the Sampler that streams state-of-charge telemetry while charging.
//
// Authorize, StartTransaction and StopTransaction are fire-and-forget: no
// backend response is awaited.
package simulator
