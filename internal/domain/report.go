package domain

import "time"

// Sync operation names, as exposed to callers and status consumers
const (
	OpSyncTournaments       = "sync_tournaments"
	OpSyncTournamentsAtomic = "sync_tournaments_and_events_atomic"
	OpSyncTournamentEvents  = "sync_events_for_single_tournament"
	OpSyncEventSeeds        = "sync_seeds_for_event"
)

// SyncReport describes the outcome of a single sync run. It is stored in
// Redis per operation, published to Kafka, and broadcast over WebSocket.
type SyncReport struct {
	RunID     string        `json:"run_id"`
	Operation string        `json:"operation"`
	Target    string        `json:"target,omitempty"`
	Created   int           `json:"created"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Succeeded reports whether the run completed without error
func (r *SyncReport) Succeeded() bool {
	return r.Error == ""
}
