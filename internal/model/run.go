package model

import "time"

// IngestionRun is one row of the append-only run log.
type IngestionRun struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"run_id"`
	JobName      string    `json:"job_name"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	SuccessCount int64     `json:"success_count"`
	FailCount    int64     `json:"fail_count"`
	Note         string    `json:"note"`
}

// Failed reports whether the run recorded any failure.
func (r *IngestionRun) Failed() bool {
	return r.FailCount > 0
}
