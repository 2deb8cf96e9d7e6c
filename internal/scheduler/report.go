package scheduler

import (
	"encoding/json"
	"time"
)

// ItemFailure records one symbol or user that could not be processed.
type ItemFailure struct {
	Item string
	Err  error
}

func (f ItemFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Item  string `json:"item"`
		Error string `json:"error"`
	}{f.Item, msg})
}

// RunReport summarises one snapshot run. Individual failures never fail the run.
type RunReport struct {
	RunID            string        `json:"run_id"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       time.Time     `json:"finished_at"`
	Instruments      int           `json:"instruments"`
	PricesStored     int           `json:"prices_stored"`
	PriceFailures    []ItemFailure `json:"price_failures"`
	Users            int           `json:"users"`
	SnapshotsCreated int           `json:"snapshots_created"`
	SnapshotsSkipped int           `json:"snapshots_skipped"`
	SnapshotFailures []ItemFailure `json:"snapshot_failures"`
	Abandoned        bool          `json:"abandoned"`
}

// AllSucceeded reports whether the run finished with no item failures.
func (r *RunReport) AllSucceeded() bool {
	return !r.Abandoned && len(r.PriceFailures) == 0 && len(r.SnapshotFailures) == 0
}

func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
