package ledger

import "time"

// Run is one batch invocation.
type Run struct {
	ID         string     `json:"id"`
	Folder     string     `json:"folder"`
	Language   string     `json:"language"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Counts     Counts     `json:"counts"`
	Cancelled  bool       `json:"cancelled"`
}

// Counts aggregates outcome kinds for a run.
type Counts struct {
	Downloaded int `json:"downloaded"`
	NotFound   int `json:"not_found"`
	Errors     int `json:"errors"`
	Skipped    int `json:"skipped"`
}

// Total returns the number of files in the run.
func (c Counts) Total() int {
	return c.Downloaded + c.NotFound + c.Errors + c.Skipped
}

// Entry is the recorded outcome of one video within a run.
type Entry struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"run_id"`
	VideoPath    string    `json:"video_path"`
	Language     string    `json:"language"`
	Kind         string    `json:"kind"`
	Provider     string    `json:"provider"`
	Source       string    `json:"source"`
	Release      string    `json:"release"`
	Score        float64   `json:"score"`
	Step         string    `json:"step"`
	SubtitlePath string    `json:"subtitle_path"`
	ErrorMessage string    `json:"error_message"`
	RecordedAt   time.Time `json:"recorded_at"`
}
