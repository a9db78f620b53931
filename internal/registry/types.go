package registry

import "time"

type Status string

const (
	StatusGenerated Status = "generated"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

type Document struct {
	ID           int64     `json:"id"`
	Path         string    `json:"path"`
	ContentHash  string    `json:"content_hash"`
	Encoding     string    `json:"encoding"`
	Kind         string    `json:"kind"`
	Status       Status    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	LetterPath   string    `json:"letter_path,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Run struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Processed  int       `json:"processed"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
}

type Stats struct {
	TotalDocuments  int       `json:"total_documents"`
	Generated       int       `json:"generated"`
	Failed          int       `json:"failed"`
	Skipped         int       `json:"skipped"`
	Runs            int       `json:"runs"`
	LastProcessedAt time.Time `json:"last_processed_at"`
	LastRun         *Run      `json:"last_run,omitempty"`
}
