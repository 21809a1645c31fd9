package domain

import "time"

// Run status values persisted in history.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
	RunCancelled = "cancelled"
)

// Run is one GenerateAll invocation as stored in history.
type Run struct {
	ID           string          `json:"id"`
	Context      string          `json:"context"`
	HasReference bool            `json:"has_reference"`
	Locale       string          `json:"locale"`
	Backend      string          `json:"backend"`
	Status       string          `json:"status"`
	StyleSeed    string          `json:"style_seed,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	Renders      []RenderOutcome `json:"renders,omitempty"`
}

// RenderOutcome is the recorded result of one platform render.
type RenderOutcome struct {
	RunID      string      `json:"-"`
	Platform   PlatformKey `json:"platform"`
	Status     AssetStatus `json:"status"`
	Prompt     string      `json:"prompt"`
	MimeType   string      `json:"mime_type,omitempty"`
	Bytes      int         `json:"bytes"`
	DurationMS int64       `json:"duration_ms"`
	CreatedAt  time.Time   `json:"created_at"`
}
