package contract

type EventType string

const (
	EventRunProgress  EventType = "RUN_PROGRESS"
	EventRunCompleted EventType = "RUN_COMPLETED"
	EventRunFailed    EventType = "RUN_FAILED"
)

type StartRunRequest struct {
	DatasetID string   `json:"dataset_id" validate:"required"`
	Fields    []string `json:"fields" validate:"required,min=1,max=100,nodupes,dive,required"`
}

type RunResponse struct {
	ID             int64    `json:"id"`
	DatasetID      string   `json:"dataset_id"`
	Status         string   `json:"status"`
	Progress       int      `json:"progress"`
	Fields         []string `json:"fields"`
	OutputPath     string   `json:"output_path,omitempty"`
	Error          string   `json:"error,omitempty"`
	RowsTotal      int      `json:"rows_total"`
	RowsUpdated    int      `json:"rows_updated"`
	RowsUnresolved int      `json:"rows_unresolved"`
	StartedAt      string   `json:"started_at"`
	FinishedAt     string   `json:"finished_at,omitempty"`
}

// RunEventResponse is one entry of a run's ordered event feed. Data holds
// the event-specific payload (percentage, output path or error message).
type RunEventResponse struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
