package entity

type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// Run is the persisted record of one enrichment pass over a dataset.
// Fields is the caller-selected column list, stored as a JSON array so
// column names may contain any character the dataset header allows.
type Run struct {
	ID             int64  `gorm:"primaryKey"`
	DatasetID      string `gorm:"index"`
	Fields         string
	Status         RunStatus
	Progress       int
	OutputPath     string
	Error          string
	RowsTotal      int
	RowsUpdated    int
	RowsUnresolved int
	StartedAt      int64 `gorm:"autoUpdateTime:false"`
	FinishedAt     int64 `gorm:"autoUpdateTime:false"`
}
