package contract

const MaxDatasetFileSizeBytes = 30 * 1024 * 1024

var ValidDatasetFileTypes = []string{"csv"}

type DatasetResponse struct {
	ID           string   `json:"id"`
	OriginalName string   `json:"original_name"`
	Columns      []string `json:"columns,omitempty"`
	RowCount     int      `json:"row_count,omitempty"`
	UploadedAt   string   `json:"uploaded_at"`
}
