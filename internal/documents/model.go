package documents

import "time"

// Lifecycle statuses for a document.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document represents an uploaded file owned by a company.
type Document struct {
	ID           string
	CompanyID    string
	UploadedBy   string
	Filename     string
	FilePath     string
	FileType     string
	FileSize     int64
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
