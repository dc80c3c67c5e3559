package models

import "time"

type UploadStatus string

const (
	UploadStatusProcessing UploadStatus = "PROCESSING"
	UploadStatusSuccess    UploadStatus = "SUCCESS"
	UploadStatusFailed     UploadStatus = "FAILED"
)

// Terminal reports whether no further transition is allowed from s.
func (s UploadStatus) Terminal() bool {
	return s == UploadStatusSuccess || s == UploadStatusFailed
}

// File is an uploaded PDF. Its ID is also the vector store namespace.
type File struct {
	ID           string       `json:"id" db:"id"`
	Key          string       `json:"key" db:"key"`
	Name         string       `json:"name" db:"name"`
	OwnerID      string       `json:"userId" db:"user_id"`
	URL          string       `json:"url" db:"url"`
	UploadStatus UploadStatus `json:"uploadStatus" db:"upload_status"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" db:"updated_at"`
}
