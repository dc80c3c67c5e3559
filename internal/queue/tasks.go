package queue

const (
	TypeFileIngest = "file:ingest"
)

type FileIngestPayload struct {
	FileID string `json:"file_id"`
}
