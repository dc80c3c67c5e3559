package models

import "time"

type Message struct {
	ID            string    `json:"id" db:"id"`
	Text          string    `json:"text" db:"text"`
	IsUserMessage bool      `json:"isUserMessage" db:"is_user_message"`
	OwnerID       string    `json:"userId" db:"user_id"`
	FileID        string    `json:"fileId" db:"file_id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
