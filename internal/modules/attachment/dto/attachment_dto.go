package dto

import "github.com/google/uuid"

type UploadAttachmentResponse struct {
	ID       uuid.UUID `json:"id"`
	FileURL  string    `json:"file_url"`
	FileType string    `json:"file_type"`
}
