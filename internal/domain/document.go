package domain

import "time"

// Document is filed material attached to a case (contracts, evidence, filings).
type Document struct {
	ID          string    `db:"id" json:"id"`
	CaseID      string    `db:"case_id" json:"case_id"`
	Title       string    `db:"title" json:"title"`
	Category    string    `db:"category" json:"category"`
	StorageKey  string    `db:"storage_key" json:"storage_key"`
	MimeType    string    `db:"mime_type" json:"mime_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	UploadedBy  string    `db:"uploaded_by" json:"uploaded_by"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
