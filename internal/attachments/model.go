package attachments

import "time"

// Attachment is the metadata of an uploaded file. The bytes live in a BlobStore under ObjectKey.
type Attachment struct {
	ID               string    `json:"id" db:"id"`
	ObjectKey        string    `json:"-" db:"object_key"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	ContentType      string    `json:"content_type" db:"content_type"`
	SizeBytes        int64     `json:"size" db:"size_bytes"`
	Description      string    `json:"description" db:"description"`
	DocumentType     string    `json:"document_type" db:"document_type"`
	ReferenceNumber  string    `json:"reference_number" db:"reference_number"`
	UploadedBy       int64     `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// UploadInput carries the multipart form fields accompanying a file.
type UploadInput struct {
	Filename        string
	Description     string
	DocumentType    string
	ReferenceNumber string
	UploadedBy      int64
}
