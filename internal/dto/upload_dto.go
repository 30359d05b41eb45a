package dto

// UploadRequest describes the multipart form fields accompanying an upload.
type UploadRequest struct {
	UserType string `form:"user_type" validate:"required,oneof=teacher student"`
	Username string `form:"username" validate:"required,min=1"`
	Homework string `form:"homework" validate:"required,min=1"`
}

// UploadResponse returns the extracted (or deduplicated) text of the upload.
type UploadResponse struct {
	Text string `json:"text"`
}
