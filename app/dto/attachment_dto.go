package dto

// UploadAttachmentResponse returns the stored object key for a new attachment
type UploadAttachmentResponse struct {
	Message  string `json:"message"`
	Key      string `json:"key"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}
