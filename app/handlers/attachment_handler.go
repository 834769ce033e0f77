package handlers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/app/services"
	"github.com/merchantops/support-console/utils"
)

const maxAttachmentSize = 10 * 1024 * 1024 // 10MB

// AttachmentHandlerInterface defines the contract for attachment handlers
type AttachmentHandlerInterface interface {
	Upload(c fiber.Ctx) error
	View(c fiber.Ctx) error
}

// AttachmentHandler handles attachment upload and retrieval
type AttachmentHandler struct {
	storage services.StorageService
}

// NewAttachmentHandler creates a new attachment handler
func NewAttachmentHandler(storage services.StorageService) *AttachmentHandler {
	return &AttachmentHandler{storage: storage}
}

func (h *AttachmentHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AttachmentHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func getFirstFile(files []*multipart.FileHeader) *multipart.FileHeader {
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// Upload Attachment
// @Description Store a file in object storage and return its key for use on task requests
// @Tags Attachments
// @Accept mpfd
// @Produce json
// @Param file formData file true "Attachment (jpg/png/pdf/docx/xlsx/zip, <=10MB)"
// @Success 201 {object} dto.APIResponse{data=dto.UploadAttachmentResponse} "Attachment stored"
// @Failure 400 {object} dto.APIResponse "Invalid or oversized file"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/attachments [post]
func (h *AttachmentHandler) Upload(c fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Multipart form is required", "INVALID_REQUEST", nil)
	}

	fileHeader := getFirstFile(form.File["file"])
	if fileHeader == nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "No file provided", "MISSING_FILE", nil)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".pdf", ".docx", ".xlsx", ".zip":
	default:
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid file type", "INVALID_FILE_TYPE", nil)
	}
	if fileHeader.Size > maxAttachmentSize {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "File too large", "FILE_TOO_LARGE", nil)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read file", "FILE_READ_FAILED", err.Error())
	}
	defer src.Close()

	dateDir := utils.UTCNow().Format("2006-01-02")
	objectKey := fmt.Sprintf("attachments/%s/%s%s", dateDir, uuid.New().String(), ext)

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key, err := h.storage.Upload(createRequestContext(c, "/api/v1/attachments"), objectKey, contentType, src, fileHeader.Size)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to store attachment", "UPLOAD_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Attachment stored", dto.UploadAttachmentResponse{
		Message:  "Attachment stored",
		Key:      key,
		FileName: fileHeader.Filename,
		Size:     fileHeader.Size,
	})
}

// View Attachment
// @Description Redirect to a short lived download URL for a stored attachment
// @Tags Attachments
// @Produce json
// @Param key path string true "Object key"
// @Success 302 {string} string "Redirect to presigned URL"
// @Failure 404 {object} dto.APIResponse "Attachment not found"
// @Router /api/v1/attachments/{key} [get]
func (h *AttachmentHandler) View(c fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		key = c.Params("key")
	}
	if key == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Object key is required", "MISSING_KEY", nil)
	}

	url, err := h.storage.PresignedURL(createRequestContext(c, "/api/v1/attachments/:key"), key, 15*time.Minute)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Attachment not found", "ATTACHMENT_NOT_FOUND", nil)
	}

	return c.Redirect().Status(fiber.StatusFound).To(url)
}
