package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/conceptbridge/transcription-api/internal/model"
	"github.com/conceptbridge/transcription-api/internal/service"
	"github.com/conceptbridge/transcription-api/internal/store"
	"github.com/conceptbridge/transcription-api/pkg/response"
)

type TranscriptionHandler struct {
	service   *service.TranscriptionService
	validator *validator.Validate
}

func NewTranscriptionHandler(svc *service.TranscriptionService, v *validator.Validate) *TranscriptionHandler {
	return &TranscriptionHandler{
		service:   svc,
		validator: v,
	}
}

// Submit handles POST /transcribe: multipart upload plus optional form
// fields language, task, word_timestamps. Responds 202 as soon as the job is
// queued.
func (h *TranscriptionHandler) Submit(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "No file provided", nil)
	}
	if fileHeader.Filename == "" {
		return response.ValidationError(c, "No file selected", nil)
	}

	params := model.TranscriptionParams{
		Language:       c.FormValue("language", model.LanguageAuto),
		Task:           model.TaskKind(c.FormValue("task", string(model.TaskTranscribe))),
		WordTimestamps: strings.EqualFold(c.FormValue("word_timestamps", "true"), "true"),
	}
	if err := h.validator.Struct(&params); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	result, err := h.service.Submit(c.Context(), fileHeader.Filename, f, params)
	if err != nil {
		if errors.Is(err, service.ErrFileTypeNotAllowed) {
			return response.ValidationError(c, "File type not allowed", map[string]interface{}{
				"filename": fileHeader.Filename,
			})
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /transcribe/:jobId.
func (h *TranscriptionHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.GetStatus(jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	// A failed job surfaces its stored message with a 500 on every poll.
	if result.Status == model.JobStatusFailed {
		return c.Status(fiber.StatusInternalServerError).JSON(result)
	}

	return response.OK(c, result)
}

// Download handles GET /transcribe/download/:jobId?format=txt|srt|vtt.
func (h *TranscriptionHandler) Download(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	format, ok := model.ParseExportFormat(c.Query("format"))
	if !ok {
		return response.ValidationError(c, "Unknown export format", map[string]interface{}{
			"format": c.Query("format"),
		})
	}

	doc, err := h.service.Export(jobID, format)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		if errors.Is(err, service.ErrJobNotCompleted) {
			return response.ValidationError(c, "Job not completed", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	c.Set(fiber.HeaderContentType, doc.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return c.SendString(doc.Body)
}
