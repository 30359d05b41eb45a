package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/opengrade/opengrade-api/internal/dto"
	"github.com/opengrade/opengrade-api/internal/service"
	"github.com/opengrade/opengrade-api/internal/utils"
	"github.com/opengrade/opengrade-api/pkg/extract"
)

// UploadHandler accepts homework file uploads from teachers and students.
type UploadHandler struct {
	service service.IngestService
	logger  zerolog.Logger
}

// NewUploadHandler constructs an upload handler.
func NewUploadHandler(service service.IngestService, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  logger.With().Str("component", "upload_handler").Logger(),
	}
}

// Register wires upload routes.
func (h *UploadHandler) Register(router fiber.Router) {
	router.Post("/upload", h.upload)
}

func (h *UploadHandler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	meta := dto.UploadRequest{
		UserType: c.FormValue("user_type"),
		Username: c.FormValue("username"),
		Homework: c.FormValue("homework"),
	}

	result, err := h.service.Ingest(c.Context(), file, meta)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, extract.ErrUnsupportedFormat):
			return utils.SendError(c, fiber.StatusBadRequest, "file format not supported")
		default:
			h.logger.Error().Err(err).Str("filename", file.Filename).Msg("upload failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "upload failed")
		}
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
