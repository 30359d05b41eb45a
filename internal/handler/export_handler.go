package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/opengrade/opengrade-api/internal/service"
	"github.com/opengrade/opengrade-api/internal/utils"
)

// ExportHandler serves the per-homework grade spreadsheet download.
type ExportHandler struct {
	service service.ExportService
	logger  zerolog.Logger
}

// NewExportHandler constructs an export handler.
func NewExportHandler(service service.ExportService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger.With().Str("component", "export_handler").Logger(),
	}
}

// Register wires export routes.
func (h *ExportHandler) Register(router fiber.Router) {
	router.Get("/export", h.export)
}

func (h *ExportHandler) export(c *fiber.Ctx) error {
	homework := strings.TrimSpace(c.Query("homework_name"))
	if homework == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "Please provide a homework_name parameter")
	}

	payload, err := h.service.Workbook(c.Context(), homework)
	if err != nil {
		h.logger.Error().Err(err).Str("homework", homework).Msg("export failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "export failed")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="students.xlsx"`)

	return c.Status(fiber.StatusOK).Send(payload)
}
