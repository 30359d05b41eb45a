package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/opengrade/opengrade-api/internal/dto"
	"github.com/opengrade/opengrade-api/internal/service"
	"github.com/opengrade/opengrade-api/internal/utils"
	"github.com/opengrade/opengrade-api/pkg/ai"
)

// GradeHandler triggers grading of a student's homework submissions.
type GradeHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradeHandler constructs a grade handler.
func NewGradeHandler(service service.GradingService, logger zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		service: service,
		logger:  logger.With().Str("component", "grade_handler").Logger(),
	}
}

// Register wires grading routes.
func (h *GradeHandler) Register(router fiber.Router) {
	router.Post("/grade", h.grade)
}

func (h *GradeHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Grade(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNoTeacherTask):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNoSubmissions):
			// Nothing to grade is not a failure; the client gets a
			// distinguishable empty result.
			return c.Status(fiber.StatusOK).JSON(dto.GradeResponse{Grade: 0, Feedback: "No homework"})
		case errors.Is(err, ai.ErrUnparsableResponse):
			return utils.SendError(c, fiber.StatusBadRequest, "There was an error at grading from the LLM, please try again")
		default:
			h.logger.Error().Err(err).Str("homework", payload.Homework).Msg("grading failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "grading failed")
		}
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
