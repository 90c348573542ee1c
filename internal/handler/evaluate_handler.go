package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jtiebel/formguard-api/internal/dto"
	"github.com/jtiebel/formguard-api/internal/service"
	"github.com/jtiebel/formguard-api/internal/utils"
)

// EvaluateHandler scores form submissions.
type EvaluateHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluateHandler constructs an evaluation handler.
func NewEvaluateHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluateHandler {
	return &EvaluateHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluate_handler").Logger(),
	}
}

// Register wires evaluation routes.
func (h *EvaluateHandler) Register(router fiber.Router) {
	router.Post("", h.evaluate)
}

func (h *EvaluateHandler) evaluate(c *fiber.Ctx) error {
	var payload dto.EvaluateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	payload.UserAgent = c.Get(fiber.HeaderUserAgent)

	response, err := h.service.Evaluate(c.Context(), payload)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
		h.logger.Error().Err(err).Msg("failed to evaluate submission")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to evaluate submission")
	}

	// Every verdict is a successful evaluation; the collaborator decides
	// what to do with a rejection.
	return utils.SendSuccess(c, "submission evaluated", response)
}
