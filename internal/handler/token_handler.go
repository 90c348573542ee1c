package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jtiebel/formguard-api/internal/dto"
	"github.com/jtiebel/formguard-api/internal/token"
	"github.com/jtiebel/formguard-api/internal/utils"
)

// TokenHandler issues render-time one-time tokens.
type TokenHandler struct {
	issuer    *token.Issuer
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewTokenHandler constructs a token handler.
func NewTokenHandler(issuer *token.Issuer, validate *validator.Validate, logger zerolog.Logger) *TokenHandler {
	return &TokenHandler{
		issuer:    issuer,
		validator: validate,
		logger:    logger.With().Str("component", "token_handler").Logger(),
	}
}

// Register wires token routes.
func (h *TokenHandler) Register(router fiber.Router) {
	router.Post("", h.issue)
}

func (h *TokenHandler) issue(c *fiber.Ctx) error {
	var payload dto.TokenRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "session_id required")
	}

	issued, err := h.issuer.Issue(c.Context(), payload.SessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", payload.SessionID).Msg("failed to issue session token")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to issue token")
	}

	return utils.SendSuccess(c, "token issued", dto.TokenResponse{
		SessionID: payload.SessionID,
		Token:     issued,
	})
}
