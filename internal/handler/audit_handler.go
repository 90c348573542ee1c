package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/jtiebel/formguard-api/internal/audit"
	"github.com/jtiebel/formguard-api/internal/dto"
	"github.com/jtiebel/formguard-api/internal/observability"
	"github.com/jtiebel/formguard-api/internal/utils"
)

// AuditHandler exposes the bounded evaluation log to admins, as a snapshot
// and as a live websocket feed.
type AuditHandler struct {
	log    *audit.Log
	logger zerolog.Logger
}

// NewAuditHandler constructs an audit handler.
func NewAuditHandler(log *audit.Log, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		log:    log,
		logger: logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register wires audit routes including the websocket upgrade.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("", h.snapshot)

	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.stream))
}

func (h *AuditHandler) snapshot(c *fiber.Ctx) error {
	response := dto.NewAuditLogResponse(h.log.Snapshot(), h.log.Capacity())
	return utils.SendSuccess(c, "audit log", response)
}

func (h *AuditHandler) stream(conn *websocket.Conn) {
	feed, cancel := h.log.Subscribe()
	defer cancel()

	observability.AuditStreamClients().Inc()
	defer observability.AuditStreamClients().Dec()

	h.logger.Info().Msg("audit stream connected")
	defer h.logger.Info().Msg("audit stream disconnected")

	// Drain client frames so close handshakes are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case entry, ok := <-feed:
			if !ok {
				return
			}
			payload, err := json.Marshal(dto.NewAuditEntryResponse(entry))
			if err != nil {
				h.logger.Warn().Err(err).Msg("failed to encode audit entry")
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
