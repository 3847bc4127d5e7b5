package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/realtime"
	"github.com/damil-o/TrainerBizBack/pkg/utils"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type RealtimeHandler struct {
	hub       *realtime.Hub
	profiles  realtimeProfileReader
	jwtSecret string
}

type realtimeProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
}

func NewRealtimeHandler(hub *realtime.Hub, profiles realtimeProfileReader, jwtSecret string) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, profiles: profiles, jwtSecret: jwtSecret}
}

// WebSocketAuth validates the token and resolves the admin flag before the
// upgrade; the websocket goroutine has no fiber context to query from.
func (h *RealtimeHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	profile, err := h.profiles.GetByUserID(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unknown account"})
	}
	if profile.IsBlocked {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is blocked"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("is_admin", profile.IsAdmin)
	return c.Next()
}

func (h *RealtimeHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	isAdmin, _ := conn.Locals("is_admin").(bool)
	client := realtime.NewClient(h.hub, conn, userID, isAdmin)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func (h *RealtimeHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}
