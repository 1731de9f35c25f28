package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"mesaYaCore/internal/modules/realtime/infrastructure"
	"mesaYaCore/internal/shared/auth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewWebsocketHandler exposes /ws/:token (token also accepted via query or
// Authorization header), resolves the identity and hands the connection to a
// client with its own read/write pumps.
func NewWebsocketHandler(ctx context.Context, hub *infrastructure.Hub, router *infrastructure.Router, resolver auth.IdentityResolver) func(echo.Context) error {
	return func(c echo.Context) error {
		token := strings.TrimSpace(c.Param("token"))
		if token == "" {
			token = strings.TrimSpace(c.QueryParam("token"))
		}
		if token == "" {
			token = auth.ExtractBearerToken(c.Request().Header.Get("Authorization"))
		}

		identity, err := resolver.Resolve(token)
		if err != nil {
			status := http.StatusUnauthorized
			message := "invalid token"
			if errors.Is(err, auth.ErrMissingToken) {
				status = http.StatusBadRequest
				message = "missing token"
			}
			slog.Warn("ws rejected", slog.String("ip", c.RealIP()), slog.String("message", message), slog.Any("error", err))
			return echo.NewHTTPError(status, message)
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("ws upgrade failed", slog.String("userId", identity.UserID), slog.Any("error", err))
			return err
		}

		client := infrastructure.NewClient(hub, conn, router, identity, 8)
		hub.AttachClient(client)

		go client.WritePump()
		go client.ReadPump(ctx)
		return nil
	}
}

// NewHealthHandler reports liveness for the process supervisor.
func NewHealthHandler() func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
