package realtime

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	pkgAuth "github.com/paytrack/paytrack-backend/pkg/auth"
	"github.com/paytrack/paytrack-backend/pkg/config"
	"github.com/paytrack/paytrack-backend/pkg/logger"
)

// Close codes sent when authentication fails.
const (
	CloseTokenRequired = 4001
	CloseInvalidUserID = 4002
	CloseInvalidToken  = 4003
)

const (
	reasonTokenRequired = "authentication token required"
	reasonInvalidUserID = "invalid user id"
	reasonInvalidToken  = "invalid or expired token"
)

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// HandlerParams bundles the live handler dependencies.
type HandlerParams struct {
	Registry *Registry
	JWT      config.JWTConfig
	Live     config.LiveConfig
	Logger   *logger.Logger
}

// Handler upgrades authenticated requests into live push channels.
type Handler struct {
	registry *Registry
	jwtCfg   config.JWTConfig
	liveCfg  config.LiveConfig
	upgrader websocket.Upgrader
	logg     *logger.Logger
}

func NewHandler(params HandlerParams) (*Handler, error) {
	if params.Registry == nil {
		return nil, fmt.Errorf("channel registry required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	live := params.Live
	if live.PingInterval <= 0 {
		live.PingInterval = 30 * time.Second
	}
	if live.WriteTimeout <= 0 {
		live.WriteTimeout = 10 * time.Second
	}

	h := &Handler{
		registry: params.Registry,
		jwtCfg:   params.JWT,
		liveCfg:  live,
		logg:     params.Logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h, nil
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.liveCfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.liveCfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return true
		}
	}
	return false
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		h.logg.Warn(h.logg.WithField(r.Context(), "error", err.Error()), "live.channel.upgrade_failed")
		return
	}

	connID := uuid.NewString()
	ctx := h.logg.WithConnID(context.Background(), connID)
	ch := newWSChannel(ws, h.liveCfg.WriteTimeout)

	userID, code, reason := h.authenticate(r.URL.Query().Get("token"))
	if code != 0 {
		if code == CloseTokenRequired {
			_ = ch.Deliver(ctx, errorFrame{Type: "error", Message: reason})
		}
		h.logg.Info(h.logg.WithField(ctx, "close_code", code), "live.channel.rejected")
		_ = ch.closeWith(code, reason)
		return
	}

	ctx = h.logg.WithUserID(ctx, userID.String())
	h.registry.Register(userID, ch)
	h.logg.Info(ctx, "live.channel.opened")

	done := make(chan struct{})
	go h.keepAlive(ctx, ch, done)

	ws.SetPongHandler(func(string) error {
		h.logg.Debug(ctx, "live.channel.pong")
		return nil
	})
	for {
		// inbound frames carry nothing; reading drives control frame handling
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	close(done)
	h.registry.Release(userID, ch)
	_ = ch.closeWith(websocket.CloseNormalClosure, "")
	h.logg.Info(ctx, "live.channel.closed")
}

func (h *Handler) authenticate(token string) (uuid.UUID, int, string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, CloseTokenRequired, reasonTokenRequired
	}
	claims, err := pkgAuth.ParseAccessToken(h.jwtCfg, token)
	if err != nil {
		return uuid.Nil, CloseInvalidToken, reasonInvalidToken
	}
	if claims.UserID == uuid.Nil {
		return uuid.Nil, CloseInvalidUserID, reasonInvalidUserID
	}
	return claims.UserID, 0, ""
}

// keepAlive pings on a fixed interval. Missing pongs are not fatal.
func (h *Handler) keepAlive(ctx context.Context, ch *wsChannel, done <-chan struct{}) {
	ticker := time.NewTicker(h.liveCfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := ch.ping(); err != nil {
				h.logg.Debug(h.logg.WithField(ctx, "error", err.Error()), "live.channel.ping_failed")
				return
			}
		}
	}
}
