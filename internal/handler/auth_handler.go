package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/middleware"
	"github.com/noah-isme/exam-console-api/internal/service"
	"github.com/noah-isme/exam-console-api/internal/utils"
)

const sessionPingInterval = 30 * time.Second

// AuthHandler wires the identity provider routes.
type AuthHandler struct {
	service  service.AuthService
	sessions service.SessionService
	logger   zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, sessions service.SessionService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterPublic attaches the unauthenticated endpoints. The limiter guards credential guessing.
func (h *AuthHandler) RegisterPublic(router fiber.Router, limiter fiber.Handler) {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Post("/sign-up", limiter, h.signUp)
	router.Post("/sign-in", limiter, h.signIn)
}

// RegisterProtected attaches endpoints that require a valid session.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Post("/sign-out", middleware.WithAuth(h.signOut, middleware.AuthOptions{RequireSession: true}))
	router.Get("/me", middleware.WithAuth(h.me, middleware.AuthOptions{}))
	router.Patch("/me", middleware.WithAuth(h.updateProfile, middleware.AuthOptions{}))

	if h.sessions != nil {
		router.Use("/session/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				c.Locals("teacher_id", teacherIDFromContext(c))
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		router.Get("/session/ws", websocket.New(h.streamSession))
	}
}

func (h *AuthHandler) signUp(c *fiber.Ctx) error {
	var payload dto.SignUpRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	teacher, err := h.service.SignUp(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", teacher)
}

func (h *AuthHandler) signIn(c *fiber.Ctx) error {
	var payload dto.SignInRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	session, err := h.service.SignIn(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "signed in", session)
}

func (h *AuthHandler) signOut(c *fiber.Ctx) error {
	if err := h.service.SignOut(c.UserContext(), sessionFromContext(c)); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "signed out", nil)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	teacher, err := h.service.Me(c.UserContext(), teacherIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "profile retrieved", teacher)
}

func (h *AuthHandler) updateProfile(c *fiber.Ctx) error {
	var payload dto.ProfileUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	teacher, err := h.service.UpdateProfile(c.UserContext(), teacherIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "profile updated", teacher)
}

// streamSession pushes session-changed events for the connected teacher until either side closes.
func (h *AuthHandler) streamSession(conn *websocket.Conn) {
	teacherID, _ := conn.Locals("teacher_id").(uint)
	if teacherID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "teacher id missing"))
		_ = conn.Close()
		return
	}

	events, unsubscribe := h.sessions.Subscribe(teacherID)
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug().Uint("teacher_id", teacherID).Msg("session stream connected")
	ticker := time.NewTicker(sessionPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			h.logger.Debug().Uint("teacher_id", teacherID).Msg("session stream disconnected")
			return
		}
	}
}
