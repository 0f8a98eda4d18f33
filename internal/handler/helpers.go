package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-console-api/internal/middleware"
	"github.com/noah-isme/exam-console-api/internal/service"
	"github.com/noah-isme/exam-console-api/internal/utils"
)

func teacherIDFromContext(c *fiber.Ctx) uint {
	switch id := c.Locals(middleware.LocalUserID).(type) {
	case uint:
		return id
	case int:
		if id < 0 {
			return 0
		}
		return uint(id)
	}
	return 0
}

func sessionFromContext(c *fiber.Ctx) service.Session {
	sessionID, _ := c.Locals(middleware.LocalSessionID).(string)
	return service.Session{
		TeacherID: teacherIDFromContext(c),
		SessionID: sessionID,
		ExpiresAt: middleware.SessionExpiry(c),
	}
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

// parseOptionalUintQuery returns nil when the query value is absent.
func parseOptionalUintQuery(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid " + key)
	}
	id := uint(parsed)
	return &id, nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// validationDetails maps struct validation failures to field paths without the root type.
func validationDetails(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		field := fieldErr.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		details[field] = fieldErr.Tag()
	}
	return details
}

// respondError translates service errors into the response envelope.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var (
		validationErrors validator.ValidationErrors
		validationErr    *service.ValidationError
		persistenceErr   *service.PersistenceError
	)

	switch {
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(validationErrors))
	case errors.As(err, &validationErr):
		return utils.Fail(c, fiber.StatusBadRequest, validationErr.Error(), map[string]string{validationErr.Field: validationErr.Rule})
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrTeacherNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "teacher not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrDuplicateAccessCode):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &persistenceErr) && persistenceErr.Orphaned():
		requestLogger(logger, c).Error().
			Err(persistenceErr.Err).
			AnErr("compensation_error", persistenceErr.Compensation).
			Str("op", persistenceErr.Op).
			Msg("partial write could not be rolled back")
		return utils.Fail(c, fiber.StatusInternalServerError, "exam was not published and a partial record may remain; contact an administrator", fiber.Map{"orphaned": true})
	default:
		requestLogger(logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
