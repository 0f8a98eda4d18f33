package service

import (
	"context"
	"errors"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
	"github.com/noah-isme/exam-console-api/internal/repository"
)

// TeacherRole is the only role issued by the console.
const TeacherRole = "teacher"

// Session identifies the authenticated token a request was made with.
type Session struct {
	TeacherID uint
	SessionID string
	ExpiresAt time.Time
}

// AuthService is the console's identity provider.
type AuthService interface {
	SignUp(ctx context.Context, req dto.SignUpRequest) (dto.TeacherResponse, error)
	SignIn(ctx context.Context, req dto.SignInRequest) (dto.SessionResponse, error)
	SignOut(ctx context.Context, session Session) error
	Me(ctx context.Context, teacherID uint) (dto.TeacherResponse, error)
	UpdateProfile(ctx context.Context, teacherID uint, req dto.ProfileUpdateRequest) (dto.TeacherResponse, error)
}

// AuthConfig carries token settings.
type AuthConfig struct {
	Secret string
	TTL    time.Duration
}

type authService struct {
	teachers   repository.TeacherRepository
	revocation RevocationStore
	sessions   SessionPublisher
	activity   ActivityRecorder
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	cfg        AuthConfig
	logger     zerolog.Logger
	now        func() time.Time
	hashCost   int
}

// NewAuthService constructs the identity provider.
func NewAuthService(teachers repository.TeacherRepository, revocation RevocationStore, sessions SessionPublisher, activity ActivityRecorder, validate *validator.Validate, cfg AuthConfig, logger zerolog.Logger) AuthService {
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	if revocation == nil {
		revocation = NewMemoryRevocationStore()
	}

	return &authService{
		teachers:   teachers,
		revocation: revocation,
		sessions:   sessions,
		activity:   activity,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		cfg:        cfg,
		logger:     logger.With().Str("component", "auth_service").Logger(),
		now:        time.Now,
		hashCost:   bcrypt.DefaultCost,
	}
}

func (s *authService) SignUp(ctx context.Context, req dto.SignUpRequest) (dto.TeacherResponse, error) {
	req.Name = s.clean(req.Name)
	req.InstitutionName = s.clean(req.InstitutionName)
	req.Department = s.clean(req.Department)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.validator.Struct(req); err != nil {
		return dto.TeacherResponse{}, err
	}

	if _, err := s.teachers.GetByEmail(ctx, req.Email); err == nil {
		return dto.TeacherResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.TeacherResponse{}, &PersistenceError{Op: "lookup teacher", Err: err}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return dto.TeacherResponse{}, err
	}

	teacher := models.Teacher{
		Name:            req.Name,
		Email:           req.Email,
		InstitutionName: req.InstitutionName,
		Department:      req.Department,
		PasswordHash:    string(hash),
	}
	if err := s.teachers.Create(ctx, &teacher); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.TeacherResponse{}, ErrEmailTaken
		}
		return dto.TeacherResponse{}, &PersistenceError{Op: "create teacher", Err: err}
	}

	s.logger.Info().Uint("teacher_id", teacher.ID).Msg("teacher registered")
	return dto.NewTeacherResponse(teacher), nil
}

func (s *authService) SignIn(ctx context.Context, req dto.SignInRequest) (dto.SessionResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return dto.SessionResponse{}, err
	}

	teacher, err := s.teachers.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrInvalidCredentials
		}
		return dto.SessionResponse{}, &PersistenceError{Op: "lookup teacher", Err: err}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(req.Password)); err != nil {
		return dto.SessionResponse{}, ErrInvalidCredentials
	}

	now := s.now()
	sessionID := uuid.NewString()
	expiresAt := now.Add(s.cfg.TTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(teacher.ID), 10),
		"role": TeacherRole,
		"jti":  sessionID,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return dto.SessionResponse{}, err
	}

	s.publish(ctx, SessionEventSignedIn, teacher.ID, sessionID, now)
	recordQuietly(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    teacher.ID,
		Action:     models.ActivityTeacherSignedIn,
		EntityType: "teacher",
		EntityID:   &teacher.ID,
	})

	return dto.SessionResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.UTC(),
		Teacher:     dto.NewTeacherResponse(teacher),
	}, nil
}

func (s *authService) SignOut(ctx context.Context, session Session) error {
	if session.SessionID == "" {
		return &ValidationError{Field: "session", Rule: "session id is required"}
	}

	expiresAt := session.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(s.cfg.TTL)
	}
	if err := s.revocation.Revoke(ctx, session.SessionID, expiresAt); err != nil {
		return &PersistenceError{Op: "revoke session", Err: err}
	}

	s.publish(ctx, SessionEventSignedOut, session.TeacherID, session.SessionID, s.now())
	recordQuietly(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    session.TeacherID,
		Action:     models.ActivityTeacherSignedOut,
		EntityType: "teacher",
		EntityID:   &session.TeacherID,
	})
	return nil
}

func (s *authService) Me(ctx context.Context, teacherID uint) (dto.TeacherResponse, error) {
	teacher, err := s.teacher(ctx, teacherID)
	if err != nil {
		return dto.TeacherResponse{}, err
	}
	return dto.NewTeacherResponse(teacher), nil
}

func (s *authService) UpdateProfile(ctx context.Context, teacherID uint, req dto.ProfileUpdateRequest) (dto.TeacherResponse, error) {
	req.Name = s.cleanPointer(req.Name)
	req.InstitutionName = s.cleanPointer(req.InstitutionName)
	req.Department = s.cleanPointer(req.Department)

	if err := s.validator.Struct(req); err != nil {
		return dto.TeacherResponse{}, err
	}

	teacher, err := s.teacher(ctx, teacherID)
	if err != nil {
		return dto.TeacherResponse{}, err
	}

	if req.Name != nil {
		teacher.Name = *req.Name
	}
	if req.InstitutionName != nil {
		teacher.InstitutionName = *req.InstitutionName
	}
	if req.Department != nil {
		teacher.Department = *req.Department
	}
	teacher.UpdatedAt = s.now()

	if err := s.teachers.UpdateProfile(ctx, &teacher); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TeacherResponse{}, ErrTeacherNotFound
		}
		return dto.TeacherResponse{}, &PersistenceError{Op: "update profile", Err: err}
	}

	s.publish(ctx, SessionEventProfileUpdated, teacher.ID, "", teacher.UpdatedAt)
	return dto.NewTeacherResponse(teacher), nil
}

func (s *authService) teacher(ctx context.Context, teacherID uint) (models.Teacher, error) {
	teacher, err := s.teachers.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Teacher{}, ErrTeacherNotFound
		}
		return models.Teacher{}, &PersistenceError{Op: "get teacher", Err: err}
	}
	return teacher, nil
}

func (s *authService) publish(ctx context.Context, eventType string, teacherID uint, sessionID string, at time.Time) {
	if s.sessions == nil {
		return
	}
	s.sessions.Publish(ctx, dto.SessionEvent{
		Type:      eventType,
		TeacherID: teacherID,
		SessionID: sessionID,
		At:        at.UTC(),
	})
}

// clean strips markup from free-text profile fields. The policy escapes what it keeps, so the
// result is unescaped again to store plain text.
func (s *authService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func (s *authService) cleanPointer(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := s.clean(*value)
	return &cleaned
}
