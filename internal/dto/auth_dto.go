package dto

import (
	"time"

	"github.com/noah-isme/exam-console-api/internal/models"
)

// SignUpRequest registers a teacher account and profile.
type SignUpRequest struct {
	Name            string `json:"name" validate:"required,max=255"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	InstitutionName string `json:"institution_name" validate:"required,max=255"`
	Department      string `json:"department" validate:"required,max=255"`
}

// SignInRequest carries teacher credentials.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdateRequest changes the mutable profile fields of a teacher.
type ProfileUpdateRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=255"`
	InstitutionName *string `json:"institution_name" validate:"omitempty,min=1,max=255"`
	Department      *string `json:"department" validate:"omitempty,min=1,max=255"`
}

// TeacherResponse is the public teacher profile.
type TeacherResponse struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	InstitutionName string    `json:"institution_name"`
	Department      string    `json:"department"`
	CreatedAt       time.Time `json:"created_at"`
}

// SessionResponse is returned after a successful sign-in.
type SessionResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Teacher     TeacherResponse `json:"teacher"`
}

// SessionEvent is emitted whenever a teacher's session changes.
type SessionEvent struct {
	Type      string    `json:"type"`
	TeacherID uint      `json:"teacher_id"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// NewTeacherResponse converts a teacher model.
func NewTeacherResponse(model models.Teacher) TeacherResponse {
	return TeacherResponse{
		ID:              model.ID,
		Name:            model.Name,
		Email:           model.Email,
		InstitutionName: model.InstitutionName,
		Department:      model.Department,
		CreatedAt:       model.CreatedAt,
	}
}
