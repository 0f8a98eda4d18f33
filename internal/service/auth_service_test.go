package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
	"github.com/noah-isme/exam-console-api/internal/repository"
)

type recordingPublisher struct {
	events []dto.SessionEvent
}

func (r *recordingPublisher) Publish(ctx context.Context, event dto.SessionEvent) {
	r.events = append(r.events, event)
}

type authFixture struct {
	svc        AuthService
	impl       *authService
	revocation RevocationStore
	sessions   *recordingPublisher
	activity   *memoryActivityRepo
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	db := setupTestDB(t)
	sessions := &recordingPublisher{}
	activityRepo := &memoryActivityRepo{}
	revocation := NewMemoryRevocationStore()

	svc := NewAuthService(
		repository.NewTeacherRepository(db),
		revocation,
		sessions,
		NewActivityService(activityRepo, testLogger()),
		testValidator(),
		AuthConfig{Secret: "test-secret", TTL: time.Hour},
		testLogger(),
	)
	impl := svc.(*authService)
	impl.hashCost = bcrypt.MinCost

	return authFixture{svc: svc, impl: impl, revocation: revocation, sessions: sessions, activity: activityRepo}
}

func signUpRequest(email string) dto.SignUpRequest {
	return dto.SignUpRequest{
		Name:            "Grace Hopper",
		Email:           email,
		Password:        "correct horse",
		InstitutionName: "Navy College",
		Department:      "Computing",
	}
}

func TestAuthServiceSignUpAndSignIn(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	req := signUpRequest(" Grace@Example.com ")
	req.Name = "<b>Grace</b> Hopper"
	teacher, err := fx.svc.SignUp(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "grace@example.com", teacher.Email)
	require.Equal(t, "Grace Hopper", teacher.Name)

	session, err := fx.svc.SignIn(ctx, dto.SignInRequest{Email: "GRACE@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.Equal(t, "Bearer", session.TokenType)
	require.Equal(t, teacher.ID, session.Teacher.ID)

	parsed, err := jwt.Parse(session.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	require.Equal(t, strconv.FormatUint(uint64(teacher.ID), 10), claims["sub"])
	require.Equal(t, TeacherRole, claims["role"])
	require.NotEmpty(t, claims["jti"])

	require.Len(t, fx.sessions.events, 1)
	require.Equal(t, SessionEventSignedIn, fx.sessions.events[0].Type)
	require.Equal(t, claims["jti"], fx.sessions.events[0].SessionID)
	require.Equal(t, []string{models.ActivityTeacherSignedIn}, fx.activity.actions())
}

func TestAuthServiceKeepsPlainTextProfileFields(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	req := signUpRequest("conan@example.com")
	req.Name = "Conan O'Brien"
	req.InstitutionName = "Texas A&M <i>University</i>"
	teacher, err := fx.svc.SignUp(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "Conan O'Brien", teacher.Name)
	require.Equal(t, "Texas A&M University", teacher.InstitutionName)

	name := "Flannery O'Connor"
	department := "Arts & Sciences"
	updated, err := fx.svc.UpdateProfile(ctx, teacher.ID, dto.ProfileUpdateRequest{Name: &name, Department: &department})
	require.NoError(t, err)
	require.Equal(t, "Flannery O'Connor", updated.Name)
	require.Equal(t, "Arts & Sciences", updated.Department)

	me, err := fx.svc.Me(ctx, teacher.ID)
	require.NoError(t, err)
	require.Equal(t, "Flannery O'Connor", me.Name)
	require.Equal(t, "Texas A&M University", me.InstitutionName)
	require.Equal(t, "Arts & Sciences", me.Department)
}

func TestAuthServiceSignUpRejectsDuplicatesAndBadInput(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SignUp(ctx, signUpRequest("grace@example.com"))
	require.NoError(t, err)

	_, err = fx.svc.SignUp(ctx, signUpRequest("GRACE@example.com"))
	require.ErrorIs(t, err, ErrEmailTaken)

	short := signUpRequest("other@example.com")
	short.Password = "short"
	_, err = fx.svc.SignUp(ctx, short)
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)

	markupOnly := signUpRequest("third@example.com")
	markupOnly.Department = "<script>alert(1)</script>"
	_, err = fx.svc.SignUp(ctx, markupOnly)
	require.ErrorAs(t, err, &validationErrors)
}

func TestAuthServiceSignInFailuresAreIndistinguishable(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SignUp(ctx, signUpRequest("grace@example.com"))
	require.NoError(t, err)

	_, err = fx.svc.SignIn(ctx, dto.SignInRequest{Email: "grace@example.com", Password: "wrong password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = fx.svc.SignIn(ctx, dto.SignInRequest{Email: "nobody@example.com", Password: "correct horse"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Empty(t, fx.sessions.events)
}

func TestAuthServiceSignOutRevokesSession(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	teacher, err := fx.svc.SignUp(ctx, signUpRequest("grace@example.com"))
	require.NoError(t, err)

	session := Session{TeacherID: teacher.ID, SessionID: "session-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, fx.svc.SignOut(ctx, session))

	revoked, err := fx.revocation.IsRevoked(ctx, "session-1")
	require.NoError(t, err)
	require.True(t, revoked)

	require.Len(t, fx.sessions.events, 1)
	require.Equal(t, SessionEventSignedOut, fx.sessions.events[0].Type)

	var validationErr *ValidationError
	require.ErrorAs(t, fx.svc.SignOut(ctx, Session{TeacherID: teacher.ID}), &validationErr)
}

func TestAuthServiceProfile(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	teacher, err := fx.svc.SignUp(ctx, signUpRequest("grace@example.com"))
	require.NoError(t, err)

	department := "  Mathematics "
	updated, err := fx.svc.UpdateProfile(ctx, teacher.ID, dto.ProfileUpdateRequest{Department: &department})
	require.NoError(t, err)
	require.Equal(t, "Mathematics", updated.Department)
	require.Equal(t, "Grace Hopper", updated.Name)

	me, err := fx.svc.Me(ctx, teacher.ID)
	require.NoError(t, err)
	require.Equal(t, "Mathematics", me.Department)
	require.Equal(t, "Navy College", me.InstitutionName)

	blank := "   "
	_, err = fx.svc.UpdateProfile(ctx, teacher.ID, dto.ProfileUpdateRequest{Name: &blank})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)

	_, err = fx.svc.Me(ctx, teacher.ID+100)
	require.ErrorIs(t, err, ErrTeacherNotFound)
	_, err = fx.svc.UpdateProfile(ctx, teacher.ID+100, dto.ProfileUpdateRequest{Department: &department})
	require.ErrorIs(t, err, ErrTeacherNotFound)
}
