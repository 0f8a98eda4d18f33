package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-console-api/internal/config"
	"github.com/noah-isme/exam-console-api/internal/database"
	"github.com/noah-isme/exam-console-api/internal/export"
	"github.com/noah-isme/exam-console-api/internal/handler"
	"github.com/noah-isme/exam-console-api/internal/middleware"
	"github.com/noah-isme/exam-console-api/internal/repository"
	"github.com/noah-isme/exam-console-api/internal/router"
	"github.com/noah-isme/exam-console-api/internal/service"
)

const testSecret = "handler-test-secret"

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	sessions service.SessionService
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Meta    json.RawMessage        `json:"meta"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

func setupApp(t *testing.T) testEnv {
	t.Helper()

	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	revocation := service.NewMemoryRevocationStore()
	sessions := service.NewSessionService(service.SessionBus{}, logger)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)

	authService := service.NewAuthService(
		repository.NewTeacherRepository(db),
		revocation,
		sessions,
		activity,
		validate,
		service.AuthConfig{Secret: testSecret, TTL: time.Hour},
		logger,
	)
	submissionService := service.NewSubmissionService(
		repository.NewSubmissionRepository(db),
		nil,
		time.Minute,
		export.Options{TimeLayout: export.DefaultTimeLayout, Location: time.UTC},
		logger,
	)
	examService := service.NewExamService(repository.NewExamRepository(db), validate, activity, submissionService, config.PublishModeTransaction, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{})
	router.Register(app, config.Config{AppName: "Exam Console Test", AppEnv: "test"}, router.Dependencies{
		DB:                db,
		AuthHandler:       handler.NewAuthHandler(authService, sessions, logger),
		ExamHandler:       handler.NewExamHandler(examService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		ActivityHandler:   handler.NewActivityHandler(activity, logger),
		JWTMiddleware:     middleware.JWTProtected(testSecret, revocation),
	})

	return testEnv{app: app, db: db, sessions: sessions}
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func decodeData(t *testing.T, body envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body.Data, target))
}

// signUpAndSignIn registers a teacher and returns a bearer token for it.
func signUpAndSignIn(t *testing.T, app *fiber.App, email string) (string, uint) {
	t.Helper()

	resp := doRequest(t, app, http.MethodPost, "/api/v1/auth/sign-up", "", map[string]string{
		"name":             "Ada Lovelace",
		"email":            email,
		"password":         "analytical-engine",
		"institution_name": "Analytical College",
		"department":       "Mathematics",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{
		"email":    email,
		"password": "analytical-engine",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session struct {
		AccessToken string `json:"access_token"`
		Teacher     struct {
			ID uint `json:"id"`
		} `json:"teacher"`
	}
	decodeData(t, decodeEnvelope(t, resp), &session)
	require.NotEmpty(t, session.AccessToken)
	return session.AccessToken, session.Teacher.ID
}

func examPayload(code string, answers ...string) map[string]interface{} {
	questions := make([]map[string]string, 0, len(answers))
	for i, answer := range answers {
		questions = append(questions, map[string]string{
			"question_text":  fmt.Sprintf("Question %d", i+1),
			"option_a":       "first",
			"option_b":       "second",
			"option_c":       "third",
			"option_d":       "fourth",
			"correct_answer": answer,
			"topic_tag":      "sets",
		})
	}

	return map[string]interface{}{
		"name":             "Set Theory",
		"topic":            "Foundations",
		"access_code":      code,
		"duration_minutes": 45,
		"questions":        questions,
	}
}

func publishExam(t *testing.T, app *fiber.App, token, code string, answers ...string) uint {
	t.Helper()

	resp := doRequest(t, app, http.MethodPost, "/api/v1/exams", token, examPayload(code, answers...))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var exam struct {
		ID uint `json:"id"`
	}
	decodeData(t, decodeEnvelope(t, resp), &exam)
	require.NotZero(t, exam.ID)
	return exam.ID
}
