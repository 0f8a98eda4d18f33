package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
)

func TestExamHandlerPublishAndList(t *testing.T) {
	env := setupApp(t)
	token, teacherID := signUpAndSignIn(t, env.app, "ada@example.com")

	resp := doRequest(t, env.app, http.MethodPost, "/api/v1/exams", token, examPayload("SETS-1", "a", "B", " c "))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var exam dto.ExamDetailResponse
	decodeData(t, decodeEnvelope(t, resp), &exam)
	require.Equal(t, teacherID, exam.TeacherID)
	require.Equal(t, models.ExamStatusActive, exam.Status)
	require.Len(t, exam.Questions, 3)
	for i, question := range exam.Questions {
		require.Equal(t, i+1, question.QuestionOrder)
	}
	require.Equal(t, "B", exam.Questions[1].CorrectAnswer)
	require.Equal(t, "C", exam.Questions[2].CorrectAnswer)

	resp = doRequest(t, env.app, http.MethodGet, "/api/v1/exams", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var exams []dto.ExamResponse
	decodeData(t, decodeEnvelope(t, resp), &exams)
	require.Len(t, exams, 1)
	require.Equal(t, int64(3), exams[0].QuestionCount)
	require.Equal(t, int64(0), exams[0].SubmissionCount)
}

func TestExamHandlerRejectsInvalidDesignator(t *testing.T) {
	env := setupApp(t)
	token, _ := signUpAndSignIn(t, env.app, "ada@example.com")

	resp := doRequest(t, env.app, http.MethodPost, "/api/v1/exams", token, examPayload("SETS-1", "a", "E"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.False(t, body.Success)
	require.Contains(t, body.Details, "questions[1].correct_answer")

	var count int64
	require.NoError(t, env.db.Model(&models.Exam{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestExamHandlerRejectsMissingFields(t *testing.T) {
	env := setupApp(t)
	token, _ := signUpAndSignIn(t, env.app, "ada@example.com")

	payload := examPayload("SETS-1", "a")
	payload["name"] = "   "

	resp := doRequest(t, env.app, http.MethodPost, "/api/v1/exams", token, payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.Equal(t, "validation failed", body.Message)
	require.Contains(t, body.Details, "Name")

	payload = examPayload("SETS-1")
	resp = doRequest(t, env.app, http.MethodPost, "/api/v1/exams", token, payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestExamHandlerDuplicateAccessCode(t *testing.T) {
	env := setupApp(t)
	token, _ := signUpAndSignIn(t, env.app, "ada@example.com")
	publishExam(t, env.app, token, "SETS-1", "a")

	resp := doRequest(t, env.app, http.MethodPost, "/api/v1/exams", token, examPayload("SETS-1", "b"))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	other, _ := signUpAndSignIn(t, env.app, "grace@example.com")
	publishExam(t, env.app, other, "SETS-1", "c")
}

func TestExamHandlerSetStatus(t *testing.T) {
	env := setupApp(t)
	token, _ := signUpAndSignIn(t, env.app, "ada@example.com")
	examID := publishExam(t, env.app, token, "SETS-1", "a", "d")
	path := fmt.Sprintf("/api/v1/exams/%d/status", examID)

	for i := 0; i < 2; i++ {
		resp := doRequest(t, env.app, http.MethodPatch, path, token, map[string]string{"status": "inactive"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var exam dto.ExamResponse
		decodeData(t, decodeEnvelope(t, resp), &exam)
		require.Equal(t, models.ExamStatusInactive, exam.Status)
		require.Equal(t, int64(2), exam.QuestionCount)
	}

	resp := doRequest(t, env.app, http.MethodPatch, path, token, map[string]string{"status": "archived"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, env.app, http.MethodPatch, "/api/v1/exams/9999/status", token, map[string]string{"status": "active"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestExamHandlerScopesByTeacher(t *testing.T) {
	env := setupApp(t)
	owner, _ := signUpAndSignIn(t, env.app, "ada@example.com")
	intruder, _ := signUpAndSignIn(t, env.app, "grace@example.com")
	examID := publishExam(t, env.app, owner, "SETS-1", "a")
	path := fmt.Sprintf("/api/v1/exams/%d", examID)

	resp := doRequest(t, env.app, http.MethodGet, path, intruder, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, env.app, http.MethodDelete, path, intruder, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, env.app, http.MethodGet, path, owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestExamHandlerDelete(t *testing.T) {
	env := setupApp(t)
	token, _ := signUpAndSignIn(t, env.app, "ada@example.com")
	examID := publishExam(t, env.app, token, "SETS-1", "a", "b")
	path := fmt.Sprintf("/api/v1/exams/%d", examID)

	resp := doRequest(t, env.app, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, env.app, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	var questions int64
	require.NoError(t, env.db.Model(&models.Question{}).Where("exam_id = ?", examID).Count(&questions).Error)
	require.Zero(t, questions)

	resp = doRequest(t, env.app, http.MethodDelete, "/api/v1/exams/abc", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestExamHandlerRequiresToken(t *testing.T) {
	env := setupApp(t)

	resp := doRequest(t, env.app, http.MethodGet, "/api/v1/exams", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, env.app, http.MethodGet, "/api/v1/exams", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
