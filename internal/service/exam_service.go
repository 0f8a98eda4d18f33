package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-console-api/internal/config"
	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
	"github.com/noah-isme/exam-console-api/internal/observability"
	"github.com/noah-isme/exam-console-api/internal/repository"
)

const correctAnswerRule = "correct_answer must be one of A, B, C, D"

// ExamService exposes exam authoring and lifecycle operations for a teacher.
type ExamService interface {
	Publish(ctx context.Context, teacherID uint, req dto.ExamCreateRequest) (dto.ExamDetailResponse, error)
	SetStatus(ctx context.Context, teacherID, examID uint, req dto.ExamStatusRequest) (dto.ExamResponse, error)
	Delete(ctx context.Context, teacherID, examID uint) error
	List(ctx context.Context, teacherID uint) ([]dto.ExamResponse, error)
	Get(ctx context.Context, teacherID, examID uint) (dto.ExamDetailResponse, error)
}

type examService struct {
	repo      repository.ExamRepository
	validator *validator.Validate
	activity  ActivityRecorder
	stats     StatsInvalidator
	mode      string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewExamService constructs the exam service. Mode selects how Publish keeps the exam and its
// questions consistent: inside one store transaction, or with a compensating delete. Stats may be
// nil when no statistics are cached.
func NewExamService(repo repository.ExamRepository, validate *validator.Validate, activity ActivityRecorder, stats StatsInvalidator, mode string, logger zerolog.Logger) ExamService {
	if mode != config.PublishModeCompensate {
		mode = config.PublishModeTransaction
	}

	return &examService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		stats:     stats,
		mode:      mode,
		logger:    logger.With().Str("component", "exam_service").Logger(),
		now:       time.Now,
	}
}

func (s *examService) Publish(ctx context.Context, teacherID uint, req dto.ExamCreateRequest) (dto.ExamDetailResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/exam-console-api/internal/service/exam")
	ctx, span := tracer.Start(ctx, "exams.publish")
	span.SetAttributes(
		attribute.String("exam.publish_mode", s.mode),
		attribute.Int("exam.question_count", len(req.Questions)),
	)
	defer span.End()

	exam, questions, err := s.prepare(teacherID, req)
	if err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		observability.ExamPublishTotal().WithLabelValues(s.mode, "invalid").Inc()
		return dto.ExamDetailResponse{}, err
	}

	if s.mode == config.PublishModeCompensate {
		err = s.insertWithCompensation(ctx, &exam, questions)
	} else {
		err = s.insertInTransaction(ctx, &exam, questions)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		observability.ExamPublishTotal().WithLabelValues(s.mode, "failed").Inc()
		return dto.ExamDetailResponse{}, err
	}

	observability.ExamPublishTotal().WithLabelValues(s.mode, "published").Inc()
	span.SetAttributes(attribute.Int64("exam.id", int64(exam.ID)))

	s.logger.Info().
		Uint("teacher_id", teacherID).
		Uint("exam_id", exam.ID).
		Int("questions", len(questions)).
		Msg("exam published")

	recordQuietly(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    teacherID,
		Action:     models.ActivityExamPublished,
		EntityType: "exam",
		EntityID:   &exam.ID,
		Metadata: map[string]interface{}{
			"access_code":    exam.AccessCode,
			"question_count": len(questions),
		},
	})

	exam.Questions = questions
	return dto.NewExamDetailResponse(exam), nil
}

// prepare normalises the draft and runs every check that must pass before the first write.
func (s *examService) prepare(teacherID uint, req dto.ExamCreateRequest) (models.Exam, []models.Question, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Topic = strings.TrimSpace(req.Topic)
	req.AccessCode = strings.TrimSpace(req.AccessCode)

	drafts := make([]dto.QuestionDraft, len(req.Questions))
	for i, draft := range req.Questions {
		drafts[i] = dto.QuestionDraft{
			QuestionText:  strings.TrimSpace(draft.QuestionText),
			OptionA:       strings.TrimSpace(draft.OptionA),
			OptionB:       strings.TrimSpace(draft.OptionB),
			OptionC:       strings.TrimSpace(draft.OptionC),
			OptionD:       strings.TrimSpace(draft.OptionD),
			CorrectAnswer: strings.TrimSpace(draft.CorrectAnswer),
			TopicTag:      strings.TrimSpace(draft.TopicTag),
		}
	}
	req.Questions = drafts

	if err := s.validator.Struct(req); err != nil {
		return models.Exam{}, nil, err
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = models.DefaultExamDurationMinutes
	}

	now := s.now()
	exam := models.Exam{
		TeacherID:       teacherID,
		Name:            req.Name,
		Topic:           req.Topic,
		AccessCode:      req.AccessCode,
		DurationMinutes: duration,
		Status:          models.ExamStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	questions := make([]models.Question, 0, len(drafts))
	for i, draft := range drafts {
		answer, ok := models.NormalizeAnswer(draft.CorrectAnswer)
		if !ok {
			return models.Exam{}, nil, &ValidationError{
				Field: fmt.Sprintf("questions[%d].correct_answer", i),
				Rule:  correctAnswerRule,
			}
		}

		questions = append(questions, models.Question{
			QuestionOrder: i + 1,
			QuestionText:  draft.QuestionText,
			OptionA:       draft.OptionA,
			OptionB:       draft.OptionB,
			OptionC:       draft.OptionC,
			OptionD:       draft.OptionD,
			CorrectAnswer: answer,
			TopicTag:      draft.TopicTag,
			CreatedAt:     now,
		})
	}

	return exam, questions, nil
}

func (s *examService) insertInTransaction(ctx context.Context, exam *models.Exam, questions []models.Question) error {
	if err := s.repo.CreateWithQuestions(ctx, exam, questions); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateAccessCode
		}
		return &PersistenceError{Op: "publish exam", Err: err}
	}
	return nil
}

func (s *examService) insertWithCompensation(ctx context.Context, exam *models.Exam, questions []models.Question) error {
	if err := s.repo.Create(ctx, exam); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateAccessCode
		}
		return &PersistenceError{Op: "create exam", Err: err}
	}

	for i := range questions {
		questions[i].ExamID = exam.ID
	}

	insertErr := s.repo.CreateQuestions(ctx, questions)
	if insertErr == nil {
		return nil
	}

	// The exam row is already committed; remove it even if the caller has gone away.
	compensateErr := s.repo.Delete(context.WithoutCancel(ctx), exam.TeacherID, exam.ID)
	if compensateErr != nil {
		observability.ExamCompensationTotal().WithLabelValues("failed").Inc()
		s.logger.Error().
			Err(insertErr).
			AnErr("compensation_error", compensateErr).
			Uint("exam_id", exam.ID).
			Msg("exam may be orphaned after failed question insert")
		return &PersistenceError{Op: "create questions", Err: insertErr, Compensation: compensateErr}
	}

	observability.ExamCompensationTotal().WithLabelValues("succeeded").Inc()
	s.logger.Warn().Err(insertErr).Uint("exam_id", exam.ID).Msg("question insert failed; exam removed")
	return &PersistenceError{Op: "create questions", Err: insertErr}
}

func (s *examService) SetStatus(ctx context.Context, teacherID, examID uint, req dto.ExamStatusRequest) (dto.ExamResponse, error) {
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if !models.ValidExamStatus(req.Status) {
		return dto.ExamResponse{}, &ValidationError{Field: "status", Rule: "status must be active or inactive"}
	}

	if err := s.repo.UpdateStatus(ctx, teacherID, examID, req.Status, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, &PersistenceError{Op: "update exam status", Err: err}
	}

	recordQuietly(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    teacherID,
		Action:     models.ActivityExamStatusChanged,
		EntityType: "exam",
		EntityID:   &examID,
		Metadata:   map[string]interface{}{"status": req.Status},
	})

	return s.summary(ctx, teacherID, examID)
}

func (s *examService) Delete(ctx context.Context, teacherID, examID uint) error {
	if err := s.repo.Delete(ctx, teacherID, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamNotFound
		}
		return &PersistenceError{Op: "delete exam", Err: err}
	}

	s.logger.Info().Uint("teacher_id", teacherID).Uint("exam_id", examID).Msg("exam deleted")
	if s.stats != nil {
		if err := s.stats.InvalidateStats(ctx, teacherID); err != nil {
			s.logger.Warn().Err(err).Uint("teacher_id", teacherID).Msg("failed to invalidate stats cache")
		}
	}
	recordQuietly(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    teacherID,
		Action:     models.ActivityExamDeleted,
		EntityType: "exam",
		EntityID:   &examID,
	})
	return nil
}

func (s *examService) List(ctx context.Context, teacherID uint) ([]dto.ExamResponse, error) {
	exams, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, &PersistenceError{Op: "list exams", Err: err}
	}

	ids := make([]uint, 0, len(exams))
	for _, exam := range exams {
		ids = append(ids, exam.ID)
	}

	questionCounts, err := s.repo.CountQuestions(ctx, ids)
	if err != nil {
		return nil, &PersistenceError{Op: "count questions", Err: err}
	}
	submissionCounts, err := s.repo.CountSubmissions(ctx, ids)
	if err != nil {
		return nil, &PersistenceError{Op: "count submissions", Err: err}
	}

	responses := make([]dto.ExamResponse, 0, len(exams))
	for _, exam := range exams {
		response := dto.NewExamResponse(exam)
		response.QuestionCount = questionCounts[exam.ID]
		response.SubmissionCount = submissionCounts[exam.ID]
		responses = append(responses, response)
	}

	return responses, nil
}

func (s *examService) Get(ctx context.Context, teacherID, examID uint) (dto.ExamDetailResponse, error) {
	exam, err := s.repo.GetByID(ctx, teacherID, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamDetailResponse{}, ErrExamNotFound
		}
		return dto.ExamDetailResponse{}, &PersistenceError{Op: "get exam", Err: err}
	}

	detail := dto.NewExamDetailResponse(exam)
	counts, err := s.repo.CountSubmissions(ctx, []uint{exam.ID})
	if err != nil {
		return dto.ExamDetailResponse{}, &PersistenceError{Op: "count submissions", Err: err}
	}
	detail.SubmissionCount = counts[exam.ID]

	return detail, nil
}

func (s *examService) summary(ctx context.Context, teacherID, examID uint) (dto.ExamResponse, error) {
	detail, err := s.Get(ctx, teacherID, examID)
	if err != nil {
		return dto.ExamResponse{}, err
	}
	return detail.ExamResponse, nil
}
