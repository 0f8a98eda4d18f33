package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/export"
	"github.com/noah-isme/exam-console-api/internal/models"
	"github.com/noah-isme/exam-console-api/internal/observability"
	"github.com/noah-isme/exam-console-api/internal/repository"
)

// SubmissionService serves the teacher's read-only view of student submissions.
type SubmissionService interface {
	List(ctx context.Context, teacherID uint, examID *uint) ([]dto.SubmissionResponse, error)
	Stats(ctx context.Context, teacherID uint, examID *uint) (dto.SubmissionStatsResponse, error)
	Detail(ctx context.Context, teacherID, submissionID uint) (dto.SubmissionDetailResponse, error)
	ExportBatch(ctx context.Context, teacherID uint, examID *uint) (export.Artifact, error)
	ExportDetail(ctx context.Context, teacherID, submissionID uint) (export.Artifact, error)
	StatsInvalidator
}

// StatsInvalidator drops cached submission statistics after writes that change them.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context, teacherID uint) error
}

type submissionService struct {
	repo     repository.SubmissionRepository
	cache    *redis.Client
	cacheTTL time.Duration
	options  export.Options
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSubmissionService constructs the submission service. The cache is optional.
func NewSubmissionService(repo repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, options export.Options, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		options:  options,
		logger:   logger.With().Str("component", "submission_service").Logger(),
		now:      time.Now,
	}
}

func (s *submissionService) List(ctx context.Context, teacherID uint, examID *uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.repo.ListForTeacher(ctx, teacherID, repository.SubmissionFilter{ExamID: examID})
	if err != nil {
		return nil, &PersistenceError{Op: "list submissions", Err: err}
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Stats(ctx context.Context, teacherID uint, examID *uint) (dto.SubmissionStatsResponse, error) {
	cacheKey := statsCacheKey(teacherID, examID)
	tracer := otel.Tracer("github.com/noah-isme/exam-console-api/internal/service/submission")
	ctx, span := tracer.Start(ctx, "submissions.stats")
	span.SetAttributes(attribute.String("stats.cache_key", cacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.SubmissionStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				observability.StatsCacheTotal().WithLabelValues("hit").Inc()
				span.SetAttributes(attribute.Bool("stats.cache_hit", true))
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
			span.RecordError(err)
		}
		observability.StatsCacheTotal().WithLabelValues("miss").Inc()
	}

	submissions, err := s.repo.ListForTeacher(ctx, teacherID, repository.SubmissionFilter{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_submissions_failed")
		return dto.SubmissionStatsResponse{}, &PersistenceError{Op: "list submissions", Err: err}
	}
	if examID != nil {
		submissions = FilterByExam(submissions, *examID)
	}

	response := dto.SubmissionStatsResponse{
		ExamID:      examID,
		Stats:       Summarize(submissions),
		GeneratedAt: s.now().UTC(),
	}
	span.SetAttributes(attribute.Int("stats.submission_count", response.Stats.Count))

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store stats cache")
				span.RecordError(err)
			}
		}
	}

	return response, nil
}

func (s *submissionService) Detail(ctx context.Context, teacherID, submissionID uint) (dto.SubmissionDetailResponse, error) {
	submission, responses, err := s.load(ctx, teacherID, submissionID)
	if err != nil {
		return dto.SubmissionDetailResponse{}, err
	}

	return dto.NewSubmissionDetailResponse(submission, responses), nil
}

func (s *submissionService) ExportBatch(ctx context.Context, teacherID uint, examID *uint) (export.Artifact, error) {
	submissions, err := s.repo.ListForTeacher(ctx, teacherID, repository.SubmissionFilter{ExamID: examID})
	if err != nil {
		return export.Artifact{}, &PersistenceError{Op: "list submissions", Err: err}
	}

	observability.ExportsTotal().WithLabelValues(export.KindBatch).Inc()
	s.logger.Info().Uint("teacher_id", teacherID).Int("rows", len(submissions)).Msg("batch export generated")

	return export.Artifact{
		Filename:    export.BatchFilename(examID, s.now()),
		ContentType: export.ContentType,
		Kind:        export.KindBatch,
		Body:        export.Batch(submissions, s.options),
	}, nil
}

func (s *submissionService) ExportDetail(ctx context.Context, teacherID, submissionID uint) (export.Artifact, error) {
	submission, responses, err := s.load(ctx, teacherID, submissionID)
	if err != nil {
		return export.Artifact{}, err
	}

	observability.ExportsTotal().WithLabelValues(export.KindDetail).Inc()

	return export.Artifact{
		Filename:    export.DetailFilename(submission.Student.RollNumber, s.now()),
		ContentType: export.ContentType,
		Kind:        export.KindDetail,
		Body:        export.Detail(responses),
	}, nil
}

func (s *submissionService) load(ctx context.Context, teacherID, submissionID uint) (models.Submission, []models.Response, error) {
	submission, err := s.repo.GetForTeacher(ctx, teacherID, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, nil, ErrSubmissionNotFound
		}
		return models.Submission{}, nil, &PersistenceError{Op: "get submission", Err: err}
	}

	responses, err := s.repo.ListResponses(ctx, submission.ID)
	if err != nil {
		return models.Submission{}, nil, &PersistenceError{Op: "list responses", Err: err}
	}

	return submission, responses, nil
}

// InvalidateStats removes every cached statistics entry of the teacher, the all-exams entry included.
func (s *submissionService) InvalidateStats(ctx context.Context, teacherID uint) error {
	if s.cache == nil {
		return nil
	}

	pattern := fmt.Sprintf("stats:teacher:%d:exam:*", teacherID)
	iter := s.cache.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	return s.cache.Del(ctx, keys...).Err()
}

func statsCacheKey(teacherID uint, examID *uint) string {
	if examID == nil {
		return fmt.Sprintf("stats:teacher:%d:exam:all", teacherID)
	}
	return fmt.Sprintf("stats:teacher:%d:exam:%d", teacherID, *examID)
}
