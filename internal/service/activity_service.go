package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
	"github.com/noah-isme/exam-console-api/internal/repository"
)

var (
	errActivityAction = errors.New("activity action is required")
	errActivityEntity = errors.New("activity entity type is required")
)

// Metadata keys containing any of these fragments are masked before they are stored.
var redactedMetadataKeys = []string{"password", "token", "secret"}

// ActivityEntry is one audit trail record as produced by the exam and auth services.
type ActivityEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder is the write side of the audit trail.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error)
}

// ActivityService records and queries the audit trail.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	action := canonicalToken(entry.Action)
	if action == "" {
		return dto.ActivityResponse{}, errActivityAction
	}
	entityType := canonicalToken(entry.EntityType)
	if entityType == "" {
		return dto.ActivityResponse{}, errActivityEntity
	}

	role := canonicalToken(entry.ActorRole)
	if role == "" {
		role = TeacherRole
	}

	log := models.ActivityLog{
		ActorID:    entry.ActorID,
		ActorRole:  role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entry.EntityID,
		Metadata:   redactMetadata(entry.Metadata),
	}
	if err := s.repo.Create(ctx, &log); err != nil {
		s.logger.Error().Err(err).Str("action", action).Uint("actor_id", entry.ActorID).Msg("failed to persist activity log")
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(log), nil
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	filter := repository.ActivityLogFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Action:     canonicalToken(req.Action),
		EntityType: canonicalToken(req.EntityType),
	}
	if req.ActorID != 0 {
		actorID := req.ActorID
		filter.ActorID = &actorID
	}

	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	result := dto.ActivityListResponse{
		Items: make([]dto.ActivityResponse, len(logs)),
		Pagination: dto.PaginationMeta{
			Page:       max(req.Page, 1),
			PageSize:   req.PageSize,
			TotalItems: total,
			TotalPages: 1,
		},
	}
	for i, log := range logs {
		result.Items[i] = dto.NewActivityResponse(log)
	}
	if req.PageSize > 0 {
		size := int64(req.PageSize)
		result.Pagination.TotalPages = int((total + size - 1) / size)
	}

	return result, nil
}

// recordQuietly writes an audit entry without failing the calling operation.
func recordQuietly(ctx context.Context, recorder ActivityRecorder, logger zerolog.Logger, entry ActivityEntry) {
	if recorder == nil {
		return
	}
	if _, err := recorder.Record(ctx, entry); err != nil {
		logger.Warn().Err(err).Str("action", entry.Action).Msg("activity not recorded")
	}
}

func redactMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(metadata))
	for key, value := range metadata {
		if sensitiveKey(key) {
			value = "***"
		}
		out[key] = value
	}
	return out
}

func sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range redactedMetadataKeys {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

func canonicalToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
