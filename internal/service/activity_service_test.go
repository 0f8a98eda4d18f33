package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
	"github.com/noah-isme/exam-console-api/internal/repository"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	var result []models.ActivityLog
	for _, entry := range m.entries {
		if filter.ActorID != nil && entry.ActorID != *filter.ActorID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		result = append(result, entry)
	}
	return result, int64(len(result)), nil
}

func (m *memoryActivityRepo) actions() []string {
	actions := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

func TestActivityServiceRecordMasksSecrets(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		Action:     "Teacher.Signed_In",
		EntityType: "Teacher",
		EntityID:   uintPtr(1),
		Metadata: map[string]interface{}{
			"session_token": "abc",
			"ip":            "127.0.0.1",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["session_token"])
	require.Equal(t, "127.0.0.1", entry.Metadata["ip"])
	require.Equal(t, "teacher.signed_in", entry.Action)
	require.Equal(t, "teacher", entry.ActorRole)
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	svc := NewActivityService(&memoryActivityRepo{}, testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{ActorID: 1, EntityType: "exam"})
	require.Error(t, err)
}

func TestActivityServiceListScopesToActor(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())
	ctx := context.Background()

	for _, actor := range []uint{1, 2, 1} {
		_, err := svc.Record(ctx, ActivityEntry{ActorID: actor, Action: models.ActivityExamPublished, EntityType: "exam"})
		require.NoError(t, err)
	}

	result, err := svc.List(ctx, dto.ActivityListRequest{Page: 1, PageSize: 1, ActorID: 1})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	require.Equal(t, int64(2), result.Pagination.TotalItems)
	require.Equal(t, 2, result.Pagination.TotalPages)
}
