package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/exam-console-api/internal/models"
)

func TestActivityLogRepositoryFiltersAndPages(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	examID := uint(7)
	for i := 0; i < 5; i++ {
		entry := models.ActivityLog{
			ActorID:    1,
			ActorRole:  "teacher",
			Action:     models.ActivityExamPublished,
			EntityType: "exam",
			EntityID:   &examID,
			Metadata:   datatypes.JSONMap{"sequence": i},
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, &entry))
	}
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: 2, ActorRole: "teacher", Action: models.ActivityTeacherSignedIn, EntityType: "teacher", CreatedAt: base}))

	actor := uint(1)
	page, total, err := repo.List(ctx, ActivityLogFilter{ActorID: &actor, Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	require.True(t, page[0].CreatedAt.After(page[1].CreatedAt))
	require.Equal(t, base.Add(2*time.Minute), page[0].CreatedAt.UTC())

	all, total, err := repo.List(ctx, ActivityLogFilter{EntityType: "exam", EntityID: &examID})
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, all, 5)

	none, total, err := repo.List(ctx, ActivityLogFilter{Action: models.ActivityExamDeleted})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, none)
}
