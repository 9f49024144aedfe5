package service

import (
	"context"

	"taskManager/internal/logger"
	"taskManager/internal/models"
	"taskManager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ActivityService struct {
	activity repository.ActivityRepository
}

func NewActivityService(activity repository.ActivityRepository) *ActivityService {
	return &ActivityService{activity: activity}
}

// Log пишет запись аудита best-effort: сбой логируется и не ломает
// породившую операцию
func (s *ActivityService) Log(ctx context.Context, activityType, description string, actor *models.User, task *models.Task) {
	entry := &models.ActivityLog{
		ID:          uuid.New(),
		Type:        activityType,
		Description: description,
		UserID:      actor.ID,
		TaskID:      task.ID,
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		logger.Warn("Service: Не удалось записать активность",
			zap.String("type", activityType),
			zap.Error(err))
	}
}

func (s *ActivityService) GetRecentForUser(ctx context.Context, caller *models.User, page repository.Page) ([]*models.ActivityLog, error) {
	return s.activity.ListForUser(ctx, caller.ID, normalizePage(page))
}

func (s *ActivityService) GetForTask(ctx context.Context, taskID uuid.UUID, page repository.Page) ([]*models.ActivityLog, error) {
	return s.activity.ListByTask(ctx, taskID, normalizePage(page))
}

func normalizePage(page repository.Page) repository.Page {
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Size < 1 || page.Size > 100 {
		page.Size = 20
	}
	return page
}
