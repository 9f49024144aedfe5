package service

import (
	"context"
	"fmt"
	"strings"

	"taskManager/internal/models"
	"taskManager/internal/notify"
	"taskManager/internal/repository"

	"github.com/google/uuid"
)

type CommentService struct {
	comments repository.CommentRepository
	tasks    *TaskService
	activity *ActivityService
	hub      *notify.Hub
}

func NewCommentService(
	comments repository.CommentRepository,
	tasks *TaskService,
	activity *ActivityService,
	hub *notify.Hub,
) *CommentService {
	return &CommentService{
		comments: comments,
		tasks:    tasks,
		activity: activity,
		hub:      hub,
	}
}

// AddComment доступен всем, кто видит задачу; пишет аудит и шлёт
// сигнал "updated" подписчикам темы задачи
func (s *CommentService) AddComment(ctx context.Context, caller *models.User, taskID uuid.UUID, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewValidationError("text", "комментарий не может быть пустым")
	}

	task, err := s.tasks.GetTaskByID(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:       uuid.New(),
		Text:     text,
		AuthorID: caller.ID,
		TaskID:   taskID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("добавление комментария: %w", err)
	}

	s.activity.Log(ctx, models.ActivityCommentAdded,
		fmt.Sprintf("Добавлен комментарий к '%s'", task.Title), caller, task)

	s.hub.Publish(CommentTopic(taskID), "updated")

	return comment, nil
}

func (s *CommentService) GetCommentsForTask(ctx context.Context, caller *models.User, taskID uuid.UUID) ([]*models.Comment, error) {
	if _, err := s.tasks.GetTaskByID(ctx, caller, taskID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	return comments, nil
}

func CommentTopic(taskID uuid.UUID) string {
	return fmt.Sprintf("tasks/%s/comments", taskID)
}
