package postgres

import (
	"context"
	"fmt"

	"taskManager/internal/logger"
	"taskManager/internal/models"
	"taskManager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CommentRepo struct {
	s *Storage
}

func NewCommentRepo(s *Storage) *CommentRepo {
	return &CommentRepo{s: s}
}

func (r *CommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	query := `INSERT INTO comments (id, text, author_id, task_id, created_at)
				VALUES ($1, $2, $3, $4, NOW())
				RETURNING created_at`

	err := r.s.db(ctx).QueryRow(ctx, query,
		comment.ID,
		comment.Text,
		comment.AuthorID,
		comment.TaskID,
	).Scan(&comment.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить комментарий", err)
		return fmt.Errorf("добавление комментария: %w", err)
	}
	return nil
}

func (r *CommentRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Comment, error) {
	query := `SELECT id, text, author_id, task_id, created_at
				FROM comments
				WHERE task_id = $1
				ORDER BY created_at ASC`

	rows, err := r.s.db(ctx).Query(ctx, query, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить комментарии", err)
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		comment := &models.Comment{}
		err := rows.Scan(
			&comment.ID,
			&comment.Text,
			&comment.AuthorID,
			&comment.TaskID,
			&comment.CreatedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования комментария", zap.Error(err))
			continue
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return comments, nil
}

type ActivityRepo struct {
	s *Storage
}

func NewActivityRepo(s *Storage) *ActivityRepo {
	return &ActivityRepo{s: s}
}

func (r *ActivityRepo) Create(ctx context.Context, log *models.ActivityLog) error {
	query := `INSERT INTO activity_logs (id, type, description, user_id, task_id, timestamp)
				VALUES ($1, $2, $3, $4, $5, NOW())
				RETURNING timestamp`

	err := r.s.db(ctx).QueryRow(ctx, query,
		log.ID,
		log.Type,
		log.Description,
		log.UserID,
		log.TaskID,
	).Scan(&log.Timestamp)

	if err != nil {
		logger.Error("Repository: Не удалось записать активность", err)
		return fmt.Errorf("запись активности: %w", err)
	}
	return nil
}

// ListForUser - активность по задачам, где пользователь владелец или исполнитель
func (r *ActivityRepo) ListForUser(ctx context.Context, userID uuid.UUID, page repository.Page) ([]*models.ActivityLog, error) {
	offset := (page.Number - 1) * page.Size

	query := `SELECT a.id, a.type, a.description, a.user_id, a.task_id, a.timestamp
				FROM activity_logs a
				JOIN tasks t ON t.id = a.task_id
				WHERE t.owner_id = $1 OR t.assigned_id = $1
				ORDER BY a.timestamp DESC
				LIMIT $2 OFFSET $3`
	return r.queryLogs(ctx, query, userID, page.Size, offset)
}

func (r *ActivityRepo) ListByTask(ctx context.Context, taskID uuid.UUID, page repository.Page) ([]*models.ActivityLog, error) {
	offset := (page.Number - 1) * page.Size

	query := `SELECT id, type, description, user_id, task_id, timestamp
				FROM activity_logs
				WHERE task_id = $1
				ORDER BY timestamp DESC
				LIMIT $2 OFFSET $3`
	return r.queryLogs(ctx, query, taskID, page.Size, offset)
}

func (r *ActivityRepo) queryLogs(ctx context.Context, query string, args ...any) ([]*models.ActivityLog, error) {
	rows, err := r.s.db(ctx).Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить активность", err)
		return nil, fmt.Errorf("получение активности: %w", err)
	}
	defer rows.Close()

	logs := []*models.ActivityLog{}
	for rows.Next() {
		entry := &models.ActivityLog{}
		err := rows.Scan(
			&entry.ID,
			&entry.Type,
			&entry.Description,
			&entry.UserID,
			&entry.TaskID,
			&entry.Timestamp,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования активности", zap.Error(err))
			continue
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return logs, nil
}
