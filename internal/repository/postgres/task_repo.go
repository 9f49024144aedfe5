package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/models"
	"taskManager/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TaskRepo struct {
	s *Storage
}

func NewTaskRepo(s *Storage) *TaskRepo {
	return &TaskRepo{s: s}
}

const taskColumns = `id, title, description, status, priority, due_date,
	group_id, owner_id, assigned_id, created_at, completed_at`

// видимость на уровне выборок: владелец или исполнитель
const visibleClause = `(owner_id = $1 OR assigned_id = $1)`

func (r *TaskRepo) Create(ctx context.Context, task *models.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(id, title, description, status, priority, due_date,
				group_id, owner_id, assigned_id, created_at, completed_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.s.db(ctx).Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.GroupID,
		task.OwnerID,
		task.AssignedID,
		task.CreatedAt,
		task.CompletedAt,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task := &models.Task{}
	err := r.s.db(ctx).QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.GroupID,
		&task.OwnerID,
		&task.AssignedID,
		&task.CreatedAt,
		&task.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return task, nil
}

func (r *TaskRepo) Update(ctx context.Context, task *models.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				priority = $4,
				due_date = $5,
				group_id = $6,
				assigned_id = $7,
				completed_at = $8
			WHERE id = $9`

	tag, err := r.s.db(ctx).Exec(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.GroupID,
		task.AssignedID,
		task.CompletedAt,
		task.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1`

	tag, err := r.s.db(ctx).Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err)
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TaskRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) error {
	query := `DELETE FROM tasks WHERE group_id = $1`

	_, err := r.s.db(ctx).Exec(ctx, query, groupID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачи группы", err)
		return fmt.Errorf("удаление задач группы: %w", err)
	}
	return nil
}

func (r *TaskRepo) ListVisible(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE ` + visibleClause + `
				ORDER BY created_at DESC`
	return r.queryTasks(ctx, query, userID)
}

func (r *TaskRepo) ListByStatus(ctx context.Context, userID uuid.UUID, status models.TaskStatus) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE ` + visibleClause + ` AND status = $2
				ORDER BY created_at DESC`
	return r.queryTasks(ctx, query, userID, status)
}

func (r *TaskRepo) ListSortedByCreated(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	return r.ListVisible(ctx, userID)
}

func (r *TaskRepo) ListCreatedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE ` + visibleClause + ` AND created_at >= $2 AND created_at < $3
				ORDER BY created_at DESC`
	return r.queryTasks(ctx, query, userID, start, end)
}

func (r *TaskRepo) SearchByTitle(ctx context.Context, userID uuid.UUID, title string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE ` + visibleClause + ` AND title ILIKE '%' || $2 || '%'
				ORDER BY created_at DESC`
	return r.queryTasks(ctx, query, userID, title)
}

// sortColumns - допустимые ключи сортировки, всё остальное падает в created_at
var sortColumns = map[string]string{
	"created_at": "created_at",
	"due_date":   "due_date",
	"priority":   "priority",
	"title":      "title",
	"status":     "status",
}

func (r *TaskRepo) ListPaged(ctx context.Context, userID uuid.UUID, page repository.Page) ([]*models.Task, error) {
	column, ok := sortColumns[page.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if page.SortDir == "desc" {
		direction = "DESC"
	}
	offset := (page.Number - 1) * page.Size

	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE ` + visibleClause + `
				ORDER BY ` + column + ` ` + direction + `
				LIMIT $2 OFFSET $3`
	return r.queryTasks(ctx, query, userID, page.Size, offset)
}

func (r *TaskRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE group_id = $1
				ORDER BY created_at DESC`
	return r.queryTasks(ctx, query, groupID)
}

func (r *TaskRepo) ListDueOn(ctx context.Context, due time.Time) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE due_date = $1::date AND status != $2`
	return r.queryTasks(ctx, query, due, models.StatusCompleted)
}

func (r *TaskRepo) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	start := time.Now()

	rows, err := r.s.db(ctx).Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task := &models.Task{}
		err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Priority,
			&task.DueDate,
			&task.GroupID,
			&task.OwnerID,
			&task.AssignedID,
			&task.CreatedAt,
			&task.CompletedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}
