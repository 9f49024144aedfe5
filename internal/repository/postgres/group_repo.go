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

type GroupRepo struct {
	s *Storage
}

func NewGroupRepo(s *Storage) *GroupRepo {
	return &GroupRepo{s: s}
}

// Create сохраняет группу и владельца как первого участника одной транзакцией
func (r *GroupRepo) Create(ctx context.Context, group *models.Group) error {
	return r.s.WithinTx(ctx, func(ctx context.Context) error {
		query := `INSERT INTO work_groups (id, name, owner_id, created_at)
					VALUES ($1, $2, $3, NOW())
					RETURNING created_at`

		err := r.s.db(ctx).QueryRow(ctx, query, group.ID, group.Name, group.OwnerID).
			Scan(&group.CreatedAt)
		if err != nil {
			logger.Error("Repository: Не удалось создать группу", err)
			return fmt.Errorf("создание группы: %w", err)
		}

		return r.AddMember(ctx, group.ID, group.OwnerID)
	})
}

func (r *GroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	query := `SELECT id, name, owner_id, created_at
				FROM work_groups
				WHERE id = $1`

	group := &models.Group{}
	err := r.s.db(ctx).QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.OwnerID,
		&group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить группу", err)
		return nil, fmt.Errorf("получение группы: %w", err)
	}
	return group, nil
}

func (r *GroupRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Group, error) {
	start := time.Now()

	query := `SELECT g.id, g.name, g.owner_id, g.created_at
				FROM work_groups g
				JOIN group_members m ON m.group_id = g.id
				WHERE m.user_id = $1
				ORDER BY g.created_at`

	rows, err := r.s.db(ctx).Query(ctx, query, userID)
	if err != nil {
		logger.Error("Repository: Не удалось получить группы", err)
		return nil, fmt.Errorf("получение групп: %w", err)
	}
	defer rows.Close()

	groups := []*models.Group{}
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.OwnerID, &group.CreatedAt); err != nil {
			logger.Warn("Repository: Ошибка сканирования группы", zap.Error(err))
			continue
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return groups, nil
}

// AddMember идемпотентен: повторное добавление не ошибка
func (r *GroupRepo) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	query := `INSERT INTO group_members (group_id, user_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`

	_, err := r.s.db(ctx).Exec(ctx, query, groupID, userID)
	if err != nil {
		logger.Error("Repository: Не удалось добавить участника", err)
		return fmt.Errorf("добавление участника: %w", err)
	}
	return nil
}

func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`

	_, err := r.s.db(ctx).Exec(ctx, query, groupID, userID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить участника", err)
		return fmt.Errorf("удаление участника: %w", err)
	}
	return nil
}

func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
				SELECT 1 FROM group_members
				WHERE group_id = $1 AND user_id = $2)`

	var exists bool
	err := r.s.db(ctx).QueryRow(ctx, query, groupID, userID).Scan(&exists)
	if err != nil {
		logger.Error("Repository: Не удалось проверить участие", err)
		return false, fmt.Errorf("проверка участия: %w", err)
	}
	return exists, nil
}

func (r *GroupRepo) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*models.User, error) {
	query := `SELECT u.id, u.username, u.email, u.password, u.roles, u.created_at
				FROM users u
				JOIN group_members m ON m.user_id = u.id
				WHERE m.group_id = $1
				ORDER BY u.username`

	rows, err := r.s.db(ctx).Query(ctx, query, groupID)
	if err != nil {
		logger.Error("Repository: Не удалось получить участников", err)
		return nil, fmt.Errorf("получение участников: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.Password,
			&user.Roles,
			&user.CreatedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования пользователя", zap.Error(err))
			continue
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return users, nil
}

func (r *GroupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM work_groups WHERE id = $1`

	tag, err := r.s.db(ctx).Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить группу", err)
		return fmt.Errorf("удаление группы: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
