package postgres

import (
	"context"
	"errors"
	"fmt"

	"taskManager/internal/logger"
	"taskManager/internal/models"
	"taskManager/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type InvitationRepo struct {
	s *Storage
}

func NewInvitationRepo(s *Storage) *InvitationRepo {
	return &InvitationRepo{s: s}
}

func (r *InvitationRepo) Create(ctx context.Context, invitation *models.Invitation) error {
	query := `INSERT INTO invitations (id, email, group_id, status, invited_at)
				VALUES ($1, $2, $3, $4, NOW())
				RETURNING invited_at`

	err := r.s.db(ctx).QueryRow(ctx, query,
		invitation.ID,
		invitation.Email,
		invitation.GroupID,
		invitation.Status,
	).Scan(&invitation.InvitedAt)

	if err != nil {
		logger.Error("Repository: Не удалось создать приглашение", err)
		return fmt.Errorf("создание приглашения: %w", err)
	}
	return nil
}

func (r *InvitationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	query := `SELECT id, email, group_id, status, invited_at
				FROM invitations
				WHERE id = $1`

	invitation := &models.Invitation{}
	err := r.s.db(ctx).QueryRow(ctx, query, id).Scan(
		&invitation.ID,
		&invitation.Email,
		&invitation.GroupID,
		&invitation.Status,
		&invitation.InvitedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить приглашение", err)
		return nil, fmt.Errorf("получение приглашения: %w", err)
	}
	return invitation, nil
}

func (r *InvitationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus) error {
	query := `UPDATE invitations SET status = $1 WHERE id = $2`

	tag, err := r.s.db(ctx).Exec(ctx, query, status, id)
	if err != nil {
		logger.Error("Repository: Не удалось обновить статус приглашения", err)
		return fmt.Errorf("обновление статуса приглашения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *InvitationRepo) ExistsForEmailAndGroup(ctx context.Context, email string, groupID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
				SELECT 1 FROM invitations
				WHERE LOWER(email) = LOWER($1) AND group_id = $2)`

	var exists bool
	err := r.s.db(ctx).QueryRow(ctx, query, email, groupID).Scan(&exists)
	if err != nil {
		logger.Error("Repository: Не удалось проверить приглашение", err)
		return false, fmt.Errorf("проверка приглашения: %w", err)
	}
	return exists, nil
}

func (r *InvitationRepo) ListPendingByEmail(ctx context.Context, email string) ([]*models.Invitation, error) {
	query := `SELECT id, email, group_id, status, invited_at
				FROM invitations
				WHERE LOWER(email) = LOWER($1) AND status = $2
				ORDER BY invited_at DESC`

	rows, err := r.s.db(ctx).Query(ctx, query, email, models.InvitationPending)
	if err != nil {
		logger.Error("Repository: Не удалось получить приглашения", err)
		return nil, fmt.Errorf("получение приглашений: %w", err)
	}
	defer rows.Close()

	invitations := []*models.Invitation{}
	for rows.Next() {
		invitation := &models.Invitation{}
		err := rows.Scan(
			&invitation.ID,
			&invitation.Email,
			&invitation.GroupID,
			&invitation.Status,
			&invitation.InvitedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования приглашения", zap.Error(err))
			continue
		}
		invitations = append(invitations, invitation)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return invitations, nil
}

func (r *InvitationRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) error {
	query := `DELETE FROM invitations WHERE group_id = $1`

	_, err := r.s.db(ctx).Exec(ctx, query, groupID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить приглашения группы", err)
		return fmt.Errorf("удаление приглашений группы: %w", err)
	}
	return nil
}
