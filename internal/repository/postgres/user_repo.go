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
	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepo struct {
	s *Storage
}

func NewUserRepo(s *Storage) *UserRepo {
	return &UserRepo{s: s}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users
				(id, username, email, password, roles, created_at)
				VALUES ($1, $2, $3, $4, $5, NOW())
				RETURNING created_at`

	err := r.s.db(ctx).QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.Password,
		user.Roles,
	).Scan(&user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		logger.Error("Repository: Не удалось добавить пользователя", err)
		return fmt.Errorf("добавление пользователя: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT id, username, email, password, roles, created_at
				FROM users
				WHERE id = $1`
	return r.scanUser(r.s.db(ctx).QueryRow(ctx, query, id))
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, email, password, roles, created_at
				FROM users
				WHERE username = $1`
	return r.scanUser(r.s.db(ctx).QueryRow(ctx, query, username))
}

func (r *UserRepo) scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password,
		&user.Roles,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return user, nil
}

type RefreshTokenRepo struct {
	s *Storage
}

func NewRefreshTokenRepo(s *Storage) *RefreshTokenRepo {
	return &RefreshTokenRepo{s: s}
}

func (r *RefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (token, user_id, expires_at)
				VALUES ($1, $2, $3)`

	_, err := r.s.db(ctx).Exec(ctx, query, token.Token, token.UserID, token.ExpiresAt)
	if err != nil {
		logger.Error("Repository: Не удалось сохранить refresh-токен", err)
		return fmt.Errorf("сохранение refresh-токена: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepo) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `SELECT token, user_id, expires_at
				FROM refresh_tokens
				WHERE token = $1`

	result := &models.RefreshToken{}
	err := r.s.db(ctx).QueryRow(ctx, query, token).Scan(
		&result.Token,
		&result.UserID,
		&result.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить refresh-токен", err)
		return nil, fmt.Errorf("получение refresh-токена: %w", err)
	}
	return result, nil
}

func (r *RefreshTokenRepo) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM refresh_tokens WHERE token = $1`

	_, err := r.s.db(ctx).Exec(ctx, query, token)
	if err != nil {
		logger.Error("Repository: Не удалось удалить refresh-токен", err)
		return fmt.Errorf("удаление refresh-токена: %w", err)
	}
	return nil
}
