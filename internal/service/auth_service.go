package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskManager/internal/auth"
	"taskManager/internal/logger"
	"taskManager/internal/models"
	"taskManager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	users         repository.UserRepository
	refreshTokens repository.RefreshTokenRepository
	tokens        *auth.TokenProvider
	refreshTTL    time.Duration
}

func NewAuthService(
	users repository.UserRepository,
	refreshTokens repository.RefreshTokenRepository,
	tokens *auth.TokenProvider,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:         users,
		refreshTokens: refreshTokens,
		tokens:        tokens,
		refreshTTL:    refreshTTL,
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Register создаёт пользователя с захэшированным паролем.
// Роли нормализуются к виду ROLE_XXX, по умолчанию ROLE_USER.
func (s *AuthService) Register(ctx context.Context, username, password, email string, roles []string) (*models.User, error) {
	fieldErrors := map[string]string{}
	if len(strings.TrimSpace(username)) < 3 {
		fieldErrors["username"] = "минимум 3 символа"
	}
	if len(password) < 6 {
		fieldErrors["password"] = "минимум 6 символов"
	}
	if !strings.Contains(email, "@") {
		fieldErrors["email"] = "некорректный email"
	}
	if len(fieldErrors) > 0 {
		return nil, NewValidationErrors(fieldErrors)
	}

	normalized := []string{}
	for _, role := range roles {
		if r := models.NormalizeRole(role); r != "" {
			normalized = append(normalized, r)
		}
	}
	if len(normalized) == 0 {
		normalized = []string{models.RoleUser}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, NewInternal("не удалось захэшировать пароль", err)
	}

	user := &models.User{
		ID:       uuid.New(),
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: hash,
		Roles:    normalized,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("username", "имя пользователя уже занято")
		}
		return nil, fmt.Errorf("регистрация пользователя: %w", err)
	}

	logger.Info("Service: Пользователь зарегистрирован", zap.String("username", user.Username))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewUnauthorized("неверное имя пользователя или пароль")
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	if !auth.CheckPassword(user.Password, password) {
		logger.Warn("Service: Неудачная попытка входа", zap.String("username", username))
		return nil, NewUnauthorized("неверное имя пользователя или пароль")
	}

	return s.issueTokens(ctx, user)
}

// Refresh выпускает новую пару токенов по действующему refresh-токену.
// Просроченный токен удаляется и отклоняется.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.refreshTokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("Refresh-токен", refreshToken)
		}
		return nil, fmt.Errorf("получение refresh-токена: %w", err)
	}

	if stored.Expired(time.Now()) {
		if err := s.refreshTokens.Delete(ctx, refreshToken); err != nil {
			logger.Warn("Service: Не удалось удалить просроченный токен", zap.Error(err))
		}
		return nil, NewUnauthorized("refresh-токен просрочен, войдите заново")
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, NewUnauthorized("пользователь не найден")
	}

	if err := s.refreshTokens.Delete(ctx, refreshToken); err != nil {
		logger.Warn("Service: Не удалось удалить использованный токен", zap.Error(err))
	}
	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.refreshTokens.Delete(ctx, refreshToken)
}

// ResolveUser - identity resolver: принципал из токена -> пользователь из хранилища
func (s *AuthService) ResolveUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewUnauthorized("пользователь не найден")
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user.Username, user.Roles)
	if err != nil {
		return nil, NewInternal("не удалось выпустить токен", err)
	}

	refresh := &models.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.refreshTokens.Create(ctx, refresh); err != nil {
		return nil, fmt.Errorf("сохранение refresh-токена: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Token,
	}, nil
}
