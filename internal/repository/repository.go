package repository

import (
	"context"
	"time"

	"taskManager/internal/models"

	"github.com/google/uuid"
)

// TxManager объединяет несколько операций репозиториев в одну транзакцию.
// Postgres кладёт pgx.Tx в контекст, inmemory просто вызывает fn.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}

type GroupRepository interface {
	// Create сохраняет группу и сразу добавляет владельца в участники
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Group, error)
	AddMember(ctx context.Context, groupID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus) error
	ExistsForEmailAndGroup(ctx context.Context, email string, groupID uuid.UUID) (bool, error)
	ListPendingByEmail(ctx context.Context, email string) ([]*models.Invitation, error)
	DeleteByGroup(ctx context.Context, groupID uuid.UUID) error
}

// Page описывает запрос страницы с сортировкой; ключ сортировки
// валидируется сервисом до обращения к хранилищу
type Page struct {
	Number  int
	Size    int
	SortBy  string
	SortDir string
}

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByGroup(ctx context.Context, groupID uuid.UUID) error

	// выборки видимых задач: владелец ИЛИ исполнитель, без дублей
	ListVisible(ctx context.Context, userID uuid.UUID) ([]*models.Task, error)
	ListByStatus(ctx context.Context, userID uuid.UUID, status models.TaskStatus) ([]*models.Task, error)
	ListSortedByCreated(ctx context.Context, userID uuid.UUID) ([]*models.Task, error)
	ListCreatedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*models.Task, error)
	SearchByTitle(ctx context.Context, userID uuid.UUID, title string) ([]*models.Task, error)
	ListPaged(ctx context.Context, userID uuid.UUID, page Page) ([]*models.Task, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Task, error)

	// источник для напоминаний: не ограничен вызывающим пользователем
	ListDueOn(ctx context.Context, due time.Time) ([]*models.Task, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Comment, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, log *models.ActivityLog) error
	ListForUser(ctx context.Context, userID uuid.UUID, page Page) ([]*models.ActivityLog, error)
	ListByTask(ctx context.Context, taskID uuid.UUID, page Page) ([]*models.ActivityLog, error)
}
