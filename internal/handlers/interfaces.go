package handlers

import (
	"context"

	"taskManager/internal/models"
	"taskManager/internal/repository"
	"taskManager/internal/service"

	"github.com/google/uuid"
)

// Интерфейсы сервисов объявлены на стороне потребителя,
// в тестах подменяются моками

type AuthService interface {
	Register(ctx context.Context, username, password, email string, roles []string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

type TaskService interface {
	CreateTask(ctx context.Context, caller *models.User, input service.CreateTaskInput) (*models.Task, error)
	GetTaskByID(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Task, error)
	UpdateTask(ctx context.Context, caller *models.User, id uuid.UUID, patch service.TaskPatch) (*models.Task, error)
	Unassign(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Task, error)
	DeleteTask(ctx context.Context, caller *models.User, id uuid.UUID) error
	GetAllTasks(ctx context.Context, caller *models.User) ([]*models.Task, error)
	GetTasksByStatus(ctx context.Context, caller *models.User, status models.TaskStatus) ([]*models.Task, error)
	GetTasksSortedByDate(ctx context.Context, caller *models.User) ([]*models.Task, error)
	GetTasksCreatedToday(ctx context.Context, caller *models.User) ([]*models.Task, error)
	GetTasksCreatedThisWeek(ctx context.Context, caller *models.User) ([]*models.Task, error)
	GetTasksBetweenDates(ctx context.Context, caller *models.User, fromDate, toDate string) ([]*models.Task, error)
	GetTasksByMonth(ctx context.Context, caller *models.User, month, year int) ([]*models.Task, error)
	GetTasksPaginated(ctx context.Context, caller *models.User, page repository.Page) ([]*models.Task, error)
	SearchByTitle(ctx context.Context, caller *models.User, title string) ([]*models.Task, error)
	GetTasksByGroup(ctx context.Context, caller *models.User, groupID uuid.UUID) ([]*models.Task, error)
}

type GroupService interface {
	CreateGroup(ctx context.Context, caller *models.User, name string) (*models.Group, error)
	GetGroupByID(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Group, error)
	GetMyGroups(ctx context.Context, caller *models.User) ([]*models.Group, error)
	GetMembers(ctx context.Context, caller *models.User, groupID uuid.UUID) ([]*models.User, error)
	LeaveGroup(ctx context.Context, caller *models.User, groupID uuid.UUID) error
	DeleteGroup(ctx context.Context, caller *models.User, groupID uuid.UUID) error
}

type InvitationService interface {
	Invite(ctx context.Context, caller *models.User, groupID uuid.UUID, targetEmail string) (*models.Invitation, error)
	Accept(ctx context.Context, caller *models.User, invitationID uuid.UUID) error
	Decline(ctx context.Context, caller *models.User, invitationID uuid.UUID) error
	GetMyPending(ctx context.Context, caller *models.User) ([]*models.Invitation, error)
}

type CommentService interface {
	AddComment(ctx context.Context, caller *models.User, taskID uuid.UUID, text string) (*models.Comment, error)
	GetCommentsForTask(ctx context.Context, caller *models.User, taskID uuid.UUID) ([]*models.Comment, error)
}

type ActivityService interface {
	GetRecentForUser(ctx context.Context, caller *models.User, page repository.Page) ([]*models.ActivityLog, error)
	GetForTask(ctx context.Context, taskID uuid.UUID, page repository.Page) ([]*models.ActivityLog, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ReminderRunner запускает внеплановую рассылку напоминаний
type ReminderRunner interface {
	SendDueDateReminders(ctx context.Context)
}
