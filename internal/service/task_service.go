package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskManager/internal/email"
	"taskManager/internal/logger"
	"taskManager/internal/models"
	"taskManager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskService - ядро контроля доступа: кто видит задачу, кто и что
// может в ней менять. Видимость складывается из трёх независимых
// отношений: владелец, исполнитель, участник группы задачи.
type TaskService struct {
	tasks    repository.TaskRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	mail     email.Sender
	activity *ActivityService
}

func NewTaskService(
	tasks repository.TaskRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	mail email.Sender,
	activity *ActivityService,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		groups:   groups,
		users:    users,
		mail:     mail,
		activity: activity,
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	GroupID     *uuid.UUID
	AssignedID  *uuid.UUID
}

// TaskPatch - частичное обновление: nil означает "поле не трогать".
// Снятие исполнителя - отдельная операция Unassign, здесь его нет.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDate     *time.Time
	GroupID     *uuid.UUID
	AssignedID  *uuid.UUID
}

func (s *TaskService) CreateTask(ctx context.Context, caller *models.User, input CreateTaskInput) (*models.Task, error) {
	if len(strings.TrimSpace(input.Title)) < 3 {
		return nil, NewValidationError("title", "название должно быть не короче 3 символов")
	}

	status := input.Status
	if status == "" {
		status = models.StatusToDo
	}
	if !models.ValidStatus(status) {
		return nil, NewValidationError("status", "недопустимый статус")
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, NewValidationError("priority", "недопустимый приоритет")
	}

	var group *models.Group
	if input.GroupID != nil {
		var err error
		group, err = s.requireMembership(ctx, caller, *input.GroupID)
		if err != nil {
			return nil, err
		}
	}

	var assignee *models.User
	if input.AssignedID != nil {
		if input.GroupID == nil {
			return nil, NewBadRequest("исполнителя можно назначить только в задаче группы")
		}
		var err error
		assignee, err = s.requireAssignable(ctx, *input.AssignedID, *input.GroupID)
		if err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
		GroupID:     input.GroupID,
		OwnerID:     caller.ID,
		AssignedID:  input.AssignedID,
		CreatedAt:   time.Now(),
	}
	if status == models.StatusCompleted {
		now := task.CreatedAt
		task.CompletedAt = &now
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	s.activity.Log(ctx, models.ActivityTaskCreated,
		fmt.Sprintf("Создана задача '%s'", task.Title), caller, task)

	// письмо о назначении - best-effort, создание задачи не ломает
	if assignee != nil && group != nil {
		if err := s.mail.SendTaskAssignment(ctx, assignee.Email, task.Title, group.Name, caller.Username); err != nil {
			logger.Warn("Service: Не удалось отправить письмо о назначении", zap.Error(err))
		}
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", task.ID.String()),
		zap.String("owner", caller.Username))
	return task, nil
}

// GetTaskByID: NotFound если задачи нет, Forbidden если предикат
// видимости ложен
func (s *TaskService) GetTaskByID(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("Задача", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	visible, err := s.isVisible(ctx, task, caller)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, NewForbidden("нет доступа к этой задаче")
	}
	return task, nil
}

func (s *TaskService) isVisible(ctx context.Context, task *models.Task, caller *models.User) (bool, error) {
	if task.IsOwner(caller) || task.IsAssignee(caller) {
		return true, nil
	}
	if task.GroupID == nil {
		return false, nil
	}
	member, err := s.groups.IsMember(ctx, *task.GroupID, caller.ID)
	if err != nil {
		return false, fmt.Errorf("проверка участия: %w", err)
	}
	return member, nil
}

// UpdateTask: владелец меняет любые поля, исполнитель - только статус.
// Присланные исполнителем прочие поля молча игнорируются, запрос
// при этом успешен.
func (s *TaskService) UpdateTask(ctx context.Context, caller *models.User, id uuid.UUID, patch TaskPatch) (*models.Task, error) {
	task, err := s.GetTaskByID(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	switch {
	case task.IsOwner(caller):
		if err := s.applyOwnerPatch(ctx, caller, task, patch); err != nil {
			return nil, err
		}
	case task.IsAssignee(caller):
		if patch.Status != nil {
			if !models.ValidStatus(*patch.Status) {
				return nil, NewValidationError("status", "недопустимый статус")
			}
			applyStatus(task, *patch.Status)
		}
	default:
		return nil, NewForbidden("вы не можете изменять эту задачу")
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	return task, nil
}

func (s *TaskService) applyOwnerPatch(ctx context.Context, caller *models.User, task *models.Task, patch TaskPatch) error {
	if patch.Title != nil {
		if len(strings.TrimSpace(*patch.Title)) < 3 {
			return NewValidationError("title", "название должно быть не короче 3 символов")
		}
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		if !models.ValidStatus(*patch.Status) {
			return NewValidationError("status", "недопустимый статус")
		}
		applyStatus(task, *patch.Status)
	}
	if patch.Priority != nil {
		if !models.ValidPriority(*patch.Priority) {
			return NewValidationError("priority", "недопустимый приоритет")
		}
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}

	if patch.GroupID != nil {
		if _, err := s.requireMembership(ctx, caller, *patch.GroupID); err != nil {
			return err
		}
		// при переносе в другую группу текущий исполнитель
		// должен состоять в ней; если патч меняет и исполнителя,
		// нового проверит ветка ниже
		if task.AssignedID != nil && patch.AssignedID == nil &&
			(task.GroupID == nil || *task.GroupID != *patch.GroupID) {
			if _, err := s.requireAssignable(ctx, *task.AssignedID, *patch.GroupID); err != nil {
				return err
			}
		}
		task.GroupID = patch.GroupID
	}

	if patch.AssignedID != nil {
		if task.GroupID == nil {
			return NewBadRequest("исполнителя можно назначить только в задаче группы")
		}
		changed := task.AssignedID == nil || *task.AssignedID != *patch.AssignedID
		assignee, err := s.requireAssignable(ctx, *patch.AssignedID, *task.GroupID)
		if err != nil {
			return err
		}
		task.AssignedID = patch.AssignedID

		if changed {
			s.activity.Log(ctx, models.ActivityTaskAssigned,
				fmt.Sprintf("Задача '%s' назначена на %s", task.Title, assignee.Username), caller, task)
			s.sendAssignmentMail(ctx, caller, task, assignee)
		}
	}
	return nil
}

// applyStatus переключает completedAt вместе со статусом:
// вход в COMPLETED ставит отметку, выход очищает,
// COMPLETED -> COMPLETED отметку не трогает
func applyStatus(task *models.Task, status models.TaskStatus) {
	if status == models.StatusCompleted {
		if task.Status != models.StatusCompleted {
			now := time.Now()
			task.CompletedAt = &now
		}
	} else {
		task.CompletedAt = nil
	}
	task.Status = status
}

// Unassign - явная операция снятия исполнителя, только для владельца
func (s *TaskService) Unassign(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := s.GetTaskByID(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !task.IsOwner(caller) {
		return nil, NewForbidden("снять исполнителя может только владелец задачи")
	}

	task.AssignedID = nil
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, caller *models.User, id uuid.UUID) error {
	task, err := s.GetTaskByID(ctx, caller, id)
	if err != nil {
		return err
	}
	if !task.IsOwner(caller) {
		return NewForbidden("удалить задачу может только владелец")
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	return nil
}

// --- выборки; все ограничены задачами вызывающего (владелец или исполнитель) ---

func (s *TaskService) GetAllTasks(ctx context.Context, caller *models.User) ([]*models.Task, error) {
	return s.tasks.ListVisible(ctx, caller.ID)
}

func (s *TaskService) GetTasksByStatus(ctx context.Context, caller *models.User, status models.TaskStatus) ([]*models.Task, error) {
	if !models.ValidStatus(status) {
		return nil, NewValidationError("status", "недопустимый статус")
	}
	return s.tasks.ListByStatus(ctx, caller.ID, status)
}

func (s *TaskService) GetTasksSortedByDate(ctx context.Context, caller *models.User) ([]*models.Task, error) {
	return s.tasks.ListSortedByCreated(ctx, caller.ID)
}

func (s *TaskService) GetTasksCreatedToday(ctx context.Context, caller *models.User) ([]*models.Task, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.tasks.ListCreatedBetween(ctx, caller.ID, start, start.AddDate(0, 0, 1))
}

func (s *TaskService) GetTasksCreatedThisWeek(ctx context.Context, caller *models.User) ([]*models.Task, error) {
	now := time.Now()
	return s.tasks.ListCreatedBetween(ctx, caller.ID, now.AddDate(0, 0, -7), now)
}

// GetTasksBetweenDates: начало включительно, конец - до конца дня toDate
func (s *TaskService) GetTasksBetweenDates(ctx context.Context, caller *models.User, fromDate, toDate string) ([]*models.Task, error) {
	from, err := time.ParseInLocation("2006-01-02", fromDate, time.Local)
	if err != nil {
		return nil, NewValidationError("fromDate", "ожидается формат yyyy-mm-dd")
	}
	to, err := time.ParseInLocation("2006-01-02", toDate, time.Local)
	if err != nil {
		return nil, NewValidationError("toDate", "ожидается формат yyyy-mm-dd")
	}
	return s.tasks.ListCreatedBetween(ctx, caller.ID, from, to.AddDate(0, 0, 1))
}

func (s *TaskService) GetTasksByMonth(ctx context.Context, caller *models.User, month, year int) ([]*models.Task, error) {
	if month < 1 || month > 12 {
		return nil, NewValidationError("month", "месяц от 1 до 12")
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	return s.tasks.ListCreatedBetween(ctx, caller.ID, start, start.AddDate(0, 1, 0))
}

func (s *TaskService) GetTasksPaginated(ctx context.Context, caller *models.User, page repository.Page) ([]*models.Task, error) {
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Size < 1 || page.Size > 100 {
		page.Size = 10
	}
	return s.tasks.ListPaged(ctx, caller.ID, page)
}

func (s *TaskService) SearchByTitle(ctx context.Context, caller *models.User, title string) ([]*models.Task, error) {
	return s.tasks.SearchByTitle(ctx, caller.ID, title)
}

// GetTasksByGroup требует участия в группе
func (s *TaskService) GetTasksByGroup(ctx context.Context, caller *models.User, groupID uuid.UUID) ([]*models.Task, error) {
	if _, err := s.requireMembership(ctx, caller, groupID); err != nil {
		return nil, err
	}
	return s.tasks.ListByGroup(ctx, groupID)
}

// GetTasksDueOn - источник для напоминаний, не ограничен вызывающим
func (s *TaskService) GetTasksDueOn(ctx context.Context, due time.Time) ([]*models.Task, error) {
	return s.tasks.ListDueOn(ctx, due)
}

// --- проверки кросс-сущностных инвариантов ---

func (s *TaskService) requireMembership(ctx context.Context, caller *models.User, groupID uuid.UUID) (*models.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("Группа", groupID.String())
		}
		return nil, fmt.Errorf("получение группы: %w", err)
	}
	member, err := s.groups.IsMember(ctx, groupID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("проверка участия: %w", err)
	}
	if !member {
		return nil, NewForbidden("вы не участник этой группы")
	}
	return group, nil
}

func (s *TaskService) requireAssignable(ctx context.Context, assigneeID, groupID uuid.UUID) (*models.User, error) {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("Пользователь", assigneeID.String())
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	member, err := s.groups.IsMember(ctx, groupID, assigneeID)
	if err != nil {
		return nil, fmt.Errorf("проверка участия: %w", err)
	}
	if !member {
		return nil, NewBadRequest("исполнитель не является участником выбранной группы")
	}
	return assignee, nil
}

func (s *TaskService) sendAssignmentMail(ctx context.Context, caller *models.User, task *models.Task, assignee *models.User) {
	if task.GroupID == nil {
		return
	}
	group, err := s.groups.GetByID(ctx, *task.GroupID)
	if err != nil {
		logger.Warn("Service: Группа для письма о назначении не найдена", zap.Error(err))
		return
	}
	if err := s.mail.SendTaskAssignment(ctx, assignee.Email, task.Title, group.Name, caller.Username); err != nil {
		logger.Warn("Service: Не удалось отправить письмо о назначении", zap.Error(err))
	}
}
