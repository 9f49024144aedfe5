package service_test

import (
	"context"
	"testing"
	"time"

	"taskManager/internal/models"
	"taskManager/internal/repository"
	"taskManager/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func assertBusinessCode(t *testing.T, err error, code string) {
	t.Helper()
	var busErr *service.BusinessError
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, code, busErr.Code)
}

func newTaskService(tasks *MockTaskRepository, groups *MockGroupRepository, users *MockUserRepository, mail *MockSender) *service.TaskService {
	activityRepo := new(MockActivityRepository)
	activityRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	return service.NewTaskService(tasks, groups, users, mail, service.NewActivityService(activityRepo))
}

func testUser(name string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: name,
		Email:    name + "@example.com",
		Roles:    []string{models.RoleUser},
	}
}

func TestTaskService_CreateTask_Defaults(t *testing.T) {
	tasks := new(MockTaskRepository)
	groups := new(MockGroupRepository)
	users := new(MockUserRepository)
	mail := new(MockSender)
	svc := newTaskService(tasks, groups, users, mail)

	owner := testUser("owner")
	tasks.On("Create", mock.Anything, mock.Anything).Return(nil)

	task, err := svc.CreateTask(context.Background(), owner, service.CreateTaskInput{
		Title: "написать отчёт",
	})

	require.NoError(t, err)
	assert.Equal(t, models.StatusToDo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, owner.ID, task.OwnerID)
	assert.Nil(t, task.CompletedAt)
	tasks.AssertExpectations(t)
}

func TestTaskService_CreateTask_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input service.CreateTaskInput
		code  string
		setup func(groups *MockGroupRepository, users *MockUserRepository, groupID, assigneeID uuid.UUID)
	}{
		{
			name:  "короткое название",
			input: service.CreateTaskInput{Title: "ab"},
			code:  service.CodeValidation,
		},
		{
			name:  "недопустимый статус",
			input: service.CreateTaskInput{Title: "валидная задача", Status: "WAITING"},
			code:  service.CodeValidation,
		},
		{
			name:  "недопустимый приоритет",
			input: service.CreateTaskInput{Title: "валидная задача", Priority: "URGENT"},
			code:  service.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTaskService(new(MockTaskRepository), new(MockGroupRepository), new(MockUserRepository), new(MockSender))

			_, err := svc.CreateTask(context.Background(), testUser("owner"), tt.input)
			assertBusinessCode(t, err, tt.code)
		})
	}
}

func TestTaskService_CreateTask_AssigneeRequiresGroup(t *testing.T) {
	svc := newTaskService(new(MockTaskRepository), new(MockGroupRepository), new(MockUserRepository), new(MockSender))
	assigneeID := uuid.New()

	_, err := svc.CreateTask(context.Background(), testUser("owner"), service.CreateTaskInput{
		Title:      "задача без группы",
		AssignedID: &assigneeID,
	})

	assertBusinessCode(t, err, service.CodeBadRequest)
}

func TestTaskService_CreateTask_CallerMustBeGroupMember(t *testing.T) {
	groups := new(MockGroupRepository)
	svc := newTaskService(new(MockTaskRepository), groups, new(MockUserRepository), new(MockSender))

	owner := testUser("owner")
	groupID := uuid.New()
	groups.On("GetByID", mock.Anything, groupID).Return(&models.Group{ID: groupID, Name: "dev"}, nil)
	groups.On("IsMember", mock.Anything, groupID, owner.ID).Return(false, nil)

	_, err := svc.CreateTask(context.Background(), owner, service.CreateTaskInput{
		Title:   "чужая группа",
		GroupID: &groupID,
	})

	assertBusinessCode(t, err, service.CodeForbidden)
}

func TestTaskService_CreateTask_AssigneeMustBeGroupMember(t *testing.T) {
	groups := new(MockGroupRepository)
	users := new(MockUserRepository)
	svc := newTaskService(new(MockTaskRepository), groups, users, new(MockSender))

	owner := testUser("owner")
	assignee := testUser("assignee")
	groupID := uuid.New()

	groups.On("GetByID", mock.Anything, groupID).Return(&models.Group{ID: groupID, Name: "dev"}, nil)
	groups.On("IsMember", mock.Anything, groupID, owner.ID).Return(true, nil)
	users.On("GetByID", mock.Anything, assignee.ID).Return(assignee, nil)
	groups.On("IsMember", mock.Anything, groupID, assignee.ID).Return(false, nil)

	_, err := svc.CreateTask(context.Background(), owner, service.CreateTaskInput{
		Title:      "групповая задача",
		GroupID:    &groupID,
		AssignedID: &assignee.ID,
	})

	assertBusinessCode(t, err, service.CodeBadRequest)
}

func TestTaskService_CreateTask_CompletedSetsCompletedAt(t *testing.T) {
	tasks := new(MockTaskRepository)
	svc := newTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender))

	tasks.On("Create", mock.Anything, mock.Anything).Return(nil)

	task, err := svc.CreateTask(context.Background(), testUser("owner"), service.CreateTaskInput{
		Title:  "сразу готово",
		Status: models.StatusCompleted,
	})

	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
}

func TestTaskService_CreateTask_SendsAssignmentEmail(t *testing.T) {
	tasks := new(MockTaskRepository)
	groups := new(MockGroupRepository)
	users := new(MockUserRepository)
	mail := new(MockSender)
	svc := newTaskService(tasks, groups, users, mail)

	owner := testUser("owner")
	assignee := testUser("assignee")
	groupID := uuid.New()

	groups.On("GetByID", mock.Anything, groupID).Return(&models.Group{ID: groupID, Name: "dev"}, nil)
	groups.On("IsMember", mock.Anything, groupID, owner.ID).Return(true, nil)
	users.On("GetByID", mock.Anything, assignee.ID).Return(assignee, nil)
	groups.On("IsMember", mock.Anything, groupID, assignee.ID).Return(true, nil)
	tasks.On("Create", mock.Anything, mock.Anything).Return(nil)
	mail.On("SendTaskAssignment", mock.Anything, assignee.Email, "групповая задача", "dev", owner.Username).Return(nil)

	_, err := svc.CreateTask(context.Background(), owner, service.CreateTaskInput{
		Title:      "групповая задача",
		GroupID:    &groupID,
		AssignedID: &assignee.ID,
	})

	require.NoError(t, err)
	mail.AssertExpectations(t)
}

func TestTaskService_GetTaskByID_Visibility(t *testing.T) {
	owner := testUser("owner")
	assignee := testUser("assignee")
	member := testUser("member")
	stranger := testUser("stranger")
	groupID := uuid.New()

	task := &models.Task{
		ID:         uuid.New(),
		Title:      "общая задача",
		Status:     models.StatusToDo,
		Priority:   models.PriorityMedium,
		OwnerID:    owner.ID,
		AssignedID: &assignee.ID,
		GroupID:    &groupID,
	}

	tests := []struct {
		name    string
		caller  *models.User
		member  bool
		wantErr bool
	}{
		{name: "владелец видит", caller: owner},
		{name: "исполнитель видит", caller: assignee},
		{name: "участник группы видит", caller: member, member: true},
		{name: "посторонний не видит", caller: stranger, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := new(MockTaskRepository)
			groups := new(MockGroupRepository)
			svc := newTaskService(tasks, groups, new(MockUserRepository), new(MockSender))

			tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
			groups.On("IsMember", mock.Anything, groupID, tt.caller.ID).Return(tt.member, nil).Maybe()

			got, err := svc.GetTaskByID(context.Background(), tt.caller, task.ID)
			if tt.wantErr {
				assertBusinessCode(t, err, service.CodeForbidden)
			} else {
				require.NoError(t, err)
				assert.Equal(t, task.ID, got.ID)
			}
		})
	}
}

func TestTaskService_GetTaskByID_NotFound(t *testing.T) {
	tasks := new(MockTaskRepository)
	svc := newTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender))

	id := uuid.New()
	tasks.On("GetByID", mock.Anything, id).Return(nil, repository.ErrNotFound)

	_, err := svc.GetTaskByID(context.Background(), testUser("anyone"), id)
	assertBusinessCode(t, err, service.CodeNotFound)
}

func TestTaskService_UpdateTask_AssigneeOnlyStatus(t *testing.T) {
	owner := testUser("owner")
	assignee := testUser("assignee")

	task := &models.Task{
		ID:         uuid.New(),
		Title:      "исходное название",
		Status:     models.StatusToDo,
		Priority:   models.PriorityMedium,
		OwnerID:    owner.ID,
		AssignedID: &assignee.ID,
	}

	tasks := new(MockTaskRepository)
	svc := newTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender))

	tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
	tasks.On("Update", mock.Anything, mock.Anything).Return(nil)

	newTitle := "взломанное название"
	status := models.StatusInProgress

	updated, err := svc.UpdateTask(context.Background(), assignee, task.ID, service.TaskPatch{
		Title:  &newTitle,
		Status: &status,
	})

	// исполнителю доступен только статус, остальные поля молча игнорируются
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, "исходное название", updated.Title)
}

func TestTaskService_UpdateTask_GroupChangeChecksAssignee(t *testing.T) {
	owner := testUser("owner")
	assignee := testUser("assignee")
	oldGroupID := uuid.New()
	newGroupID := uuid.New()

	newTask := func() *models.Task {
		return &models.Task{
			ID:         uuid.New(),
			Title:      "групповая задача",
			Status:     models.StatusToDo,
			Priority:   models.PriorityMedium,
			OwnerID:    owner.ID,
			GroupID:    &oldGroupID,
			AssignedID: &assignee.ID,
		}
	}

	t.Run("исполнитель не состоит в новой группе", func(t *testing.T) {
		task := newTask()
		tasks := new(MockTaskRepository)
		groups := new(MockGroupRepository)
		users := new(MockUserRepository)
		svc := newTaskService(tasks, groups, users, new(MockSender))

		tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		groups.On("GetByID", mock.Anything, newGroupID).Return(&models.Group{ID: newGroupID, Name: "dev"}, nil)
		groups.On("IsMember", mock.Anything, newGroupID, owner.ID).Return(true, nil)
		users.On("GetByID", mock.Anything, assignee.ID).Return(assignee, nil)
		groups.On("IsMember", mock.Anything, newGroupID, assignee.ID).Return(false, nil)

		_, err := svc.UpdateTask(context.Background(), owner, task.ID, service.TaskPatch{
			GroupID: &newGroupID,
		})

		assertBusinessCode(t, err, service.CodeBadRequest)
		tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("исполнитель состоит в новой группе", func(t *testing.T) {
		task := newTask()
		tasks := new(MockTaskRepository)
		groups := new(MockGroupRepository)
		users := new(MockUserRepository)
		svc := newTaskService(tasks, groups, users, new(MockSender))

		tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		tasks.On("Update", mock.Anything, mock.Anything).Return(nil)
		groups.On("GetByID", mock.Anything, newGroupID).Return(&models.Group{ID: newGroupID, Name: "dev"}, nil)
		groups.On("IsMember", mock.Anything, newGroupID, owner.ID).Return(true, nil)
		users.On("GetByID", mock.Anything, assignee.ID).Return(assignee, nil)
		groups.On("IsMember", mock.Anything, newGroupID, assignee.ID).Return(true, nil)

		updated, err := svc.UpdateTask(context.Background(), owner, task.ID, service.TaskPatch{
			GroupID: &newGroupID,
		})

		require.NoError(t, err)
		require.NotNil(t, updated.GroupID)
		assert.Equal(t, newGroupID, *updated.GroupID)
		assert.Equal(t, assignee.ID, *updated.AssignedID)
	})

	t.Run("смена группы вместе с исполнителем проверяет нового", func(t *testing.T) {
		task := newTask()
		replacement := testUser("replacement")
		tasks := new(MockTaskRepository)
		groups := new(MockGroupRepository)
		users := new(MockUserRepository)
		mail := new(MockSender)
		svc := newTaskService(tasks, groups, users, mail)

		tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		tasks.On("Update", mock.Anything, mock.Anything).Return(nil)
		groups.On("GetByID", mock.Anything, newGroupID).Return(&models.Group{ID: newGroupID, Name: "dev"}, nil)
		groups.On("IsMember", mock.Anything, newGroupID, owner.ID).Return(true, nil)
		users.On("GetByID", mock.Anything, replacement.ID).Return(replacement, nil)
		groups.On("IsMember", mock.Anything, newGroupID, replacement.ID).Return(true, nil)
		mail.On("SendTaskAssignment", mock.Anything, replacement.Email, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		updated, err := svc.UpdateTask(context.Background(), owner, task.ID, service.TaskPatch{
			GroupID:    &newGroupID,
			AssignedID: &replacement.ID,
		})

		// прежний исполнитель не проверяется, он заменён этим же патчем
		require.NoError(t, err)
		assert.Equal(t, replacement.ID, *updated.AssignedID)
		users.AssertNotCalled(t, "GetByID", mock.Anything, assignee.ID)
	})
}

func TestTaskService_UpdateTask_StrangerForbidden(t *testing.T) {
	owner := testUser("owner")
	task := &models.Task{
		ID:       uuid.New(),
		Title:    "приватная задача",
		Status:   models.StatusToDo,
		Priority: models.PriorityMedium,
		OwnerID:  owner.ID,
	}

	tasks := new(MockTaskRepository)
	svc := newTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender))
	tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)

	status := models.StatusCompleted
	_, err := svc.UpdateTask(context.Background(), testUser("stranger"), task.ID, service.TaskPatch{Status: &status})
	assertBusinessCode(t, err, service.CodeForbidden)
}

func TestTaskService_UpdateTask_CompletedAtLifecycle(t *testing.T) {
	owner := testUser("owner")

	newTask := func(status models.TaskStatus, completedAt *time.Time) *models.Task {
		return &models.Task{
			ID:          uuid.New(),
			Title:       "задача",
			Status:      status,
			Priority:    models.PriorityMedium,
			OwnerID:     owner.ID,
			CompletedAt: completedAt,
		}
	}

	t.Run("переход в COMPLETED ставит отметку", func(t *testing.T) {
		task := newTask(models.StatusToDo, nil)
		tasks := new(MockTaskRepository)
		svc := newTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender))
		tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		tasks.On("Update", mock.Anything, mock.Anything).Return(nil)

		status := models.StatusCompleted
		updated, err := svc.UpdateTask(context.Background(), owner, task.ID, service.TaskPatch{Status: &status})
		require.NoError(t, err)
		require.NotNil(t, updated.CompletedAt)
	})

	t.Run("выход из COMPLETED очищает отметку", func(t *testing.T) {
		done := time.Now().Add(-time.Hour)
		task := newTask(models.StatusCompleted, &done)
		tasks := new(MockTaskRepository)
		svc := newTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender))
		tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		tasks.On("Update", mock.Anything, mock.Anything).Return(nil)

		status := models.StatusInProgress
		updated, err := svc.UpdateTask(context.Background(), owner, task.ID, service.TaskPatch{Status: &status})
		require.NoError(t, err)
		assert.Nil(t, updated.CompletedAt)
	})

	t.Run("COMPLETED в COMPLETED не трогает отметку", func(t *testing.T) {
		done := time.Now().Add(-time.Hour)
		task := newTask(models.StatusCompleted, &done)
		tasks := new(MockTaskRepository)
		svc := newTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender))
		tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		tasks.On("Update", mock.Anything, mock.Anything).Return(nil)

		status := models.StatusCompleted
		updated, err := svc.UpdateTask(context.Background(), owner, task.ID, service.TaskPatch{Status: &status})
		require.NoError(t, err)
		require.NotNil(t, updated.CompletedAt)
		assert.WithinDuration(t, done, *updated.CompletedAt, time.Second)
	})
}

func TestTaskService_Unassign(t *testing.T) {
	owner := testUser("owner")
	assignee := testUser("assignee")

	t.Run("владелец снимает исполнителя", func(t *testing.T) {
		task := &models.Task{
			ID:         uuid.New(),
			Title:      "задача",
			Status:     models.StatusToDo,
			Priority:   models.PriorityMedium,
			OwnerID:    owner.ID,
			AssignedID: &assignee.ID,
		}
		tasks := new(MockTaskRepository)
		svc := newTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender))
		tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		tasks.On("Update", mock.Anything, mock.Anything).Return(nil)

		updated, err := svc.Unassign(context.Background(), owner, task.ID)
		require.NoError(t, err)
		assert.Nil(t, updated.AssignedID)
	})

	t.Run("исполнитель снять себя не может", func(t *testing.T) {
		task := &models.Task{
			ID:         uuid.New(),
			Title:      "задача",
			Status:     models.StatusToDo,
			Priority:   models.PriorityMedium,
			OwnerID:    owner.ID,
			AssignedID: &assignee.ID,
		}
		tasks := new(MockTaskRepository)
		svc := newTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender))
		tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)

		_, err := svc.Unassign(context.Background(), assignee, task.ID)
		assertBusinessCode(t, err, service.CodeForbidden)
	})
}

func TestTaskService_DeleteTask_OnlyOwner(t *testing.T) {
	owner := testUser("owner")
	assignee := testUser("assignee")
	task := &models.Task{
		ID:         uuid.New(),
		Title:      "задача",
		Status:     models.StatusToDo,
		Priority:   models.PriorityMedium,
		OwnerID:    owner.ID,
		AssignedID: &assignee.ID,
	}

	tasks := new(MockTaskRepository)
	svc := newTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender))
	tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
	tasks.On("Delete", mock.Anything, task.ID).Return(nil)

	err := svc.DeleteTask(context.Background(), assignee, task.ID)
	assertBusinessCode(t, err, service.CodeForbidden)

	err = svc.DeleteTask(context.Background(), owner, task.ID)
	require.NoError(t, err)
}

func TestTaskService_GetTasksByStatus_InvalidStatus(t *testing.T) {
	svc := newTaskService(new(MockTaskRepository), new(MockGroupRepository), new(MockUserRepository), new(MockSender))

	_, err := svc.GetTasksByStatus(context.Background(), testUser("user"), "WAITING")
	assertBusinessCode(t, err, service.CodeValidation)
}

func TestTaskService_GetTasksPaginated_NormalizesPage(t *testing.T) {
	tasks := new(MockTaskRepository)
	svc := newTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender))

	caller := testUser("user")
	tasks.On("ListPaged", mock.Anything, caller.ID, repository.Page{Number: 1, Size: 10, SortBy: "due_date", SortDir: "asc"}).
		Return([]*models.Task{}, nil)

	_, err := svc.GetTasksPaginated(context.Background(), caller, repository.Page{Number: -1, Size: 500, SortBy: "due_date", SortDir: "asc"})
	require.NoError(t, err)
	tasks.AssertExpectations(t)
}

func TestTaskService_GetTasksBetweenDates_BadFormat(t *testing.T) {
	svc := newTaskService(new(MockTaskRepository), new(MockGroupRepository), new(MockUserRepository), new(MockSender))

	_, err := svc.GetTasksBetweenDates(context.Background(), testUser("user"), "31-12-2025", "2026-01-01")
	assertBusinessCode(t, err, service.CodeValidation)
}
