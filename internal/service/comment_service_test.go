package service_test

import (
	"context"
	"testing"
	"time"

	"taskManager/internal/models"
	"taskManager/internal/notify"
	"taskManager/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCommentService_AddComment(t *testing.T) {
	owner := testUser("owner")
	task := &models.Task{
		ID:       uuid.New(),
		Title:    "задача",
		Status:   models.StatusToDo,
		Priority: models.PriorityMedium,
		OwnerID:  owner.ID,
	}

	newFixture := func() (*service.CommentService, *MockTaskRepository, *MockCommentRepository, *notify.Hub) {
		tasks := new(MockTaskRepository)
		comments := new(MockCommentRepository)
		activityRepo := new(MockActivityRepository)
		activityRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
		activity := service.NewActivityService(activityRepo)
		taskService := service.NewTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender), activity)
		hub := notify.NewHub()
		return service.NewCommentService(comments, taskService, activity, hub), tasks, comments, hub
	}

	t.Run("комментарий сохраняется и шлёт сигнал", func(t *testing.T) {
		svc, tasks, comments, hub := newFixture()
		tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
		comments.On("Create", mock.Anything, mock.Anything).Return(nil)

		events, cancel := hub.Subscribe(service.CommentTopic(task.ID))
		defer cancel()

		comment, err := svc.AddComment(context.Background(), owner, task.ID, "выглядит готовым")
		require.NoError(t, err)
		assert.Equal(t, owner.ID, comment.AuthorID)

		select {
		case event := <-events:
			assert.Equal(t, "updated", event)
		case <-time.After(time.Second):
			t.Fatal("сигнал об обновлении не пришёл")
		}
	})

	t.Run("пустой текст", func(t *testing.T) {
		svc, _, _, _ := newFixture()

		_, err := svc.AddComment(context.Background(), owner, task.ID, "   ")
		assertBusinessCode(t, err, service.CodeValidation)
	})

	t.Run("посторонний комментировать не может", func(t *testing.T) {
		svc, tasks, _, _ := newFixture()
		tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)

		_, err := svc.AddComment(context.Background(), testUser("stranger"), task.ID, "привет")
		assertBusinessCode(t, err, service.CodeForbidden)
	})
}

func TestCommentService_GetCommentsForTask_VisibilityGate(t *testing.T) {
	owner := testUser("owner")
	task := &models.Task{
		ID:       uuid.New(),
		Title:    "задача",
		Status:   models.StatusToDo,
		Priority: models.PriorityMedium,
		OwnerID:  owner.ID,
	}

	tasks := new(MockTaskRepository)
	comments := new(MockCommentRepository)
	activityRepo := new(MockActivityRepository)
	activity := service.NewActivityService(activityRepo)
	taskService := service.NewTaskService(tasks, new(MockGroupRepository), new(MockUserRepository), new(MockSender), activity)
	svc := service.NewCommentService(comments, taskService, activity, notify.NewHub())

	tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
	comments.On("ListByTask", mock.Anything, task.ID).Return([]*models.Comment{
		{ID: uuid.New(), Text: "первый", AuthorID: owner.ID, TaskID: task.ID},
	}, nil)

	list, err := svc.GetCommentsForTask(context.Background(), owner, task.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.GetCommentsForTask(context.Background(), testUser("stranger"), task.ID)
	assertBusinessCode(t, err, service.CodeForbidden)
}
