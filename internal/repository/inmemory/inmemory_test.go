package inmemory_test

import (
	"context"
	"testing"
	"time"

	"taskManager/internal/models"
	"taskManager/internal/repository"
	"taskManager/internal/repository/inmemory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	users := inmemory.NewUserRepo(inmemory.NewStorage())

	require.NoError(t, users.Create(ctx, &models.User{ID: uuid.New(), Username: "alice", Email: "a@example.com"}))

	err := users.Create(ctx, &models.User{ID: uuid.New(), Username: "alice", Email: "b@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestGroupRepo_CreateSeedsOwnerMembership(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()
	groups := inmemory.NewGroupRepo(storage)

	ownerID := uuid.New()
	group := &models.Group{ID: uuid.New(), Name: "backend", OwnerID: ownerID}
	require.NoError(t, groups.Create(ctx, group))

	member, err := groups.IsMember(ctx, group.ID, ownerID)
	require.NoError(t, err)
	assert.True(t, member)

	require.NoError(t, groups.RemoveMember(ctx, group.ID, ownerID))
	member, err = groups.IsMember(ctx, group.ID, ownerID)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestInvitationRepo_EmailMatchIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	invitations := inmemory.NewInvitationRepo(inmemory.NewStorage())

	groupID := uuid.New()
	require.NoError(t, invitations.Create(ctx, &models.Invitation{
		ID:      uuid.New(),
		Email:   "Guest@Example.com",
		GroupID: groupID,
		Status:  models.InvitationPending,
	}))

	exists, err := invitations.ExistsForEmailAndGroup(ctx, "guest@example.com", groupID)
	require.NoError(t, err)
	assert.True(t, exists)

	pending, err := invitations.ListPendingByEmail(ctx, "GUEST@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestInvitationRepo_ExistsRegardlessOfStatus(t *testing.T) {
	ctx := context.Background()
	invitations := inmemory.NewInvitationRepo(inmemory.NewStorage())

	groupID := uuid.New()
	invitation := &models.Invitation{
		ID:      uuid.New(),
		Email:   "guest@example.com",
		GroupID: groupID,
		Status:  models.InvitationPending,
	}
	require.NoError(t, invitations.Create(ctx, invitation))
	require.NoError(t, invitations.UpdateStatus(ctx, invitation.ID, models.InvitationRejected))

	// отклонённое приглашение всё равно блокирует повторное
	exists, err := invitations.ExistsForEmailAndGroup(ctx, "guest@example.com", groupID)
	require.NoError(t, err)
	assert.True(t, exists)

	pending, err := invitations.ListPendingByEmail(ctx, "guest@example.com")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestTaskRepo_ListVisible(t *testing.T) {
	ctx := context.Background()
	tasks := inmemory.NewTaskRepo(inmemory.NewStorage())

	me := uuid.New()
	other := uuid.New()

	mine := &models.Task{ID: uuid.New(), Title: "моя", OwnerID: me, Status: models.StatusToDo, CreatedAt: time.Now()}
	assigned := &models.Task{ID: uuid.New(), Title: "назначена мне", OwnerID: other, AssignedID: &me, Status: models.StatusToDo, CreatedAt: time.Now().Add(-time.Minute)}
	foreign := &models.Task{ID: uuid.New(), Title: "чужая", OwnerID: other, Status: models.StatusToDo, CreatedAt: time.Now()}

	for _, task := range []*models.Task{mine, assigned, foreign} {
		require.NoError(t, tasks.Create(ctx, task))
	}

	visible, err := tasks.ListVisible(ctx, me)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	// новые сверху
	assert.Equal(t, mine.ID, visible[0].ID)
	assert.Equal(t, assigned.ID, visible[1].ID)
}

func TestTaskRepo_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()
	tasks := inmemory.NewTaskRepo(storage)
	comments := inmemory.NewCommentRepo(storage)
	activity := inmemory.NewActivityRepo(storage)

	ownerID := uuid.New()
	task := &models.Task{ID: uuid.New(), Title: "задача", OwnerID: ownerID, Status: models.StatusToDo}
	require.NoError(t, tasks.Create(ctx, task))
	require.NoError(t, comments.Create(ctx, &models.Comment{ID: uuid.New(), Text: "привет", AuthorID: ownerID, TaskID: task.ID}))
	require.NoError(t, activity.Create(ctx, &models.ActivityLog{ID: uuid.New(), Type: models.ActivityTaskCreated, UserID: ownerID, TaskID: task.ID}))

	require.NoError(t, tasks.Delete(ctx, task.ID))

	left, err := comments.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	logs, err := activity.ListByTask(ctx, task.ID, repository.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestTaskRepo_ListDueOn(t *testing.T) {
	ctx := context.Background()
	tasks := inmemory.NewTaskRepo(inmemory.NewStorage())

	ownerID := uuid.New()
	tomorrowMorning := time.Now().AddDate(0, 0, 1).Truncate(24 * time.Hour).Add(9 * time.Hour)
	tomorrowEvening := tomorrowMorning.Add(10 * time.Hour)
	today := time.Now()

	due := &models.Task{ID: uuid.New(), Title: "завтра утром", OwnerID: ownerID, Status: models.StatusToDo, DueDate: &tomorrowMorning}
	dueLater := &models.Task{ID: uuid.New(), Title: "завтра вечером", OwnerID: ownerID, Status: models.StatusInProgress, DueDate: &tomorrowEvening}
	completed := &models.Task{ID: uuid.New(), Title: "готова", OwnerID: ownerID, Status: models.StatusCompleted, DueDate: &tomorrowMorning}
	dueToday := &models.Task{ID: uuid.New(), Title: "сегодня", OwnerID: ownerID, Status: models.StatusToDo, DueDate: &today}

	for _, task := range []*models.Task{due, dueLater, completed, dueToday} {
		require.NoError(t, tasks.Create(ctx, task))
	}

	// совпадает календарная дата, время суток не важно
	found, err := tasks.ListDueOn(ctx, time.Now().AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestTaskRepo_ListPaged(t *testing.T) {
	ctx := context.Background()
	tasks := inmemory.NewTaskRepo(inmemory.NewStorage())

	ownerID := uuid.New()
	titles := []string{"альфа", "бета", "гамма", "дельта", "эпсилон"}
	for i, title := range titles {
		require.NoError(t, tasks.Create(ctx, &models.Task{
			ID:        uuid.New(),
			Title:     title,
			OwnerID:   ownerID,
			Status:    models.StatusToDo,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}))
	}

	page1, err := tasks.ListPaged(ctx, ownerID, repository.Page{Number: 1, Size: 2, SortBy: "title", SortDir: "asc"})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "альфа", page1[0].Title)
	assert.Equal(t, "бета", page1[1].Title)

	page3, err := tasks.ListPaged(ctx, ownerID, repository.Page{Number: 3, Size: 2, SortBy: "title", SortDir: "asc"})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "эпсилон", page3[0].Title)

	empty, err := tasks.ListPaged(ctx, ownerID, repository.Page{Number: 10, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRefreshTokenRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	tokens := inmemory.NewRefreshTokenRepo(inmemory.NewStorage())

	token := &models.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, tokens.Create(ctx, token))

	stored, err := tokens.GetByToken(ctx, token.Token)
	require.NoError(t, err)
	assert.Equal(t, token.UserID, stored.UserID)

	require.NoError(t, tokens.Delete(ctx, token.Token))
	_, err = tokens.GetByToken(ctx, token.Token)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
