package inmemory

import (
	"context"
	"sort"
	"strings"
	"time"

	"taskManager/internal/models"
	"taskManager/internal/repository"

	"github.com/google/uuid"
)

type TaskRepo struct{ s *Storage }

func NewTaskRepo(s *Storage) *TaskRepo { return &TaskRepo{s: s} }

func (r *TaskRepo) Create(ctx context.Context, task *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.tasks[task.ID] = copyTask(task)
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	task, ok := r.s.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTask(task), nil
}

func (r *TaskRepo) Update(ctx context.Context, task *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[task.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.tasks[task.ID] = copyTask(task)
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tasks, id)
	for commentID, comment := range r.s.comments {
		if comment.TaskID == id {
			delete(r.s.comments, commentID)
		}
	}
	kept := r.s.activity[:0]
	for _, entry := range r.s.activity {
		if entry.TaskID != id {
			kept = append(kept, entry)
		}
	}
	r.s.activity = kept
	return nil
}

func (r *TaskRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) error {
	r.s.mu.RLock()
	ids := []uuid.UUID{}
	for id, task := range r.s.tasks {
		if task.GroupID != nil && *task.GroupID == groupID {
			ids = append(ids, id)
		}
	}
	r.s.mu.RUnlock()

	for _, id := range ids {
		if err := r.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *TaskRepo) visible(userID uuid.UUID, keep func(*models.Task) bool) []*models.Task {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tasks := []*models.Task{}
	for _, task := range r.s.tasks {
		if task.OwnerID != userID && (task.AssignedID == nil || *task.AssignedID != userID) {
			continue
		}
		if keep != nil && !keep(task) {
			continue
		}
		tasks = append(tasks, copyTask(task))
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks
}

func (r *TaskRepo) ListVisible(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	return r.visible(userID, nil), nil
}

func (r *TaskRepo) ListByStatus(ctx context.Context, userID uuid.UUID, status models.TaskStatus) ([]*models.Task, error) {
	return r.visible(userID, func(t *models.Task) bool {
		return t.Status == status
	}), nil
}

func (r *TaskRepo) ListSortedByCreated(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	return r.visible(userID, nil), nil
}

func (r *TaskRepo) ListCreatedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*models.Task, error) {
	return r.visible(userID, func(t *models.Task) bool {
		return !t.CreatedAt.Before(start) && t.CreatedAt.Before(end)
	}), nil
}

func (r *TaskRepo) SearchByTitle(ctx context.Context, userID uuid.UUID, title string) ([]*models.Task, error) {
	needle := strings.ToLower(title)
	return r.visible(userID, func(t *models.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), needle)
	}), nil
}

func (r *TaskRepo) ListPaged(ctx context.Context, userID uuid.UUID, page repository.Page) ([]*models.Task, error) {
	tasks := r.visible(userID, nil)

	less := func(a, b *models.Task) bool {
		switch page.SortBy {
		case "title":
			return a.Title < b.Title
		case "status":
			return a.Status < b.Status
		case "priority":
			return a.Priority < b.Priority
		case "due_date":
			if a.DueDate == nil {
				return b.DueDate != nil
			}
			if b.DueDate == nil {
				return false
			}
			return a.DueDate.Before(*b.DueDate)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if page.SortDir == "desc" {
			return less(tasks[j], tasks[i])
		}
		return less(tasks[i], tasks[j])
	})

	offset := (page.Number - 1) * page.Size
	if offset >= len(tasks) {
		return []*models.Task{}, nil
	}
	end := offset + page.Size
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[offset:end], nil
}

func (r *TaskRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tasks := []*models.Task{}
	for _, task := range r.s.tasks {
		if task.GroupID != nil && *task.GroupID == groupID {
			tasks = append(tasks, copyTask(task))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// ListDueOn сравнивает только календарную дату
func (r *TaskRepo) ListDueOn(ctx context.Context, due time.Time) ([]*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	year, month, day := due.Date()
	tasks := []*models.Task{}
	for _, task := range r.s.tasks {
		if task.DueDate == nil || task.Status == models.StatusCompleted {
			continue
		}
		y, m, d := task.DueDate.Date()
		if y == year && m == month && d == day {
			tasks = append(tasks, copyTask(task))
		}
	}
	return tasks, nil
}

// --- комментарии и активность ---

type CommentRepo struct{ s *Storage }

func NewCommentRepo(s *Storage) *CommentRepo { return &CommentRepo{s: s} }

func (r *CommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	c := *comment
	r.s.comments[comment.ID] = &c
	return nil
}

func (r *CommentRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	comments := []*models.Comment{}
	for _, comment := range r.s.comments {
		if comment.TaskID == taskID {
			c := *comment
			comments = append(comments, &c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

type ActivityRepo struct{ s *Storage }

func NewActivityRepo(s *Storage) *ActivityRepo { return &ActivityRepo{s: s} }

func (r *ActivityRepo) Create(ctx context.Context, log *models.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}
	c := *log
	r.s.activity = append(r.s.activity, &c)
	return nil
}

func (r *ActivityRepo) ListForUser(ctx context.Context, userID uuid.UUID, page repository.Page) ([]*models.ActivityLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	logs := []*models.ActivityLog{}
	for _, entry := range r.s.activity {
		task, ok := r.s.tasks[entry.TaskID]
		if !ok {
			continue
		}
		if task.OwnerID == userID || (task.AssignedID != nil && *task.AssignedID == userID) {
			c := *entry
			logs = append(logs, &c)
		}
	}
	return pageLogs(logs, page), nil
}

func (r *ActivityRepo) ListByTask(ctx context.Context, taskID uuid.UUID, page repository.Page) ([]*models.ActivityLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	logs := []*models.ActivityLog{}
	for _, entry := range r.s.activity {
		if entry.TaskID == taskID {
			c := *entry
			logs = append(logs, &c)
		}
	}
	return pageLogs(logs, page), nil
}

func pageLogs(logs []*models.ActivityLog, page repository.Page) []*models.ActivityLog {
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
	offset := (page.Number - 1) * page.Size
	if offset >= len(logs) {
		return []*models.ActivityLog{}
	}
	end := offset + page.Size
	if end > len(logs) {
		end = len(logs)
	}
	return logs[offset:end]
}
