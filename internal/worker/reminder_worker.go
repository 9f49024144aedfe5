package worker

import (
	"context"
	"time"

	"taskManager/internal/email"
	"taskManager/internal/logger"
	"taskManager/internal/models"
	"taskManager/internal/repository"

	"go.uber.org/zap"
)

// ReminderWorker раз в интервал рассылает напоминания по задачам
// со сроком "завтра" и статусом не COMPLETED. Получатель - исполнитель,
// если он есть, иначе владелец. Ошибка по одной задаче не останавливает
// остальные.
type ReminderWorker struct {
	tasks    repository.TaskRepository
	users    repository.UserRepository
	mail     email.Sender
	interval time.Duration
}

func NewReminderWorker(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	mail email.Sender,
	interval time.Duration,
) *ReminderWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReminderWorker{
		tasks:    tasks,
		users:    users,
		mail:     mail,
		interval: interval,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Проверка задач со сроком завтра", zap.Time("started_at", time.Now()))
			w.SendDueDateReminders(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Рассылка напоминаний останавливается")
			return
		}
	}
}

func (w *ReminderWorker) SendDueDateReminders(ctx context.Context) {
	start := time.Now()
	tomorrow := time.Now().AddDate(0, 0, 1)

	tasks, err := w.tasks.ListDueOn(ctx, tomorrow)
	if err != nil {
		logger.Warn("Worker: Ошибка получения задач", zap.Error(err))
		return
	}

	sent := 0
	for _, task := range tasks {
		recipient, err := w.resolveRecipient(ctx, task)
		if err != nil {
			logger.Warn("Worker: Не удалось определить получателя",
				zap.String("task_id", task.ID.String()),
				zap.Error(err))
			continue
		}

		if err := w.mail.SendDueDateReminder(ctx, recipient.Email, task.Title, *task.DueDate); err != nil {
			logger.Warn("Worker: Не удалось отправить напоминание",
				zap.String("task_id", task.ID.String()),
				zap.Error(err))
			continue
		}
		sent++
	}

	logger.Info("Worker: Завершение рассылки напоминаний",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(tasks)),
		zap.Int("sent", sent),
	)
}

func (w *ReminderWorker) resolveRecipient(ctx context.Context, task *models.Task) (*models.User, error) {
	if task.AssignedID != nil {
		return w.users.GetByID(ctx, *task.AssignedID)
	}
	return w.users.GetByID(ctx, task.OwnerID)
}
