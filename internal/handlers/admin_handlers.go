package handlers

import (
	"net/http"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/middleware"

	"go.uber.org/zap"
)

type AdminHandler struct {
	Reminders ReminderRunner
}

func NewAdminHandler(reminders ReminderRunner) AdminHandler {
	return AdminHandler{Reminders: reminders}
}

// RunReminders: POST /api/admin/reminders/run - внеплановый прогон
// рассылки напоминаний, доступен только администратору
func (s *AdminHandler) RunReminders(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	s.Reminders.SendDueDateReminders(r.Context())

	logger.Info("HTTP_OUT: Рассылка напоминаний выполнена",
		zap.String("username", caller.Username),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK, toPayload("message", "рассылка напоминаний выполнена"))
}
