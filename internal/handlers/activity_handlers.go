package handlers

import (
	"net/http"
	"strconv"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/repository"

	"go.uber.org/zap"
)

type ActivityHandler struct {
	ActivityService ActivityService
	TaskService     TaskService
}

func NewActivityHandler(activityService ActivityService, taskService TaskService) ActivityHandler {
	return ActivityHandler{
		ActivityService: activityService,
		TaskService:     taskService,
	}
}

func (s *ActivityHandler) GetMyActivity(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	logs, err := s.ActivityService.GetRecentForUser(r.Context(), caller, pageFromQuery(r))
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_my_activity"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("activity", dto.FromActivityList(logs)))
}

// GetTaskActivity отдаёт журнал задачи; видимость проверяется
// через TaskService
func (s *ActivityHandler) GetTaskActivity(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	taskID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if _, err := s.TaskService.GetTaskByID(r.Context(), caller, taskID); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logs, err := s.ActivityService.GetForTask(r.Context(), taskID, pageFromQuery(r))
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_task_activity"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("activity", dto.FromActivityList(logs)))
}

func pageFromQuery(r *http.Request) repository.Page {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return repository.Page{Number: page, Size: size}
}
