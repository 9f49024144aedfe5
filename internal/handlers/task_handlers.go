package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/models"
	"taskManager/internal/repository"
	"taskManager/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{TaskService: taskService}
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	task, err := s.TaskService.CreateTask(r.Context(), caller, service.CreateTaskInput{
		Title:       request.Title,
		Description: request.Description,
		Status:      models.TaskStatus(request.Status),
		Priority:    models.TaskPriority(request.Priority),
		DueDate:     request.DueDate,
		GroupID:     request.GroupID,
		AssignedID:  request.AssignedID,
	})
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_task"),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", task.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(task)))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	task, err := s.TaskService.GetTaskByID(r.Context(), caller, id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_task"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", task.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(task)))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	decoder := json.NewDecoder(r.Body)
	defer r.Body.Close()

	if err := decoder.Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления: "+err.Error())
		return
	}

	patch := service.TaskPatch{
		Title:       request.Title,
		Description: request.Description,
		DueDate:     request.DueDate,
		GroupID:     request.GroupID,
		AssignedID:  request.AssignedID,
	}
	if request.Status != nil {
		status := models.TaskStatus(*request.Status)
		patch.Status = &status
	}
	if request.Priority != nil {
		priority := models.TaskPriority(*request.Priority)
		patch.Priority = &priority
	}

	task, err := s.TaskService.UpdateTask(r.Context(), caller, id, patch)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "update_task"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", task.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(task)))
}

func (s *TaskHandler) UnassignTask(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	task, err := s.TaskService.Unassign(r.Context(), caller, id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "unassign_task"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(task)))
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.TaskService.DeleteTask(r.Context(), caller, id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "delete_task"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

func (s *TaskHandler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	tasks, err := s.TaskService.GetAllTasks(r.Context(), caller)
	if err != nil {
		s.respondListError(w, err, "get_all_tasks")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (s *TaskHandler) GetTasksByStatus(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	status := models.TaskStatus(chi.URLParam(r, "status"))
	tasks, err := s.TaskService.GetTasksByStatus(r.Context(), caller, status)
	if err != nil {
		s.respondListError(w, err, "get_tasks_by_status")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (s *TaskHandler) GetTasksSorted(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	tasks, err := s.TaskService.GetTasksSortedByDate(r.Context(), caller)
	if err != nil {
		s.respondListError(w, err, "get_tasks_sorted")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (s *TaskHandler) GetTasksCreatedToday(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	tasks, err := s.TaskService.GetTasksCreatedToday(r.Context(), caller)
	if err != nil {
		s.respondListError(w, err, "get_tasks_today")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (s *TaskHandler) GetTasksCreatedThisWeek(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	tasks, err := s.TaskService.GetTasksCreatedThisWeek(r.Context(), caller)
	if err != nil {
		s.respondListError(w, err, "get_tasks_this_week")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (s *TaskHandler) GetTasksBetweenDates(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	fromDate := r.URL.Query().Get("fromDate")
	toDate := r.URL.Query().Get("toDate")

	tasks, err := s.TaskService.GetTasksBetweenDates(r.Context(), caller, fromDate, toDate)
	if err != nil {
		s.respondListError(w, err, "get_tasks_between_dates")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (s *TaskHandler) GetTasksByMonth(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		responseWithError(w, http.StatusBadRequest, "не удалось получить значение month: "+err.Error())
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		responseWithError(w, http.StatusBadRequest, "не удалось получить значение year: "+err.Error())
		return
	}

	tasks, err := s.TaskService.GetTasksByMonth(r.Context(), caller, month, year)
	if err != nil {
		s.respondListError(w, err, "get_tasks_by_month")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (s *TaskHandler) GetTasksPaginated(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	size, _ := strconv.Atoi(query.Get("size"))

	tasks, err := s.TaskService.GetTasksPaginated(r.Context(), caller, repository.Page{
		Number:  page,
		Size:    size,
		SortBy:  query.Get("sortBy"),
		SortDir: query.Get("sortDir"),
	})
	if err != nil {
		s.respondListError(w, err, "get_tasks_paginated")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (s *TaskHandler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	title := r.URL.Query().Get("title")
	if title == "" {
		responseWithError(w, http.StatusBadRequest, "параметр title не может быть пустым")
		return
	}

	tasks, err := s.TaskService.SearchByTitle(r.Context(), caller, title)
	if err != nil {
		s.respondListError(w, err, "search_tasks")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (s *TaskHandler) GetTasksByGroup(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	groupID, ok := parseUUIDParam(w, r, "groupId")
	if !ok {
		return
	}

	tasks, err := s.TaskService.GetTasksByGroup(r.Context(), caller, groupID)
	if err != nil {
		s.respondListError(w, err, "get_tasks_by_group")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (s *TaskHandler) respondListError(w http.ResponseWriter, err error, operation string) {
	if handleBusinessError(w, err) {
		return
	}
	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation))
	responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
}
