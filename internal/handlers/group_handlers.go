package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"

	"go.uber.org/zap"
)

type GroupHandler struct {
	GroupService GroupService
}

func NewGroupHandler(groupService GroupService) GroupHandler {
	return GroupHandler{GroupService: groupService}
}

func (s *GroupHandler) PostGroup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	group, err := s.GroupService.CreateGroup(r.Context(), caller, request.Name)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_group"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Группа создана",
		zap.String("group_id", group.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("group", dto.FromGroup(group)))
}

func (s *GroupHandler) GetGroupByID(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	group, err := s.GroupService.GetGroupByID(r.Context(), caller, id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_group"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("group", dto.FromGroup(group)))
}

func (s *GroupHandler) GetMyGroups(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	groups, err := s.GroupService.GetMyGroups(r.Context(), caller)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_my_groups"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("groups", dto.FromGroupList(groups)))
}

func (s *GroupHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	members, err := s.GroupService.GetMembers(r.Context(), caller, id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_members"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("members", dto.FromUserList(members)))
}

func (s *GroupHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.GroupService.LeaveGroup(r.Context(), caller, id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "leave_group"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("message", "вы покинули группу"))
}

func (s *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.GroupService.DeleteGroup(r.Context(), caller, id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "delete_group"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Группа удалена",
		zap.String("group_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
