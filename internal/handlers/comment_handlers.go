package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/notify"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

type CommentHandler struct {
	CommentService CommentService
	Hub            *notify.Hub
}

func NewCommentHandler(commentService CommentService, hub *notify.Hub) CommentHandler {
	return CommentHandler{
		CommentService: commentService,
		Hub:            hub,
	}
}

// PostComment: POST /api/tasks/{id}/comments
func (s *CommentHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	taskID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	comment, err := s.CommentService.AddComment(r.Context(), caller, taskID, request.Text)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "add_comment"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	responseWithJSON(w, http.StatusCreated, toPayload("comment", dto.FromComment(comment)))
}

func (s *CommentHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	taskID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	comments, err := s.CommentService.GetCommentsForTask(r.Context(), caller, taskID)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_comments"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("comments", dto.FromCommentList(comments)))
}

// StreamCommentEvents: GET /api/tasks/{id}/comments/events - SSE-поток
// сигналов "updated" по комментариям задачи. Клиент по сигналу сам
// перечитывает список.
func (s *CommentHandler) StreamCommentEvents(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	taskID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	// проверка доступа до подписки
	if _, err := s.CommentService.GetCommentsForTask(r.Context(), caller, taskID); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		responseWithError(w, http.StatusInternalServerError, "стриминг не поддерживается")
		return
	}

	events, cancel := s.Hub.Subscribe(service.CommentTopic(taskID))
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger.Info("HTTP: Открыт SSE-поток комментариев",
		zap.String("task_id", taskID.String()),
		zap.String("username", caller.Username))

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: comments\ndata: %s\n\n", event)
			flusher.Flush()
		}
	}
}
