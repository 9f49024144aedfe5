package handlers

import (
	"net/http"

	"taskManager/internal/logger"
)

type HealthHandler struct {
	Storage HealthChecker
}

func NewHealthHandler(storage HealthChecker) HealthHandler {
	return HealthHandler{Storage: storage}
}

func (s *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.Storage.HealthCheck(r.Context()); err != nil {
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unhealthy"),
			toPayload("error", err.Error()))
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}
