package handlers

import (
	"errors"
	"net/http"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

// handleBusinessError переводит бизнес-ошибку в HTTP-ответ.
// Возвращает false, если ошибка не бизнесовая - тогда вызывающий
// отвечает 500 сам.
func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	payloads := []Payload{
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("timestamp", time.Now().Format(time.RFC3339)),
	}
	if len(businessErr.Details) > 0 {
		payloads = append(payloads, toPayload("details", businessErr.Details))
	}

	responseWithJSON(w, statusCode, payloads...)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeUnauthorized:
		return http.StatusUnauthorized
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeConflict:
		return http.StatusConflict
	case service.CodeInternal:
		return http.StatusInternalServerError
	case service.CodeValidation, service.CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}
