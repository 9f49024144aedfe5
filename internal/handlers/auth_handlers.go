package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService AuthService
}

func NewAuthHandler(authService AuthService) AuthHandler {
	return AuthHandler{AuthService: authService}
}

func (s *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	user, err := s.AuthService.Register(r.Context(), request.Username, request.Password, request.Email, request.Roles)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "register"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Пользователь зарегистрирован",
		zap.String("username", user.Username),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("user", dto.FromUser(user)))
}

func (s *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	pair, err := s.AuthService.Login(r.Context(), request.Username, request.Password)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "login"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Вход выполнен",
		zap.String("username", request.Username),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("tokens", dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}))
}

func (s *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	if request.RefreshToken == "" {
		responseWithError(w, http.StatusBadRequest, "refresh_token не может быть пустым")
		return
	}

	pair, err := s.AuthService.Refresh(r.Context(), request.RefreshToken)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "refresh"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("tokens", dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}))
}

func (s *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if err := s.AuthService.Logout(r.Context(), request.RefreshToken); err != nil {
		// выход идемпотентен: неизвестный токен не считается ошибкой
		logger.Warn("HTTP: Выход с неизвестным токеном", zap.Error(err))
	}

	responseWithJSON(w, http.StatusOK, toPayload("message", "выход выполнен"))
}
