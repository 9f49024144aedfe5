package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InvitationHandler struct {
	InvitationService InvitationService
}

func NewInvitationHandler(invitationService InvitationService) InvitationHandler {
	return InvitationHandler{InvitationService: invitationService}
}

// PostInvitation: POST /api/groups/{id}/invitations
func (s *InvitationHandler) PostInvitation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	groupID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	invitation, err := s.InvitationService.Invite(r.Context(), caller, groupID, request.Email)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "invite"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Приглашение создано",
		zap.String("invitation_id", invitation.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("invitation", dto.FromInvitation(invitation)))
}

// PostInvite: POST /api/invitations/invite, группа в теле запроса
func (s *InvitationHandler) PostInvite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	var request dto.InviteByGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	if request.GroupID == uuid.Nil {
		responseWithError(w, http.StatusBadRequest, "group_id обязателен")
		return
	}

	invitation, err := s.InvitationService.Invite(r.Context(), caller, request.GroupID, request.Email)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "invite"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Приглашение создано",
		zap.String("invitation_id", invitation.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("invitation", dto.FromInvitation(invitation)))
}

func (s *InvitationHandler) GetMyInvitations(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	invitations, err := s.InvitationService.GetMyPending(r.Context(), caller)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_my_invitations"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("invitations", dto.FromInvitationList(invitations)))
}

func (s *InvitationHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.InvitationService.Accept(r.Context(), caller, id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "accept_invitation"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Приглашение принято",
		zap.String("invitation_id", id.String()))

	responseWithJSON(w, http.StatusOK, toPayload("message", "приглашение принято"))
}

func (s *InvitationHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	caller := middleware.GetUser(r.Context())

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.InvitationService.Decline(r.Context(), caller, id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "decline_invitation"))
		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("message", "приглашение отклонено"))
}
