package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskManager/internal/email"
	"taskManager/internal/logger"
	"taskManager/internal/models"
	"taskManager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InvitationService struct {
	invitations repository.InvitationRepository
	groups      *GroupService
	mail        email.Sender
	tx          repository.TxManager
}

func NewInvitationService(
	invitations repository.InvitationRepository,
	groups *GroupService,
	mail email.Sender,
	tx repository.TxManager,
) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		groups:      groups,
		mail:        mail,
		tx:          tx,
	}
}

// Invite создаёт PENDING-приглашение и отправляет письмо.
// Письмо здесь fail-closed: сбой отправки откатывает и само приглашение,
// иначе проверка уникальности навсегда заблокирует повторную попытку.
func (s *InvitationService) Invite(ctx context.Context, caller *models.User, groupID uuid.UUID, targetEmail string) (*models.Invitation, error) {
	targetEmail = strings.TrimSpace(targetEmail)
	if !strings.Contains(targetEmail, "@") {
		return nil, NewValidationError("email", "некорректный email")
	}

	group, err := s.groups.GetGroupByID(ctx, caller, groupID)
	if err != nil {
		return nil, err
	}

	if group.OwnerID != caller.ID {
		return nil, NewForbidden("приглашать участников может только владелец группы")
	}

	exists, err := s.invitations.ExistsForEmailAndGroup(ctx, targetEmail, groupID)
	if err != nil {
		return nil, fmt.Errorf("проверка приглашения: %w", err)
	}
	if exists {
		return nil, NewConflict("приглашение на этот email в эту группу уже отправлено")
	}

	invitation := &models.Invitation{
		ID:      uuid.New(),
		Email:   targetEmail,
		GroupID: groupID,
		Status:  models.InvitationPending,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.invitations.Create(ctx, invitation); err != nil {
			return err
		}
		if err := s.mail.SendInvitation(ctx, targetEmail, group.Name, caller.Username); err != nil {
			logger.Error("Service: Не удалось отправить приглашение", err,
				zap.String("group_id", groupID.String()))
			return NewInternal("не удалось отправить письмо с приглашением", err)
		}
		return nil
	})
	if err != nil {
		var busErr *BusinessError
		if errors.As(err, &busErr) {
			return nil, busErr
		}
		return nil, fmt.Errorf("создание приглашения: %w", err)
	}

	logger.Info("Service: Приглашение отправлено",
		zap.String("group_id", groupID.String()),
		zap.String("email", targetEmail))
	return invitation, nil
}

// Accept: email приглашения должен совпасть с email вызывающего (без учёта
// регистра), статус PENDING; принятие добавляет в группу и необратимо
func (s *InvitationService) Accept(ctx context.Context, caller *models.User, invitationID uuid.UUID) error {
	invitation, err := s.load(ctx, caller, invitationID)
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.invitations.UpdateStatus(ctx, invitationID, models.InvitationAccepted); err != nil {
			return fmt.Errorf("обновление приглашения: %w", err)
		}
		return s.groups.AddMember(ctx, invitation.GroupID, caller.ID)
	})
}

func (s *InvitationService) Decline(ctx context.Context, caller *models.User, invitationID uuid.UUID) error {
	if _, err := s.load(ctx, caller, invitationID); err != nil {
		return err
	}

	if err := s.invitations.UpdateStatus(ctx, invitationID, models.InvitationRejected); err != nil {
		return fmt.Errorf("обновление приглашения: %w", err)
	}
	return nil
}

func (s *InvitationService) GetMyPending(ctx context.Context, caller *models.User) ([]*models.Invitation, error) {
	invitations, err := s.invitations.ListPendingByEmail(ctx, caller.Email)
	if err != nil {
		return nil, fmt.Errorf("получение приглашений: %w", err)
	}
	return invitations, nil
}

func (s *InvitationService) load(ctx context.Context, caller *models.User, invitationID uuid.UUID) (*models.Invitation, error) {
	invitation, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("Приглашение", invitationID.String())
		}
		return nil, fmt.Errorf("получение приглашения: %w", err)
	}

	if !strings.EqualFold(invitation.Email, caller.Email) {
		return nil, NewForbidden("это приглашение адресовано не вам")
	}

	if invitation.Terminal() {
		return nil, NewBadRequest(fmt.Sprintf("приглашение уже %s", invitation.Status))
	}
	return invitation, nil
}
