package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskManager/internal/logger"
	"taskManager/internal/models"
	"taskManager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GroupService struct {
	groups      repository.GroupRepository
	tasks       repository.TaskRepository
	invitations repository.InvitationRepository
	tx          repository.TxManager
}

func NewGroupService(
	groups repository.GroupRepository,
	tasks repository.TaskRepository,
	invitations repository.InvitationRepository,
	tx repository.TxManager,
) *GroupService {
	return &GroupService{
		groups:      groups,
		tasks:       tasks,
		invitations: invitations,
		tx:          tx,
	}
}

func (s *GroupService) CreateGroup(ctx context.Context, caller *models.User, name string) (*models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name", "название группы не может быть пустым")
	}

	group := &models.Group{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(name),
		OwnerID: caller.ID,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("создание группы: %w", err)
	}

	logger.Info("Service: Группа создана",
		zap.String("group_id", group.ID.String()),
		zap.String("owner", caller.Username))
	return group, nil
}

// GetGroupByID доступен только участникам
func (s *GroupService) GetGroupByID(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Group, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("Группа", id.String())
		}
		return nil, fmt.Errorf("получение группы: %w", err)
	}

	member, err := s.groups.IsMember(ctx, id, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("проверка участия: %w", err)
	}
	if !member {
		return nil, NewForbidden("доступ к группе только для участников")
	}
	return group, nil
}

func (s *GroupService) GetMyGroups(ctx context.Context, caller *models.User) ([]*models.Group, error) {
	groups, err := s.groups.ListForUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("получение групп: %w", err)
	}
	return groups, nil
}

func (s *GroupService) GetMembers(ctx context.Context, caller *models.User, groupID uuid.UUID) ([]*models.User, error) {
	if _, err := s.GetGroupByID(ctx, caller, groupID); err != nil {
		return nil, err
	}
	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("получение участников: %w", err)
	}
	return members, nil
}

// AddMember - идемпотентная вставка; используется жизненным циклом приглашений
func (s *GroupService) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	if err := s.groups.AddMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("добавление участника: %w", err)
	}
	return nil
}

// LeaveGroup: владелец выйти не может - только удалить группу
func (s *GroupService) LeaveGroup(ctx context.Context, caller *models.User, groupID uuid.UUID) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound("Группа", groupID.String())
		}
		return fmt.Errorf("получение группы: %w", err)
	}

	if group.OwnerID == caller.ID {
		return NewBadRequest("владелец не может покинуть группу, удалите группу целиком")
	}

	member, err := s.groups.IsMember(ctx, groupID, caller.ID)
	if err != nil {
		return fmt.Errorf("проверка участия: %w", err)
	}
	if !member {
		return NewBadRequest("вы не участник этой группы")
	}

	if err := s.groups.RemoveMember(ctx, groupID, caller.ID); err != nil {
		return fmt.Errorf("удаление участника: %w", err)
	}

	logger.Info("Service: Участник покинул группу",
		zap.String("group_id", groupID.String()),
		zap.String("username", caller.Username))
	return nil
}

// DeleteGroup каскадно удаляет приглашения и задачи группы одной транзакцией
func (s *GroupService) DeleteGroup(ctx context.Context, caller *models.User, groupID uuid.UUID) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound("Группа", groupID.String())
		}
		return fmt.Errorf("получение группы: %w", err)
	}

	if group.OwnerID != caller.ID {
		return NewForbidden("удалить группу может только владелец")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.invitations.DeleteByGroup(ctx, groupID); err != nil {
			return err
		}
		if err := s.tasks.DeleteByGroup(ctx, groupID); err != nil {
			return err
		}
		return s.groups.Delete(ctx, groupID)
	})
	if err != nil {
		return fmt.Errorf("удаление группы: %w", err)
	}

	logger.Info("Service: Группа удалена", zap.String("group_id", groupID.String()))
	return nil
}
