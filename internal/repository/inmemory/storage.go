package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskManager/internal/models"
	"taskManager/internal/repository"

	"github.com/google/uuid"
)

// Storage - хранилище в памяти для разработки и тестов.
// Каждая операция атомарна под общим мьютексом; WithinTx настоящих
// транзакций не даёт, последняя запись побеждает.
type Storage struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*models.User
	refreshTokens map[string]*models.RefreshToken
	groups        map[uuid.UUID]*models.Group
	members       map[uuid.UUID]map[uuid.UUID]struct{}
	invitations   map[uuid.UUID]*models.Invitation
	tasks         map[uuid.UUID]*models.Task
	comments      map[uuid.UUID]*models.Comment
	activity      []*models.ActivityLog
}

func NewStorage() *Storage {
	return &Storage{
		users:         make(map[uuid.UUID]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
		groups:        make(map[uuid.UUID]*models.Group),
		members:       make(map[uuid.UUID]map[uuid.UUID]struct{}),
		invitations:   make(map[uuid.UUID]*models.Invitation),
		tasks:         make(map[uuid.UUID]*models.Task),
		comments:      make(map[uuid.UUID]*models.Comment),
	}
}

func (s *Storage) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return nil
}

func copyTask(t *models.Task) *models.Task {
	c := *t
	return &c
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}

// --- пользователи ---

type UserRepo struct{ s *Storage }

func NewUserRepo(s *Storage) *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.s.users[user.ID] = copyUser(user)
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(user), nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if user.Username == username {
			return copyUser(user), nil
		}
	}
	return nil, repository.ErrNotFound
}

type RefreshTokenRepo struct{ s *Storage }

func NewRefreshTokenRepo(s *Storage) *RefreshTokenRepo { return &RefreshTokenRepo{s: s} }

func (r *RefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *token
	r.s.refreshTokens[token.Token] = &c
	return nil
}

func (r *RefreshTokenRepo) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored, ok := r.s.refreshTokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *stored
	return &c, nil
}

func (r *RefreshTokenRepo) Delete(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.refreshTokens, token)
	return nil
}

// --- группы ---

type GroupRepo struct{ s *Storage }

func NewGroupRepo(s *Storage) *GroupRepo { return &GroupRepo{s: s} }

func (r *GroupRepo) Create(ctx context.Context, group *models.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now()
	}
	c := *group
	r.s.groups[group.ID] = &c
	r.s.members[group.ID] = map[uuid.UUID]struct{}{group.OwnerID: {}}
	return nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	group, ok := r.s.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *group
	return &c, nil
}

func (r *GroupRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	groups := []*models.Group{}
	for id, group := range r.s.groups {
		if _, ok := r.s.members[id][userID]; ok {
			c := *group
			groups = append(groups, &c)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CreatedAt.Before(groups[j].CreatedAt)
	})
	return groups, nil
}

func (r *GroupRepo) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[groupID]; !ok {
		return repository.ErrNotFound
	}
	r.s.members[groupID][userID] = struct{}{}
	return nil
}

func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.members[groupID], userID)
	return nil
}

func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.members[groupID][userID]
	return ok, nil
}

func (r *GroupRepo) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := []*models.User{}
	for userID := range r.s.members[groupID] {
		if user, ok := r.s.users[userID]; ok {
			users = append(users, copyUser(user))
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

func (r *GroupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.groups, id)
	delete(r.s.members, id)
	return nil
}

// --- приглашения ---

type InvitationRepo struct{ s *Storage }

func NewInvitationRepo(s *Storage) *InvitationRepo { return &InvitationRepo{s: s} }

func (r *InvitationRepo) Create(ctx context.Context, invitation *models.Invitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if invitation.InvitedAt.IsZero() {
		invitation.InvitedAt = time.Now()
	}
	c := *invitation
	r.s.invitations[invitation.ID] = &c
	return nil
}

func (r *InvitationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	invitation, ok := r.s.invitations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *invitation
	return &c, nil
}

func (r *InvitationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	invitation, ok := r.s.invitations[id]
	if !ok {
		return repository.ErrNotFound
	}
	invitation.Status = status
	return nil
}

func (r *InvitationRepo) ExistsForEmailAndGroup(ctx context.Context, email string, groupID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, invitation := range r.s.invitations {
		if invitation.GroupID == groupID && strings.EqualFold(invitation.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *InvitationRepo) ListPendingByEmail(ctx context.Context, email string) ([]*models.Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	invitations := []*models.Invitation{}
	for _, invitation := range r.s.invitations {
		if invitation.Status == models.InvitationPending && strings.EqualFold(invitation.Email, email) {
			c := *invitation
			invitations = append(invitations, &c)
		}
	}
	sort.Slice(invitations, func(i, j int) bool {
		return invitations[i].InvitedAt.After(invitations[j].InvitedAt)
	})
	return invitations, nil
}

func (r *InvitationRepo) DeleteByGroup(ctx context.Context, groupID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, invitation := range r.s.invitations {
		if invitation.GroupID == groupID {
			delete(r.s.invitations, id)
		}
	}
	return nil
}
