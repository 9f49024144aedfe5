package dto

import (
	"time"

	"taskManager/internal/models"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

func FromUser(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt,
	}
}

func FromUserList(users []*models.User) []UserResponse {
	result := make([]UserResponse, len(users))
	for i, u := range users {
		result[i] = FromUser(u)
	}
	return result
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	GroupID     *uuid.UUID `json:"group_id,omitempty"`
	AssignedID  *uuid.UUID `json:"assigned_id,omitempty"`
}

// UpdateTaskRequest: nil-поле не трогается
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	GroupID     *uuid.UUID `json:"group_id,omitempty"`
	AssignedID  *uuid.UUID `json:"assigned_id,omitempty"`
}

type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	GroupID     *uuid.UUID `json:"group_id,omitempty"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	AssignedID  *uuid.UUID `json:"assigned_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	IsOverdue   bool       `json:"is_overdue"`
}

func FromTask(t *models.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		GroupID:     t.GroupID,
		OwnerID:     t.OwnerID,
		AssignedID:  t.AssignedID,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
		IsOverdue: t.Status != models.StatusCompleted &&
			t.DueDate != nil && t.DueDate.Before(time.Now()),
	}
}

func FromTaskList(tasks []*models.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type GroupResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

func FromGroup(g *models.Group) GroupResponse {
	return GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		OwnerID:   g.OwnerID,
		CreatedAt: g.CreatedAt,
	}
}

func FromGroupList(groups []*models.Group) []GroupResponse {
	result := make([]GroupResponse, len(groups))
	for i, g := range groups {
		result[i] = FromGroup(g)
	}
	return result
}

type InviteRequest struct {
	Email string `json:"email"`
}

// InviteByGroupRequest - тело для POST /api/invitations/invite,
// группа передаётся в теле, а не в пути
type InviteByGroupRequest struct {
	GroupID uuid.UUID `json:"group_id"`
	Email   string    `json:"email"`
}

type InvitationResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	GroupID   uuid.UUID `json:"group_id"`
	Status    string    `json:"status"`
	InvitedAt time.Time `json:"invited_at"`
}

func FromInvitation(inv *models.Invitation) InvitationResponse {
	return InvitationResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		GroupID:   inv.GroupID,
		Status:    string(inv.Status),
		InvitedAt: inv.InvitedAt,
	}
}

func FromInvitationList(invitations []*models.Invitation) []InvitationResponse {
	result := make([]InvitationResponse, len(invitations))
	for i, inv := range invitations {
		result[i] = FromInvitation(inv)
	}
	return result
}

type CommentRequest struct {
	Text string `json:"text"`
}

type CommentResponse struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	AuthorID  uuid.UUID `json:"author_id"`
	TaskID    uuid.UUID `json:"task_id"`
	CreatedAt time.Time `json:"created_at"`
}

func FromComment(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		Text:      c.Text,
		AuthorID:  c.AuthorID,
		TaskID:    c.TaskID,
		CreatedAt: c.CreatedAt,
	}
}

func FromCommentList(comments []*models.Comment) []CommentResponse {
	result := make([]CommentResponse, len(comments))
	for i, c := range comments {
		result[i] = FromComment(c)
	}
	return result
}

type ActivityResponse struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	UserID      uuid.UUID `json:"user_id"`
	TaskID      uuid.UUID `json:"task_id"`
	Timestamp   time.Time `json:"timestamp"`
}

func FromActivity(a *models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		ID:          a.ID,
		Type:        a.Type,
		Description: a.Description,
		UserID:      a.UserID,
		TaskID:      a.TaskID,
		Timestamp:   a.Timestamp,
	}
}

func FromActivityList(logs []*models.ActivityLog) []ActivityResponse {
	result := make([]ActivityResponse, len(logs))
	for i, a := range logs {
		result[i] = FromActivity(a)
	}
	return result
}
