package models

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Text      string    `json:"text" db:"text"`
	AuthorID  uuid.UUID `json:"author_id" db:"author_id"`
	TaskID    uuid.UUID `json:"task_id" db:"task_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ActivityLog struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Type        string    `json:"type" db:"type"`
	Description string    `json:"description" db:"description"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	TaskID      uuid.UUID `json:"task_id" db:"task_id"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

const (
	ActivityCommentAdded = "COMMENT_ADDED"
	ActivityTaskCreated  = "TASK_CREATED"
	ActivityTaskAssigned = "TASK_ASSIGNED"
)
