package models

import (
	"time"

	"github.com/google/uuid"
)

// Group хранит владельца по id; состав участников лежит в отдельной таблице
// и читается через репозиторий
type Group struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
)

type Invitation struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	Email     string           `json:"email" db:"email"`
	GroupID   uuid.UUID        `json:"group_id" db:"group_id"`
	Status    InvitationStatus `json:"status" db:"status"`
	InvitedAt time.Time        `json:"invited_at" db:"invited_at"`
}

// Terminal - из ACCEPTED и REJECTED переходов нет
func (i *Invitation) Terminal() bool {
	return i.Status != InvitationPending
}
