package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records a state-changing action taken by a user.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	ActorID    *uuid.UUID `gorm:"type:varchar(36);index" json:"actor_id,omitempty"`
	Action     string     `gorm:"size:100;not null" json:"action"`
	EntityType string     `gorm:"size:50;not null" json:"entity_type"`
	EntityID   string     `gorm:"size:36" json:"entity_id"`
	Details    string     `gorm:"type:text" json:"details"`
	IPAddress  string     `gorm:"size:64" json:"ip_address"`
}

// ErrorLog records a failed request.
type ErrorLog struct {
	ID        uuid.UUID  `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	RequestID string     `gorm:"size:64" json:"request_id"`
	Method    string     `gorm:"size:10" json:"method"`
	Path      string     `gorm:"size:512" json:"path"`
	Status    int        `json:"status"`
	Message   string     `gorm:"type:text" json:"message"`
	UserID    *uuid.UUID `gorm:"type:varchar(36)" json:"user_id,omitempty"`
}
