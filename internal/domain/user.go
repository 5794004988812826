package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string     `gorm:"size:100" json:"name"`
	Email         string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash  string     `json:"-"`
	EmailVerified bool       `gorm:"default:false" json:"email_verified"`
	Image         string     `json:"image,omitempty"`
	Role          string     `gorm:"size:20;default:'user'" json:"role"`
	IsSubscribed  bool       `gorm:"default:false" json:"is_subscribed"`
	SubscribedAt  *time.Time `json:"subscribed_at,omitempty"`
	// nil for password-only accounts so the unique index ignores them
	GoogleID  *string   `gorm:"uniqueIndex;size:64" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanStream reports whether the user may play subscriber-only videos.
func (u *User) CanStream() bool {
	return u.IsAdmin() || u.IsSubscribed
}

type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Token     string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	IPAddress string    `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
