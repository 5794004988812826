package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// Plan is a subscription tier. Amount is in the currency's minor unit (kobo for NGN).
type Plan struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Code        string    `gorm:"uniqueIndex;not null;size:64" json:"code"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Currency    string    `gorm:"size:8;default:'NGN'" json:"currency"`
	Interval    string    `gorm:"size:20" json:"interval"`
	Description string    `json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Payment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	PlanID    uuid.UUID  `gorm:"type:uuid;index" json:"plan_id"`
	Reference string     `gorm:"uniqueIndex;not null;size:100" json:"reference"`
	Amount    int64      `json:"amount"`
	Currency  string     `gorm:"size:8" json:"currency"`
	Status    string     `gorm:"size:20;default:'pending'" json:"status"`
	Channel   string     `gorm:"size:50" json:"channel,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// WebhookEvent is a ledger row for a provider event that has already been applied.
type WebhookEvent struct {
	ID          string         `gorm:"primaryKey;size:128"`
	Event       string         `gorm:"size:64;index"`
	Reference   string         `gorm:"size:100;index"`
	Payload     datatypes.JSON
	ProcessedAt time.Time
}

// ChargeEvent is the part of a Paystack event body the platform acts on.
type ChargeEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		Channel   string `json:"channel"`
		PaidAt    string `json:"paid_at"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// LedgerKey identifies the event for replay detection.
func (e *ChargeEvent) LedgerKey() string {
	if e.Data.ID != 0 {
		return e.Event + ":" + strconv.FormatInt(e.Data.ID, 10)
	}
	return e.Event + ":" + e.Data.Reference
}
