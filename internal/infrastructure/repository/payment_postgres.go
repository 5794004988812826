package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/waste3d/courseplatform-api/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) ActivePlans(ctx context.Context) ([]domain.Plan, error) {
	var plans []domain.Plan
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("amount asc").Find(&plans).Error
	return plans, err
}

func (r *PaymentRepository) GetPlan(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	var plan domain.Plan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.ErrNotFound)
	}
	return &plan, nil
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, p *domain.Payment) error {
	return translate(r.db.WithContext(ctx).Create(p).Error, domain.ErrNotFound)
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, reference string) error {
	return r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("reference = ? AND status = ?", reference, domain.PaymentPending).
		Update("status", domain.PaymentFailed).Error
}

func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&p).Error; err != nil {
		return nil, translate(err, domain.ErrNotFound)
	}
	return &p, nil
}

func (r *PaymentRepository) History(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&payments).Error
	return payments, err
}

// Charge is a confirmed provider charge to apply to a pending payment.
type Charge struct {
	Email     string
	Reference string
	Amount    int64
	Currency  string
	Channel   string
	PaidAt    time.Time
}

// ApplyCharge records the ledger row, marks the payment successful and subscribes
// its owner, all in one transaction. It reports false when the ledger key was already
// applied. ErrUserNotFound, ErrNotFound and ErrChargeMismatch mean nothing was written.
func (r *PaymentRepository) ApplyCharge(ctx context.Context, ledger *domain.WebhookEvent, ch Charge) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger.ProcessedAt = time.Now()
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(ledger)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var user domain.User
		if err := tx.Where("email = ?", ch.Email).First(&user).Error; err != nil {
			return translate(err, domain.ErrUserNotFound)
		}
		var payment domain.Payment
		err := tx.Where("reference = ? AND user_id = ?", ch.Reference, user.ID).First(&payment).Error
		if err != nil {
			return translate(err, domain.ErrNotFound)
		}
		if ch.Amount != payment.Amount || !strings.EqualFold(ch.Currency, payment.Currency) {
			return fmt.Errorf("%w: charged %d %s, expected %d %s", domain.ErrChargeMismatch,
				ch.Amount, ch.Currency, payment.Amount, payment.Currency)
		}

		if payment.Status != domain.PaymentSuccess {
			err = tx.Model(&payment).Updates(map[string]interface{}{
				"status":  domain.PaymentSuccess,
				"channel": ch.Channel,
				"paid_at": ch.PaidAt,
			}).Error
			if err != nil {
				return err
			}
		}
		if !user.IsSubscribed {
			err = tx.Model(&user).Updates(map[string]interface{}{
				"is_subscribed": true,
				"subscribed_at": ch.PaidAt,
			}).Error
			if err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// LedgerHas reports whether an event key has already been applied.
func (r *PaymentRepository) LedgerHas(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.WebhookEvent{}).Where("id = ?", key).Count(&n).Error
	return n > 0, err
}
