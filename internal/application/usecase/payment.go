package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/paystack"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/security"

	"github.com/google/uuid"
)

const eventChargeSuccess = "charge.success"

// PaymentProvider is the subset of the Paystack API the platform calls.
type PaymentProvider interface {
	Initialize(ctx context.Context, in paystack.InitializeRequest) (*paystack.Authorization, error)
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
	VerifySignature(body []byte, signature string) bool
}

type WebhookOutcome string

const (
	WebhookApplied   WebhookOutcome = "applied"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookIgnored   WebhookOutcome = "ignored"
	WebhookUnmatched WebhookOutcome = "unmatched"
)

type Checkout struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
	Reference        string `json:"reference"`
}

type PaymentUseCase struct {
	paymentRepo *repository.PaymentRepository
	provider    PaymentProvider
	callbackURL string
}

func NewPaymentUseCase(pr *repository.PaymentRepository, p PaymentProvider, callbackURL string) *PaymentUseCase {
	return &PaymentUseCase{paymentRepo: pr, provider: p, callbackURL: callbackURL}
}

func (uc *PaymentUseCase) Plans(ctx context.Context) ([]domain.Plan, error) {
	return uc.paymentRepo.ActivePlans(ctx)
}

func (uc *PaymentUseCase) History(ctx context.Context, user *domain.User) ([]domain.Payment, error) {
	return uc.paymentRepo.History(ctx, user.ID)
}

// Initialize opens a pending payment for the plan and returns the provider checkout.
func (uc *PaymentUseCase) Initialize(ctx context.Context, user *domain.User, planID uuid.UUID) (*Checkout, error) {
	plan, err := uc.paymentRepo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.ErrNotFound
	}

	suffix, err := security.RandomToken(10)
	if err != nil {
		return nil, err
	}
	reference := "CP-" + strings.ToUpper(suffix)

	payment := &domain.Payment{
		UserID:    user.ID,
		PlanID:    plan.ID,
		Reference: reference,
		Amount:    plan.Amount,
		Currency:  plan.Currency,
		Status:    domain.PaymentPending,
	}
	if err := uc.paymentRepo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	auth, err := uc.provider.Initialize(ctx, paystack.InitializeRequest{
		Email:       user.Email,
		Amount:      plan.Amount,
		Currency:    plan.Currency,
		Reference:   reference,
		CallbackURL: uc.callbackURL,
		Metadata:    map[string]string{"user_id": user.ID.String(), "plan": plan.Code},
	})
	if err != nil {
		if markErr := uc.paymentRepo.MarkFailed(ctx, reference); markErr != nil {
			log.Printf("mark payment %s failed: %v", reference, markErr)
		}
		return nil, err
	}

	return &Checkout{AuthorizationURL: auth.AuthorizationURL, AccessCode: auth.AccessCode, Reference: reference}, nil
}

// Verify asks the provider about a payment of the user and applies a successful
// charge the same way the webhook does.
func (uc *PaymentUseCase) Verify(ctx context.Context, user *domain.User, reference string) (*domain.Payment, error) {
	payment, err := uc.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment.UserID != user.ID {
		return nil, domain.ErrNotFound
	}
	if payment.Status == domain.PaymentSuccess {
		return payment, nil
	}

	tx, err := uc.provider.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	switch tx.Status {
	case "success":
		event := domain.ChargeEvent{Event: eventChargeSuccess}
		event.Data.ID = tx.ID
		event.Data.Reference = reference
		payload, err := json.Marshal(tx)
		if err != nil {
			return nil, err
		}
		ledger := &domain.WebhookEvent{ID: event.LedgerKey(), Event: eventChargeSuccess, Reference: reference, Payload: payload}
		_, err = uc.paymentRepo.ApplyCharge(ctx, ledger, repository.Charge{
			Email:     user.Email,
			Reference: reference,
			Amount:    tx.Amount,
			Currency:  tx.Currency,
			Channel:   tx.Channel,
			PaidAt:    parsePaidAt(tx.PaidAt),
		})
		if err != nil {
			return nil, err
		}
	case "failed", "abandoned", "reversed":
		if err := uc.paymentRepo.MarkFailed(ctx, reference); err != nil {
			return nil, err
		}
	}
	return uc.paymentRepo.GetByReference(ctx, reference)
}

// HandleWebhook authenticates and applies a provider event. Only a bad signature
// or an unreadable body is an error; events that cannot be applied are
// acknowledged so the provider stops retrying them.
func (uc *PaymentUseCase) HandleWebhook(ctx context.Context, body []byte, signature string) (WebhookOutcome, error) {
	if !uc.provider.VerifySignature(body, signature) {
		return "", domain.ErrInvalidSignature
	}

	var event domain.ChargeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if event.Event != eventChargeSuccess {
		return WebhookIgnored, nil
	}
	if event.Data.Reference == "" || event.Data.Customer.Email == "" {
		log.Printf("webhook %s without reference or customer", event.Event)
		return WebhookUnmatched, nil
	}

	ledger := &domain.WebhookEvent{
		ID:        event.LedgerKey(),
		Event:     event.Event,
		Reference: event.Data.Reference,
		Payload:   body,
	}
	applied, err := uc.paymentRepo.ApplyCharge(ctx, ledger, repository.Charge{
		Email:     normalizeEmail(event.Data.Customer.Email),
		Reference: event.Data.Reference,
		Amount:    event.Data.Amount,
		Currency:  event.Data.Currency,
		Channel:   event.Data.Channel,
		PaidAt:    parsePaidAt(event.Data.PaidAt),
	})
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrNotFound):
		log.Printf("webhook %s: no pending payment %s for %s", ledger.ID, event.Data.Reference, event.Data.Customer.Email)
		return WebhookUnmatched, nil
	case errors.Is(err, domain.ErrChargeMismatch):
		log.Printf("webhook %s: %v", ledger.ID, err)
		return WebhookUnmatched, nil
	case err != nil:
		return "", err
	case !applied:
		return WebhookDuplicate, nil
	}
	log.Printf("webhook %s applied to payment %s", ledger.ID, event.Data.Reference)
	return WebhookApplied, nil
}

func parsePaidAt(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Now()
}
