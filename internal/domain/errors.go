package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrSessionExpired       = errors.New("session expired")
	ErrForbidden            = errors.New("forbidden")
	ErrSubscriptionRequired = errors.New("active subscription required")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrInvalidInput         = errors.New("invalid input")
	ErrObjectNotFound       = errors.New("object not found")
	ErrPaymentProvider      = errors.New("payment provider error")
	ErrProviderDisabled     = errors.New("provider not configured")
	ErrChargeMismatch       = errors.New("charge does not match payment")
)
