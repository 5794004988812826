package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/cache"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/oauth"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/security"

	"github.com/google/uuid"
)

const sessionTokenBytes = 32

type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
	SendResetEmail(ctx context.Context, to, token string) error
}

// SessionMeta describes the client opening a session.
type SessionMeta struct {
	IP        string
	UserAgent string
}

type AuthUseCase struct {
	userRepo     *repository.UserRepository
	sessionRepo  *repository.SessionRepository
	tokenCache   *cache.TokenCache
	hasher       *security.PasswordHasher
	tokenManager *security.TokenManager
	mailer       Mailer
	google       *oauth.GoogleProvider
	sessionTTL   time.Duration
}

func NewAuthUseCase(
	ur *repository.UserRepository,
	sr *repository.SessionRepository,
	tc *cache.TokenCache,
	h *security.PasswordHasher,
	tm *security.TokenManager,
	m Mailer,
	g *oauth.GoogleProvider,
	sessionTTL time.Duration,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     ur,
		sessionRepo:  sr,
		tokenCache:   tc,
		hasher:       h,
		tokenManager: tm,
		mailer:       m,
		google:       g,
		sessionTTL:   sessionTTL,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (uc *AuthUseCase) SignUp(ctx context.Context, name, email, password string, meta SessionMeta) (*domain.User, *domain.Session, error) {
	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	uc.sendVerification(user)

	session, err := uc.openSession(ctx, user.ID, meta)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (uc *AuthUseCase) SignIn(ctx context.Context, email, password string, meta SessionMeta) (*domain.User, *domain.Session, error) {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if user.PasswordHash == "" || uc.hasher.Compare(user.PasswordHash, password) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	session, err := uc.openSession(ctx, user.ID, meta)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (uc *AuthUseCase) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := uc.tokenCache.DeleteSession(ctx, token); err != nil {
		log.Printf("session cache delete: %v", err)
	}
	return uc.sessionRepo.DeleteByToken(ctx, token)
}

// Authenticate resolves a session token to its user. Expired sessions are removed.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	if token == "" {
		return nil, nil, domain.ErrUnauthorized
	}

	var session *domain.Session
	if userID, expiresAt, err := uc.tokenCache.GetSession(ctx, token); err == nil {
		if id, err := uuid.Parse(userID); err == nil {
			session = &domain.Session{Token: token, UserID: id, ExpiresAt: expiresAt}
		}
	}

	if session == nil {
		s, err := uc.sessionRepo.GetByToken(ctx, token)
		if err != nil {
			return nil, nil, err
		}
		if s.Expired(time.Now()) {
			_ = uc.sessionRepo.DeleteByToken(ctx, token)
			return nil, nil, domain.ErrSessionExpired
		}
		if err := uc.tokenCache.SaveSession(ctx, token, s.UserID.String(), s.ExpiresAt); err != nil {
			log.Printf("session cache write: %v", err)
		}
		session = s
	}

	user, err := uc.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrUnauthorized
		}
		return nil, nil, err
	}
	return user, session, nil
}

func (uc *AuthUseCase) openSession(ctx context.Context, userID uuid.UUID, meta SessionMeta) (*domain.Session, error) {
	token, err := security.RandomToken(sessionTokenBytes)
	if err != nil {
		return nil, err
	}
	session := &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(uc.sessionTTL),
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := uc.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	if err := uc.tokenCache.SaveSession(ctx, token, userID.String(), session.ExpiresAt); err != nil {
		log.Printf("session cache write: %v", err)
	}
	return session, nil
}

// PurgeExpiredSessions deletes session rows past their expiry.
func (uc *AuthUseCase) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return uc.sessionRepo.DeleteExpired(ctx, time.Now())
}

func (uc *AuthUseCase) VerifyEmail(ctx context.Context, token string) error {
	userID, email, err := uc.tokenManager.ValidateEmailToken(token)
	if err != nil {
		return domain.ErrInvalidToken
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrInvalidToken
	}
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return domain.ErrInvalidToken
	}
	if user.Email != email {
		return domain.ErrInvalidToken
	}
	return uc.userRepo.MarkEmailVerified(ctx, id)
}

func (uc *AuthUseCase) SendVerification(ctx context.Context, user *domain.User) error {
	if user.EmailVerified {
		return nil
	}
	uc.sendVerification(user)
	return nil
}

func (uc *AuthUseCase) sendVerification(user *domain.User) {
	token, err := uc.tokenManager.GenerateEmailToken(user.ID.String(), user.Email)
	if err != nil {
		log.Printf("ERROR: verification token for %s: %v", user.Email, err)
		return
	}
	uc.dispatch(user.Email, func(ctx context.Context) error {
		return uc.mailer.SendVerificationEmail(ctx, user.Email, token)
	})
}

// ForgotPassword always succeeds so callers cannot probe which addresses exist.
func (uc *AuthUseCase) ForgotPassword(ctx context.Context, email string) error {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}

	resetToken, err := security.RandomToken(sessionTokenBytes)
	if err != nil {
		return err
	}
	if err := uc.tokenCache.SaveResetToken(ctx, resetToken, user.ID.String()); err != nil {
		return err
	}

	uc.dispatch(user.Email, func(ctx context.Context) error {
		return uc.mailer.SendResetEmail(ctx, user.Email, resetToken)
	})
	return nil
}

// ResetPassword consumes the reset token and signs the user out everywhere.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, token, newPassword string) error {
	userIDStr, err := uc.tokenCache.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return domain.ErrInvalidToken
		}
		return err
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return domain.ErrInvalidToken
	}

	hash, err := uc.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := uc.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	tokens, err := uc.sessionRepo.DeleteByUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := uc.tokenCache.DeleteSession(ctx, tokens...); err != nil {
		log.Printf("session cache delete: %v", err)
	}
	return nil
}

func (uc *AuthUseCase) GoogleEnabled() bool {
	return uc.google != nil
}

// GoogleAuthURL starts a Google sign-in and returns the consent URL with its state.
func (uc *AuthUseCase) GoogleAuthURL(ctx context.Context) (string, string, error) {
	if uc.google == nil {
		return "", "", domain.ErrProviderDisabled
	}
	state, err := security.RandomToken(16)
	if err != nil {
		return "", "", err
	}
	if err := uc.tokenCache.SaveOAuthState(ctx, state); err != nil {
		return "", "", err
	}
	return uc.google.AuthCodeURL(state), state, nil
}

// GoogleCallback finishes a Google sign-in. The account is found by Google id,
// then by email (and linked), and created otherwise.
func (uc *AuthUseCase) GoogleCallback(ctx context.Context, state, code string, meta SessionMeta) (*domain.User, *domain.Session, error) {
	if uc.google == nil {
		return nil, nil, domain.ErrProviderDisabled
	}
	if state == "" || !uc.tokenCache.ConsumeOAuthState(ctx, state) {
		return nil, nil, domain.ErrInvalidToken
	}

	profile, err := uc.google.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	user, err := uc.userRepo.GetByGoogleID(ctx, profile.ID)
	if errors.Is(err, domain.ErrUserNotFound) {
		user, err = uc.linkOrCreateGoogleUser(ctx, profile)
	}
	if err != nil {
		return nil, nil, err
	}

	session, err := uc.openSession(ctx, user.ID, meta)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (uc *AuthUseCase) linkOrCreateGoogleUser(ctx context.Context, profile *oauth.GoogleProfile) (*domain.User, error) {
	email := normalizeEmail(profile.Email)
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if !profile.EmailVerified {
			return nil, domain.ErrUserAlreadyExists
		}
		if err := uc.userRepo.LinkGoogle(ctx, existing.ID, profile.ID, profile.Picture); err != nil {
			return nil, err
		}
		return uc.userRepo.GetByID(ctx, existing.ID)
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	googleID := profile.ID
	user := &domain.User{
		Name:          profile.Name,
		Email:         email,
		EmailVerified: profile.EmailVerified,
		Image:         profile.Picture,
		GoogleID:      &googleID,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the configured admin account once and keeps its role.
func (uc *AuthUseCase) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if user.IsAdmin() {
			return nil
		}
		return uc.userRepo.SetRole(ctx, user.ID, domain.RoleAdmin)
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Name:          "Admin",
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: true,
		Role:          domain.RoleAdmin,
	}
	if err := uc.userRepo.Create(ctx, admin); err != nil {
		return err
	}
	log.Printf("Created admin account %s", email)
	return nil
}

func (uc *AuthUseCase) dispatch(to string, send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := send(ctx); err != nil {
			log.Printf("ERROR: Failed to send email to %s: %v", to, err)
		}
	}()
}
