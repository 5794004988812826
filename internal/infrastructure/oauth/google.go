package oauth

import (
	"context"
	"fmt"

	"github.com/waste3d/courseplatform-api/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleProfile is the part of the Google userinfo the platform keeps.
type GoogleProfile struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type GoogleProvider struct {
	config   *oauth2.Config
	endpoint string
}

func NewGoogleProvider(cfg config.Config) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{googleoauth.UserinfoEmailScope, googleoauth.UserinfoProfileScope},
			Endpoint:     google.Endpoint,
		},
	}
}

// WithEndpoints overrides the token and userinfo servers.
func (p *GoogleProvider) WithEndpoints(tokenURL, apiURL string) *GoogleProvider {
	p.config.Endpoint = oauth2.Endpoint{AuthURL: tokenURL, TokenURL: tokenURL}
	p.endpoint = apiURL
	return p
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the signed-in Google profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google token exchange: %w", err)
	}

	opts := []option.ClientOption{option.WithHTTPClient(p.config.Client(ctx, token))}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}
	svc, err := googleoauth.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	if info.Id == "" || info.Email == "" {
		return nil, fmt.Errorf("google userinfo: missing id or email")
	}
	profile := &GoogleProfile{
		ID:      info.Id,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}
	if info.VerifiedEmail != nil {
		profile.EmailVerified = *info.VerifiedEmail
	}
	return profile, nil
}
