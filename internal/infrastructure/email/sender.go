package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"
)

const sendGridURL = "https://api.sendgrid.com/v3/mail/send"

type EmailSender struct {
	apiKey      string
	senderEmail string
	senderName  string
	frontend    string
	endpoint    string
	client      *http.Client
}

func NewEmailSender(apiKey, senderEmail, frontend string) *EmailSender {
	return &EmailSender{
		apiKey:      apiKey,
		senderEmail: senderEmail,
		senderName:  "Course Platform",
		frontend:    frontend,
		endpoint:    sendGridURL,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// WithEndpoint points the sender at another SendGrid-compatible URL.
func (s *EmailSender) WithEndpoint(url string) *EmailSender {
	s.endpoint = url
	return s
}

// SendGrid request format
type sgEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
type sgPersonalization struct {
	To []sgEmail `json:"to"`
}
type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgEmail             `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

var actionTmpl = template.Must(template.New("action").Parse(`<html>
<body style="font-family: Arial, sans-serif; background-color: #0f172a; color: #e2e8f0;">
	<div style="max-width: 560px; margin: 40px auto; background-color: #1e293b; padding: 28px; border-radius: 10px; text-align: center;">
		<h3>{{.Title}}</h3>
		<p>{{.Text}}</p>
		<a href="{{.Link}}" style="display: inline-block; margin: 24px 0; padding: 14px 28px; border: 2px solid #38bdf8; color: #38bdf8; text-decoration: none; border-radius: 6px;">{{.Button}}</a>
		<p style="font-size: 12px; color: #94a3b8;">{{.Footer}}</p>
	</div>
</body>
</html>`))

type action struct {
	Title, Text, Link, Button, Footer string
}

func (s *EmailSender) SendVerificationEmail(ctx context.Context, toEmail, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.frontend, token)
	return s.send(ctx, toEmail, "Confirm your email", action{
		Title:  "Confirm your email",
		Text:   "Click the button below to confirm your address and finish setting up your account.",
		Link:   link,
		Button: "Confirm email",
		Footer: "If you did not create an account, ignore this message.",
	})
}

func (s *EmailSender) SendResetEmail(ctx context.Context, toEmail, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontend, token)
	return s.send(ctx, toEmail, "Reset your password", action{
		Title:  "Password reset",
		Text:   "You asked to reset your password. The link is valid for 15 minutes.",
		Link:   link,
		Button: "Reset password",
		Footer: "If you did not request a reset, ignore this message.",
	})
}

func (s *EmailSender) send(ctx context.Context, to, subject string, a action) error {
	if s.apiKey == "" {
		log.Printf("email disabled, %q for %s: %s", subject, to, a.Link)
		return nil
	}

	var html bytes.Buffer
	if err := actionTmpl.Execute(&html, a); err != nil {
		return err
	}

	body := sgRequest{
		Personalizations: []sgPersonalization{{To: []sgEmail{{Email: to}}}},
		From:             sgEmail{Email: s.senderEmail, Name: s.senderName},
		Subject:          subject,
		Content:          []sgContent{{Type: "text/html", Value: html.String()}},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid answers 202 on success
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid error: status=%d body=%s", resp.StatusCode, body)
	}
	return nil
}
