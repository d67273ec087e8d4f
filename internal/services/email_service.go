package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"practice-journal-api/internal/models"
	"practice-journal-api/pkg/logging"
)

// NotificationRecorder persists a record of each email attempt.
type NotificationRecorder interface {
	Record(ctx context.Context, n *models.EmailNotification) error
}

// EmailService composes the app's transactional emails.
type EmailService struct {
	sender      Sender
	recorder    NotificationRecorder
	frontendURL string
	serviceName string
}

func NewEmailService(sender Sender, recorder NotificationRecorder, frontendURL, serviceName string) *EmailService {
	return &EmailService{
		sender:      sender,
		recorder:    recorder,
		frontendURL: frontendURL,
		serviceName: serviceName,
	}
}

// SendConfirmation mails the email confirmation link. newUser selects the
// welcome wording over the changed-address wording.
func (s *EmailService) SendConfirmation(ctx context.Context, user *models.User, token string, newUser bool) error {
	link := fmt.Sprintf("%s/confirm-email?token=%s", s.frontendURL, token)

	var msg Message
	if newUser {
		msg = Message{
			Subject: fmt.Sprintf("Confirm your %s account", s.serviceName),
			HTML: fmt.Sprintf(`<p>Welcome to %s!</p>
<p>Please click <a href="%s">here</a> to confirm your email address and activate your account.</p>
<p>If you didn't create this account, you can safely ignore this email.</p>`, html.EscapeString(s.serviceName), link),
		}
	} else {
		msg = Message{
			Subject: "Confirm your new email address",
			HTML: fmt.Sprintf(`<p>Hello %s,</p>
<p>Please click <a href="%s">here</a> to confirm your new email address.</p>
<p>If you didn't request this change, please contact support immediately.</p>`, html.EscapeString(user.Username), link),
		}
	}
	msg.Text = fmt.Sprintf("Please visit %s to confirm your email address.", link)

	return s.send(ctx, user, models.NotificationConfirmation, msg)
}

// SendPasswordReset mails the password reset link, valid for ttl.
func (s *EmailService) SendPasswordReset(ctx context.Context, user *models.User, token string, ttl time.Duration) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	expiry := describeDuration(ttl)
	msg := Message{
		Subject: fmt.Sprintf("Reset your %s password", s.serviceName),
		HTML: fmt.Sprintf(`<p>Hello %s,</p>
<p>Click <a href="%s">here</a> to choose a new password. The link expires in %s.</p>
<p>If you didn't ask for a reset, you can ignore this email.</p>`, html.EscapeString(user.Username), link, expiry),
		Text: fmt.Sprintf("Visit %s to choose a new password. The link expires in %s.", link, expiry),
	}
	return s.send(ctx, user, models.NotificationPasswordReset, msg)
}

// describeDuration renders whole hours or minutes in words, e.g. "1 hour"
// or "30 minutes". Other values fall back to time.Duration formatting.
func describeDuration(d time.Duration) string {
	unit, n := "", int64(0)
	switch {
	case d <= 0:
		return d.String()
	case d%time.Hour == 0:
		unit, n = "hour", int64(d/time.Hour)
	case d%time.Minute == 0:
		unit, n = "minute", int64(d/time.Minute)
	default:
		return d.String()
	}
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}

func (s *EmailService) send(ctx context.Context, user *models.User, notificationType string, msg Message) error {
	msg.To = user.Email
	msg.ToName = user.Username

	sendErr := s.sender.Send(ctx, msg)

	record := &models.EmailNotification{
		NotificationType: notificationType,
		SentToID:         user.ID,
		SentToEmail:      user.Email,
		Subject:          msg.Subject,
		Body:             msg.HTML,
		Success:          sendErr == nil,
	}
	if sendErr != nil {
		errMsg := sendErr.Error()
		record.ErrorMessage = &errMsg
		logging.Errorf("Failed to send %s email to user %d: %v", notificationType, user.ID, sendErr)
	}
	if err := s.recorder.Record(ctx, record); err != nil {
		logging.Errorf("Failed to record %s email for user %d: %v", notificationType, user.ID, err)
	}
	return sendErr
}
