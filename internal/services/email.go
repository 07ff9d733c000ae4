package services

import (
	"context"
	"fmt"
	"log/slog"

	"gatherplan/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

func (s *emailService) send(templateName, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("render %s template: %w", templateName, err)
	}
	if err := s.mailer.Send(to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send %s email: %w", templateName, err)
	}
	s.logger.Info("email sent", "template", templateName, "to", to)
	return nil
}

// SendWelcomeMessage sends a welcome email using the "welcome" template.
func (s *emailService) SendWelcomeMessage(ctx context.Context, data *domain.WelcomeMessageEmailData) error {
	if data == nil {
		return fmt.Errorf("welcome message data is nil")
	}
	return s.send("welcome", data.Email, data)
}

// SendInvitation sends the event invitation email.
func (s *emailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("invitation data is nil")
	}
	return s.send("invitation", data.Email, data)
}

// SendCancellation sends the event cancellation email.
func (s *emailService) SendCancellation(ctx context.Context, data *domain.CancellationEmailData) error {
	if data == nil {
		return fmt.Errorf("cancellation data is nil")
	}
	return s.send("cancellation", data.Email, data)
}

// SendReschedule sends the event reschedule email.
func (s *emailService) SendReschedule(ctx context.Context, data *domain.RescheduleEmailData) error {
	if data == nil {
		return fmt.Errorf("reschedule data is nil")
	}
	return s.send("reschedule", data.Email, data)
}

// SendReminder sends the upcoming-event reminder email.
func (s *emailService) SendReminder(ctx context.Context, data *domain.ReminderEmailData) error {
	if data == nil {
		return fmt.Errorf("reminder data is nil")
	}
	return s.send("reminder", data.Email, data)
}
