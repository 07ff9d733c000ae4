package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeMessageEmailData holds data for the welcome email.
type WelcomeMessageEmailData struct {
	Email string
	Name  string
}

// InvitationEmailData holds data for the event invitation email.
type InvitationEmailData struct {
	Email         string
	OrganizerName string
	EventTitle    string
	EventDate     string
	RSVPDeadline  string
}

// CancellationEmailData holds data for the event cancellation email.
type CancellationEmailData struct {
	Email      string
	EventTitle string
	Reason     string
}

// RescheduleEmailData holds data for the event reschedule email.
type RescheduleEmailData struct {
	Email        string
	EventTitle   string
	PreviousDate string
	NewDate      string
	Reason       string
}

// ReminderEmailData holds data for the upcoming-event reminder email.
type ReminderEmailData struct {
	Email      string
	EventTitle string
	EventDate  string
	VenueName  string
}

// EmailService defines the contract for sending domain-level emails.
// Implementations return errors; callers in core flows dispatch through the
// background runner and never let a send failure reach the primary operation.
type EmailService interface {
	SendWelcomeMessage(ctx context.Context, data *WelcomeMessageEmailData) error
	SendInvitation(ctx context.Context, data *InvitationEmailData) error
	SendCancellation(ctx context.Context, data *CancellationEmailData) error
	SendReschedule(ctx context.Context, data *RescheduleEmailData) error
	SendReminder(ctx context.Context, data *ReminderEmailData) error
}
