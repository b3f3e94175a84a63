package mailer

import (
	"context"
	"fmt"

	"github.com/sealdesk/sealdesk/internal/domain"
)

// Message is one outbound transactional email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Tag     string
}

// Sender abstracts the email transport. Mocking this interface in tests gives
// full control over delivery behaviour without real API calls.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer is the application-level email gateway: it composes the
// transactional emails the platform sends and hands them to a Sender.
type Mailer interface {
	SendInvitation(ctx context.Context, sub *domain.Submitter, templateName string) error
	SendReminder(ctx context.Context, sub *domain.Submitter, stage int) error
	SendPasswordReset(ctx context.Context, email, code string) error
}

// TemplateMailer renders the built-in email bodies. BaseURL is the public
// origin used to build signing links.
type TemplateMailer struct {
	sender  Sender
	baseURL string
}

func NewTemplateMailer(sender Sender, baseURL string) *TemplateMailer {
	return &TemplateMailer{sender: sender, baseURL: baseURL}
}

func (m *TemplateMailer) signingLink(slug string) string {
	return fmt.Sprintf("%s/sign/%s", m.baseURL, slug)
}

func (m *TemplateMailer) SendInvitation(ctx context.Context, sub *domain.Submitter, templateName string) error {
	return m.sender.Send(ctx, Message{
		To:      sub.Email,
		Subject: fmt.Sprintf("You are invited to sign %q", templateName),
		HTML: fmt.Sprintf(
			`<p>Hello %s,</p><p>You have been asked to sign <strong>%s</strong>.</p><p><a href=%q>Review and sign</a></p>`,
			sub.Name, templateName, m.signingLink(sub.Slug)),
		Tag: "invitation",
	})
}

var stageWording = map[int]string{
	1: "a friendly reminder",
	2: "a second reminder",
	3: "a final reminder",
}

func (m *TemplateMailer) SendReminder(ctx context.Context, sub *domain.Submitter, stage int) error {
	wording, ok := stageWording[stage]
	if !ok {
		return fmt.Errorf("unknown reminder stage %d", stage)
	}
	return m.sender.Send(ctx, Message{
		To:      sub.Email,
		Subject: "Reminder: a document is waiting for your signature",
		HTML: fmt.Sprintf(
			`<p>Hello %s,</p><p>This is %s that a document is waiting for you.</p><p><a href=%q>Review and sign</a></p>`,
			sub.Name, wording, m.signingLink(sub.Slug)),
		Tag: fmt.Sprintf("reminder-%d", stage),
	})
}

func (m *TemplateMailer) SendPasswordReset(ctx context.Context, email, code string) error {
	return m.sender.Send(ctx, Message{
		To:      email,
		Subject: "Your password reset code",
		HTML: fmt.Sprintf(
			`<p>Use this one-time code to reset your password: <strong>%s</strong></p><p>The code expires in 15 minutes.</p>`,
			code),
		Tag: "password-reset",
	})
}

// compile-time check that TemplateMailer implements Mailer
var _ Mailer = (*TemplateMailer)(nil)
