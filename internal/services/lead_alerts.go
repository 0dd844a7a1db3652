package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/saarthak-backend/internal/domain/contact"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/platform/sendgrid"
)

const leadAlertTimeout = 30 * time.Second

type LeadMailer interface {
	Send(ctx context.Context, msg sendgrid.Email) (*sendgrid.SendResult, error)
}

// leadAlertingContacts emails the site owners after each stored submission.
// Delivery runs in the background and never affects the submitter's result.
type leadAlertingContacts struct {
	ContactService
	log        *logger.Logger
	mailer     LeadMailer
	recipients []sendgrid.Address
	wg         sync.WaitGroup
}

// WithLeadAlerts wraps contacts so new leads are mailed to recipients. It
// returns contacts unchanged when there is no mailer or no recipient.
func WithLeadAlerts(log *logger.Logger, contacts ContactService, mailer LeadMailer, recipients []string) ContactService {
	var to []sendgrid.Address
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, sendgrid.Address{Email: r})
		}
	}
	if mailer == nil || len(to) == 0 {
		return contacts
	}
	return &leadAlertingContacts{
		ContactService: contacts,
		log:            log.With("service", "LeadAlerts"),
		mailer:         mailer,
		recipients:     to,
	}
}

func (l *leadAlertingContacts) Submit(ctx context.Context, in ContactInput, source map[string]any) (*contact.Submission, error) {
	row, err := l.ContactService.Submit(ctx, in, source)
	if err != nil {
		return nil, err
	}
	msg := leadAlertEmail(*row, l.recipients)
	l.wg.Add(1)
	go func(id uuid.UUID) {
		defer l.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leadAlertTimeout)
		defer cancel()
		if _, err := l.mailer.Send(sendCtx, msg); err != nil {
			l.log.Warn("Lead alert failed", "submission_id", id, "error", err)
			return
		}
		l.log.Debug("Lead alert sent", "submission_id", id)
	}(row.ID)
	return row, nil
}

// Wait blocks until queued alerts have been attempted.
func (l *leadAlertingContacts) Wait() { l.wg.Wait() }

func leadAlertEmail(s contact.Submission, to []sendgrid.Address) sendgrid.Email {
	var b strings.Builder
	line := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}
	line("Name", s.Name)
	line("Email", s.Email)
	line("Phone", s.Phone)
	line("Organization", s.Organization)
	line("Election type", s.ElectionType)
	if msg := strings.TrimSpace(s.Message); msg != "" {
		b.WriteString("\n")
		b.WriteString(msg)
		b.WriteString("\n")
	}

	subject := "New consultation request from " + s.Name
	if s.ElectionType != "" {
		subject += " (" + s.ElectionType + ")"
	}
	return sendgrid.Email{
		To:         to,
		ReplyTo:    &sendgrid.Address{Email: s.Email, Name: s.Name},
		Subject:    subject,
		Text:       b.String(),
		Categories: []string{"lead"},
	}
}
