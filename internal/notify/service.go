package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/cgvrzon/arynstal/internal/leads"
	"github.com/cgvrzon/arynstal/pkg/logging"
)

// Config gates the two lead notification emails independently.
type Config struct {
	Enabled                  bool
	AdminEmail               string
	SendCustomerConfirmation bool
	CompanyName              string
}

// Result reports which notification emails actually went out. Notification is
// a courtesy on top of the stored lead, so neither flag being false is an
// error for the caller.
type Result struct {
	AdminNotified     bool
	CustomerConfirmed bool
}

// Service sends lead notifications. Every send failure is caught, logged and
// reported as false in the Result; nothing propagates to the caller.
type Service struct {
	email  EmailSender
	cfg    Config
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, cfg Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CompanyName == "" {
		cfg.CompanyName = "Arynstal"
	}
	return &Service{email: email, cfg: cfg, logger: logger}
}

// NotifyNewLead sends the admin alert and, when enabled, the customer
// confirmation for a freshly created lead.
func (s *Service) NotifyNewLead(ctx context.Context, lead *leads.Lead) Result {
	var res Result
	if !s.cfg.Enabled || s.email == nil {
		s.logger.Debug("notifications disabled, skipping", "lead_id", lead.ID)
		return res
	}

	if s.cfg.AdminEmail != "" {
		if err := s.email.Send(ctx, s.adminAlert(lead)); err != nil {
			s.logger.Error("admin notification failed", "error", err, "lead_id", lead.ID)
		} else {
			res.AdminNotified = true
		}
	}

	if s.cfg.SendCustomerConfirmation && lead.Email != "" {
		if err := s.email.Send(ctx, s.customerConfirmation(lead)); err != nil {
			s.logger.Error("customer confirmation failed", "error", err, "lead_id", lead.ID)
		} else {
			res.CustomerConfirmed = true
		}
	}

	s.logger.Info("lead notifications dispatched",
		"lead_id", lead.ID,
		"admin_notified", res.AdminNotified,
		"customer_confirmed", res.CustomerConfirmed,
	)
	return res
}

func (s *Service) adminAlert(lead *leads.Lead) EmailMessage {
	urgencyTag := ""
	if lead.Urgency == leads.UrgencyUrgent {
		urgencyTag = " [URGENT]"
	}

	body := fmt.Sprintf(`A new lead has come in%s.

Name: %s
Phone: %s
Email: %s
Preferred contact: %s
Source: %s

Message:
%s

— %s`, urgencyTag, lead.Name, lead.Phone, lead.Email, lead.PreferredContact,
		lead.Source.Display(), lead.Message, s.cfg.CompanyName)

	// Lead fields come straight from the public form; escape them before
	// they land in an inbox that renders HTML.
	htmlBody := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>New lead%s</h2>
<table style="border-collapse: collapse; margin: 16px 0;">
  <tr><td style="padding: 6px;"><strong>Name:</strong></td><td style="padding: 6px;">%s</td></tr>
  <tr><td style="padding: 6px;"><strong>Phone:</strong></td><td style="padding: 6px;"><a href="tel:%s">%s</a></td></tr>
  <tr><td style="padding: 6px;"><strong>Email:</strong></td><td style="padding: 6px;">%s</td></tr>
  <tr><td style="padding: 6px;"><strong>Preferred contact:</strong></td><td style="padding: 6px;">%s</td></tr>
  <tr><td style="padding: 6px;"><strong>Source:</strong></td><td style="padding: 6px;">%s</td></tr>
</table>
<p style="background: #f3f4f6; padding: 12px; border-radius: 6px;">%s</p>
<p style="color: #6b7280; font-size: 12px;">— %s</p>
</div>`, urgencyTag, html.EscapeString(lead.Name), html.EscapeString(lead.Phone),
		html.EscapeString(lead.Phone), html.EscapeString(lead.Email),
		lead.PreferredContact, lead.Source.Display(),
		html.EscapeString(lead.Message), html.EscapeString(s.cfg.CompanyName))

	return EmailMessage{
		To:      s.cfg.AdminEmail,
		Subject: fmt.Sprintf("New lead%s - %s", urgencyTag, lead.Name),
		Body:    body,
		HTML:    htmlBody,
	}
}

func (s *Service) customerConfirmation(lead *leads.Lead) EmailMessage {
	body := fmt.Sprintf(`Hello %s,

Thank you for contacting %s. We have received your request and will get back
to you within 24 hours.

Your message:
%s

Kind regards,
%s`, lead.Name, s.cfg.CompanyName, lead.Message, s.cfg.CompanyName)

	htmlBody := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<p>Hello %s,</p>
<p>Thank you for contacting <strong>%s</strong>. We have received your request
and will get back to you within 24 hours.</p>
<p style="background: #f3f4f6; padding: 12px; border-radius: 6px;">%s</p>
<p>Kind regards,<br>%s</p>
</div>`, html.EscapeString(lead.Name), html.EscapeString(s.cfg.CompanyName),
		html.EscapeString(lead.Message), html.EscapeString(s.cfg.CompanyName))

	return EmailMessage{
		To:      lead.Email,
		ToName:  lead.Name,
		Subject: fmt.Sprintf("We have received your request - %s", s.cfg.CompanyName),
		Body:    body,
		HTML:    htmlBody,
	}
}
