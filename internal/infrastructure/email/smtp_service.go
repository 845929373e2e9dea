package email

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"

	"ecommerce-backend/internal/config"
)

var ErrNoRecipients = errors.New("email has no recipients")

type EmailService interface {
	SendEmail(ctx context.Context, req EmailRequest) error
	SendRefundNotification(ctx context.Context, data RefundNotificationData) error
}

type smtpEmailService struct {
	cfg config.SMTPConfig
}

// NewSMTPEmailService sends mail through cfg's server. Without credentials it
// talks plain SMTP, which is what local catchers like MailHog expect.
func NewSMTPEmailService(cfg config.SMTPConfig) EmailService {
	return &smtpEmailService{cfg: cfg}
}

func (s *smtpEmailService) SendEmail(ctx context.Context, req EmailRequest) error {
	msg, err := s.buildMessage(req)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		log.Error().Err(err).
			Strs("to", req.To).
			Str("smtp_host", s.cfg.Host).
			Int("smtp_port", s.cfg.Port).
			Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Debug().Strs("to", req.To).Str("subject", req.Subject).Msg("Email sent")
	return nil
}

func (s *smtpEmailService) SendRefundNotification(ctx context.Context, data RefundNotificationData) error {
	return s.SendEmail(ctx, RefundNotification(data))
}

func (s *smtpEmailService) buildMessage(req EmailRequest) (*mail.Msg, error) {
	if len(req.To) == 0 {
		return nil, ErrNoRecipients
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.cfg.From, err)
	}
	if err := msg.To(req.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	if len(req.Cc) > 0 {
		if err := msg.Cc(req.Cc...); err != nil {
			return nil, fmt.Errorf("invalid cc: %w", err)
		}
	}
	if len(req.Bcc) > 0 {
		if err := msg.Bcc(req.Bcc...); err != nil {
			return nil, fmt.Errorf("invalid bcc: %w", err)
		}
	}

	msg.Subject(req.Subject)
	if req.IsHTML {
		msg.SetBodyString(mail.TypeTextHTML, req.Body)
	} else {
		msg.SetBodyString(mail.TypeTextPlain, req.Body)
	}
	return msg, nil
}

func (s *smtpEmailService) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.cfg.Port)}
	if s.cfg.Username == "" {
		return append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	return append(opts,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
}

// ================================================
// TEMPLATES
// ================================================

// RefundNotification renders the email sent when a refund is closed.
func RefundNotification(data RefundNotificationData) EmailRequest {
	var subject, headline string
	switch data.Status {
	case "Complete":
		subject = fmt.Sprintf("Your refund for order %s has been processed", data.OrderNumber)
		headline = fmt.Sprintf("We refunded %s %s to your original payment method.", data.Amount, data.Currency)
	default:
		subject = fmt.Sprintf("Your refund request for order %s was not approved", data.OrderNumber)
		headline = "After review, your refund request was not approved."
	}

	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>%s</p>
<p>Order: <strong>%s</strong><br>Refund: %s<br>Status: %s</p>`,
		html.EscapeString(data.Username),
		html.EscapeString(headline),
		html.EscapeString(data.OrderNumber),
		html.EscapeString(data.RefundID),
		html.EscapeString(data.Status),
	)

	return EmailRequest{
		To:      []string{data.Email},
		Subject: subject,
		Body:    body,
		IsHTML:  true,
	}
}
