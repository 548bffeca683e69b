package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"kleihaven/internal/shared/config"
)

// EmailService interface for sending emails
type EmailService interface {
	SendNotification(ctx context.Context, notification *BookingNotification) error
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// NewSMTPConfig builds SMTP config from app config
func NewSMTPConfig(cfg config.EmailConfig) *SMTPConfig {
	return &SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		Timeout:   30 * time.Second,
	}
}

// SMTPEmailService is a real SMTP implementation of the EmailService interface
type SMTPEmailService struct {
	config    *SMTPConfig
	templates map[NotificationType]*template.Template
}

// NewSMTPEmailService creates a new SMTP email service
func NewSMTPEmailService(cfg *SMTPConfig) (*SMTPEmailService, error) {
	if err := validateSMTPConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}

	service := &SMTPEmailService{
		config:    cfg,
		templates: make(map[NotificationType]*template.Template),
	}

	if err := service.loadDefaultTemplates(); err != nil {
		return nil, err
	}

	return service, nil
}

// validateSMTPConfig validates SMTP configuration
func validateSMTPConfig(cfg *SMTPConfig) error {
	if cfg == nil {
		return fmt.Errorf("SMTP config is nil")
	}
	if cfg.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if cfg.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

const customerConfirmationTemplate = `<p>Beste {{.CustomerName}},</p>

<p>Bedankt voor je boeking bij Kleihaven! Je reservering is bevestigd.</p>

<h3>Details van je boeking:</h3>
<ul>
    <li>Cursus: {{.CourseTitle}}</li>
    <li>Aantal plekken: {{.NumberOfSpots}}</li>
    <li>Periode: {{.PeriodStart.Format "02-01-2006"}} t/m {{.PeriodEnd.Format "02-01-2006"}}</li>
    <li>Tijden: {{.TimeInfo}}</li>
</ul>

<p>We kijken ernaar uit je te verwelkomen!</p>

<p>Met vriendelijke groet,<br>
Team Kleihaven</p>`

const ownerConfirmationTemplate = `<p>Er is een nieuwe boeking binnengekomen.</p>

<ul>
    <li>Cursus: {{.CourseTitle}}</li>
    <li>Naam: {{.CustomerName}} ({{.CustomerEmail}})</li>
    <li>Aantal plekken: {{.NumberOfSpots}}</li>
    <li>Periode: {{.PeriodStart.Format "02-01-2006"}} t/m {{.PeriodEnd.Format "02-01-2006"}}</li>
    <li>Bedrag: {{printf "%.2f" .Amount}} {{.Currency}}</li>
</ul>`

func (s *SMTPEmailService) loadDefaultTemplates() error {
	pairs := map[NotificationType]string{
		TypeBookingConfirmedCustomer: customerConfirmationTemplate,
		TypeBookingConfirmedOwner:    ownerConfirmationTemplate,
	}

	for name, body := range pairs {
		tmpl, err := template.New(string(name)).Parse(body)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		s.templates[name] = tmpl
	}

	return nil
}

// SendNotification renders and sends one notification
func (s *SMTPEmailService) SendNotification(ctx context.Context, notification *BookingNotification) error {
	tmpl, ok := s.templates[notification.Type]
	if !ok {
		return fmt.Errorf("no template for notification type %s", notification.Type)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, notification.Booking); err != nil {
		return fmt.Errorf("failed to render template %s: %w", notification.Type, err)
	}

	return s.sendHTML(notification.Recipient, notification.Subject, body.String())
}

// sendHTML delivers an HTML email over SMTP
func (s *SMTPEmailService) sendHTML(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	headers := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		s.config.FromName, s.config.FromEmail, to, subject)
	message := []byte(headers + htmlBody)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	return nil
}
