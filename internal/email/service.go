// Package email sends workflow notifications via SMTP.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Service provides email sending
type Service struct {
	config Config
	server string
	auth   smtp.Auth
}

// NewService creates a new email service
func NewService(config Config) *Service {
	auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)

	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
	}
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

// SendNotification renders the template registered for kind and mails it.
// Fields feed both the subject and body templates; cc addresses ride along in
// the same delivery.
func (s *Service) SendNotification(kind, to string, cc []string, fields map[string]string) error {
	tmpl, ok := notificationTemplates[kind]
	if !ok {
		return fmt.Errorf("no email template for notification %q", kind)
	}

	subject, err := renderTemplate(tmpl.subject, fields)
	if err != nil {
		return fmt.Errorf("render %s subject: %w", kind, err)
	}
	body, err := renderTemplate(tmpl.body, fields)
	if err != nil {
		return fmt.Errorf("render %s body: %w", kind, err)
	}
	return s.SendHTMLEmail([]string{to}, cc, subject, body)
}

// SendHTMLEmail sends an HTML email with an optional cc list.
func (s *Service) SendHTMLEmail(to, cc []string, subject, htmlBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	// Simple multipart message
	boundary := "boundary-ssw"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	if len(cc) > 0 {
		fmt.Fprintf(&msg, "Cc: %s\r\n", strings.Join(cc, ", "))
	}
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	// Plain text part (fallback)
	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "Please view this email in an HTML-capable email client.\r\n")
	fmt.Fprintf(&msg, "\r\n")

	// HTML part
	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	recipients := append(append([]string{}, to...), cc...)
	return smtp.SendMail(s.server, s.auth, s.config.From, recipients, msg.Bytes())
}

// RenderNotification exposes the body rendering on its own, for previews and
// tests.
func RenderNotification(kind string, fields map[string]string) (string, error) {
	tmpl, ok := notificationTemplates[kind]
	if !ok {
		return "", fmt.Errorf("no email template for notification %q", kind)
	}
	return renderTemplate(tmpl.body, fields)
}

func renderTemplate(tmpl string, data map[string]string) (string, error) {
	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
