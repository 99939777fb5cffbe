// Package email sends operational notifications to the site operator's inbox:
// a new testimonial awaiting moderation, a new lead captured by the funnel.
// Delivery is best-effort; the funnel never blocks on SMTP.
package email

import (
	"fmt"
	"net/smtp"
)

// SMTPServerConfig holds all the necessary configuration for connecting to an SMTP server.
type SMTPServerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string // Also the recipient of operator notifications
}

// Service provides methods for sending operator notification emails.
type Service struct {
	config SMTPServerConfig
	auth   smtp.Auth
}

// NewService creates a new email service. When no SMTP host is configured the
// service is disabled and every send becomes a silent no-op.
func NewService(config SMTPServerConfig) *Service {
	var auth smtp.Auth
	if config.Host != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &Service{
		config: config,
		auth:   auth,
	}
}

// Enabled reports whether the service has a configured SMTP server.
func (s *Service) Enabled() bool {
	return s.config.Host != ""
}

// NotifyNewTestimonial tells the operator a testimonial is waiting for
// moderation.
func (s *Service) NotifyNewTestimonial(name, text string) error {
	subject := "Nouveau témoignage en attente de modération"
	body := fmt.Sprintf(
		"Un nouveau témoignage vient d'être soumis sur la page d'accueil.\n\nNom : %s\n\n%s\n\nConnectez-vous au tableau de bord pour l'approuver ou le supprimer.",
		name,
		text,
	)
	return s.send(subject, body)
}

// NotifyNewLead tells the operator a visitor completed the signup funnel.
func (s *Service) NotifyNewLead(email, phone, promoCode string) error {
	subject := "Nouvelle inscription via la page promo"
	body := fmt.Sprintf(
		"Un visiteur vient de s'inscrire.\n\nEmail : %s\nTéléphone : %s\nCode promo : %s",
		email,
		phone,
		promoCode,
	)
	return s.send(subject, body)
}

func (s *Service) send(subject, body string) error {
	if !s.Enabled() {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	message := []byte(
		"To: " + s.config.Sender + "\r\n" +
			"From: " + s.config.Sender + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"Content-Type: text/plain; charset=utf-8\r\n" +
			"\r\n" +
			body + "\r\n")

	if err := smtp.SendMail(addr, s.auth, s.config.Sender, []string{s.config.Sender}, message); err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}

	return nil
}
