package mail

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Universal interface for mail service
type MailService interface {
	SendEmail(to, subject, body string) error
}

// Email service struct, which holds configurations related to email sending
type EmailService struct {
	Host  string
	Port  string
	Email string
	Auth  smtp.Auth
}

// Constructing method for email service struct. The back office sends little
// mail (reset links, booking confirmations), plain SMTP is enough.
func NewEmailService(email, password string) *EmailService {
	smtpAuth := smtp.PlainAuth("", email, password, "smtp.gmail.com")

	return &EmailService{
		Host:  "smtp.gmail.com",
		Port:  "587",
		Email: email,
		Auth:  smtpAuth,
	}
}

// Method to send email
func (service *EmailService) SendEmail(to, subject, body string) error {
	// Set email headers with MIME version and content type
	headers := map[string]string{
		"From":         service.Email,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	// Build the message with headers
	var message strings.Builder
	for key, value := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", key, value))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%s", service.Host, service.Port)
	return smtp.SendMail(
		addr,
		service.Auth,
		service.Email,
		[]string{to},
		[]byte(message.String()),
	)
}
