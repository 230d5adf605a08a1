package core

import "net/mail"

type EmailMessage struct {
	To      []mail.Address
	Cc      []mail.Address
	Subject string
	Body    string
}

// EmailService is any service that can send emails.
type EmailService interface {
	// SendMessages sends messages concurrently; failures are reported
	// through the service's logger, never back to the caller.
	SendMessages(messages ...*EmailMessage)
}
