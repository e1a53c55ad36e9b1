package usecase

import (
	"context"
	"net/http"
	"strings"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"
	"github.com/divyadhiman22/MyNotes/pkg/email"
)

const defaultContactSubject = "New message from the MyNotes contact form"

// ContactSender delivers contact form messages.
type ContactSender interface {
	IsConfigured() bool
	SendContactEmail(data email.ContactEmailData) error
}

type contactUsecase struct {
	sender ContactSender
}

func NewContactUsecase(sender ContactSender) domain.ContactUsecase {
	return &contactUsecase{sender: sender}
}

// SendContactMessage validates the contact request and sends the email
func (uc *contactUsecase) SendContactMessage(ctx context.Context, req *domain.ContactRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperror.BadRequest("Name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return apperror.BadRequest("Email is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return apperror.BadRequest("Message is required")
	}

	if !uc.sender.IsConfigured() {
		return apperror.Unavailable("Contact form is temporarily unavailable")
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = defaultContactSubject
	}

	err := uc.sender.SendContactEmail(email.ContactEmailData{
		SenderName:  strings.TrimSpace(req.Name),
		SenderEmail: strings.TrimSpace(req.Email),
		Subject:     subject,
		Message:     strings.TrimSpace(req.Message),
	})
	if err != nil {
		return apperror.New(http.StatusBadGateway, "Failed to send your message. Please try again.", err)
	}
	return nil
}
