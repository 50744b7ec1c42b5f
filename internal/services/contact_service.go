package services

import (
	"context"
	"net/mail"
	"strings"

	"farm_store/internal/errs"
	"farm_store/internal/models"
	"farm_store/internal/repository"
)

type ContactService interface {
	Submit(ctx context.Context, name, email, message string) (*models.ContactMessage, error)
	List(ctx context.Context) ([]models.ContactMessage, error)
	SetStatus(ctx context.Context, id uint, status models.ContactStatus) (*models.ContactMessage, error)
	Delete(ctx context.Context, id uint) error
}

type contactService struct {
	contacts   repository.ContactRepository
	notifier   Notifier
	dispatcher *Dispatcher
}

func NewContactService(contacts repository.ContactRepository, notifier Notifier, dispatcher *Dispatcher) ContactService {
	return &contactService{contacts: contacts, notifier: notifier, dispatcher: dispatcher}
}

func (s *contactService) Submit(ctx context.Context, name, email, message string) (*models.ContactMessage, error) {
	const op = "contactService.Submit"
	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Message: strings.TrimSpace(message),
		Status:  models.ContactNew,
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, errs.Validation(op, "name, email and message are required")
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return nil, errs.Validation(op, "email is invalid")
	}
	if err := s.contacts.Create(ctx, msg); err != nil {
		return nil, err
	}

	snapshot := *msg
	s.dispatcher.Go(ctx, "contact alert", func(ctx context.Context) error {
		return s.notifier.SendContactAlert(ctx, &snapshot)
	})
	return msg, nil
}

func (s *contactService) List(ctx context.Context) ([]models.ContactMessage, error) {
	msgs, err := s.contacts.List(ctx)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.ContactMessage{}
	}
	return msgs, nil
}

func (s *contactService) SetStatus(ctx context.Context, id uint, status models.ContactStatus) (*models.ContactMessage, error) {
	if !status.Valid() {
		return nil, errs.Validation("contactService.SetStatus", "status must be new, read or replied")
	}
	if err := s.contacts.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.contacts.GetByID(ctx, id)
}

func (s *contactService) Delete(ctx context.Context, id uint) error {
	return s.contacts.Delete(ctx, id)
}
