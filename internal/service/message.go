package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type FeedbackInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// MessageService handles what visitors send the site owner: contact form
// messages and star ratings.
type MessageService struct {
	contacts repository.ContactRepository
	feedback repository.FeedbackRepository
	logger   *slog.Logger
}

func NewMessageService(contacts repository.ContactRepository, feedback repository.FeedbackRepository, logger *slog.Logger) *MessageService {
	return &MessageService{contacts: contacts, feedback: feedback, logger: logger}
}

// SubmitContact stores a contact message. Every missing field is reported
// in one validation error.
func (s *MessageService) SubmitContact(ctx context.Context, in ContactInput) (*model.Contact, error) {
	c := &model.Contact{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}

	v := apperror.NewValidator()
	checkLength(v, "name", c.Name, 1, 100)
	if v.Require("email", c.Email) {
		v.Check(isEmail(c.Email), "email", "email must be a valid email address")
	}
	checkLength(v, "subject", c.Subject, 1, 200)
	checkLength(v, "message", c.Message, 1, 5000)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.contacts.CreateContact(ctx, c); err != nil {
		logFailure(s.logger, "failed to store contact message", err)
		return nil, fmt.Errorf("service/message: creating contact: %w", err)
	}

	s.logger.Info("contact message received", slog.String("id", c.ID))
	return c, nil
}

func (s *MessageService) Contacts(ctx context.Context) ([]model.Contact, error) {
	return s.contacts.ListContacts(ctx)
}

func (s *MessageService) DeleteContact(ctx context.Context, id string) error {
	if err := requireID("contact", id); err != nil {
		return err
	}
	if err := s.contacts.DeleteContact(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete contact message", err, slog.String("id", id))
		return fmt.Errorf("service/message: deleting contact %s: %w", id, err)
	}
	s.logger.Info("contact message deleted", slog.String("id", id))
	return nil
}

func (s *MessageService) SubmitFeedback(ctx context.Context, in FeedbackInput) (*model.Feedback, error) {
	fb := &model.Feedback{Rating: in.Rating, Comment: strings.TrimSpace(in.Comment)}

	v := apperror.NewValidator()
	v.Check(fb.Rating >= 1 && fb.Rating <= 5, "rating", "rating must be between 1 and 5")
	checkLength(v, "comment", fb.Comment, 0, 2000)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.feedback.CreateFeedback(ctx, fb); err != nil {
		logFailure(s.logger, "failed to store feedback", err)
		return nil, fmt.Errorf("service/message: creating feedback: %w", err)
	}

	s.logger.Info("feedback received", slog.String("id", fb.ID), slog.Int("rating", fb.Rating))
	return fb, nil
}

func (s *MessageService) Feedback(ctx context.Context) ([]model.Feedback, error) {
	return s.feedback.ListFeedback(ctx)
}
