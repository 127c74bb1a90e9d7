package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"estatehub/internal/middleware"
	"estatehub/internal/models"
	"estatehub/internal/repository"
	"estatehub/internal/validation"
)

// InquiryPublisher forwards stored inquiries to downstream consumers.
type InquiryPublisher interface {
	PublishInquiry(ctx context.Context, msg *models.Message) error
}

// InquiryRequest is an inquiry submitted from a property page or the contact form.
type InquiryRequest struct {
	Name       string `json:"name" validate:"required,notblank,max=120"`
	Email      string `json:"email" validate:"required,email"`
	Subject    string `json:"subject" validate:"required,notblank,max=200"`
	Message    string `json:"message" validate:"required,notblank,max=5000"`
	ListingRef string `json:"listingId" validate:"omitempty,max=64"`
}

// MessageService stores inquiries and lets admins triage them.
type MessageService struct {
	repo      repository.MessageRepository
	publisher InquiryPublisher
}

// NewMessageService creates a message service. publisher may be nil.
func NewMessageService(repo repository.MessageRepository, publisher InquiryPublisher) *MessageService {
	return &MessageService{repo: repo, publisher: publisher}
}

// SendInquiry stores req as an unread message and forwards it. Forwarding is
// best effort: the inquiry is already stored when publishing fails.
func (s *MessageService) SendInquiry(ctx context.Context, req InquiryRequest) (*models.Message, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.ListingRef = strings.TrimSpace(req.ListingRef)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderName:  req.Name,
		SenderEmail: strings.ToLower(req.Email),
		Subject:     req.Subject,
		Body:        req.Message,
		ListingRef:  req.ListingRef,
		Status:      models.MessageUnread,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, models.NewRemoteUnavailableError("store inquiry", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishInquiry(ctx, msg); err != nil {
			middleware.Logger.WarnContext(ctx, "Failed to publish inquiry",
				"message_id", msg.ID,
				"error", err,
			)
		}
	}
	return msg, nil
}

// List returns messages newest first. An empty status or "all" lists every message.
func (s *MessageService) List(ctx context.Context, status string) ([]models.Message, error) {
	st, err := parseMessageFilter(status)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.List(ctx, st)
	if err != nil {
		return nil, models.NewRemoteUnavailableError("list messages", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

// SetStatus moves message id to status. Any status may follow any other.
func (s *MessageService) SetStatus(ctx context.Context, id string, status models.MessageStatus) error {
	if !status.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown message status %q", status), "status")
	}
	return classify("update message", s.repo.SetStatus(ctx, id, status))
}

// Delete removes message id.
func (s *MessageService) Delete(ctx context.Context, id string) error {
	return classify("delete message", s.repo.Delete(ctx, id))
}

func parseMessageFilter(raw string) (models.MessageStatus, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == "all" {
		return "", nil
	}
	st := models.MessageStatus(raw)
	if !st.Valid() {
		return "", models.NewValidationError(fmt.Sprintf("unknown message status %q", raw), "status")
	}
	return st, nil
}

// classify passes app errors through and reports anything else as a storage outage.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewRemoteUnavailableError(op, err)
}
