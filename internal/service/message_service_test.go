package service

import (
	"context"
	"errors"
	"testing"

	"estatehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// messageRepoStub is a stub for repository.MessageRepository.
type messageRepoStub struct {
	createFn    func(context.Context, *models.Message) error
	listFn      func(context.Context, models.MessageStatus) ([]models.Message, error)
	setStatusFn func(context.Context, string, models.MessageStatus) error
	deleteFn    func(context.Context, string) error
	countsFn    func(context.Context) (int64, int64, error)
}

func (s *messageRepoStub) Create(ctx context.Context, msg *models.Message) error {
	return s.createFn(ctx, msg)
}
func (s *messageRepoStub) List(ctx context.Context, status models.MessageStatus) ([]models.Message, error) {
	return s.listFn(ctx, status)
}
func (s *messageRepoStub) SetStatus(ctx context.Context, id string, status models.MessageStatus) error {
	return s.setStatusFn(ctx, id, status)
}
func (s *messageRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *messageRepoStub) Counts(ctx context.Context) (int64, int64, error) {
	return s.countsFn(ctx)
}

func noopMessageRepo() *messageRepoStub {
	return &messageRepoStub{
		createFn:    func(_ context.Context, m *models.Message) error { m.ID = "msg-1"; return nil },
		listFn:      func(_ context.Context, _ models.MessageStatus) ([]models.Message, error) { return nil, nil },
		setStatusFn: func(_ context.Context, _ string, _ models.MessageStatus) error { return nil },
		deleteFn:    func(_ context.Context, _ string) error { return nil },
		countsFn:    func(_ context.Context) (int64, int64, error) { return 0, 0, nil },
	}
}

type publisherStub struct {
	published []*models.Message
	err       error
}

func (p *publisherStub) PublishInquiry(_ context.Context, msg *models.Message) error {
	p.published = append(p.published, msg)
	return p.err
}

func validInquiry() InquiryRequest {
	return InquiryRequest{
		Name:       "  Pat Buyer ",
		Email:      "Pat@Example.com",
		Subject:    "Viewing request",
		Message:    "Is the loft still available this weekend?",
		ListingRef: "listing-3",
	}
}

func TestMessageService_SendInquiry(t *testing.T) {
	ctx := context.Background()

	t.Run("stores unread and publishes", func(t *testing.T) {
		repo := noopMessageRepo()
		var stored *models.Message
		repo.createFn = func(_ context.Context, m *models.Message) error {
			m.ID = "msg-1"
			stored = m
			return nil
		}
		pub := &publisherStub{}
		svc := NewMessageService(repo, pub)

		msg, err := svc.SendInquiry(ctx, validInquiry())
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, models.MessageUnread, msg.Status)
		assert.Equal(t, "Pat Buyer", msg.SenderName)
		assert.Equal(t, "pat@example.com", msg.SenderEmail)
		assert.Equal(t, "listing-3", msg.ListingRef)
		require.Len(t, pub.published, 1)
		assert.Equal(t, "msg-1", pub.published[0].ID)
	})

	t.Run("publish failure does not fail the inquiry", func(t *testing.T) {
		pub := &publisherStub{err: errors.New("broker down")}
		svc := NewMessageService(noopMessageRepo(), pub)
		msg, err := svc.SendInquiry(ctx, validInquiry())
		require.NoError(t, err)
		assert.Equal(t, "msg-1", msg.ID)
	})

	t.Run("no publisher configured", func(t *testing.T) {
		svc := NewMessageService(noopMessageRepo(), nil)
		_, err := svc.SendInquiry(ctx, validInquiry())
		assert.NoError(t, err)
	})

	t.Run("validation never reaches storage", func(t *testing.T) {
		repo := noopMessageRepo()
		repo.createFn = func(_ context.Context, _ *models.Message) error {
			t.Fatal("create must not be called")
			return nil
		}
		svc := NewMessageService(repo, nil)

		req := validInquiry()
		req.Email = "not-an-email"
		req.Subject = "   "
		_, err := svc.SendInquiry(ctx, req)
		require.Error(t, err)
		assert.Equal(t, models.CodeValidation, appCode(t, err))

		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.ElementsMatch(t, []string{"subject"}, appErr.Fields)
	})

	t.Run("storage failure is remote unavailable", func(t *testing.T) {
		repo := noopMessageRepo()
		repo.createFn = func(_ context.Context, _ *models.Message) error { return errors.New("connection refused") }
		pub := &publisherStub{}
		svc := NewMessageService(repo, pub)
		_, err := svc.SendInquiry(ctx, validInquiry())
		assert.Equal(t, models.CodeRemoteUnavailable, appCode(t, err))
		assert.Empty(t, pub.published)
	})
}

func TestMessageService_List(t *testing.T) {
	ctx := context.Background()
	repo := noopMessageRepo()
	var gotStatus models.MessageStatus
	repo.listFn = func(_ context.Context, status models.MessageStatus) ([]models.Message, error) {
		gotStatus = status
		return nil, nil
	}
	svc := NewMessageService(repo, nil)

	msgs, err := svc.List(ctx, "all")
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Equal(t, models.MessageStatus(""), gotStatus)

	_, err = svc.List(ctx, "Replied")
	require.NoError(t, err)
	assert.Equal(t, models.MessageReplied, gotStatus)

	_, err = svc.List(ctx, "archived")
	assert.Equal(t, models.CodeValidation, appCode(t, err))
}

func TestMessageService_SetStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := noopMessageRepo()
	repo.setStatusFn = func(_ context.Context, id string, _ models.MessageStatus) error {
		if id == "missing" {
			return models.NewNotFoundError("Message", id)
		}
		return nil
	}
	repo.deleteFn = func(_ context.Context, _ string) error { return errors.New("disk full") }
	svc := NewMessageService(repo, nil)

	assert.NoError(t, svc.SetStatus(ctx, "msg-1", models.MessageRead))
	assert.NoError(t, svc.SetStatus(ctx, "msg-1", models.MessageUnread), "any status may follow any other")
	assert.Equal(t, models.CodeNotFound, appCode(t, svc.SetStatus(ctx, "missing", models.MessageRead)))
	assert.Equal(t, models.CodeValidation, appCode(t, svc.SetStatus(ctx, "msg-1", "archived")))
	assert.Equal(t, models.CodeRemoteUnavailable, appCode(t, svc.Delete(ctx, "msg-1")))
}
