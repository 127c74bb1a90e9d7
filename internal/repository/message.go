package repository

import (
	"context"

	"estatehub/internal/models"

	"gorm.io/gorm"
)

// MessageRepository stores inquiries. Inserts are append-only.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	List(ctx context.Context, status models.MessageStatus) ([]models.Message, error)
	SetStatus(ctx context.Context, id string, status models.MessageStatus) error
	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context) (total, unread int64, err error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// List returns messages newest first, optionally limited to one status.
func (r *messageRepository) List(ctx context.Context, status models.MessageStatus) ([]models.Message, error) {
	var msgs []models.Message
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) SetStatus(ctx context.Context, id string, status models.MessageStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Message", id)
	}
	return nil
}

func (r *messageRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Message{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Message", id)
	}
	return nil
}

func (r *messageRepository) Counts(ctx context.Context) (int64, int64, error) {
	var total, unread int64
	if err := r.db.WithContext(ctx).Model(&models.Message{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("status = ?", string(models.MessageUnread)).
		Count(&unread).Error
	if err != nil {
		return 0, 0, err
	}
	return total, unread, nil
}
