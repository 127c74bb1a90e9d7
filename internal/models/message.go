package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageStatus tracks admin handling of an inquiry. Any status may follow any other.
type MessageStatus string

const (
	MessageUnread  MessageStatus = "unread"
	MessageRead    MessageStatus = "read"
	MessageReplied MessageStatus = "replied"
)

// Valid reports whether s is a known message status.
func (s MessageStatus) Valid() bool {
	switch s {
	case MessageUnread, MessageRead, MessageReplied:
		return true
	}
	return false
}

// Message is an inquiry sent from a property page or the contact form.
type Message struct {
	ID          string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SenderName  string        `gorm:"column:sender_name;not null" json:"from"`
	SenderEmail string        `gorm:"column:sender_email;not null" json:"email"`
	Subject     string        `gorm:"not null" json:"subject"`
	Body        string        `gorm:"column:message;type:text;not null" json:"body"`
	ListingRef  string        `gorm:"column:listing_ref" json:"relatedListingRef,omitempty"`
	Status      MessageStatus `gorm:"not null;default:unread;index" json:"status"`
	CreatedAt   time.Time     `gorm:"index" json:"receivedAt"`
}

// BeforeCreate assigns the message identifier on insert.
func (m *Message) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
