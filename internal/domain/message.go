package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	ChatID        ChatID    `gorm:"index;size:36" json:"chatId"`
	SenderID      UserID    `gorm:"size:36" json:"senderId"`
	Content       string    `gorm:"type:text" json:"content"`
	AttachmentURL string    `gorm:"size:512" json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewMessage(chatID ChatID, senderID UserID, content, attachmentURL string) *Message {
	return &Message{
		ID:            uuid.NewString(),
		ChatID:        chatID,
		SenderID:      senderID,
		Content:       content,
		AttachmentURL: attachmentURL,
	}
}
