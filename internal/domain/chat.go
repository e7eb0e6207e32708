package domain

import (
	"time"

	"github.com/google/uuid"
)

type ChatID string

type Chat struct {
	ID        ChatID    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:128" json:"name"`
	IsGroup   bool      `json:"isGroup"`
	AdminID   UserID    `gorm:"size:36" json:"adminId,omitempty"`
	Users     []User    `gorm:"many2many:chat_users" json:"users"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewDirectChat(a, b User) *Chat {
	return &Chat{
		ID:      ChatID(uuid.NewString()),
		Name:    "sender",
		IsGroup: false,
		Users:   []User{a, b},
	}
}

func NewGroupChat(name string, admin User, members []User) *Chat {
	return &Chat{
		ID:      ChatID(uuid.NewString()),
		Name:    name,
		IsGroup: true,
		AdminID: admin.ID,
		Users:   append(members, admin),
	}
}
