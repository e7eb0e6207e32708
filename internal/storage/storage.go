// Package storage is the persistence collaborator: PostgreSQL via gorm for
// users, chats and messages, Redis for the shared presence mirror.
package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/marusyk/Converse/internal/domain"
)

const onlineSetKey = "online_users"

var ErrChatNotFound = errors.New("chat not found")

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{DB: db, Redis: rdb, ctx: context.Background()}
}

// --- users ---

func (s *Service) CreateUser(u *domain.User) error {
	return s.DB.Create(u).Error
}

// FindUserByEmail returns (nil, nil) when no user matches.
func (s *Service) FindUserByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := s.DB.Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) FindUserByName(name string) (*domain.User, error) {
	var u domain.User
	err := s.DB.Where("name = ?", name).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) FindUserByID(id domain.UserID) (*domain.User, error) {
	var u domain.User
	err := s.DB.Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SearchUsers matches name or email by substring, excluding the requester.
func (s *Service) SearchUsers(keyword string, exclude domain.UserID) ([]domain.User, error) {
	var users []domain.User
	q := s.DB.Where("id <> ?", exclude)
	if keyword != "" {
		like := "%" + keyword + "%"
		q = q.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// --- chats ---

// AccessChat finds the existing one-on-one chat between the two users or
// creates it.
func (s *Service) AccessChat(a, b domain.UserID) (*domain.Chat, error) {
	var chat domain.Chat
	err := s.DB.Preload("Users").
		Joins("JOIN chat_users cu1 ON cu1.chat_id = chats.id AND cu1.user_id = ?", a).
		Joins("JOIN chat_users cu2 ON cu2.chat_id = chats.id AND cu2.user_id = ?", b).
		Where("is_group = ?", false).
		First(&chat).Error
	if err == nil {
		return &chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	userA, err := s.FindUserByID(a)
	if err != nil {
		return nil, err
	}
	userB, err := s.FindUserByID(b)
	if err != nil {
		return nil, err
	}
	if userA == nil || userB == nil {
		return nil, ErrChatNotFound
	}
	created := domain.NewDirectChat(*userA, *userB)
	if err := s.DB.Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) ChatsForUser(userID domain.UserID) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := s.DB.Preload("Users").
		Joins("JOIN chat_users cu ON cu.chat_id = chats.id AND cu.user_id = ?", userID).
		Order("updated_at desc").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func (s *Service) CreateGroupChat(name string, admin domain.User, members []domain.User) (*domain.Chat, error) {
	chat := domain.NewGroupChat(name, admin, members)
	if err := s.DB.Create(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *Service) IsChatMember(chatID domain.ChatID, userID domain.UserID) (bool, error) {
	var count int64
	err := s.DB.Table("chat_users").
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// --- messages ---

func (s *Service) SaveMessage(m *domain.Message) error {
	if err := s.DB.Create(m).Error; err != nil {
		log.Error().Err(err).Str("module", "storage").Str("chat", string(m.ChatID)).Msg("save message")
		return err
	}
	return nil
}

func (s *Service) ChatHistory(chatID domain.ChatID) ([]domain.Message, error) {
	var history []domain.Message
	err := s.DB.Where("chat_id = ?", chatID).Order("created_at asc").Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

// --- presence mirror (implements app.PresenceStore) ---

func (s *Service) AddOnline(userID domain.UserID) error {
	return s.Redis.SAdd(s.ctx, onlineSetKey, string(userID)).Err()
}

func (s *Service) RemoveOnline(userID domain.UserID) error {
	return s.Redis.SRem(s.ctx, onlineSetKey, string(userID)).Err()
}

// OnlineUsers reads the shared mirror, the cross-process view of presence.
func (s *Service) OnlineUsers() ([]string, error) {
	return s.Redis.SMembers(s.ctx, onlineSetKey).Result()
}
