// Conventional persistence glue around the realtime core: accounts, chat
// and message CRUD, attachment upload.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/marusyk/Converse/internal/auth"
	"github.com/marusyk/Converse/internal/blob"
	"github.com/marusyk/Converse/internal/domain"
	"github.com/marusyk/Converse/internal/storage"
)

type Handler struct {
	Store *storage.Service
	Auth  *auth.Service
	Blob  *blob.Store
}

func NewHandler(store *storage.Service, authsvc *auth.Service, blobStore *blob.Store) *Handler {
	return &Handler{Store: store, Auth: authsvc, Blob: blobStore}
}

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
		return
	}

	if existing, err := h.Store.FindUserByEmail(req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	} else if existing != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user already exists"})
		return
	}
	if existing, err := h.Store.FindUserByName(req.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	} else if existing != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}
	user, err := domain.NewUser(req.Name, req.Email, hash)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.CreateUser(user); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	token, err := h.Auth.IssueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":      user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"isAdmin": user.IsAdmin,
		"token":   token,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	user, err := h.Store.FindUserByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if user == nil || !auth.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	token, err := h.Auth.IssueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"isAdmin": user.IsAdmin,
		"token":   token,
	})
}

func (h *Handler) FetchUsers(c *gin.Context) {
	requester := domain.UserID(c.GetString("user_id"))
	users, err := h.Store.SearchUsers(c.Query("search"), requester)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// OnlineUsers reads the shared presence mirror.
func (h *Handler) OnlineUsers(c *gin.Context) {
	ids, err := h.Store.OnlineUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presence lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": ids})
}

func (h *Handler) AccessChat(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId param not sent with request"})
		return
	}
	requester := domain.UserID(c.GetString("user_id"))
	chat, err := h.Store.AccessChat(requester, domain.UserID(req.UserID))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("access chat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to access chat"})
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *Handler) FetchChats(c *gin.Context) {
	requester := domain.UserID(c.GetString("user_id"))
	chats, err := h.Store.ChatsForUser(requester)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch chats"})
		return
	}
	c.JSON(http.StatusOK, chats)
}

func (h *Handler) CreateGroupChat(c *gin.Context) {
	var req struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || len(req.Members) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and members are required"})
		return
	}
	requester := domain.UserID(c.GetString("user_id"))
	admin, err := h.Store.FindUserByID(requester)
	if err != nil || admin == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "requester lookup failed"})
		return
	}
	members := make([]domain.User, 0, len(req.Members))
	for _, id := range req.Members {
		u, err := h.Store.FindUserByID(domain.UserID(id))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "member lookup failed"})
			return
		}
		if u == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown member " + id})
			return
		}
		members = append(members, *u)
	}
	chat, err := h.Store.CreateGroupChat(req.Name, *admin, members)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		return
	}
	c.JSON(http.StatusCreated, chat)
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req struct {
		ChatID        string `json:"chatId"`
		Content       string `json:"content"`
		AttachmentURL string `json:"attachmentUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ChatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
		return
	}
	sender := domain.UserID(c.GetString("user_id"))
	member, err := h.Store.IsChatMember(domain.ChatID(req.ChatID), sender)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership lookup failed"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this chat"})
		return
	}
	msg := domain.NewMessage(domain.ChatID(req.ChatID), sender, req.Content, req.AttachmentURL)
	if err := h.Store.SaveMessage(msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) ChatHistory(c *gin.Context) {
	chatID := domain.ChatID(c.Param("chatId"))
	requester := domain.UserID(c.GetString("user_id"))
	member, err := h.Store.IsChatMember(chatID, requester)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership lookup failed"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this chat"})
		return
	}
	history, err := h.Store.ChatHistory(chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer src.Close()
	url, err := h.Blob.Save(file.Filename, src)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("blob save")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
