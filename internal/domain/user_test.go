package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marusyk/Converse/internal/domain"
)

func TestNewUser(t *testing.T) {
	u, err := domain.NewUser("  Alice ", "alice@example.com", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.False(t, u.IsAdmin)
}

func TestNewUser_Validation(t *testing.T) {
	_, err := domain.NewUser("", "a@b.c", "hash")
	assert.ErrorIs(t, err, domain.ErrNameEmpty)

	_, err = domain.NewUser(strings.Repeat("x", domain.MaxNameLen+1), "a@b.c", "hash")
	assert.ErrorIs(t, err, domain.ErrNameTooLong)

	_, err = domain.NewUser("Alice", "", "hash")
	assert.ErrorIs(t, err, domain.ErrEmailEmpty)
}

func TestNewDirectChat(t *testing.T) {
	a := domain.User{ID: "a", Name: "Alice"}
	b := domain.User{ID: "b", Name: "Bob"}

	chat := domain.NewDirectChat(a, b)
	assert.NotEmpty(t, chat.ID)
	assert.False(t, chat.IsGroup)
	assert.Len(t, chat.Users, 2)
}

func TestNewGroupChat(t *testing.T) {
	admin := domain.User{ID: "a", Name: "Alice"}
	members := []domain.User{{ID: "b"}, {ID: "c"}}

	chat := domain.NewGroupChat("team", admin, members)
	assert.True(t, chat.IsGroup)
	assert.Equal(t, admin.ID, chat.AdminID)
	assert.Len(t, chat.Users, 3)
}
