package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshopflow/internal/kvstore"
	"workshopflow/internal/logger"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewRepository(kvstore.NewMemory()), "test-secret", time.Hour, logger.Discard(), nil)
}

func register(t *testing.T, s *Service, email, name string, role Role) *Profile {
	t.Helper()
	p, err := s.Register(context.Background(), &RegisterRequest{
		Email: email, Password: "hunter22", FullName: name, Role: role,
	})
	require.NoError(t, err)
	return p
}

func TestRegister_Validation(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	cases := []RegisterRequest{
		{Email: "nope", Password: "hunter22", FullName: "A"},
		{Email: "a@b.c", Password: "short", FullName: "A"},
		{Email: "a@b.c", Password: "hunter22", FullName: "  "},
		{Email: "a@b.c", Password: "hunter22", FullName: "A", Role: "moderator"},
	}
	for _, req := range cases {
		_, err := s.Register(ctx, &req)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", req)
	}
}

func TestRegister_DefaultsToStudentAndRejectsDuplicates(t *testing.T) {
	s := newService(t)
	p := register(t, s, "alice@example.com", "Alice", "")
	assert.Equal(t, RoleStudent, p.Role)
	assert.NotEmpty(t, p.ID)

	_, err := s.Register(context.Background(), &RegisterRequest{
		Email: "ALICE@example.com", Password: "hunter22", FullName: "Other",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	register(t, s, "alice@example.com", "Alice", RoleStudent)

	res, err := s.Login(ctx, "alice@example.com", "wrong", RoleStudent)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, msgInvalidCredentials, res.Message)

	res, err = s.Login(ctx, "bob@example.com", "hunter22", RoleStudent)
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = s.Login(ctx, "alice@example.com", "hunter22", RoleAdmin)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "admin")

	res, err = s.Login(ctx, "alice@example.com", "hunter22", RoleStudent)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.NotEmpty(t, res.AccessToken)

	id, err := s.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Alice", id.FullName)
	assert.Equal(t, "student", id.Role)
}

func TestLogout_RevokesToken(t *testing.T) {
	s := newService(t)
	register(t, s, "alice@example.com", "Alice", RoleStudent)
	res, err := s.Login(context.Background(), "alice@example.com", "hunter22", "")
	require.NoError(t, err)

	require.NoError(t, s.Logout(res.AccessToken))
	_, err = s.ValidateToken(res.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.ErrorIs(t, s.Logout("garbage"), ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	s := newService(t)
	register(t, s, "alice@example.com", "Alice", RoleStudent)
	res, err := s.Login(context.Background(), "alice@example.com", "hunter22", "")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.ValidateToken(res.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
