package services

import (
	"context"
	"testing"

	"github.com/Dosada05/elo-ledger/models"
	"github.com/Dosada05/elo-ledger/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users  map[string]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if _, ok := f.users[user.Email]; ok {
		return repositories.ErrUserEmailConflict
	}
	user.ID = f.nextID
	f.nextID++
	cp := *user
	f.users[user.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "hunter22hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "hunter22hunter22", user.PasswordHash)

	logged, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "hunter22hunter22"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "hunter22hunter22"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "", Email: "a@b.c", Password: "hunter22hunter22"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Register(ctx, RegisterInput{Name: "Alice", Email: "a@b.c", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	input := RegisterInput{Name: "Alice", Email: "a@b.c", Password: "hunter22hunter22"}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	input.Name = "Another Alice"
	_, err = svc.Register(ctx, input)
	assert.ErrorIs(t, err, ErrAuthEmailTaken)
}
