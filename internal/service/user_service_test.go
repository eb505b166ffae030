package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tienda/internal/auth"
	"tienda/internal/errors"
	"tienda/internal/model"
	"tienda/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newTestUserService(repo repository.UserRepository) (UserService, auth.PasswordHasher, *auth.TokenService) {
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService("test-secret")
	return NewUserService(repo, hasher, tokens), hasher, tokens
}

func TestUserService_Register(t *testing.T) {
	t.Run("success normalizes email and hashes password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, hasher, _ := newTestUserService(repo)

		repo.On("FindByEmail", mock.Anything, "ana@x.com").Return(nil, gorm.ErrRecordNotFound)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

		user, err := svc.Register(context.Background(), "Ana", "ANA@x.com", "s3cret")
		require.NoError(t, err)

		assert.Equal(t, "ana@x.com", user.Email)
		assert.Equal(t, "Ana", user.Name)
		assert.NotEqual(t, "s3cret", user.PasswordHash)
		assert.True(t, hasher.Verify("s3cret", user.PasswordHash))
		repo.AssertExpectations(t)
	})

	t.Run("existing email rejected", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := newTestUserService(repo)

		repo.On("FindByEmail", mock.Anything, "ana@x.com").Return(&model.User{Email: "ana@x.com"}, nil)

		_, err := svc.Register(context.Background(), "Ana", "ana@x.com", "s3cret")
		assert.ErrorIs(t, err, errors.ErrUserAlreadyExists)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("lost insert race surfaces as conflict", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := newTestUserService(repo)

		repo.On("FindByEmail", mock.Anything, "ana@x.com").Return(nil, gorm.ErrRecordNotFound)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(repository.ErrDuplicateKey)

		_, err := svc.Register(context.Background(), "Ana", "ana@x.com", "s3cret")
		assert.ErrorIs(t, err, errors.ErrUserAlreadyExists)
	})
}

func TestUserService_Login(t *testing.T) {
	stored := &model.User{
		ID:    uuid.New(),
		Name:  "Ana",
		Email: "ana@x.com",
	}
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	stored.PasswordHash = hash

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := newTestUserService(repo)

		repo.On("FindByEmail", mock.Anything, "nobody@x.com").Return(nil, gorm.ErrRecordNotFound)
		repo.On("FindByEmail", mock.Anything, "ana@x.com").Return(stored, nil)

		_, _, errUnknown := svc.Login(context.Background(), "nobody@x.com", "s3cret")
		_, _, errWrongPass := svc.Login(context.Background(), "ana@x.com", "wrong")

		assert.ErrorIs(t, errUnknown, errors.ErrInvalidCredentials)
		assert.ErrorIs(t, errWrongPass, errors.ErrInvalidCredentials)
		assert.Equal(t, errUnknown, errWrongPass)
	})

	t.Run("success issues token for subject", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, tokens := newTestUserService(repo)

		repo.On("FindByEmail", mock.Anything, "ana@x.com").Return(stored, nil)

		token, user, err := svc.Login(context.Background(), "ANA@x.com", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, "ana@x.com", user.Email)

		claims, err := tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, stored.ID.String(), claims.UserID)
	})
}

func TestUserService_Verify(t *testing.T) {
	stored := &model.User{ID: uuid.New(), Name: "Ana", Email: "ana@x.com"}

	t.Run("found", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := newTestUserService(repo)

		repo.On("FindByID", mock.Anything, stored.ID).Return(stored, nil)

		user, err := svc.Verify(context.Background(), stored.ID.String())
		require.NoError(t, err)
		assert.Equal(t, stored.Email, user.Email)
	})

	t.Run("absent record", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := newTestUserService(repo)

		id := uuid.New()
		repo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Verify(context.Background(), id.String())
		assert.ErrorIs(t, err, errors.ErrUserNotFound)
	})

	t.Run("malformed subject", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := newTestUserService(repo)

		_, err := svc.Verify(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, errors.ErrUserNotFound)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestUserService_Update(t *testing.T) {
	newUser := func(hasher auth.PasswordHasher) *model.User {
		hash, _ := hasher.Hash("s3cret")
		return &model.User{
			ID:           uuid.New(),
			Name:         "Ana",
			Email:        "ana@x.com",
			PasswordHash: hash,
		}
	}

	t.Run("email only leaves name and hash untouched", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, hasher, _ := newTestUserService(repo)
		stored := newUser(hasher)
		originalHash := stored.PasswordHash

		repo.On("FindByID", mock.Anything, stored.ID).Return(stored, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

		email := "NEW@x.com"
		user, err := svc.Update(context.Background(), stored.ID.String(), UserPatch{Email: &email})
		require.NoError(t, err)

		assert.Equal(t, "new@x.com", user.Email)
		assert.Equal(t, "Ana", user.Name)
		assert.Equal(t, originalHash, user.PasswordHash)
	})

	t.Run("password is re-hashed", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, hasher, _ := newTestUserService(repo)
		stored := newUser(hasher)
		originalHash := stored.PasswordHash

		repo.On("FindByID", mock.Anything, stored.ID).Return(stored, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

		password := "n3w-s3cret"
		user, err := svc.Update(context.Background(), stored.ID.String(), UserPatch{Password: &password})
		require.NoError(t, err)

		assert.NotEqual(t, originalHash, user.PasswordHash)
		assert.NotEqual(t, password, user.PasswordHash)
		assert.True(t, hasher.Verify(password, user.PasswordHash))
	})

	t.Run("email collision surfaces as conflict", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, hasher, _ := newTestUserService(repo)
		stored := newUser(hasher)

		repo.On("FindByID", mock.Anything, stored.ID).Return(stored, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(repository.ErrDuplicateKey)

		email := "taken@x.com"
		_, err := svc.Update(context.Background(), stored.ID.String(), UserPatch{Email: &email})
		assert.ErrorIs(t, err, errors.ErrUserAlreadyExists)
	})

	t.Run("unknown subject", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := newTestUserService(repo)

		id := uuid.New()
		repo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

		name := "Ana"
		_, err := svc.Update(context.Background(), id.String(), UserPatch{Name: &name})
		assert.ErrorIs(t, err, errors.ErrUserNotFound)
	})
}
