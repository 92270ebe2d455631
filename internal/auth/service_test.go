package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/cardboard/internal/apperr"
	"github.com/hugh/cardboard/internal/auth"
	"github.com/hugh/cardboard/internal/database/models"
	"github.com/hugh/cardboard/internal/pagination"
	"github.com/hugh/cardboard/internal/testutil"
	"github.com/hugh/cardboard/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts ...auth.ServiceOption) (*auth.Service, *auth.JWTService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	jwtService := testutil.CreateTestJWTService()
	opts = append([]auth.ServiceOption{auth.WithLogger(util.NopLogger())}, opts...)
	return auth.NewService(db, jwtService, opts...), jwtService
}

func registerInput(email string) auth.RegisterInput {
	return auth.RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  testutil.TestPassword,
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to Member", func(t *testing.T) {
		svc, _ := newTestService(t)

		user, err := svc.Register(ctx, registerInput("ada@example.com"))
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, models.RoleMember, user.Role)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.NotEqual(t, testutil.TestPassword, user.PasswordHash)
		assert.True(t, auth.CheckPassword(testutil.TestPassword, user.PasswordHash))
	})

	t.Run("keeps requested Admin role", func(t *testing.T) {
		svc, _ := newTestService(t)

		in := registerInput("root@example.com")
		in.Role = models.RoleAdmin
		user, err := svc.Register(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)
	})

	t.Run("rejects Admin when disabled", func(t *testing.T) {
		svc, _ := newTestService(t, auth.WithAdminRegistration(false))

		in := registerInput("root@example.com")
		in.Role = models.RoleAdmin
		_, err := svc.Register(ctx, in)
		assert.True(t, errors.Is(err, apperr.ErrBadRequest))
	})

	t.Run("duplicate email conflicts regardless of case", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Register(ctx, registerInput("ada@example.com"))
		require.NoError(t, err)

		_, err = svc.Register(ctx, registerInput("ADA@Example.com"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrConflict))

		appErr, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, "User with the email ADA@Example.com exists", appErr.Message)
	})

	t.Run("weak passwords", func(t *testing.T) {
		svc, _ := newTestService(t)

		for _, pw := range []string{"short1A", "alllowercase1", "NODIGITSHERE", ""} {
			in := registerInput("weak@example.com")
			in.Password = pw
			_, err := svc.Register(ctx, in)
			require.Error(t, err, pw)
			assert.True(t, errors.Is(err, apperr.ErrBadRequest), pw)
		}
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc, jwtService := newTestService(t)

	registered, err := svc.Register(ctx, registerInput("ada@example.com"))
	require.NoError(t, err)

	t.Run("issues a token for the account", func(t *testing.T) {
		resp, err := svc.Login(ctx, auth.LoginInput{Email: "Ada@Example.com", Password: testutil.TestPassword})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, resp.User.ID)

		claims, err := jwtService.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID.String(), claims.Subject)
		assert.Equal(t, "Ada Lovelace", claims.Name)
		assert.Equal(t, "ada@example.com", claims.Email)
		assert.Equal(t, "Member", claims.Role)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, errWrong := svc.Login(ctx, auth.LoginInput{Email: "ada@example.com", Password: "Wrong-pass1"})
		_, errUnknown := svc.Login(ctx, auth.LoginInput{Email: "nobody@example.com", Password: testutil.TestPassword})

		require.Error(t, errWrong)
		require.Error(t, errUnknown)
		assert.True(t, errors.Is(errWrong, apperr.ErrBadRequest))
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})
}

func TestService_GetUserByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	user, err := svc.Register(ctx, registerInput("ada@example.com"))
	require.NoError(t, err)

	got, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.GetUserByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestService_ListUsers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Register(ctx, registerInput(email))
		require.NoError(t, err)
	}

	page, err := svc.ListUsers(ctx, pagination.Params{PageIndex: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasNextPage)
	assert.False(t, page.HasPreviousPage)

	page, err = svc.ListUsers(ctx, pagination.Params{PageIndex: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasNextPage)
	assert.True(t, page.HasPreviousPage)
}
