package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/pkg/config"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

func newAuthFixture(users *mockUserRepo) *AuthService {
	return NewAuthService(users, config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "institute-api-test",
	}, nil, nil)
}

func TestRegisterGrantsAdmin(t *testing.T) {
	users := &mockUserRepo{users: make(map[string]models.User)}
	svc := newAuthFixture(users)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:       "owner@example.com",
		Password:    "correct-horse",
		DisplayName: "Owner",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.Nil(t, resp.User.InstitutionID)
	assert.NotEmpty(t, resp.AccessToken)

	stored := users.users[resp.User.ID]
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse")))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	users := &mockUserRepo{users: map[string]models.User{
		"existing": {ID: "existing", Email: "owner@example.com", Active: true},
	}}
	svc := newAuthFixture(users)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:       "owner@example.com",
		Password:    "correct-horse",
		DisplayName: "Owner",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLoginVerifiesPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &mockUserRepo{users: map[string]models.User{
		"user-1": {ID: "user-1", Email: "owner@example.com", PasswordHash: string(hash), Role: models.RoleAdmin, Active: true},
	}}
	svc := newAuthFixture(users)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "owner@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "owner@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.User.ID)
}

func TestEnsureUserProvisionsOnceOnFirstSight(t *testing.T) {
	users := &mockUserRepo{users: make(map[string]models.User)}
	svc := newAuthFixture(users)
	claims := &models.JWTClaims{UserID: "user-9", Email: "yeni.ogretmen@example.com"}

	info, err := svc.EnsureUser(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, "user-9", info.ID)
	assert.Equal(t, models.RoleTeacher, info.Role)
	assert.Nil(t, info.InstitutionID)
	assert.Equal(t, "yeni.ogretmen", info.DisplayName)

	// A second call returns the stored row unchanged.
	inst := "inst-1"
	stored := users.users["user-9"]
	stored.Role = models.RoleAdmin
	stored.InstitutionID = &inst
	users.users["user-9"] = stored

	again, err := svc.EnsureUser(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, again.Role)
	require.NotNil(t, again.InstitutionID)
	assert.Equal(t, "inst-1", *again.InstitutionID)
	assert.Len(t, users.users, 1)
}

func TestTokenRoundTripCarriesTenantBinding(t *testing.T) {
	svc := newAuthFixture(&mockUserRepo{})

	inst := "inst-1"
	resp, err := svc.TokenFor(&models.User{
		ID:            "user-1",
		Email:         "owner@example.com",
		Role:          models.RoleTeacher,
		InstitutionID: &inst,
		Active:        true,
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "inst-1", claims.InstitutionID)
}

func TestValidateTokenRejectsForgedSignature(t *testing.T) {
	svc := newAuthFixture(&mockUserRepo{})
	other := NewAuthService(&mockUserRepo{}, config.JWTConfig{Secret: "other-secret", Expiration: time.Hour}, nil, nil)

	resp, err := other.TokenFor(&models.User{ID: "user-1", Email: "a@example.com", Role: models.RoleAdmin, Active: true})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
