package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/institute-api/internal/middleware"
	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/internal/service"
	"github.com/linguahub/institute-api/pkg/config"
)

type fakeUserRepo struct {
	users map[string]models.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-1"
	}
	if f.users == nil {
		f.users = make(map[string]models.User)
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) BindInstitution(_ context.Context, userID, institutionID string, role models.UserRole) error {
	u := f.users[userID]
	u.InstitutionID = &institutionID
	u.Role = role
	f.users[userID] = u
	return nil
}

func (f *fakeUserRepo) ListByInstitution(_ context.Context, institutionID string) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if u.InstitutionID != nil && *u.InstitutionID == institutionID {
			out = append(out, u)
		}
	}
	return out, nil
}

func newAuthHandler() (*AuthHandler, *fakeUserRepo) {
	repo := &fakeUserRepo{users: make(map[string]models.User)}
	svc := service.NewAuthService(repo, config.JWTConfig{Secret: "test-secret", Expiration: time.Hour}, nil, nil)
	return NewAuthHandler(svc), repo
}

func TestAuthHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := `{"email":"owner@example.com","password":"supersecret","display_name":"Owner"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.users, 1)
	var envelope struct {
		Data models.AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, "owner@example.com", envelope.Data.User.Email)
}

func TestAuthHandlerRegisterRejectsBadBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("not json"))

	handler.Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerMeWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newAuthHandler()
	repo.users["user-7"] = models.User{ID: "user-7", Email: "me@example.com", Role: models.RoleTeacher, Active: true}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-7"})

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.UserInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "me@example.com", envelope.Data.Email)
}
