package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tunedrop/config"
	"tunedrop/core/auth"
	"tunedrop/model"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) CreateUser(user *model.User) (int64, error) {
	args := m.Called(user)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepo) GetUserByID(id int64) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetAllUsers() ([]*model.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(userID int64, req *model.UpdateProfileRequest, role string) error {
	return m.Called(userID, req, role).Error(0)
}

func (m *mockUserRepo) UpdateStatus(userID int64, status string) error {
	return m.Called(userID, status).Error(0)
}

func (m *mockUserRepo) TouchLastLogin(userID int64) error {
	return m.Called(userID).Error(0)
}

func (m *mockUserRepo) CountAdmins() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

var testSecret = []byte("handler-test-secret")

func newTestHandler(users *mockUserRepo) *APIHandler {
	cfg := &config.Config{JWTSecret: string(testSecret), FrontendURL: "http://localhost:3000"}
	verifier := auth.NewSignedVerifier(testSecret)
	return NewAPIHandler(users, nil, nil, nil, verifier, nil, nil, cfg)
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestHandler(new(mockUserRepo))

	t.Run("rejects a missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)

		h.AuthMiddleware(okHandler)(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a malformed header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		req.Header.Set("Authorization", "Token abc")

		h.AuthMiddleware(okHandler)(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")

		h.AuthMiddleware(okHandler)(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("passes a valid token and stores the identity", func(t *testing.T) {
		token, err := auth.GenerateToken(7, "artist@example.com", testSecret)
		assert.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
			userID, err := GetUserIDFromContext(r.Context())
			assert.NoError(t, err)
			assert.Equal(t, int64(7), userID)
			okHandler(w, r)
		})(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	newRequest := func(userID int64) *http.Request {
		token, _ := auth.GenerateToken(userID, "someone@example.com", testSecret)
		req := httptest.NewRequest(http.MethodGet, "/api/submissions/admin/all", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	t.Run("admin route rejects an artist", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("GetUserByID", int64(7)).Return(&model.User{
			ID: 7, Role: model.RoleArtist, Status: model.UserStatusActive,
		}, nil)
		h := newTestHandler(users)

		rec := httptest.NewRecorder()
		h.RequireRole(model.RoleAdmin, okHandler)(rec, newRequest(7))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin route passes an admin", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("GetUserByID", int64(1)).Return(&model.User{
			ID: 1, Role: model.RoleAdmin, Status: model.UserStatusActive,
		}, nil)
		h := newTestHandler(users)

		rec := httptest.NewRecorder()
		h.RequireRole(model.RoleAdmin, func(w http.ResponseWriter, r *http.Request) {
			user, err := GetUserFromContext(r.Context())
			assert.NoError(t, err)
			assert.Equal(t, model.RoleAdmin, user.Role)
			okHandler(w, r)
		})(rec, newRequest(1))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects an inactive account", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("GetUserByID", int64(7)).Return(&model.User{
			ID: 7, Role: model.RoleArtist, Status: model.UserStatusInactive,
		}, nil)
		h := newTestHandler(users)

		rec := httptest.NewRecorder()
		h.RequireRole("", okHandler)(rec, newRequest(7))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("reports an unknown subject", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("GetUserByID", int64(99)).Return(nil, nil)
		h := newTestHandler(users)

		rec := httptest.NewRecorder()
		h.RequireRole("", okHandler)(rec, newRequest(99))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:43210"
	assert.Equal(t, "10.0.0.5", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.5")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestListParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/submissions/my-submissions?status=pending&limit=5", nil)
	status, limit := listParams(req)
	assert.Equal(t, "pending", status)
	assert.Equal(t, 5, limit)

	req = httptest.NewRequest(http.MethodGet, "/api/submissions/my-submissions", nil)
	status, limit = listParams(req)
	assert.Empty(t, status)
	assert.Zero(t, limit)
}
