package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"tunedrop/core/auth"
	"tunedrop/logger"
	"tunedrop/model"
	"tunedrop/repository"
)

// RegisterArtistHandler creates an artist account.
func (h *APIHandler) RegisterArtistHandler(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterArtistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" || req.ArtistName == "" {
		respondError(w, http.StatusBadRequest, "email, password and artistName are required")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		Phone:        req.Phone,
		Role:         model.RoleArtist,
		Status:       model.UserStatusActive,
		ArtistName:   req.ArtistName,
		Bio:          req.Bio,
		SocialMedia:  req.SocialMedia,
		IsActive:     true,
	}
	if user.DisplayName == "" {
		user.DisplayName = req.ArtistName
	}

	id, err := h.userRepo.CreateUser(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			respondError(w, http.StatusConflict, "Email is already registered")
			return
		}
		logger.Error("Failed to create artist", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	user.ID = id

	token, err := auth.GenerateToken(user.ID, user.Email, []byte(h.cfg.JWTSecret))
	if err != nil {
		logger.Error("Failed to generate token", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("Artist registered",
		logger.Int64("userID", user.ID),
		logger.String("email", user.Email))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Artist registered successfully",
		"token":   token,
		"user":    user.PublicProfile(),
	})
}

// RegisterAdminHandler creates an admin account. Only an existing admin
// may call it.
func (h *APIHandler) RegisterAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	user, err := h.createAdmin(&req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			respondError(w, http.StatusConflict, "Email is already registered")
			return
		}
		logger.Error("Failed to create admin", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("Admin registered",
		logger.Int64("userID", user.ID),
		logger.String("email", user.Email))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Admin registered successfully",
		"user":    user.PublicProfile(),
	})
}

// CreateFirstAdminHandler bootstraps the very first admin account without
// authentication. It refuses once any admin exists and is only routed in
// dev mode.
func (h *APIHandler) CreateFirstAdminHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.userRepo.CountAdmins()
	if err != nil {
		logger.Error("Failed to count admins", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count > 0 {
		respondError(w, http.StatusForbidden, "An admin account already exists")
		return
	}

	var req model.RegisterAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.createAdmin(&req)
	if err != nil {
		logger.Error("Failed to create first admin", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Warn("First admin account bootstrapped", logger.String("email", user.Email))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "First admin created",
		"user":    user.PublicProfile(),
	})
}

func (h *APIHandler) createAdmin(req *model.RegisterAdminRequest) (*model.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		Phone:        req.Phone,
		Role:         model.RoleAdmin,
		Status:       model.UserStatusActive,
		Permissions:  req.Permissions,
		IsActive:     true,
	}
	if user.DisplayName == "" {
		user.DisplayName = "Admin"
	}
	if len(user.Permissions) == 0 {
		user.Permissions = []string{"review_submissions", "send_emails"}
	}

	id, err := h.userRepo.CreateUser(user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

// LoginHandler exchanges email and password for a signed token.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		logger.Error("Failed to look up user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !user.IsActive || user.Status != model.UserStatusActive {
		respondError(w, http.StatusForbidden, "Account is inactive")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, []byte(h.cfg.JWTSecret))
	if err != nil {
		logger.Error("Failed to generate token", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.userRepo.TouchLastLogin(user.ID); err != nil {
		logger.Warn("Failed to record last login", logger.ErrorField(err))
	}

	logger.Info("User logged in",
		logger.Int64("userID", user.ID),
		logger.String("role", user.Role))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"token":   token,
		"user":    user.PublicProfile(),
	})
}

// DevLoginHandler issues a token for an existing account by email without a
// password check. Only routed in dev mode.
func (h *APIHandler) DevLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userRepo.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		logger.Error("Failed to look up user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, []byte(h.cfg.JWTSecret))
	if err != nil {
		logger.Error("Failed to generate token", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Warn("Dev login used", logger.String("email", user.Email))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user.PublicProfile(),
	})
}

// ProfileHandler returns the authenticated user's profile.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, err := GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user.PublicProfile()})
}

// UpdateProfileHandler applies partial profile edits for the authenticated
// user. Role and status are not editable here.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, err := GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.userRepo.UpdateProfile(user.ID, &req, user.Role); err != nil {
		logger.Error("Failed to update profile",
			logger.Int64("userID", user.ID),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	updated, err := h.userRepo.GetUserByID(user.ID)
	if err != nil || updated == nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated",
		"user":    updated.PublicProfile(),
	})
}

// LogoutHandler acknowledges logout. Tokens are stateless; the client
// discards its copy.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// ListUsersHandler returns all accounts for the admin console.
func (h *APIHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.GetAllUsers()
	if err != nil {
		logger.Error("Failed to list users", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	profiles := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.PublicProfile())
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": profiles,
		"total": len(profiles),
	})
}

// UpdateUserStatusHandler activates or deactivates an account.
func (h *APIHandler) UpdateUserStatusHandler(w http.ResponseWriter, r *http.Request) {
	admin, err := GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	targetID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != model.UserStatusActive && req.Status != model.UserStatusInactive {
		respondError(w, http.StatusBadRequest, "status must be active or inactive")
		return
	}
	if targetID == admin.ID && req.Status == model.UserStatusInactive {
		respondError(w, http.StatusBadRequest, "Cannot deactivate your own account")
		return
	}

	if err := h.userRepo.UpdateStatus(targetID, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		logger.Error("Failed to update user status",
			logger.Int64("userID", targetID),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("User status updated",
		logger.Int64("userID", targetID),
		logger.String("status", req.Status),
		logger.Int64("byAdmin", admin.ID))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Status updated"})
}
