package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"tunedrop/cache"
	"tunedrop/config"
	"tunedrop/core/auth"
	"tunedrop/core/notify"
	"tunedrop/core/review"
	"tunedrop/core/submission"
	"tunedrop/logger"
	"tunedrop/model"
	"tunedrop/repository"
	"tunedrop/storage"
)

// APIHandler carries the wired dependencies for all HTTP handlers.
type APIHandler struct {
	userRepo   repository.UserRepository
	emailRepo  repository.EmailLogRepository
	subService *submission.Service
	dispatcher *notify.Dispatcher
	verifier   auth.CredentialVerifier
	store      *storage.MinioStore
	limiter    *cache.RateLimiter
	cfg        *config.Config
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(
	userRepo repository.UserRepository,
	emailRepo repository.EmailLogRepository,
	subService *submission.Service,
	dispatcher *notify.Dispatcher,
	verifier auth.CredentialVerifier,
	store *storage.MinioStore,
	limiter *cache.RateLimiter,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:   userRepo,
		emailRepo:  emailRepo,
		subService: subService,
		dispatcher: dispatcher,
		verifier:   verifier,
		store:      store,
		limiter:    limiter,
		cfg:        cfg,
	}
}

// respondJSON writes a JSON response body with the given status.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError writes the uniform error envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain sentinels onto HTTP statuses. Anything
// unrecognized becomes a 500 without leaking internals to the client.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, submission.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, submission.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, submission.ErrTitleRequired),
		errors.Is(err, submission.ErrTrackFieldsRequired),
		errors.Is(err, submission.ErrInvalidFileType),
		errors.Is(err, submission.ErrNotPending),
		errors.Is(err, review.ErrInvalidStatus),
		errors.Is(err, review.ErrIllegalTransition),
		errors.Is(err, review.ErrScoreRequired),
		errors.Is(err, review.ErrScoreOutOfRange):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, submission.ErrFileTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, sql.ErrNoRows):
		respondError(w, http.StatusNotFound, "not found")
	default:
		logger.Error("Unhandled service error", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// CORSMiddleware allows the configured frontend origin with credentials.
func (h *APIHandler) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.cfg.FrontendURL)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware applies the Redis fixed-window limit per client IP.
func (h *APIHandler) RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		allowed, err := h.limiter.Allow(r.Context(), ip)
		if err != nil {
			// Redis trouble must not take the API down; log and let through.
			logger.Warn("Rate limiter unavailable", logger.ErrorField(err))
		}
		if !allowed {
			respondError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// AuthMiddleware authenticates the bearer token and stores the identity in
// the request context. Role checks happen separately so read routes can
// accept either role.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		identity, err := h.verifier.Verify(parts[1])
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), "userID", identity.UserID)
		ctx = context.WithValue(ctx, "userEmail", identity.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireRole authorizes the authenticated identity against the user
// directory. An empty requiredRole only requires an existing active account.
// The resolved user lands in the request context for the handler.
func (h *APIHandler) RequireRole(requiredRole string, next http.HandlerFunc) http.HandlerFunc {
	return h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		userID, err := GetUserIDFromContext(r.Context())
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		identity := &auth.Identity{UserID: userID}
		user, err := auth.Authorize(h.userRepo, identity, requiredRole)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserNotFound):
				respondError(w, http.StatusNotFound, "User not found")
			case errors.Is(err, auth.ErrForbidden):
				if requiredRole != "" {
					respondError(w, http.StatusForbidden, fmt.Sprintf("%s access required", requiredRole))
				} else {
					respondError(w, http.StatusForbidden, "Account is inactive")
				}
			case errors.Is(err, auth.ErrUnauthenticated):
				respondError(w, http.StatusUnauthorized, "Unauthorized")
			default:
				logger.Error("Authorization lookup failed", logger.ErrorField(err))
				respondError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		ctx := context.WithValue(r.Context(), "user", user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// GetUserFromContext extracts the authorized user from the request context.
func GetUserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value("user").(*model.User)
	if !ok {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// HealthHandler reports service liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "OK",
		"message": "TuneDrop backend is running",
		"features": map[string]string{
			"storage":  "MinIO object storage",
			"database": "MySQL",
			"email":    "SendGrid with SMTP fallback",
		},
	})
}
