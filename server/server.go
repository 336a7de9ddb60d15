package server

import (
	"context"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"tunedrop/cache"
	"tunedrop/config"
	"tunedrop/core/auth"
	"tunedrop/core/notify"
	"tunedrop/core/submission"
	"tunedrop/db"
	"tunedrop/logger"
	"tunedrop/model"
	"tunedrop/repository"
	"tunedrop/storage"
)

// Start wires every component and runs the HTTP server until interrupted.
func Start() error {
	cfg := config.Load()

	logger.InitLogger(loggerConfig(cfg))

	if err := db.ConnectDB(cfg); err != nil {
		return err
	}
	defer db.DB.Close()
	if err := db.InitDB(); err != nil {
		return err
	}
	if err := db.ConnectGormDB(cfg); err != nil {
		return err
	}
	defer db.CloseGormDB()
	if err := db.ConnectRedis(cfg); err != nil {
		return err
	}
	defer db.CloseRedis()

	store, err := storage.NewMinioStore(cfg)
	if err != nil {
		return err
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	subRepo := repository.NewMySQLSubmissionRepository(db.DB)
	emailRepo := repository.NewGormEmailLogRepository(db.GormDB)

	limiter := cache.NewRateLimiter(db.RedisClient,
		time.Duration(cfg.RateLimitWindowSec)*time.Second, cfg.RateLimitMax)
	verifier := auth.NewVerifier(cfg.AuthDevMode, []byte(cfg.JWTSecret), userRepo)

	// The constructors return nil when a provider is not configured; keep
	// the interface values genuinely nil in that case.
	var primary, fallback notify.Mailer
	if sg := notify.NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName); sg != nil {
		primary = sg
	}
	if sm := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom); sm != nil {
		fallback = sm
	}
	dispatcher := notify.NewDispatcher(primary, fallback, emailRepo, subRepo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	dispatcher.Start(ctx)

	subService := submission.NewService(subRepo, userRepo, store, dispatcher, cfg.MaxTrackSize)

	h := NewAPIHandler(userRepo, emailRepo, subService, dispatcher, verifier, store, limiter, cfg)
	router := newRouter(h, cfg)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Minute, // uploads
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggerConfig(cfg *config.Config) logger.Config {
	return logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
}

func newRouter(h *APIHandler, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()
	router.Use(h.CORSMiddleware)
	router.Use(h.RateLimitMiddleware)

	router.HandleFunc("/api/health", h.HealthHandler).Methods(http.MethodGet, http.MethodOptions)

	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/register/artist", h.RegisterArtistHandler).Methods(http.MethodPost, http.MethodOptions)
	authRouter.HandleFunc("/register/admin",
		h.RequireRole(model.RoleAdmin, h.RegisterAdminHandler)).Methods(http.MethodPost, http.MethodOptions)
	authRouter.HandleFunc("/login", h.LoginHandler).Methods(http.MethodPost, http.MethodOptions)
	authRouter.HandleFunc("/logout",
		h.RequireRole("", h.LogoutHandler)).Methods(http.MethodPost, http.MethodOptions)
	authRouter.HandleFunc("/profile",
		h.RequireRole("", h.ProfileHandler)).Methods(http.MethodGet, http.MethodOptions)
	authRouter.HandleFunc("/profile",
		h.RequireRole("", h.UpdateProfileHandler)).Methods(http.MethodPut, http.MethodOptions)
	authRouter.HandleFunc("/users",
		h.RequireRole(model.RoleAdmin, h.ListUsersHandler)).Methods(http.MethodGet, http.MethodOptions)
	authRouter.HandleFunc("/users/{id}/status",
		h.RequireRole(model.RoleAdmin, h.UpdateUserStatusHandler)).Methods(http.MethodPut, http.MethodOptions)
	if cfg.AuthDevMode {
		logger.Warn("Dev auth routes enabled; do not run this in production")
		authRouter.HandleFunc("/create-first-admin", h.CreateFirstAdminHandler).Methods(http.MethodPost, http.MethodOptions)
		authRouter.HandleFunc("/dev-login", h.DevLoginHandler).Methods(http.MethodPost, http.MethodOptions)
	}

	subRouter := router.PathPrefix("/api/submissions").Subrouter()
	subRouter.HandleFunc("/create",
		h.RequireRole(model.RoleArtist, h.CreateSubmissionHandler)).Methods(http.MethodPost, http.MethodOptions)
	subRouter.HandleFunc("/upload/{submissionId}",
		h.RequireRole(model.RoleArtist, h.UploadTrackHandler)).Methods(http.MethodPost, http.MethodOptions)
	subRouter.HandleFunc("/my-submissions",
		h.RequireRole(model.RoleArtist, h.MySubmissionsHandler)).Methods(http.MethodGet, http.MethodOptions)
	subRouter.HandleFunc("/admin/all",
		h.RequireRole(model.RoleAdmin, h.AdminListSubmissionsHandler)).Methods(http.MethodGet, http.MethodOptions)
	subRouter.HandleFunc("/admin/events",
		h.RequireRole(model.RoleAdmin, h.SubmissionEventsHandler)).Methods(http.MethodGet)
	subRouter.HandleFunc("/admin/{id}/status",
		h.RequireRole(model.RoleAdmin, h.UpdateSubmissionStatusHandler)).Methods(http.MethodPut, http.MethodOptions)
	subRouter.HandleFunc("/{id}",
		h.RequireRole("", h.GetSubmissionHandler)).Methods(http.MethodGet, http.MethodOptions)
	subRouter.HandleFunc("/{id}",
		h.RequireRole(model.RoleArtist, h.DeleteSubmissionHandler)).Methods(http.MethodDelete, http.MethodOptions)

	emailRouter := router.PathPrefix("/api/email").Subrouter()
	emailRouter.HandleFunc("/test",
		h.RequireRole(model.RoleAdmin, h.TestEmailHandler)).Methods(http.MethodPost, http.MethodOptions)
	emailRouter.HandleFunc("/approve",
		h.RequireRole(model.RoleAdmin, h.ApproveEmailHandler)).Methods(http.MethodPost, http.MethodOptions)
	emailRouter.HandleFunc("/reject",
		h.RequireRole(model.RoleAdmin, h.RejectEmailHandler)).Methods(http.MethodPost, http.MethodOptions)
	emailRouter.HandleFunc("/logs",
		h.RequireRole(model.RoleAdmin, h.EmailLogsHandler)).Methods(http.MethodGet, http.MethodOptions)

	// Serve stored objects through the API when no CDN fronts the bucket.
	router.HandleFunc("/static/{object:.+}", h.StaticHandler).Methods(http.MethodGet)

	return router
}

// StaticHandler streams an object from the bucket. Track URLs point here
// when MINIO_PUBLIC_URL is unset.
func (h *APIHandler) StaticHandler(w http.ResponseWriter, r *http.Request) {
	objectPath := mux.Vars(r)["object"]

	info, err := h.store.Stat(r.Context(), objectPath)
	if err != nil {
		respondError(w, http.StatusNotFound, "Object not found")
		return
	}

	obj, err := h.store.Get(r.Context(), objectPath)
	if err != nil {
		respondError(w, http.StatusNotFound, "Object not found")
		return
	}
	defer obj.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	if _, err := io.Copy(w, obj); err != nil {
		logger.Warn("Static object stream interrupted",
			logger.String("object", objectPath),
			logger.ErrorField(err))
	}
}
