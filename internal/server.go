package internal

import (
	"context"
	"database/sql"
	"net/http"
	"reflect"
	"strings"
	"time"

	"gadget-inventory-api/internal/auth"
	"gadget-inventory-api/internal/config"
	"gadget-inventory-api/internal/dashboard"
	"gadget-inventory-api/internal/export"
	"gadget-inventory-api/internal/handlers"
	"gadget-inventory-api/internal/notify"
	"gadget-inventory-api/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// downloadsPrefix is the public URL prefix export artifacts are served under.
const downloadsPrefix = "/downloads/"

type Server struct {
	DB         *sql.DB
	Pool       *pgxpool.Pool
	Router     *chi.Mux
	JWTManager *auth.JWTManager
	Metrics    *Metrics
	Logger     *zap.Logger

	Assets        *repository.AssetRepository
	Users         *repository.UserRepository
	Notifications *repository.NotificationRepository
	Notifier      *notify.Engine
	Dashboard     *dashboard.Aggregator
	Exporter      *export.Renderer

	cfg      *config.Config
	validate *validator.Validate
}

// NewServer wires repositories and services over an open database handle.
// pool is only used by the Excel importer and may be nil.
func NewServer(db *sql.DB, pool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location()

	assets := repository.NewAssetRepository(db, logger)
	notifications := repository.NewNotificationRepository(db, logger)

	s := &Server{
		DB:            db,
		Pool:          pool,
		Router:        chi.NewRouter(),
		JWTManager:    auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry),
		Metrics:       NewMetrics(),
		Logger:        logger,
		Assets:        assets,
		Users:         repository.NewUserRepository(db, logger),
		Notifications: notifications,
		Notifier:      notify.NewEngine(assets, notifications, loc, logger),
		Dashboard:     dashboard.NewAggregator(db, loc, logger),
		Exporter:      export.NewRenderer(assets, cfg.ExportDir, downloadsPrefix, loc, logger),
		cfg:           cfg,
		validate:      newValidator(),
	}

	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.RealIP)
	s.Router.Use(s.requestLogger)
	s.Router.Use(middleware.Recoverer)

	if cfg.EnableMetrics {
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	// Public routes
	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Get("/dbping", s.dbPing)
	s.Router.Get(downloadsPrefix+"{file}", s.download)

	s.Router.Group(func(r chi.Router) {
		if cfg.AuthEnabled {
			r.Use(auth.AuthMiddleware(s.JWTManager))
		}
		s.mountRoutes(r)
	})

	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Close properly shuts down the server and cleans up resources
func (s *Server) Close(ctx context.Context) error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

func (s *Server) dbPing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		s.Logger.Warn("database ping failed", zap.Error(err))
		http.Error(w, "db: unavailable", http.StatusServiceUnavailable)
		return
	}
	if _, err := w.Write([]byte("db: ok")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// mountRoutes mounts the API. Writes require the admin role when auth is on.
func (s *Server) mountRoutes(r chi.Router) {
	// Users
	r.Get("/users", s.listUsers)
	r.Get("/users/nik/{nik}", s.getUserByNik)
	r.Get("/users/{id}", s.getUser)
	r.Post("/users", s.admin(s.createUser))
	r.Put("/users/{id}", s.admin(s.updateUser))
	r.Delete("/users/{id}", s.admin(s.deleteUser))

	// Assets
	r.Get("/assets", s.listAssets)
	r.Get("/assets/search", s.searchAssets)
	r.Get("/assets/{id}", s.getAsset)
	r.Post("/assets", s.admin(s.createAsset))
	r.Put("/assets/{id}", s.admin(s.updateAsset))
	r.Delete("/assets/{id}", s.admin(s.deleteAsset))

	// QR lookup
	r.Get("/qr/{code}", s.scanQRCode)
	r.Post("/qr/scan", s.scanQRCodeBody)

	r.Get("/dashboard/stats", s.dashboardStats)

	// Exports
	r.Post("/exports/csv", s.exportCSV)
	r.Post("/exports/report", s.exportReport)
	r.Post("/exports/xlsx", s.exportXLSX)

	// Notifications
	r.Get("/notifications", s.listNotifications)
	r.Get("/notifications/unread", s.listUnreadNotifications)
	r.Post("/notifications", s.admin(s.createNotification))
	r.Post("/notifications/read-all", s.markAllNotificationsRead)
	r.Post("/notifications/{id}/read", s.markNotificationRead)
	r.Post("/notifications/generate/warranty", s.admin(s.generateWarranty))
	r.Post("/notifications/generate/repair", s.admin(s.generateRepair))

	// Excel import
	importsHandler := handlers.NewImportsHandler(s.Pool, s.cfg.ImportMapping, s.Logger)
	r.Post("/imports/excel", s.admin(importsHandler.UploadExcel))
}
