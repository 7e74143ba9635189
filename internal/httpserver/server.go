package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fdg312/adaptive-tdee/internal/blob"
	"github.com/fdg312/adaptive-tdee/internal/checkins"
	"github.com/fdg312/adaptive-tdee/internal/config"
	"github.com/fdg312/adaptive-tdee/internal/events"
	"github.com/fdg312/adaptive-tdee/internal/logging"
	"github.com/fdg312/adaptive-tdee/internal/observability"
	"github.com/fdg312/adaptive-tdee/internal/profiles"
	"github.com/fdg312/adaptive-tdee/internal/recalc"
	"github.com/fdg312/adaptive-tdee/internal/reports"
	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/fdg312/adaptive-tdee/internal/storage/memory"
	"github.com/fdg312/adaptive-tdee/internal/storage/postgres"
)

// Server представляет HTTP сервер
type Server struct {
	config     *config.Config
	mux        *http.ServeMux
	storage    storage.Storage
	publisher  events.Publisher
	metrics    *observability.Metrics
	log        *slog.Logger
	httpServer *http.Server
}

// New создаёт новый HTTP сервер
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
		log:    logging.Component(logger, "httpserver"),
	}

	// Инициализируем storage
	s.initStorage()

	if cfg.MetricsEnabled {
		s.metrics = observability.NewMetrics()
	}

	publisher, err := events.NewPublisher(events.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic}, logger)
	if err != nil {
		s.storage.Close()
		return nil, fmt.Errorf("event publisher: %w", err)
	}
	s.publisher = publisher

	// Регистрируем маршруты
	if err := s.routes(logger); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// initStorage инициализирует storage (Memory или Postgres)
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		s.log.Info("storage_mode", slog.String("mode", "memory"))
		s.storage = memory.New()
		return
	}

	s.log.Info("storage_connecting", slog.String("mode", "postgres"))
	pgStorage, err := postgres.New(context.Background(), s.config.DatabaseURL)
	if err != nil {
		s.log.Error("storage_connect_failed", slog.Any("err", err), slog.String("fallback", "memory"))
		s.storage = memory.New()
		return
	}
	s.log.Info("storage_mode", slog.String("mode", "postgres"))
	s.storage = pgStorage
}

// routes регистрирует маршруты
func (s *Server) routes(logger *slog.Logger) error {
	cfg := s.config

	// Health check
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// Checkins
	checkinsService := checkins.NewService(s.storage, cfg.Engine.ColdStartDays).
		WithPublisher(s.publisher).
		WithMetrics(s.metrics).
		WithLogger(logger).
		WithClock(time.Now, cfg.Engine.Location)

	// Engine
	recalcService := recalc.NewService(s.storage, recalc.Config{
		ColdStartDays:  cfg.Engine.ColdStartDays,
		ActivityFactor: cfg.Engine.ActivityFactor,
		FastingPolicy:  recalc.FastingPolicy(cfg.Engine.FastingPolicy),
		BackfillDays:   cfg.Engine.BackfillDays,
		Location:       cfg.Engine.Location,
	}).
		WithCheckIns(checkinsService).
		WithPublisher(s.publisher).
		WithMetrics(s.metrics).
		WithLogger(logger)
	checkinsService.WithLocker(recalcService.UserLock())

	recalcHandler := recalc.NewHandler(recalcService)

	// Weights
	s.handle("POST /v1/users/{user_id}/weights", "weights_create", recalcHandler.HandleLogWeight)
	s.handle("PATCH /v1/users/{user_id}/weights/{id}", "weights_edit", recalcHandler.HandleEditWeight)
	s.handle("DELETE /v1/users/{user_id}/weights/{id}", "weights_delete", recalcHandler.HandleDeleteWeight)

	// Meals
	s.handle("POST /v1/users/{user_id}/meals", "meals_create", recalcHandler.HandleLogMeal)
	s.handle("DELETE /v1/users/{user_id}/meals/{id}", "meals_delete", recalcHandler.HandleDeleteMeal)

	// Day status and steps
	s.handle("PUT /v1/users/{user_id}/days/{date}/status", "day_status_set", recalcHandler.HandleSetDayStatus)
	s.handle("DELETE /v1/users/{user_id}/days/{date}/status", "day_status_clear", recalcHandler.HandleClearDayStatus)
	s.handle("PUT /v1/users/{user_id}/days/{date}/steps", "day_steps_set", recalcHandler.HandleSetSteps)

	// Chain
	s.handle("GET /v1/users/{user_id}/states", "states_list", recalcHandler.HandleListStates)
	s.handle("GET /v1/users/{user_id}/trend", "trend", recalcHandler.HandleTrend)
	s.handle("POST /v1/users/{user_id}/recompute", "recompute", recalcHandler.HandleRecompute)
	s.handle("POST /v1/users/{user_id}/backfill", "backfill", recalcHandler.HandleBackfill)

	// Profile
	profileService := profiles.NewService(s.storage, recalcService).WithLogger(logger)
	profileHandler := profiles.NewHandler(profileService)
	s.handle("GET /v1/users/{user_id}/profile", "profile_get", profileHandler.HandleGet)
	s.handle("PUT /v1/users/{user_id}/profile", "profile_put", profileHandler.HandlePut)

	// Check-ins
	s.handle("GET /v1/users/{user_id}/checkins", "checkins_list", checkins.HandleList(checkinsService))
	s.handle("GET /v1/users/{user_id}/checkins/{week}", "checkins_get", checkins.HandleGet(checkinsService))
	s.handle("POST /v1/users/{user_id}/checkins", "checkins_build", checkins.HandleBuild(checkinsService))

	// Diagnostics and reports
	blobStore, mode, err := blob.NewBlobStore(context.Background(), cfg.Blob, logger)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}
	s.log.Info("reports_storage", slog.String("mode", mode))
	reportsService := reports.NewService(
		s.storage,
		blobStore,
		cfg.ReportsMaxRangeDays,
		cfg.Blob.S3.PresignTTLSeconds,
		cfg.Blob.S3.PublicBaseURL,
		cfg.Blob.S3.PreferPublicURL,
	).WithLogger(logger)
	reportsHandler := reports.NewHandlers(reportsService, recalcService.Today)
	s.handle("GET /v1/users/{user_id}/diagnostics", "diagnostics", reportsHandler.HandleDiagnostics)
	s.handle("POST /v1/users/{user_id}/reports", "reports_create", reportsHandler.HandleCreate)
	s.handle("GET /v1/users/{user_id}/reports", "reports_list", reportsHandler.HandleList)
	s.handle("GET /v1/users/{user_id}/reports/{id}/download", "reports_download", reportsHandler.HandleDownload)
	s.handle("DELETE /v1/users/{user_id}/reports/{id}", "reports_delete", reportsHandler.HandleDelete)

	return nil
}

// handle регистрирует обработчик с метриками под именем route
func (s *Server) handle(pattern, route string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.metrics.WrapHandler(route, h))
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Handler возвращает корневой обработчик с middleware: CORS → Rate Limit → Router
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start запускает HTTP сервер и блокируется до Shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("server_started", slog.String("addr", addr), slog.String("healthz", "http://localhost"+addr+"/healthz"))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown дожидается завершения активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Close закрывает publisher и storage
func (s *Server) Close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.storage != nil {
		errs = append(errs, s.storage.Close())
	}
	return errors.Join(errs...)
}
