package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/adaptive-tdee/internal/config"
	"github.com/fdg312/adaptive-tdee/internal/dbmigrate"
	"github.com/fdg312/adaptive-tdee/internal/httpserver"
	"github.com/fdg312/adaptive-tdee/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	printStartupBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrationsOnStartup {
		dbURL, source, _, err := dbmigrate.SelectDatabaseURL(cfg, true)
		if err != nil {
			log.Fatalf("FATAL startup migrations: %v", err)
		}

		logger.Info("startup_migrations", slog.String("command", "up"), slog.String("using", source))
		if err := dbmigrate.Up(ctx, dbURL); err != nil {
			log.Fatalf("FATAL startup migrations failed: %v", err)
		}
		logger.Info("startup_migrations_completed")
	}

	validateProductionConfig(cfg)

	server, err := httpserver.New(cfg, logger)
	if err != nil {
		log.Fatalf("FATAL server init: %v", err)
	}
	defer server.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server_failed", slog.Any("err", err))
		}
	case <-ctx.Done():
		logger.Info("server_shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server_shutdown_failed", slog.Any("err", err))
		}
	}
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// No secrets are ever printed, only masked indicators ("set" / "not set").
func printStartupBanner(cfg *config.Config) {
	log.Println("========== Adaptive TDEE API ==========")
	log.Printf("  env              = %s", cfg.Env)
	log.Printf("  port             = %d", cfg.Port)
	log.Printf("  log_level        = %s", cfg.LogLevel)

	// ---- Database ----
	log.Println("---- database ----")
	log.Printf("  runtime_url      = %s", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled))
	log.Printf("  pooled           = %s", setOrNot(cfg.DatabaseURLPooled))
	log.Printf("  direct           = %s", setOrNot(cfg.DatabaseURLDirect))
	log.Printf("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)
	if cfg.RunMigrationsOnStartup {
		if cfg.DatabaseURLDirect != "" {
			log.Printf("  migrations_via   = DATABASE_URL_DIRECT")
		} else {
			log.Printf("  migrations_via   = (will fail, DATABASE_URL_DIRECT not set)")
		}
	}

	// ---- Engine ----
	log.Println("---- engine ----")
	log.Printf("  cold_start_days  = %d", cfg.Engine.ColdStartDays)
	log.Printf("  activity_factor  = %.2f", cfg.Engine.ActivityFactor)
	log.Printf("  fasting_policy   = %s", cfg.Engine.FastingPolicy)
	log.Printf("  backfill_days    = %d", cfg.Engine.BackfillDays)
	log.Printf("  timezone         = %s", cfg.Engine.Timezone)

	// ---- Blob / S3 ----
	log.Println("---- blob ----")
	log.Printf("  blob_mode        = %s", cfg.Blob.Mode)
	if cfg.Blob.Mode != config.BlobModeLocal {
		log.Printf("  s3: %s", cfg.Blob.S3.DiagnosticsSummary())
	}

	// ---- Events / metrics ----
	log.Println("---- events ----")
	if len(cfg.KafkaBrokers) == 0 {
		log.Printf("  kafka            = disabled")
	} else {
		log.Printf("  kafka_brokers    = %s", strings.Join(cfg.KafkaBrokers, ","))
		log.Printf("  kafka_topic      = %s", cfg.KafkaTopic)
	}
	log.Printf("  metrics          = %t", cfg.MetricsEnabled)

	log.Println("=======================================")
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(cfg *config.Config) {
	isProd := cfg.Env == "production" || cfg.Env == "prod" || cfg.Env == "staging"

	if cfg.Blob.Mode == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			log.Fatalf("FATAL blob: BLOB_MODE is 's3' but S3 config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	// DATABASE_URL must be set in production
	if isProd && cfg.DatabaseURL == "" {
		log.Fatalf("FATAL db: no DATABASE_URL configured in %s", cfg.Env)
	}
}

// ---- helpers (no secrets) ----

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (will use in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return fmt.Sprintf("set (via %s)", "DATABASE_URL_POOLED")
	}
	return "set"
}
