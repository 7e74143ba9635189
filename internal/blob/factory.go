package blob

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	appcfg "github.com/fdg312/adaptive-tdee/internal/config"
)

// NewBlobStore builds a blob store using mode local|s3|auto. A nil Store
// with mode local means report bytes stay in the database.
func NewBlobStore(ctx context.Context, cfg appcfg.BlobConfig, logger *slog.Logger) (Store, string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "blob"))

	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}

	switch mode {
	case appcfg.BlobModeLocal:
		logger.Info("blob_mode", slog.String("mode", appcfg.BlobModeLocal), slog.String("reason", "forced"))
		return nil, appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			_, code, msg := cfg.S3.Diagnostics()
			logger.Info("blob_s3_unavailable", slog.String("code", code), slog.String("detail", msg), slog.String("config", cfg.S3.DiagnosticsSummary()))
			logger.Info("blob_mode", slog.String("mode", appcfg.BlobModeLocal), slog.String("reason", "auto, S3 not configured"))
			return nil, appcfg.BlobModeLocal, nil
		}
		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			logger.Warn("blob_s3_init_failed", slog.Any("err", err), slog.String("fallback", appcfg.BlobModeLocal))
			return nil, appcfg.BlobModeLocal, nil
		}
		logger.Info("blob_mode", slog.String("mode", appcfg.BlobModeS3), slog.String("reason", "auto, configured"), slog.String("config", cfg.S3.DiagnosticsSummary()))
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if !cfg.S3.IsConfigured() {
			missing := cfg.S3.MissingRequired()
			logger.Error("blob_s3_config_incomplete", slog.Any("missing", missing), slog.String("config", cfg.S3.DiagnosticsSummary()))
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}
		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}
		logger.Info("blob_mode", slog.String("mode", appcfg.BlobModeS3), slog.String("reason", "forced"), slog.String("config", cfg.S3.DiagnosticsSummary()))
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
}
