package blob

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	appcfg "github.com/fdg312/adaptive-tdee/internal/config"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestNewBlobStoreLocalForced(t *testing.T) {
	logger, buf := bufferLogger()

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeLocal}, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal {
		t.Fatalf("expected mode=local, got %s", mode)
	}
	if store != nil {
		t.Fatal("expected nil store in local mode")
	}
	if !strings.Contains(buf.String(), "reason=forced") {
		t.Fatalf("expected forced local log, got: %s", buf.String())
	}
}

func TestNewBlobStoreAutoEmptyS3FallsBackToLocal(t *testing.T) {
	logger, buf := bufferLogger()

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeAuto}, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal || store != nil {
		t.Fatalf("expected local fallback, got mode=%s store=%v", mode, store)
	}
	if !strings.Contains(buf.String(), "code=s3_not_configured") {
		t.Fatalf("expected s3_not_configured diagnostics, got: %s", buf.String())
	}
}

func TestNewBlobStoreAutoConfigured(t *testing.T) {
	logger, _ := bufferLogger()
	cfg := appcfg.BlobConfig{
		Mode: appcfg.BlobModeAuto,
		S3: appcfg.S3Config{
			Endpoint:        "http://127.0.0.1:9000",
			Region:          "us-east-1",
			Bucket:          "tdee-reports",
			AccessKeyID:     "minio",
			SecretAccessKey: "minio123",
		},
	}
	store, mode, err := NewBlobStore(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeS3 {
		t.Fatalf("expected mode=s3, got %s", mode)
	}
	if _, ok := store.(*S3Store); !ok {
		t.Fatalf("expected *S3Store, got %T", store)
	}
}

func TestNewBlobStoreS3MissingRequiredReturnsError(t *testing.T) {
	logger, _ := bufferLogger()

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeS3,
		S3:   appcfg.S3Config{Endpoint: "https://storage.yandexcloud.net"},
	}, logger)
	if err == nil {
		t.Fatal("expected error when mode=s3 and required env are missing")
	}
	if store != nil || mode != "" {
		t.Fatalf("expected nil store and empty mode on error, got store=%v mode=%q", store, mode)
	}
	if !strings.Contains(err.Error(), "missing required config") {
		t.Fatalf("expected missing required config error, got: %v", err)
	}
}

func TestNewS3StoreIncompleteConfig(t *testing.T) {
	if _, err := NewS3Store(context.Background(), appcfg.S3Config{Endpoint: "http://x"}); err != ErrIncompleteConfig {
		t.Fatalf("expected ErrIncompleteConfig, got %v", err)
	}
}
