// Command backfill re-aggregates raw entries and replays the expenditure
// chain for one or more users, e.g. after importing history.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/adaptive-tdee/internal/checkins"
	"github.com/fdg312/adaptive-tdee/internal/config"
	"github.com/fdg312/adaptive-tdee/internal/events"
	"github.com/fdg312/adaptive-tdee/internal/logging"
	"github.com/fdg312/adaptive-tdee/internal/recalc"
	"github.com/fdg312/adaptive-tdee/internal/storage/postgres"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

func main() {
	users := flag.String("users", "", "comma-separated user IDs")
	days := flag.Int("days", 0, "lookback window in days (default BACKFILL_DAYS)")
	parallel := flag.Int("parallel", 4, "users processed concurrently")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ids, err := parseUserIDs(*users)
	if err != nil {
		log.Fatalf("backfill: %v", err)
	}
	if len(ids) == 0 {
		log.Fatalf("usage: go run ./cmd/backfill -users <uuid>[,<uuid>...] [-days N]")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("backfill: DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("backfill: connect: %v", err)
	}
	defer store.Close()

	publisher, err := events.NewPublisher(events.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic}, logger)
	if err != nil {
		log.Fatalf("backfill: publisher: %v", err)
	}
	defer publisher.Close()

	checkinsService := checkins.NewService(store, cfg.Engine.ColdStartDays).
		WithPublisher(publisher).
		WithLogger(logger)
	service := recalc.NewService(store, recalc.Config{
		ColdStartDays:  cfg.Engine.ColdStartDays,
		ActivityFactor: cfg.Engine.ActivityFactor,
		FastingPolicy:  recalc.FastingPolicy(cfg.Engine.FastingPolicy),
		BackfillDays:   cfg.Engine.BackfillDays,
		Location:       cfg.Engine.Location,
	}).
		WithCheckIns(checkinsService).
		WithPublisher(publisher).
		WithLogger(logger)
	checkinsService.WithLocker(service.UserLock())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*parallel, 1))
	for _, id := range ids {
		g.Go(func() error {
			res, err := service.Backfill(gctx, id, *days)
			if err != nil {
				logger.Error("backfill_failed", slog.String("user_id", id.String()), slog.Any("err", err))
				return err
			}
			logger.Info("backfill_user_done",
				slog.String("user_id", id.String()),
				slog.String("from", res.From),
				slog.String("to", res.To),
				slog.Int("days", res.Recompute.Days))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("backfill: %v", err)
	}
}

func parseUserIDs(raw string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
