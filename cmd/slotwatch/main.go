package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/slotwatch/internal/config"
	"github.com/hamed0406/slotwatch/internal/httpapi"
	apimw "github.com/hamed0406/slotwatch/internal/httpapi/middleware"
	"github.com/hamed0406/slotwatch/internal/logging"
	"github.com/hamed0406/slotwatch/internal/notify"
	"github.com/hamed0406/slotwatch/internal/probe"
	"github.com/hamed0406/slotwatch/internal/repo"
	"github.com/hamed0406/slotwatch/internal/repo/filelog"
	"github.com/hamed0406/slotwatch/internal/repo/memory"
	"github.com/hamed0406/slotwatch/internal/repo/postgres"
	"github.com/hamed0406/slotwatch/internal/scheduler"
	"github.com/hamed0406/slotwatch/internal/tracker"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Console: cfg.LogConsole})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	locations, err := config.LoadLocations(cfg.LocationsFile, cfg.AlertLocations)
	if err != nil {
		logger.Error("config_error", zap.String("file", cfg.LocationsFile), zap.Error(err))
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stores
	store := memory.New()
	pollFile, err := filelog.Open(cfg.PollLogFile)
	if err != nil {
		log.Fatal(err)
	}
	defer pollFile.Close()
	pollLog := repo.MultiLog{store, pollFile}

	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal(err)
		}
		pollLog = append(pollLog, pg)
	}

	// notifications: ntfy decides Sent/Failed, Slack only mirrors
	var transport notify.Notifier = notify.NewNtfy(cfg.NtfyBaseURL, cfg.NtfyTopicPrefix, cfg.NotifyTimeout)
	if slack := notify.NewSlack(cfg.SlackWebhook, cfg.NotifyTimeout); slack != nil {
		transport = notify.Multi{transport, notify.BestEffort{Notifier: slack, Logger: logger, Name: "slack"}}
	}
	gate := notify.NewGate(logger, transport, notify.GateConfig{
		RepeatCap: cfg.RepeatCap,
		Timeout:   cfg.NotifyTimeout,
	})

	trk := tracker.New(logger, store, gate, tracker.Config{
		Horizon:          time.Duration(cfg.HorizonDays) * 24 * time.Hour,
		ReminderInterval: cfg.ReminderInterval,
	})

	fetcher := &probe.RetryFetcher{
		Inner:    probe.NewAvailabilityClient(cfg.AvailabilityURL, cfg.PollTimeout),
		Attempts: cfg.RetryAttempts,
		Backoff:  cfg.RetryBackoff,
	}
	poller := scheduler.NewPoller(logger, locations, fetcher, trk, pollLog, scheduler.PollerConfig{
		Period:   cfg.PollPeriod,
		Timeout:  cfg.PollTimeout,
		Parallel: cfg.ParallelPolls,
	})

	alerting := 0
	for _, l := range locations {
		if l.Alert {
			alerting++
		}
	}
	logger.Info("slotwatch_start",
		zap.Int("locations", len(locations)),
		zap.Int("alerting", alerting),
		zap.String("ntfy", cfg.NtfyBaseURL),
		zap.Bool("slack", cfg.SlackWebhook != ""),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
	)

	var srv *http.Server
	if cfg.Addr != "off" {
		api := httpapi.NewServer(logger, locations, store, store, gate)
		keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
		srv = &http.Server{
			Addr:              cfg.Addr,
			Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("api_listen", zap.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("api_error", zap.Error(err))
				stop()
			}
		}()
	}

	poller.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	logger.Info("slotwatch_stop", zap.Int("sent_last_24h", gate.SentLast24h()))
}
