// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/slotwatch/internal/config"
	"github.com/hamed0406/slotwatch/internal/repo/postgres"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()

	locs, err := config.LoadLocations(cfg.LocationsFile, cfg.AlertLocations)
	if err != nil {
		fail(err.Error())
	}
	var alerting []string
	for _, l := range locs {
		if l.Alert {
			alerting = append(alerting, string(l.Code))
		}
	}
	ok(fmt.Sprintf("%s: %d locations", cfg.LocationsFile, len(locs)))
	if len(alerting) == 0 {
		warn("no location has alerts on; slotwatch will only log.")
	} else {
		ok("alerting: " + strings.Join(alerting, ","))
	}

	for name, raw := range map[string]string{"NTFY_BASE_URL": cfg.NtfyBaseURL, "AVAILABILITY_URL": cfg.AvailabilityURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fail(name + " is not an http(s) URL: " + raw)
		}
	}
	ok("ntfy topics: " + cfg.NtfyBaseURL + "/" + cfg.NtfyTopicPrefix + "{CODE}")

	if cfg.SlackWebhook == "" {
		warn("SLACK_WEBHOOK_URL empty; ntfy only.")
	} else {
		ok("Slack mirror on")
	}

	if cfg.Addr == "off" {
		ok("status API disabled")
	} else {
		ok("API_ADDR=" + cfg.Addr)
		if len(cfg.AdminAPIKeys) == 0 {
			warn("ADMIN_API_KEYS is empty; /api/notifications is open.")
		}
		if len(cfg.PublicAPIKeys) == 0 && len(cfg.AdminAPIKeys) == 0 {
			warn("no API keys set; the status API is open to anyone who can reach it.")
		}
		for name, v := range map[string]string{"ADMIN_API_KEYS": os.Getenv("ADMIN_API_KEYS"), "PUBLIC_API_KEYS": os.Getenv("PUBLIC_API_KEYS")} {
			if strings.Contains(v, " ") {
				warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
			}
		}
	}

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty; the poll log goes to " + cfg.PollLogFile + " only.")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, err := postgres.New(ctx, cfg.DatabaseURL, zap.NewNop())
		if err != nil {
			fail("DATABASE_URL: " + err.Error())
		}
		defer pg.Close()
		since := time.Now().Add(-24 * time.Hour)
		for _, l := range locs {
			n, err := pg.CountSince(ctx, l.Code, since)
			if err != nil {
				warn("poll_log not readable (run slotwatch once to create it): " + err.Error())
				break
			}
			ok(fmt.Sprintf("poll_log %s: %d polls in the last 24h", l.Code, n))
		}
	}

	ok("preflight passed")
}
