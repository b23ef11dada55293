package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"kscal/internal/calendar"
	"kscal/internal/config"
	"kscal/internal/extract"
	"kscal/internal/googlecal"
	"kscal/internal/icsfeed"
	"kscal/internal/lexicon"
	appLog "kscal/internal/log"
	"kscal/internal/tagger"
	"kscal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	envPath    string
	cacheDir   string
}

func main() {
	appLog.Info("kscal starting", "version", "0.1.0")

	flags := parseFlags()

	// .env is optional; it typically carries GOOGLE_CLIENT_ID/SECRET.
	if err := godotenv.Load(flags.envPath); err != nil {
		appLog.Debug("no .env file loaded", "path", flags.envPath, "reason", err)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	tz, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone; falling back to local", err, "timezone", conf.Timezone)
		tz = time.Local
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", tz.String(),
		"delimiter", conf.Delimiter,
		"calendar_id", conf.CalendarID,
		"refresh", conf.RefreshCron,
		"tagger_enabled", conf.Tagger.Enabled,
		"ics_count", len(conf.ICS),
	)

	// Keyword lexicon: loaded once, immutable afterwards.
	lex := lexicon.Load(conf.LocationKeywordsPath, conf.EventKeywordsPath)

	// Optional entity tagger. Failure here is a degradation, not an exit.
	var tg tagger.Tagger
	if conf.Tagger.Enabled {
		tg, err = tagger.NewHugot(conf.Tagger.Model, conf.Tagger.ModelDir)
		if err != nil {
			appLog.Warn("entity tagger unavailable; continuing without it", "reason", err)
			tg = nil
		}
	}

	extractor := extract.New(conf.Delimiter, tz, lex, tg)

	// Google OAuth is required for reconciliation but not for extraction,
	// so a missing client secret only disables the calendar side.
	oauthCfg, err := googlecal.OAuthConfig(conf.RedirectURL)
	if err != nil {
		appLog.Warn("Google OAuth not configured; /api/register will fail until credentials are set", "reason", err)
	}

	store := googlecal.NewTokenStore()
	client := googlecal.NewClient(oauthCfg, store, googlecal.DefaultUserKey, conf.CalendarID, tz)
	reconciler := calendar.NewReconciler(client, tz)

	var feed calendar.Lister
	if len(conf.ICS) > 0 {
		sources := make([]icsfeed.Source, 0, len(conf.ICS))
		for _, src := range conf.ICS {
			if src.URL == "" {
				continue
			}
			id := src.ID
			if id == "" {
				if src.Name != "" {
					id = src.Name
				} else {
					id = src.URL
				}
			}
			sources = append(sources, icsfeed.Source{ID: id, URL: src.URL})
		}
		feed = icsfeed.New(flags.cacheDir, sources, tz)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	// Proactive token refresh so interactive requests never pay the
	// refresh round-trip.
	if oauthCfg != nil {
		c := cron.New()
		_, err := c.AddFunc(conf.RefreshCron, func() {
			if err := googlecal.Refresh(ctx, oauthCfg, store, googlecal.DefaultUserKey); err != nil {
				appLog.Warn("scheduled token refresh failed", "reason", err)
			}
		})
		if err != nil {
			appLog.Error("invalid refresh cron spec", err, "refresh", conf.RefreshCron)
		} else {
			c.Start()
			defer c.Stop()
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- web.StartServer(ctx, web.Options{
			Config:     conf,
			Timezone:   tz,
			Extractor:  extractor,
			Reconciler: reconciler,
			Client:     client,
			Feed:       feed,
			OAuth:      oauthCfg,
			Store:      store,
		})
	}()

	select {
	case err := <-serverErr:
		appLog.Error("HTTP server exited", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	// Give some time for in-flight handlers before exiting.
	time.Sleep(100 * time.Millisecond)
	appLog.Info("kscal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.envPath, "env", ".env", "Path to .env file with Google OAuth credentials")
	flag.StringVar(&cfg.cacheDir, "ics-cache", "./cache/ics-cache", "Directory for the ICS feed cache")

	flag.Parse()

	return cfg
}
