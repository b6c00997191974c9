package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"fbcal/internal/config"
	"fbcal/internal/export"
	"fbcal/internal/feed"
	"fbcal/internal/ics"
	appLog "fbcal/internal/log"
	"fbcal/internal/model"
	"fbcal/internal/timezone"
	"fbcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	tz         string
}

func main() {
	appLog.Info("fbcal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"feed_url", conf.FeedURL != "",
		"timezone", conf.Timezone,
		"view_timezone", conf.ViewTimezone,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"ics_count", len(conf.ICS),
		"once", flags.once,
	)

	svc := timezone.NewService()
	client := feed.NewClient(conf.CacheDir)
	store := feed.NewStore(client, svc, conf.FeedURL, legacyFromConfig(conf))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		os.Exit(runOnce(ctx, conf, svc, store, flags.tz))
	}

	go store.Run(ctx)

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, store.Refresh); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           web.NewServer(conf, store, svc).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}
	appLog.Info("fbcal exiting")
}

// runOnce refreshes once and prints the availability digest to stdout.
func runOnce(ctx context.Context, conf *config.Config, svc *timezone.Service, store *feed.Store, tz string) int {
	if err := store.RefreshNow(ctx); err != nil {
		appLog.Error("refresh failed", err)
		return 1
	}

	state := store.Current()
	if state.Snapshot == nil || state.Result.Kind != feed.ResultOk {
		msg := state.Result.Message
		if msg == "" {
			msg = feed.UnavailableMessage
		}
		fmt.Fprintln(os.Stderr, msg)
		return 1
	}
	snap := state.Snapshot

	viewerZone := conf.ViewTimezone
	if tz != "" && model.IsSupportedViewZone(tz) {
		viewerZone = tz
	}

	var window *export.Window
	if snap.Window != nil {
		window = &export.Window{
			StartDate:        snap.Window.StartDate,
			EndDateInclusive: snap.Window.EndDateInclusive,
		}
	}

	fmt.Print(export.BuildText(svc, export.Args{
		Days:        snap.Days,
		Busy:        snap.Busy,
		Weekly:      snap.Weekly,
		OwnerZone:   snap.OwnerZone,
		ViewerZone:  viewerZone,
		Window:      window,
		GeneratedAt: snap.GeneratedAt,
	}))
	return 0
}

func legacyFromConfig(conf *config.Config) *feed.LegacyICS {
	if conf.FeedURL != "" || len(conf.ICS) == 0 {
		return nil
	}
	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, src := range conf.ICS {
		if src.URL == "" {
			continue
		}
		id := src.ID
		if id == "" {
			id = src.URL
		}
		sources = append(sources, ics.Source{ID: id, URL: src.URL})
	}
	return &feed.LegacyICS{
		Sources:      sources,
		OwnerZone:    conf.Timezone,
		WeekStartDay: conf.WeekStartDay,
		HorizonDays:  conf.HorizonDays,
		Weekly:       conf.WeeklyRules(),
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Refresh once, print the availability digest, and exit")
	flag.StringVar(&cfg.tz, "tz", "", "Viewer timezone for -once output (must be a supported zone)")

	flag.Parse()

	return cfg
}
