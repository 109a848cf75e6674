package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gifscreen/config"
	"gifscreen/display"
	"gifscreen/notify"
	"gifscreen/transcoder"
	"gifscreen/webservice"
)

//go:embed static
var staticFiles embed.FS

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	listen := flag.String("listen", "", "listen address, overrides the config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := transcoder.NewHTTPFetcher(cfg.FetchTimeout, cfg.MaxSourceBytes)
	store := display.NewStore(fetcher, cfg.DefaultMode)

	var notifier *notify.MQTTNotifier
	if cfg.MQTT.Broker != "" {
		notifier = notify.NewMQTTNotifier(cfg.MQTT, cfg.InstanceID)
		if err := notifier.Connect(); err != nil {
			slog.Warn("mqtt unavailable, continuing with polling only", "error", err)
		}
		store.Subscribe(notifier.Notify)
	}

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		slog.Error("static files", "error", err)
		os.Exit(1)
	}
	webMaster := webservice.New(cfg, store, staticFS)
	go func() {
		if err := webMaster.Serve(); err != nil {
			slog.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Gracefully closing")
	webMaster.Close()
	if notifier != nil {
		notifier.Disconnect()
	}
}
