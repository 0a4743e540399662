package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pershin-daniil/CalendarProxy/internal/calendar"
	"github.com/pershin-daniil/CalendarProxy/internal/config"
	"github.com/pershin-daniil/CalendarProxy/internal/rest"
	"github.com/pershin-daniil/CalendarProxy/pkg/logger"
	"github.com/pershin-daniil/CalendarProxy/pkg/metrics"
	"github.com/pershin-daniil/CalendarProxy/pkg/service"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Panic(err)
	}
	log.WithFields(logrus.Fields{
		"listen":          cfg.ListenAddr,
		"metrics":         cfg.MetricsAddr,
		"time_zone":       cfg.TimeZone,
		"calendars":       len(cfg.CalendarIDs),
		"api_key_set":     cfg.APIKey != "",
		"fetch_timeout":   cfg.FetchTimeout,
		"request_timeout": cfg.RequestTimeout,
	}).Info("effective config")
	if _, err = time.LoadLocation(cfg.TimeZone); err != nil {
		log.Warnf("time zone %q is unknown locally, passing it upstream as is", cfg.TimeZone)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var opts []calendar.Option
	if cfg.Endpoint != "" {
		opts = append(opts, calendar.WithEndpoint(cfg.Endpoint))
	}
	fetcher, err := calendar.New(ctx, log, cfg.APIKey, opts...)
	if err != nil {
		log.Panic(err)
	}
	app := service.NewCalendarService(log, fetcher, service.Options{
		APIKey:       cfg.APIKey,
		CalendarIDs:  cfg.CalendarIDs,
		TimeZone:     cfg.TimeZone,
		FetchTimeout: cfg.FetchTimeout,
	})
	server := rest.New(log, app, cfg.ListenAddr, version, rest.Timeouts{
		Request:  cfg.RequestTimeout,
		Shutdown: cfg.ShutdownTimeout,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
		<-sigCh
		log.Info("Received signal, shutting down...")
		cancel()
	}()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := metrics.Run(ctx, log, cfg.MetricsAddr); err != nil {
			log.Errorf("metrics server failed: %v", err)
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Run(ctx); err != nil {
			log.Errorf("server failed: %v", err)
			cancel()
		}
	}()
	wg.Wait()
	log.Info("Server stopped")
}
