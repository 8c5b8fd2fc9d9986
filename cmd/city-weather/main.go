package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/city-weather/internal/api/http"
	"github.com/i474232898/city-weather/internal/bot"
	"github.com/i474232898/city-weather/internal/config"
	"github.com/i474232898/city-weather/internal/history"
	"github.com/i474232898/city-weather/internal/scheduler"
	"github.com/i474232898/city-weather/internal/screen"
	"github.com/i474232898/city-weather/internal/store"
	"github.com/i474232898/city-weather/internal/weather"
	"github.com/i474232898/city-weather/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.OpenWeatherAPIKey == "" {
		log.Printf("warning: OPENWEATHER_API_KEY is not set, every lookup will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	kv, err := store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		Path:        cfg.StorePath,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer kv.Close()
	log.Printf("INFO: history persisted in %s store", cfg.StoreBackend)

	hist := history.New(kv, cfg.HistoryLimit)

	provider := providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherConfig{
		APIKey:  cfg.OpenWeatherAPIKey,
		BaseURL: cfg.OpenWeatherBaseURL,
		Units:   cfg.Units,
		Lang:    cfg.Lang,
		Breaker: providers.BreakerConfig{MaxFailures: cfg.BreakerMaxFailures},
	})

	// Every successful lookup is recorded in the history.
	service := weather.NewService(provider, hist)

	result := screen.NewResult(service, cfg.HTTPTimeout+5*time.Second)
	historyView := screen.NewHistory(hist)

	// Keeps the displayed reading fresh.
	sched := scheduler.New(cfg.RefreshInterval, result)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	if cfg.TelegramToken != "" {
		b, err := bot.NewTelegramBot(cfg.TelegramToken, cfg.TelegramDebug, service, hist)
		if err != nil {
			log.Fatalf("failed to start telegram bot: %v", err)
		}
		go b.Run(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:               "city-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "city-weather",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Weather: service,
		Result:  result,
		History: historyView,
	})

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
