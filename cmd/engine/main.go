package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"student_outreach_engine/internal/app"
	"student_outreach_engine/internal/domain/channel"
	"student_outreach_engine/internal/domain/dispatch"
	"student_outreach_engine/internal/infra/config"
	idb "student_outreach_engine/internal/infra/database"
	"student_outreach_engine/internal/infra/email"
	"student_outreach_engine/internal/infra/httpapi"
	"student_outreach_engine/internal/infra/logger"
	"student_outreach_engine/internal/infra/scheduler"
	"student_outreach_engine/internal/infra/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logg := logger.New(cfg.LogLevel, cfg.AppEnv)
	logg.WithField("environment", cfg.AppEnv).Info("student outreach engine starting")

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		logg.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	logg.Info("database connection established")

	recipientRepo := idb.NewPostgresRecipientRepository(db)
	campaignRepo := idb.NewPostgresCampaignRepository(db)
	templateRepo := idb.NewPostgresTemplateRepository(db)
	calendarRepo := idb.NewPostgresCalendarRepository(db)
	dispatchRepo := idb.NewPostgresDispatchRepository(db)
	auditRepo := idb.NewPostgresAuditRepository(db)

	// Channel senders are swapped by configuration: unconfigured channels
	// fall back to the no-op sender so dev environments run without any
	// provider credentials.
	senders := make(map[dispatch.Channel]channel.Sender)
	if cfg.SMTPHost != "" {
		emailSender, err := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
		if err != nil {
			logg.Fatalf("FATAL: Could not create email sender: %v", err)
		}
		senders[dispatch.ChannelEmail] = emailSender
		logg.Info("email sender configured (SMTP)")
	} else {
		senders[dispatch.ChannelEmail] = channel.NewNoopSender()
		logg.Warn("SMTP not configured; email channel uses the no-op sender")
	}
	if cfg.TelegramToken != "" {
		chatSender, err := telegram.NewSender(cfg.TelegramToken)
		if err != nil {
			logg.Fatalf("FATAL: Could not create chat sender: %v", err)
		}
		senders[dispatch.ChannelChat] = chatSender
		logg.Info("chat sender configured (Telegram)")
	} else {
		senders[dispatch.ChannelChat] = channel.NewNoopSender()
		logg.Warn("Telegram not configured; chat channel uses the no-op sender")
	}

	env := app.Environment{
		Production: cfg.IsProduction(),
		TestDestinations: map[dispatch.Channel]string{
			dispatch.ChannelEmail: cfg.MailRedirectTo,
		},
	}
	if cfg.ChatTestChatID != 0 {
		env.TestDestinations[dispatch.ChannelChat] = strconv.FormatInt(cfg.ChatTestChatID, 10)
	}

	window, err := app.NewSendWindow(cfg.SendWindowStartHour, cfg.SendWindowEndHour, cfg.Location())
	if err != nil {
		logg.Fatalf("FATAL: Invalid sending window: %v", err)
	}
	limiter, err := app.NewRateLimiter(dispatchRepo, cfg.RateLimitCap, cfg.RateLimitUnit)
	if err != nil {
		logg.Fatalf("FATAL: Invalid rate limit configuration: %v", err)
	}

	renderer := app.NewRenderer(cfg.BaseURL, cfg.UnsubscribeSecret, cfg.ChatFriendAddURL)
	matcher := app.NewMatcher(recipientRepo, campaignRepo, calendarRepo)
	guard := app.NewDispatchGuard(dispatchRepo)
	dispatcher := app.NewDispatcher(
		recipientRepo, campaignRepo, templateRepo, dispatchRepo, auditRepo,
		renderer, senders, env, cfg.SendTimeout, logg,
	)
	engine := app.NewEngine(matcher, guard, window, limiter, dispatcher, templateRepo, dispatchRepo, auditRepo, logg)

	tickScheduler := scheduler.NewTickScheduler(engine, cfg.TickInterval, cfg.Location(), logg)
	if err := tickScheduler.Start(); err != nil {
		logg.Fatalf("FATAL: Could not start tick scheduler: %v", err)
	}

	unsubService := app.NewUnsubscribeService(recipientRepo, auditRepo, cfg.UnsubscribeSecret, logg)
	apiServer := httpapi.NewServer(engine, dispatchRepo, campaignRepo, unsubService, logg)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logg.WithField("addr", cfg.HTTPAddr).Info("operator HTTP surface listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatalf("FATAL: HTTP server failed: %v", err)
		}
	}()

	logg.Info("application setup complete; engine is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down...")
	tickScheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.WithError(err).Error("HTTP server shutdown failed")
	}
	logg.Info("application shut down gracefully")
}
