package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"telegram-post-guard/internal/config"
	"telegram-post-guard/internal/drafts"
	"telegram-post-guard/internal/handlers"
	"telegram-post-guard/internal/logger"
	"telegram-post-guard/internal/moderation"
	"telegram-post-guard/internal/scheduler"
	"telegram-post-guard/internal/server"
	"telegram-post-guard/internal/storage"
	"telegram-post-guard/internal/telegram"
	"telegram-post-guard/internal/utils"
)

var allowedUpdates = []string{"message", "callback_query", "chat_member"}

type ledger interface {
	moderation.Ledger
	io.Closer
}

func openLedger(cfg config.Config) (ledger, error) {
	if cfg.RedisURL != "" {
		return storage.NewRedisLedger(cfg.RedisURL)
	}
	return storage.New(cfg.DBName)
}

func main() {
	cfg, err := config.Load()
	utils.Must(logrus.StandardLogger(), err, "load config")

	log := logger.New(cfg.LogLevel)

	warns, err := openLedger(cfg)
	utils.Must(log, err, "open warn ledger")
	defer warns.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	utils.Must(log, err, "connect to telegram")
	log.WithField("username", bot.Self.UserName).Info("authorized")

	sched, err := scheduler.New(telegram.NewPublisher(bot), scheduler.WithLogger(logger.Component(log, "scheduler")))
	utils.Must(log, err, "create scheduler")
	sched.Start()

	oracle := telegram.NewOracle(bot, cfg.AdminCacheTTL)
	h := &handlers.Handler{
		Bot:    bot,
		Drafts: drafts.New(sched, drafts.WithLocation(cfg.Location())),
		Mod: moderation.New(warns, oracle, telegram.NewActions(bot),
			moderation.WithThreshold(cfg.WarnThreshold),
			moderation.WithLogger(logger.Component(log, "moderation"))),
		Oracle: oracle,
		Cfg:    cfg,
		Log:    logger.Component(log, "handlers"),
	}
	dispatcher := handlers.NewDispatcher(h.HandleUpdate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	webhookPath := ""
	if cfg.Webhook() {
		webhookPath = cfg.WebhookPath
	}
	srv := server.New(cfg.Port, webhookPath, cfg.WebhookSecret, dispatcher.Dispatch, logger.Component(log, "http"))
	srv.Start()

	if cfg.Webhook() {
		params := tgbotapi.Params{"url": cfg.WebhookURL()}
		params.AddNonEmpty("secret_token", cfg.WebhookSecret)
		utils.Must(log, params.AddInterface("allowed_updates", allowedUpdates), "encode allowed updates")
		_, err = bot.MakeRequest("setWebhook", params)
		utils.Must(log, err, "set webhook")
		log.WithField("url", cfg.WebhookURL()).Info("webhook registered")
		<-ctx.Done()
	} else {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			log.WithError(err).Warn("delete webhook failed")
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		u.AllowedUpdates = allowedUpdates
		updates := bot.GetUpdatesChan(u)
		log.Info("long polling started")

		go func() {
			<-ctx.Done()
			bot.StopReceivingUpdates()
		}()
		dispatcher.Run(ctx, updates)
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	dispatcher.Wait()
	if err := sched.Shutdown(); err != nil {
		log.WithError(err).Warn("scheduler shutdown")
	}
}
