package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/discount-club/internal/config"
	"github.com/magabrotheeeer/discount-club/internal/lib/smtp"
	"github.com/magabrotheeeer/discount-club/internal/rabbitmq"
	"github.com/magabrotheeeer/discount-club/internal/services/sender"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting notification-sender", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		logger.Error("failed to setup rabbitmq channel", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() { _ = ch.Close() }()

	transport := smtp.NewTransport(cfg, logger)
	senderService := sender.NewSenderService(transport, logger)

	if err := rabbitmq.Consume(ctx, ch, rabbitmq.ActivationQueue,
		senderService.SendActivationEmail, logger); err != nil && ctx.Err() == nil {
		logger.Error("consumer stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}
