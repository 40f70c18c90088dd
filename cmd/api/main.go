package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Kuronil/mephuongthitheo-sub000/handlers"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/auth"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/cart"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/config"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/consul"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/discounts"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/dispatch"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/email"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/notifications"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/orders"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/outbox"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/products"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/stores/kafka"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/stores/postgres"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/users"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/vnpay"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/logkey"

	"github.com/joho/godotenv"
)

const serviceName = "mephuongthitheo-api"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("service failed to start", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if cfg.IsProduction() {
		if err := cfg.MustValidate(); err != nil {
			return err
		}
	} else {
		for _, problem := range cfg.Validate() {
			slog.Warn("configuration problem", slog.String("problem", problem))
		}
	}

	db, err := postgres.OpenDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}
	slog.Info("database migrations applied")

	keys, err := auth.NewKeys(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}

	userConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	productConf, err := products.NewConf(db)
	if err != nil {
		return err
	}
	cartConf, err := cart.NewConf(db)
	if err != nil {
		return err
	}
	discountConf, err := discounts.NewConf(db)
	if err != nil {
		return err
	}
	orderConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}
	notificationConf, err := notifications.NewConf(db)
	if err != nil {
		return err
	}
	outboxConf, err := outbox.NewConf(db)
	if err != nil {
		return err
	}

	vnp, err := vnpay.NewConf(cfg.VNPay.TmnCode, cfg.VNPay.HashSecret, cfg.VNPay.PayURL, cfg.VNPay.ReturnURL)
	if err != nil {
		return err
	}

	mail := email.NewSender(cfg.SMTP)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Kafka is optional in dev; without brokers the outbox just accumulates and
	// no emails or notifications go out.
	if len(cfg.KafkaBrokers) > 0 {
		k, err := kafka.NewConf(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer k.Close()

		go outboxConf.Relay(ctx, k, 2*time.Second, 100)

		d := dispatch.NewDispatcher(k, notificationConf, userConf, mail)
		go d.Run(ctx)
		slog.Info("outbox relay and dispatcher started", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		slog.Warn("KAFKA_BROKERS not set, notifications and emails are disabled")
	}

	if cfg.ConsulAddr != "" {
		client, err := consul.NewClient(cfg.ConsulAddr)
		if err != nil {
			return err
		}
		port, err := strconv.Atoi(cfg.Port)
		if err != nil {
			return err
		}
		regID, err := consul.RegisterService(client, serviceName, hostname(), port)
		if err != nil {
			return err
		}
		defer func() {
			if err := consul.DeregisterService(client, regID); err != nil {
				slog.Error("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
			}
		}()
		slog.Info("registered with consul", slog.String("id", regID))
	} else {
		slog.Warn("CONSUL_HTTP_ADDR not set, skipping service registration")
	}

	router := handlers.API(handlers.Deps{
		Keys:          keys,
		Users:         userConf,
		Products:      productConf,
		Cart:          cartConf,
		Discounts:     discountConf,
		Orders:        orderConf,
		Notifications: notificationConf,
		Outbox:        outboxConf,
		VNPay:         vnp,
		Mail:          mail,
		AppURL:        cfg.AppURL,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("starting http server", slog.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return err
		}
	}
	return nil
}

func hostname() string {
	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return host
}
