package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hadithconsole/internal/api"
	"github.com/hadithconsole/internal/auth"
	"github.com/hadithconsole/internal/config"
	"github.com/hadithconsole/internal/content"
	"github.com/hadithconsole/internal/database"
	"github.com/hadithconsole/internal/jobs"
	"github.com/hadithconsole/internal/logging"
	"github.com/hadithconsole/internal/models"
	"github.com/hadithconsole/internal/notify"
	"github.com/hadithconsole/internal/store"
	"github.com/hadithconsole/internal/store/jsonfile"
	"github.com/hadithconsole/internal/store/sqlstore"
)

const shutdownTimeout = 15 * time.Second

type stores struct {
	notifications store.NotificationStore
	hadiths       store.HadithStore
	cronLogs      store.AuditLog
	close         func() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Development(), cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	for _, w := range cfg.Normalize() {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Warn("failed to close storage", zap.Error(err))
		}
	}()
	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	gateway, err := notify.NewGateway(ctx, notify.Config{
		Driver: cfg.Delivery.Driver,
		Topic:  cfg.Delivery.Topic,
		Firebase: notify.FirebaseConfig{
			CredentialsJSON: cfg.Delivery.Firebase.CredentialsJSON,
			CredentialsPath: cfg.Delivery.Firebase.CredentialsPath,
		},
		Slack: notify.SlackConfig{
			Token:   cfg.Delivery.Slack.Token,
			Channel: cfg.Delivery.Slack.Channel,
		},
	}, logger.Named("notify"))
	if err != nil {
		return fmt.Errorf("failed to initialize delivery: %w", err)
	}

	admin, err := models.NewAdmin(cfg.Auth.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	resolver := jobs.NewResolver(jobs.SystemClock{}, cfg.Cron.Timezone, logger)
	processor := jobs.NewProcessor(st.notifications, st.hadiths, st.cronLogs, gateway, resolver, jobs.ProcessorConfig{
		Policy: jobs.Policy{
			Cooldown:       cfg.Cron.Cooldown,
			ScheduledGrace: cfg.Cron.ScheduledGrace,
			HadithSendTime: cfg.Cron.HadithSendTime,
		},
		HadithTitle: cfg.Cron.HadithTitle,
	}, logger.Named("cron"))

	schedOpts := []jobs.SchedulerOption{
		jobs.WithInterval(cfg.Cron.Interval),
		jobs.WithBootDelay(cfg.Cron.BootDelay),
	}
	emailCfg := notify.EmailConfig{
		SMTPHost:  cfg.Alert.Email.SMTPHost,
		SMTPPort:  cfg.Alert.Email.SMTPPort,
		From:      cfg.Alert.Email.From,
		Password:  cfg.Alert.Email.Password,
		Receivers: cfg.Alert.Email.ToReceivers,
	}
	if emailCfg.Enabled() {
		schedOpts = append(schedOpts, jobs.WithFailureReporter(notify.NewEmailReporter(emailCfg)))
	}
	scheduler := jobs.NewScheduler(processor, logger.Named("scheduler"), schedOpts...)

	server := api.NewServer(api.Options{
		Notifications: content.NewNotificationManager(st.notifications, gateway, logger.Named("content")),
		Hadiths:       content.NewHadithManager(st.hadiths),
		CronLogs:      st.cronLogs,
		Scheduler:     scheduler,
		Sessions:      auth.NewSessions(cfg.Auth.JWTSecret, admin),
		CronAuth:      auth.NewCronAuthorizer(cfg.Cron.Secret, cfg.Development()),
		SecureCookies: !cfg.Development(),
		Logger:        logger.Named("api"),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(cfg.Server.Port)
	})

	g.Go(func() error {
		scheduler.Start(gctx)
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		scheduler.Stop(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("hadith console stopped")
	return nil
}

func openStores(cfg *config.Config) (*stores, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		if err := database.Initialize(cfg.Database.Path, sqlstore.Models()...); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db := database.GetDB()
		return &stores{
			notifications: sqlstore.NewNotifications(db),
			hadiths:       sqlstore.NewHadiths(db),
			cronLogs:      sqlstore.NewCronLogs(db),
			close:         database.Close,
		}, nil
	default:
		dir := cfg.Storage.DataDir
		return &stores{
			notifications: jsonfile.NewNotifications(dir),
			hadiths:       jsonfile.NewHadiths(dir),
			cronLogs:      jsonfile.NewCronLogs(dir),
			close:         func() error { return nil },
		}, nil
	}
}
