package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FirebaseConfig selects service account credentials. Inline JSON wins over a
// file path; with neither, Application Default Credentials are used.
type FirebaseConfig struct {
	CredentialsJSON string
	CredentialsPath string
}

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMGateway publishes to a Firebase Cloud Messaging topic. The messaging
// client is created on the first send; a failed attempt is retried on the
// next one.
type FCMGateway struct {
	newClient func(ctx context.Context) (messagingClient, error)
	topic     string
	logger    *zap.Logger

	mu     sync.Mutex
	client messagingClient
}

func NewFCMGateway(cfg FirebaseConfig, topic string, logger *zap.Logger) *FCMGateway {
	return &FCMGateway{
		newClient: func(ctx context.Context) (messagingClient, error) {
			app, err := newFirebaseApp(ctx, cfg, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize firebase: %w", err)
			}
			client, err := app.Messaging(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to create messaging client: %w", err)
			}
			return client, nil
		},
		topic:  topic,
		logger: logger,
	}
}

func (g *FCMGateway) messaging(ctx context.Context) (messagingClient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	// The client outlives the request that created it.
	client, err := g.newClient(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}
	g.client = client
	g.logger.Info("firebase messaging initialized")
	return client, nil
}

// newFirebaseApp tries each credential source in turn; a broken source is
// logged and the next one is tried.
func newFirebaseApp(ctx context.Context, cfg FirebaseConfig, logger *zap.Logger) (*firebase.App, error) {
	if cfg.CredentialsJSON != "" {
		app, err := appFromJSON(ctx, []byte(cfg.CredentialsJSON))
		if err == nil {
			return app, nil
		}
		logger.Error("failed to use FIREBASE_SERVICE_ACCOUNT_JSON", zap.Error(err))
	}

	if cfg.CredentialsPath != "" {
		data, err := os.ReadFile(cfg.CredentialsPath)
		if err == nil {
			var app *firebase.App
			if app, err = appFromJSON(ctx, data); err == nil {
				return app, nil
			}
		}
		logger.Error("failed to load firebase service account file",
			zap.String("path", cfg.CredentialsPath),
			zap.Error(err),
		)
	}

	return firebase.NewApp(ctx, nil)
}

func appFromJSON(ctx context.Context, data []byte) (*firebase.App, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("service account is not valid JSON")
	}
	return firebase.NewApp(ctx, nil, option.WithCredentialsJSON(data))
}

func (g *FCMGateway) Send(ctx context.Context, title, body string) error {
	client, err := g.messaging(ctx)
	if err != nil {
		return err
	}

	id, err := client.Send(ctx, buildMessage(g.topic, title, body))
	if err != nil {
		return fmt.Errorf("fcm send to topic %q: %w", g.topic, err)
	}
	g.logger.Info("notification sent to topic",
		zap.String("topic", g.topic),
		zap.String("message_id", id),
	)
	return nil
}

func buildMessage(topic, title, body string) *messaging.Message {
	badge := 1
	return &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: &badge,
				},
			},
		},
	}
}
