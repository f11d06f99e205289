// Package notify holds the push delivery gateways and the operator failure
// reporter.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	DriverFCM   = "fcm"
	DriverSlack = "slack"
	DriverLog   = "log"
)

// DefaultTopic is the broadcast topic every app install subscribes to.
const DefaultTopic = "all"

// Gateway sends one message to the broadcast topic.
type Gateway interface {
	Send(ctx context.Context, title, body string) error
}

type Config struct {
	Driver   string
	Topic    string
	Firebase FirebaseConfig
	Slack    SlackConfig
}

// NewGateway builds the gateway selected by cfg.Driver.
func NewGateway(ctx context.Context, cfg Config, logger *zap.Logger) (Gateway, error) {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}

	switch cfg.Driver {
	case DriverFCM, "":
		return NewFCMGateway(cfg.Firebase, cfg.Topic, logger), nil
	case DriverSlack:
		g, err := NewSlackGateway(cfg.Slack)
		if err != nil {
			return nil, err
		}
		return g, nil
	case DriverLog:
		return NewLogGateway(cfg.Topic, logger), nil
	default:
		return nil, fmt.Errorf("unknown delivery driver %q", cfg.Driver)
	}
}

// LogGateway only logs messages. It is meant for local development.
type LogGateway struct {
	topic  string
	logger *zap.Logger
}

func NewLogGateway(topic string, logger *zap.Logger) *LogGateway {
	return &LogGateway{topic: topic, logger: logger}
}

func (g *LogGateway) Send(_ context.Context, title, body string) error {
	g.logger.Info("push message (log driver)",
		zap.String("topic", g.topic),
		zap.String("title", title),
		zap.String("body", body),
	)
	return nil
}
