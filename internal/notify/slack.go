package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/slack-go/slack"
)

type SlackConfig struct {
	Token   string
	Channel string
	// APIURL overrides the Slack API base URL. Empty uses the public API.
	APIURL string
}

type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackGateway mirrors broadcasts into a Slack channel. It is used for
// staging environments where pushing to real devices is not wanted.
type SlackGateway struct {
	client  slackPoster
	channel string
}

func NewSlackGateway(cfg SlackConfig) (*SlackGateway, error) {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil, fmt.Errorf("slack gateway requires a token and a channel")
	}

	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}

	return &SlackGateway{
		client:  slack.New(cfg.Token, opts...),
		channel: cfg.Channel,
	}, nil
}

func (s *SlackGateway) Send(ctx context.Context, title, body string) error {
	attachment := slack.Attachment{
		Color:  "#36a64f",
		Title:  title,
		Text:   body,
		Footer: "Hadith Console",
		Ts:     json.Number(strconv.FormatInt(time.Now().Unix(), 10)),
	}

	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(title, false),
		slack.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return fmt.Errorf("failed to send slack message: %w", err)
	}
	return nil
}
