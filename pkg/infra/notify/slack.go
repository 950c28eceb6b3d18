// Package notify implements the notification channels that deliver rendered
// release messages.
package notify

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// slackNotifier posts to Slack either through an incoming webhook or the Web
// API. Webhook mode cannot carry attachments; file uploads need a bot token
// and channel.
type slackNotifier struct {
	webhookURL string
	client     *slack.Client
	channel    string
	format     model.RenderFormat
}

func newSlack(conf map[string]any, format model.RenderFormat) (interfaces.Notifier, error) {
	n := &slackNotifier{format: format}

	if u, ok := conf["webhook_url"].(string); ok && u != "" {
		n.webhookURL = u
		return n, nil
	}

	token, _ := conf["token"].(string)
	channel, _ := conf["channel"].(string)
	if token == "" || channel == "" {
		return nil, goerr.New("slack notifier requires webhook_url, or token and channel",
			goerr.T(types.ErrTagConfig))
	}
	n.client = slack.New(token)
	n.channel = channel
	return n, nil
}

func (n *slackNotifier) Name() string               { return "slack" }
func (n *slackNotifier) Format() model.RenderFormat { return n.format }

func (n *slackNotifier) Send(ctx context.Context, msg model.Message) error {
	if n.webhookURL != "" {
		err := slack.PostWebhookContext(ctx, n.webhookURL, &slack.WebhookMessage{
			Text: msg.Title + "\n" + msg.Body,
		})
		if err != nil {
			return goerr.Wrap(err, "failed to post Slack webhook", goerr.T(types.ErrTagNotify))
		}
		return nil
	}

	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(msg.Title+"\n"+msg.Body, false))
	if err != nil {
		return goerr.Wrap(err, "failed to post Slack message",
			goerr.V("channel", n.channel), goerr.T(types.ErrTagNotify))
	}

	for _, path := range msg.Attachments {
		if err := n.upload(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func (n *slackNotifier) upload(ctx context.Context, path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return goerr.Wrap(err, "attachment not readable", goerr.V("path", path), goerr.T(types.ErrTagNotify))
	}

	_, err = n.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		File:     path,
		Filename: filepath.Base(path),
		FileSize: int(st.Size()),
		Channel:  n.channel,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to upload attachment to Slack",
			goerr.V("path", path), goerr.T(types.ErrTagNotify))
	}
	return nil
}
