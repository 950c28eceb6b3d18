package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// webhookNotifier POSTs the rendered message as JSON to an arbitrary
// endpoint. The "discord" style wraps the body in the payload shape Discord
// webhooks expect. Attachments are not carried.
type webhookNotifier struct {
	url    string
	style  string
	header map[string]string
	format model.RenderFormat
	client *http.Client
}

func newWebhook(conf map[string]any, format model.RenderFormat) (interfaces.Notifier, error) {
	u, _ := conf["url"].(string)
	if u == "" {
		return nil, goerr.New("webhook notifier requires url", goerr.T(types.ErrTagConfig))
	}
	style, _ := conf["style"].(string)

	header := map[string]string{}
	if hs, ok := conf["headers"].(map[string]any); ok {
		for k, v := range hs {
			if s, ok := v.(string); ok {
				header[k] = s
			}
		}
	}

	return &webhookNotifier{
		url:    u,
		style:  style,
		header: header,
		format: format,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (n *webhookNotifier) Name() string               { return "webhook" }
func (n *webhookNotifier) Format() model.RenderFormat { return n.format }

func (n *webhookNotifier) Send(ctx context.Context, msg model.Message) error {
	var payload any
	switch n.style {
	case "discord":
		payload = map[string]string{"content": msg.Title + "\n" + msg.Body}
	default:
		payload = map[string]string{"title": msg.Title, "body": msg.Body}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return goerr.Wrap(err, "failed to encode webhook payload", goerr.T(types.ErrTagNotify))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(raw))
	if err != nil {
		return goerr.Wrap(err, "failed to build webhook request", goerr.T(types.ErrTagNotify))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range n.header {
		req.Header.Set(k, v)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to post webhook", goerr.V("url", n.url), goerr.T(types.ErrTagNotify))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return goerr.New("webhook endpoint rejected message",
			goerr.V("url", n.url), goerr.V("status", resp.StatusCode), goerr.T(types.ErrTagNotify))
	}
	return nil
}
