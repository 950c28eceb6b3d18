package notify

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

func build(def model.NotifierDef) (interfaces.Notifier, error) {
	format := def.Format
	if format == "" {
		format = model.RenderText
	}

	switch def.Type {
	case "slack":
		return newSlack(def.Config, format)
	case "telegram":
		return newTelegram(def.Config, format)
	case "webhook", "discord":
		conf := def.Config
		if def.Type == "discord" {
			conf = withStyle(conf, "discord")
		}
		return newWebhook(conf, format)
	default:
		return nil, goerr.New("unknown notifier type", goerr.V("type", def.Type), goerr.T(types.ErrTagConfig))
	}
}

func withStyle(conf map[string]any, style string) map[string]any {
	out := make(map[string]any, len(conf)+1)
	for k, v := range conf {
		out[k] = v
	}
	out["style"] = style
	return out
}

// BuildAll constructs every configured notifier. A notifier that fails to
// build is logged and dropped so the remaining channels still deliver; an
// unknown render format falls back to text the same way.
func BuildAll(ctx context.Context, defs []model.NotifierDef) []interfaces.Notifier {
	logger := ctxlog.From(ctx)

	notifiers := make([]interfaces.Notifier, 0, len(defs))
	for _, def := range defs {
		if def.Format != "" && !def.Format.Valid() {
			logger.Warn("unknown render format, falling back to text",
				"notifier", def.Type, "format", string(def.Format))
			def.Format = model.RenderText
		}

		n, err := build(def)
		if err != nil {
			logger.Warn("failed to build notifier, skipping",
				"notifier", def.Type, "error", err)
			continue
		}
		notifiers = append(notifiers, n)
	}
	return notifiers
}
