package notify

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	tele "gopkg.in/telebot.v4"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

// telegramNotifier delivers messages and file attachments to a Telegram chat
// through the Bot API.
type telegramNotifier struct {
	bot    *tele.Bot
	chat   *tele.Chat
	format model.RenderFormat
}

func newTelegram(conf map[string]any, format model.RenderFormat) (interfaces.Notifier, error) {
	token, _ := conf["token"].(string)
	if token == "" {
		return nil, goerr.New("telegram notifier requires token", goerr.T(types.ErrTagConfig))
	}
	chatID, ok := intConf(conf["chat_id"])
	if !ok {
		return nil, goerr.New("telegram notifier requires chat_id", goerr.T(types.ErrTagConfig))
	}

	// Offline skips the getMe call, so construction never touches the
	// network. Send failures surface on delivery instead.
	bot, err := tele.NewBot(tele.Settings{Token: token, Offline: true})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Telegram bot", goerr.T(types.ErrTagAdapterBuild))
	}

	return &telegramNotifier{
		bot:    bot,
		chat:   &tele.Chat{ID: chatID},
		format: format,
	}, nil
}

func intConf(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func (n *telegramNotifier) Name() string               { return "telegram" }
func (n *telegramNotifier) Format() model.RenderFormat { return n.format }

func (n *telegramNotifier) parseMode() tele.ParseMode {
	switch n.format {
	case model.RenderMarkdown:
		return tele.ModeMarkdown
	case model.RenderHTML:
		return tele.ModeHTML
	default:
		return tele.ModeDefault
	}
}

func (n *telegramNotifier) Send(_ context.Context, msg model.Message) error {
	opts := &tele.SendOptions{ParseMode: n.parseMode()}

	if _, err := n.bot.Send(n.chat, msg.Title+"\n"+msg.Body, opts); err != nil {
		return goerr.Wrap(err, "failed to send Telegram message",
			goerr.V("chat_id", n.chat.ID), goerr.T(types.ErrTagNotify))
	}

	for _, path := range msg.Attachments {
		doc := &tele.Document{File: tele.FromDisk(path)}
		if _, err := n.bot.Send(n.chat, doc); err != nil {
			return goerr.Wrap(err, "failed to send Telegram attachment",
				goerr.V("path", path), goerr.T(types.ErrTagNotify))
		}
	}
	return nil
}
