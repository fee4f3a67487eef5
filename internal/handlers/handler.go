package handlers

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"telegram-post-guard/internal/config"
	"telegram-post-guard/internal/drafts"
	"telegram-post-guard/internal/metrics"
	"telegram-post-guard/internal/moderation"
	"telegram-post-guard/internal/telegram"
)

const actionTimeout = 15 * time.Second

type Handler struct {
	Bot    telegram.Bot
	Drafts *drafts.Builder
	Mod    *moderation.Engine
	Oracle moderation.Oracle
	Cfg    config.Config
	Log    logrus.FieldLogger
}

// HandleUpdate routes a single update. It never panics.
func (h *Handler) HandleUpdate(upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerPanics.Inc()
			h.Log.WithField("update_id", upd.UpdateID).Errorf("handler panic: %v", r)
		}
	}()

	switch {
	case upd.Message != nil:
		if upd.Message.IsCommand() {
			h.HandleCommand(upd.Message)
		} else {
			h.HandleMessage(upd.Message)
		}
	case upd.CallbackQuery != nil:
		h.HandleCallback(upd.CallbackQuery)
	case upd.ChatMember != nil:
		h.HandleChatMember(upd.ChatMember)
	}
}

func (h *Handler) send(chatID int64, text string) {
	h.sendMsg(tgbotapi.NewMessage(chatID, text))
}

// reply answers in the same chat, threaded to the command message.
func (h *Handler) reply(msg *tgbotapi.Message, text string) {
	m := tgbotapi.NewMessage(msg.Chat.ID, text)
	m.ReplyToMessageID = msg.MessageID
	m.ParseMode = tgbotapi.ModeHTML
	h.sendMsg(m)
}

func (h *Handler) sendMsg(m tgbotapi.MessageConfig) {
	if _, err := h.Bot.Send(m); err != nil {
		h.Log.WithError(err).WithField("chat_id", m.ChatID).Warn("send failed")
	}
}
