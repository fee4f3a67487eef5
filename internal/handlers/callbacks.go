package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-post-guard/internal/messages"
)

// HandleCallback answers static menu buttons by editing the menu message.
func (h *Handler) HandleCallback(cb *tgbotapi.CallbackQuery) {
	if _, err := h.Bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		h.Log.WithError(err).Debug("answer callback failed")
	}
	if cb.Message == nil {
		return
	}
	text, ok := messages.MenuText(cb.Data, h.Cfg.Contact)
	if !ok {
		return
	}

	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := h.Bot.Send(edit); err != nil {
		h.Log.WithError(err).WithField("data", cb.Data).Warn("edit menu failed")
	}
}

func joined(was, now *tgbotapi.ChatMember) bool {
	switch was.Status {
	case "", "left", "kicked":
	default:
		return false
	}
	return now.Status == "member"
}

// privilegeCache is implemented by oracles that cache member status.
type privilegeCache interface {
	Forget(chatID, userID int64)
}

// HandleChatMember drops cached privileges on status changes (promotions,
// demotions, leaves) and greets users joining a group.
func (h *Handler) HandleChatMember(u *tgbotapi.ChatMemberUpdated) {
	if u.NewChatMember.User == nil {
		return
	}
	if u.OldChatMember.Status != u.NewChatMember.Status {
		if c, ok := h.Oracle.(privilegeCache); ok {
			c.Forget(u.Chat.ID, u.NewChatMember.User.ID)
		}
	}
	if u.NewChatMember.User.IsBot {
		return
	}
	if !joined(&u.OldChatMember, &u.NewChatMember) {
		return
	}
	h.sendMsg(messages.Welcome(u.Chat.ID, u.Chat.Title, u.Chat.UserName, u.NewChatMember.User))
}
