package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"telegram-post-guard/internal/drafts"
	"telegram-post-guard/internal/messages"
	"telegram-post-guard/internal/models"
	"telegram-post-guard/internal/moderation"
)

func (h *Handler) HandleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.handleStart(msg)
	case "post":
		h.handlePost(msg)
	case "cancel":
		h.handleCancel(msg)
	case "skip":
		if msg.From != nil && msg.Chat.IsPrivate() {
			h.draftInput(msg, drafts.Text("skip"))
		}
	case "warn", "warns", "warnlist", "resetwarns", "mute", "unmute", "ban", "unban":
		h.handleModeration(msg)
	}
}

func (h *Handler) handleStart(msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		return
	}
	m := tgbotapi.NewMessage(msg.Chat.ID, textStart)
	m.ReplyMarkup = messages.StartMenu(h.Cfg.WebsiteURL)
	h.sendMsg(m)
}

// ---------------- moderation --------------------

// commandTarget takes the subject from the replied-to message. /unban also
// accepts a numeric user id since banned users can't be replied to.
func commandTarget(msg *tgbotapi.Message) *moderation.Target {
	if r := msg.ReplyToMessage; r != nil && r.From != nil {
		return &moderation.Target{UserID: r.From.ID, IsBot: r.From.IsBot, Name: messages.Mention(r.From)}
	}
	if msg.Command() != "unban" {
		return nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	return &moderation.Target{UserID: id, Name: messages.MentionID(id)}
}

func warnList(recs []models.WarnRecord, threshold uint) string {
	if len(recs) == 0 {
		return textNoWarns
	}
	var b strings.Builder
	b.WriteString(textWarnListHead)
	for _, r := range recs {
		fmt.Fprintf(&b, "\n%s: %d/%d", messages.MentionID(r.UserID), r.Count, threshold)
	}
	return b.String()
}

func muteHours(args string) int {
	f := strings.Fields(args)
	if len(f) == 0 {
		return moderation.MinMuteHours
	}
	n, err := strconv.Atoi(f[0])
	if err != nil {
		return moderation.MinMuteHours
	}
	return n
}

func (h *Handler) handleModeration(msg *tgbotapi.Message) {
	if msg.From == nil || !(msg.Chat.IsGroup() || msg.Chat.IsSuperGroup()) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	chatID, actor, target := msg.Chat.ID, msg.From.ID, commandTarget(msg)
	log := h.Log.WithFields(logrus.Fields{"chat_id": chatID, "actor_id": actor, "command": msg.Command()})

	var (
		text string
		err  error
	)
	switch msg.Command() {
	case "warn":
		var res moderation.WarnResult
		res, err = h.Mod.Warn(ctx, actor, target, chatID)
		switch {
		case res.Banned && err != nil:
			log.WithError(err).Error("banned but warnings not cleared")
			text, err = fmt.Sprintf(textWarnBannedStuck, target.Name, res.Count), nil
		case res.Banned:
			text = fmt.Sprintf(textWarnBanned, target.Name, res.Threshold)
		case errors.Is(err, moderation.ErrExternalAction) && res.Count > 0:
			// counted, ban pending
			text, err = fmt.Sprintf(textWarnBanFailed, target.Name, res.Count, res.Threshold), nil
		case err == nil:
			text = fmt.Sprintf(textWarned, target.Name, res.Count, res.Threshold)
		}
	case "warns":
		var n uint
		n, err = h.Mod.QueryWarns(ctx, target, chatID)
		if err == nil {
			text = fmt.Sprintf(textWarnCount, target.Name, n, h.Mod.Threshold())
		}
	case "warnlist":
		var recs []models.WarnRecord
		if recs, err = h.Mod.ListWarns(ctx, actor, chatID); err == nil {
			text = warnList(recs, h.Mod.Threshold())
		}
	case "resetwarns":
		if err = h.Mod.ResetWarns(ctx, actor, target, chatID); err == nil {
			text = fmt.Sprintf(textWarnsReset, target.Name)
		}
	case "mute":
		var res moderation.MuteResult
		res, err = h.Mod.Mute(ctx, actor, target, chatID, muteHours(msg.CommandArguments()))
		if err == nil {
			text = fmt.Sprintf(textMuted, target.Name, res.Hours, res.Until.In(h.Cfg.Location()).Format("2006-01-02 15:04"))
		}
	case "unmute":
		if err = h.Mod.Unmute(ctx, actor, target, chatID); err == nil {
			text = fmt.Sprintf(textUnmuted, target.Name)
		}
	case "ban":
		if err = h.Mod.Ban(ctx, actor, target, chatID); err == nil {
			text = fmt.Sprintf(textBanned, target.Name)
		}
	case "unban":
		if err = h.Mod.Unban(ctx, actor, target, chatID); err == nil {
			text = fmt.Sprintf(textUnbanned, target.Name)
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, moderation.ErrUnauthorized):
		text = textAdminsOnly
	case errors.Is(err, moderation.ErrInvalidTarget):
		text = textReplyToTarget
	default:
		log.WithError(err).Warn("moderation command failed")
		text = textActionFailed
	}
	h.reply(msg, text)
}
