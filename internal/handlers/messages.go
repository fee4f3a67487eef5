package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-post-guard/internal/config"
	"telegram-post-guard/internal/drafts"
	"telegram-post-guard/internal/models"
)

// HandleMessage feeds private non-command messages into the author's draft.
func (h *Handler) HandleMessage(msg *tgbotapi.Message) {
	if msg.From == nil || !msg.Chat.IsPrivate() {
		return
	}
	h.draftInput(msg, inputOf(msg))
}

func inputOf(msg *tgbotapi.Message) drafts.Input {
	switch {
	case len(msg.Photo) > 0:
		return drafts.Photo(largestPhoto(msg.Photo))
	case msg.Document != nil:
		return drafts.Document(msg.Document.FileID)
	default:
		return drafts.Text(msg.Text)
	}
}

// telegram lists photo sizes smallest first
func largestPhoto(sizes []tgbotapi.PhotoSize) string {
	return sizes[len(sizes)-1].FileID
}

// ---------------- /post --------------------

func (h *Handler) handlePost(msg *tgbotapi.Message) {
	if msg.From == nil || !msg.Chat.IsPrivate() {
		return
	}
	if h.Cfg.PostPolicy == config.PolicyAdmins {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		ok, err := h.Oracle.IsPrivileged(ctx, h.Cfg.PublishChatID, msg.From.ID)
		if err != nil {
			h.Log.WithError(err).WithField("user_id", msg.From.ID).Warn("post policy lookup failed")
			h.send(msg.Chat.ID, textActionFailed)
			return
		}
		if !ok {
			h.send(msg.Chat.ID, textNotAllowed)
			return
		}
	}

	target := h.Cfg.PublishChatID
	if target == 0 {
		target = msg.Chat.ID
	}

	var st models.DraftState
	if r := msg.ReplyToMessage; r != nil && len(r.Photo) > 0 {
		st = h.Drafts.StartWithPhoto(msg.From.ID, target, largestPhoto(r.Photo))
	} else {
		st = h.Drafts.Start(msg.From.ID, target)
	}
	h.send(msg.Chat.ID, prompt(st))
}

func (h *Handler) handleCancel(msg *tgbotapi.Message) {
	if msg.From == nil || !msg.Chat.IsPrivate() {
		return
	}
	if h.Drafts.Cancel(msg.From.ID) {
		h.send(msg.Chat.ID, textCancelled)
		return
	}
	h.send(msg.Chat.ID, textNoDraft)
}

func (h *Handler) draftInput(msg *tgbotapi.Message, in drafts.Input) {
	res, err := h.Drafts.Handle(msg.From.ID, in)
	switch {
	case errors.Is(err, drafts.ErrNoDraft):
		return
	case errors.Is(err, drafts.ErrParseFailure):
		h.send(msg.Chat.ID, textBadTime)
		return
	case err != nil:
		h.Log.WithError(err).WithField("user_id", msg.From.ID).Error("cannot complete draft")
		h.send(msg.Chat.ID, textSchedFail)
		return
	}

	if !res.Advanced {
		// the photo step waits silently for media
		if res.State != models.StateAwaitingPhoto {
			h.send(msg.Chat.ID, prompt(res.State))
		}
		return
	}
	if res.Job != nil {
		h.send(msg.Chat.ID, scheduledText(*res.Job))
		return
	}
	h.send(msg.Chat.ID, prompt(res.State))
}

func prompt(st models.DraftState) string {
	switch st {
	case models.StateAwaitingPhoto:
		return textAskPhoto
	case models.StateAwaitingCaption:
		return textAskCaption
	case models.StateAwaitingButtons:
		return textAskButtons
	case models.StateAwaitingTime:
		return textAskTime
	case models.StateAwaitingFile:
		return textAskFile
	}
	return ""
}

func scheduledText(job models.ScheduledJob) string {
	if job.Delay <= 0 {
		return textPublishNow
	}
	return fmt.Sprintf(textScheduled, job.FireAt.Format("2006-01-02 15:04 MST"), job.Delay.Round(time.Second))
}
