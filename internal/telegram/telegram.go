// Package telegram adapts the bot API to the interfaces the moderation
// engine and the scheduler depend on.
package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"telegram-post-guard/internal/messages"
	"telegram-post-guard/internal/models"
)

// Bot is the subset of *tgbotapi.BotAPI used by the bot.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// ---------- authorization ---------------------------------------------------

type memberKey struct{ chatID, userID int64 }

// Oracle caches member status lookups for a short time.
type Oracle struct {
	bot   Bot
	cache *expirable.LRU[memberKey, bool]
}

func NewOracle(bot Bot, ttl time.Duration) *Oracle {
	return &Oracle{
		bot:   bot,
		cache: expirable.NewLRU[memberKey, bool](4096, nil, ttl),
	}
}

func (o *Oracle) IsPrivileged(ctx context.Context, chatID, userID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	k := memberKey{chatID, userID}
	if v, ok := o.cache.Get(k); ok {
		return v, nil
	}
	m, err := o.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return false, err
	}
	priv := m.IsCreator() || m.IsAdministrator()
	o.cache.Add(k, priv)
	return priv, nil
}

// Forget drops a cached status, e.g. after a promotion.
func (o *Oracle) Forget(chatID, userID int64) {
	o.cache.Remove(memberKey{chatID, userID})
}

// ---------- group actions ---------------------------------------------------

type Actions struct {
	bot Bot
}

func NewActions(bot Bot) *Actions {
	return &Actions{bot: bot}
}

func member(chatID, userID int64) tgbotapi.ChatMemberConfig {
	return tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID}
}

func (a *Actions) Ban(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.bot.Request(tgbotapi.BanChatMemberConfig{ChatMemberConfig: member(chatID, userID)})
	return err
}

func (a *Actions) Unban(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.bot.Request(tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: member(chatID, userID),
		OnlyIfBanned:     true,
	})
	return err
}

func (a *Actions) Restrict(ctx context.Context, chatID, userID int64, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.bot.Request(tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: member(chatID, userID),
		UntilDate:        until.Unix(),
		Permissions:      &tgbotapi.ChatPermissions{},
	})
	return err
}

func (a *Actions) Unrestrict(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.bot.Request(tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: member(chatID, userID),
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages:       true,
			CanSendMediaMessages:  true,
			CanSendPolls:          true,
			CanSendOtherMessages:  true,
			CanAddWebPagePreviews: true,
			CanInviteUsers:        true,
		},
	})
	return err
}

// ---------- publishing ------------------------------------------------------

type Publisher struct {
	bot Bot
}

func NewPublisher(bot Bot) *Publisher {
	return &Publisher{bot: bot}
}

// Publish sends the photo post, then the attached file as its own message.
func (p *Publisher) Publish(ctx context.Context, d models.PostDraft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.bot.Send(messages.Post(d)); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	if !d.HasFile() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.bot.Send(messages.File(d)); err != nil {
		return fmt.Errorf("send file: %w", err)
	}
	return nil
}
