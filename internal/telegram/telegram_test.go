package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-post-guard/internal/models"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	lookups  int
	status   map[int64]string
	sendErr  func(c tgbotapi.Chattable) error
	reqErr   error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		if err := b.sendErr(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	if b.reqErr != nil {
		return nil, b.reqErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetChatMember(cfg tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lookups++
	st, ok := b.status[cfg.UserID]
	if !ok {
		return tgbotapi.ChatMember{}, errors.New("Bad Request: user not found")
	}
	return tgbotapi.ChatMember{Status: st}, nil
}

func TestOracle(t *testing.T) {
	bot := &fakeBot{status: map[int64]string{1: "creator", 2: "administrator", 3: "member", 4: "left"}}
	o := NewOracle(bot, time.Minute)
	ctx := context.Background()

	for id, want := range map[int64]bool{1: true, 2: true, 3: false, 4: false} {
		got, err := o.IsPrivileged(ctx, -1, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, "user %d", id)
	}
	assert.Equal(t, 4, bot.lookups)

	// cached
	_, _ = o.IsPrivileged(ctx, -1, 2)
	assert.Equal(t, 4, bot.lookups)

	o.Forget(-1, 2)
	_, _ = o.IsPrivileged(ctx, -1, 2)
	assert.Equal(t, 5, bot.lookups)

	_, err := o.IsPrivileged(ctx, -1, 99)
	assert.Error(t, err)
}

func TestOracleCacheExpires(t *testing.T) {
	bot := &fakeBot{status: map[int64]string{1: "administrator"}}
	o := NewOracle(bot, 20*time.Millisecond)
	ctx := context.Background()

	_, _ = o.IsPrivileged(ctx, -1, 1)
	time.Sleep(60 * time.Millisecond)
	_, _ = o.IsPrivileged(ctx, -1, 1)
	assert.Equal(t, 2, bot.lookups)
}

func TestActions(t *testing.T) {
	bot := &fakeBot{}
	a := NewActions(bot)
	ctx := context.Background()
	until := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, a.Ban(ctx, -1, 7))
	require.NoError(t, a.Unban(ctx, -1, 7))
	require.NoError(t, a.Restrict(ctx, -1, 7, until))
	require.NoError(t, a.Unrestrict(ctx, -1, 7))
	require.Len(t, bot.requests, 4)

	ban := bot.requests[0].(tgbotapi.BanChatMemberConfig)
	assert.Equal(t, int64(-1), ban.ChatID)
	assert.Equal(t, int64(7), ban.UserID)

	unban := bot.requests[1].(tgbotapi.UnbanChatMemberConfig)
	assert.True(t, unban.OnlyIfBanned)

	mute := bot.requests[2].(tgbotapi.RestrictChatMemberConfig)
	assert.Equal(t, until.Unix(), mute.UntilDate)
	assert.False(t, mute.Permissions.CanSendMessages)

	unmute := bot.requests[3].(tgbotapi.RestrictChatMemberConfig)
	assert.True(t, unmute.Permissions.CanSendMessages)
}

func TestActionsError(t *testing.T) {
	bot := &fakeBot{reqErr: errors.New("Bad Request: not enough rights")}
	assert.Error(t, NewActions(bot).Ban(context.Background(), -1, 7))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewActions(&fakeBot{}).Ban(ctx, -1, 7), context.Canceled)
}

func TestPublishPhotoThenFile(t *testing.T) {
	bot := &fakeBot{}
	p := NewPublisher(bot)

	err := p.Publish(context.Background(), models.PostDraft{TargetChatID: -5, PhotoRef: "ph", Caption: "c", FileRef: "doc"})
	require.NoError(t, err)
	require.Len(t, bot.sent, 2)

	photo, ok := bot.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, "c", photo.Caption)
	_, ok = bot.sent[1].(tgbotapi.DocumentConfig)
	assert.True(t, ok)
}

func TestPublishWithoutFile(t *testing.T) {
	bot := &fakeBot{}
	require.NoError(t, NewPublisher(bot).Publish(context.Background(), models.PostDraft{TargetChatID: -5, PhotoRef: "ph"}))
	assert.Len(t, bot.sent, 1)
}

func TestPublishPhotoFailureSkipsFile(t *testing.T) {
	bot := &fakeBot{sendErr: func(c tgbotapi.Chattable) error {
		if _, ok := c.(tgbotapi.PhotoConfig); ok {
			return errors.New("Bad Request: wrong file identifier")
		}
		return nil
	}}
	err := NewPublisher(bot).Publish(context.Background(), models.PostDraft{TargetChatID: -5, PhotoRef: "ph", FileRef: "doc"})
	assert.Error(t, err)
	assert.Empty(t, bot.sent)
}

func TestPublishFileFailure(t *testing.T) {
	bot := &fakeBot{sendErr: func(c tgbotapi.Chattable) error {
		if _, ok := c.(tgbotapi.DocumentConfig); ok {
			return errors.New("Bad Request: file too big")
		}
		return nil
	}}
	err := NewPublisher(bot).Publish(context.Background(), models.PostDraft{TargetChatID: -5, PhotoRef: "ph", FileRef: "doc"})
	assert.ErrorContains(t, err, "send file")
	assert.Len(t, bot.sent, 1)
}
