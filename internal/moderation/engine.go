// Package moderation implements warn/mute/ban commands on top of the
// warning ledger and the chat's group actions.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"telegram-post-guard/internal/metrics"
	"telegram-post-guard/internal/models"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidTarget  = errors.New("invalid target")
	ErrExternalAction = errors.New("external action failed")
)

const (
	DefaultThreshold = 3

	MinMuteHours = 1
	MaxMuteHours = 168
)

type Ledger interface {
	GetCount(ctx context.Context, chatID, userID int64) (uint, error)
	AddWarn(ctx context.Context, chatID, userID int64) (uint, error)
	ResetWarn(ctx context.Context, chatID, userID int64) error
	ListWarns(ctx context.Context, chatID int64) ([]models.WarnRecord, error)
}

// Oracle answers whether a user is an administrator or the owner of a chat.
type Oracle interface {
	IsPrivileged(ctx context.Context, chatID, userID int64) (bool, error)
}

type GroupActions interface {
	Ban(ctx context.Context, chatID, userID int64) error
	Unban(ctx context.Context, chatID, userID int64) error
	Restrict(ctx context.Context, chatID, userID int64, until time.Time) error
	Unrestrict(ctx context.Context, chatID, userID int64) error
}

// Target is the user a command is aimed at, taken from the replied-to message.
type Target struct {
	UserID int64
	IsBot  bool
	Name   string
}

type WarnResult struct {
	Count     uint
	Threshold uint
	Banned    bool
}

type MuteResult struct {
	Hours int
	Until time.Time
}

type Engine struct {
	ledger    Ledger
	oracle    Oracle
	actions   GroupActions
	threshold uint
	clock     clockwork.Clock
	log       logrus.FieldLogger
}

type Option func(*Engine)

func WithThreshold(n uint) Option {
	return func(e *Engine) {
		if n > 0 {
			e.threshold = n
		}
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

func New(ledger Ledger, oracle Oracle, actions GroupActions, opts ...Option) *Engine {
	e := &Engine{
		ledger:    ledger,
		oracle:    oracle,
		actions:   actions,
		threshold: DefaultThreshold,
		clock:     clockwork.NewRealClock(),
		log:       logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Threshold() uint {
	return e.threshold
}

func (e *Engine) authorize(ctx context.Context, chatID, actorID int64) error {
	ok, err := e.oracle.IsPrivileged(ctx, chatID, actorID)
	if err != nil {
		return fmt.Errorf("%w: member lookup: %v", ErrExternalAction, err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func checkTarget(t *Target) error {
	if t == nil || t.UserID == 0 {
		return fmt.Errorf("%w: no message designated", ErrInvalidTarget)
	}
	if t.IsBot {
		return fmt.Errorf("%w: target is a bot", ErrInvalidTarget)
	}
	return nil
}

// punishable additionally rejects administrators of the chat.
func (e *Engine) punishable(ctx context.Context, chatID int64, t *Target) error {
	if err := checkTarget(t); err != nil {
		return err
	}
	ok, err := e.oracle.IsPrivileged(ctx, chatID, t.UserID)
	if err != nil {
		return fmt.Errorf("%w: member lookup: %v", ErrExternalAction, err)
	}
	if ok {
		return fmt.Errorf("%w: target is an administrator", ErrInvalidTarget)
	}
	return nil
}

func (e *Engine) record(action string, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrUnauthorized):
		outcome = "unauthorized"
	case errors.Is(err, ErrInvalidTarget):
		outcome = "invalid_target"
	case err != nil:
		outcome = "failed"
	}
	metrics.ModerationActions.WithLabelValues(action, outcome).Inc()
}

// Warn adds a warning. Reaching the threshold bans the user and clears the
// ledger entry; when the ban fails the count stays so the next warn retries.
func (e *Engine) Warn(ctx context.Context, actorID int64, target *Target, chatID int64) (res WarnResult, err error) {
	defer func() { e.record("warn", err) }()
	res.Threshold = e.threshold

	if err = e.authorize(ctx, chatID, actorID); err != nil {
		return res, err
	}
	if err = e.punishable(ctx, chatID, target); err != nil {
		return res, err
	}

	res.Count, err = e.ledger.AddWarn(ctx, chatID, target.UserID)
	if err != nil {
		return res, fmt.Errorf("add warn: %w", err)
	}
	metrics.WarnsIssued.Inc()

	log := e.log.WithFields(logrus.Fields{"chat_id": chatID, "user_id": target.UserID, "count": res.Count})
	log.Info("user warned")

	if res.Count < e.threshold {
		return res, nil
	}

	if err = e.actions.Ban(ctx, chatID, target.UserID); err != nil {
		log.WithError(err).Warn("threshold ban failed, keeping count")
		return res, fmt.Errorf("%w: ban: %v", ErrExternalAction, err)
	}
	res.Banned = true
	metrics.AutoBans.Inc()
	log.Info("warn threshold reached, user banned")

	if err = e.ledger.ResetWarn(ctx, chatID, target.UserID); err != nil {
		log.WithError(err).Error("reset after ban failed")
		return res, fmt.Errorf("reset after ban: %w", err)
	}
	res.Count = 0
	return res, nil
}

func (e *Engine) ResetWarns(ctx context.Context, actorID int64, target *Target, chatID int64) (err error) {
	defer func() { e.record("reset_warns", err) }()

	if err = e.authorize(ctx, chatID, actorID); err != nil {
		return err
	}
	if err = checkTarget(target); err != nil {
		return err
	}
	if err = e.ledger.ResetWarn(ctx, chatID, target.UserID); err != nil {
		return fmt.Errorf("reset warns: %w", err)
	}
	return nil
}

// ListWarns returns the chat's warned users, highest count first.
func (e *Engine) ListWarns(ctx context.Context, actorID, chatID int64) (recs []models.WarnRecord, err error) {
	defer func() { e.record("list_warns", err) }()

	if err = e.authorize(ctx, chatID, actorID); err != nil {
		return nil, err
	}
	if recs, err = e.ledger.ListWarns(ctx, chatID); err != nil {
		return nil, fmt.Errorf("list warns: %w", err)
	}
	return recs, nil
}

// QueryWarns needs no privilege.
func (e *Engine) QueryWarns(ctx context.Context, target *Target, chatID int64) (uint, error) {
	if err := checkTarget(target); err != nil {
		return 0, err
	}
	c, err := e.ledger.GetCount(ctx, chatID, target.UserID)
	if err != nil {
		return 0, fmt.Errorf("query warns: %w", err)
	}
	return c, nil
}

// ClampHours keeps a mute duration within [1,168] hours.
func ClampHours(h int) int {
	if h < MinMuteHours {
		return MinMuteHours
	}
	if h > MaxMuteHours {
		return MaxMuteHours
	}
	return h
}

func (e *Engine) Mute(ctx context.Context, actorID int64, target *Target, chatID int64, hours int) (res MuteResult, err error) {
	defer func() { e.record("mute", err) }()

	if err = e.authorize(ctx, chatID, actorID); err != nil {
		return res, err
	}
	if err = e.punishable(ctx, chatID, target); err != nil {
		return res, err
	}

	res.Hours = ClampHours(hours)
	res.Until = e.clock.Now().Add(time.Duration(res.Hours) * time.Hour)
	if err = e.actions.Restrict(ctx, chatID, target.UserID, res.Until); err != nil {
		return res, fmt.Errorf("%w: restrict: %v", ErrExternalAction, err)
	}
	return res, nil
}

func (e *Engine) Unmute(ctx context.Context, actorID int64, target *Target, chatID int64) (err error) {
	defer func() { e.record("unmute", err) }()

	if err = e.authorize(ctx, chatID, actorID); err != nil {
		return err
	}
	if err = checkTarget(target); err != nil {
		return err
	}
	if err = e.actions.Unrestrict(ctx, chatID, target.UserID); err != nil {
		return fmt.Errorf("%w: unrestrict: %v", ErrExternalAction, err)
	}
	return nil
}

// Ban also clears the user's warnings in that chat.
func (e *Engine) Ban(ctx context.Context, actorID int64, target *Target, chatID int64) (err error) {
	defer func() { e.record("ban", err) }()

	if err = e.authorize(ctx, chatID, actorID); err != nil {
		return err
	}
	if err = e.punishable(ctx, chatID, target); err != nil {
		return err
	}
	if err = e.actions.Ban(ctx, chatID, target.UserID); err != nil {
		return fmt.Errorf("%w: ban: %v", ErrExternalAction, err)
	}
	if rerr := e.ledger.ResetWarn(ctx, chatID, target.UserID); rerr != nil {
		e.log.WithError(rerr).WithFields(logrus.Fields{"chat_id": chatID, "user_id": target.UserID}).
			Error("reset after ban failed")
	}
	return nil
}

func (e *Engine) Unban(ctx context.Context, actorID int64, target *Target, chatID int64) (err error) {
	defer func() { e.record("unban", err) }()

	if err = e.authorize(ctx, chatID, actorID); err != nil {
		return err
	}
	if err = checkTarget(target); err != nil {
		return err
	}
	if err = e.actions.Unban(ctx, chatID, target.UserID); err != nil {
		return fmt.Errorf("%w: unban: %v", ErrExternalAction, err)
	}
	return nil
}
