package handlers

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/puzpuzpuz/xsync/v3"

	"telegram-post-guard/internal/metrics"
)

type worker struct {
	queue []tgbotapi.Update
}

// Dispatcher runs updates concurrently across keys while keeping the order
// of updates that share a key. A key's goroutine exits once its queue drains.
type Dispatcher struct {
	handle  func(tgbotapi.Update)
	workers *xsync.MapOf[int64, *worker]
	wg      sync.WaitGroup
}

func NewDispatcher(handle func(tgbotapi.Update)) *Dispatcher {
	return &Dispatcher{
		handle:  handle,
		workers: xsync.NewMapOf[int64, *worker](),
	}
}

// UpdateKey picks the ordering key: the author for messages and callbacks,
// the chat for membership changes.
func UpdateKey(upd tgbotapi.Update) int64 {
	switch {
	case upd.Message != nil:
		if upd.Message.From != nil {
			return upd.Message.From.ID
		}
		return upd.Message.Chat.ID
	case upd.CallbackQuery != nil:
		return upd.CallbackQuery.From.ID
	case upd.ChatMember != nil:
		return upd.ChatMember.Chat.ID
	}
	return 0
}

func (d *Dispatcher) Dispatch(upd tgbotapi.Update) {
	kind := "other"
	switch {
	case upd.Message != nil:
		kind = "message"
	case upd.CallbackQuery != nil:
		kind = "callback"
	case upd.ChatMember != nil:
		kind = "chat_member"
	}
	metrics.UpdatesReceived.WithLabelValues(kind).Inc()

	key := UpdateKey(upd)
	d.workers.Compute(key, func(w *worker, loaded bool) (*worker, bool) {
		if !loaded {
			w = &worker{}
			d.wg.Add(1)
			go d.drain(key)
		}
		w.queue = append(w.queue, upd)
		return w, false
	})
}

func (d *Dispatcher) drain(key int64) {
	defer d.wg.Done()
	for {
		upd, ok := d.next(key)
		if !ok {
			return
		}
		d.handle(upd)
	}
}

func (d *Dispatcher) next(key int64) (upd tgbotapi.Update, ok bool) {
	d.workers.Compute(key, func(w *worker, loaded bool) (*worker, bool) {
		if !loaded || len(w.queue) == 0 {
			return w, true
		}
		upd, w.queue, ok = w.queue[0], w.queue[1:], true
		return w, false
	})
	return upd, ok
}

// Run dispatches from updates until the channel closes or ctx is done, then
// waits for queued updates to finish.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer d.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case upd, open := <-updates:
			if !open {
				return
			}
			d.Dispatch(upd)
		}
	}
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
