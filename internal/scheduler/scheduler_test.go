package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-post-guard/internal/models"
)

type fakePublisher struct {
	mu    sync.Mutex
	posts []models.PostDraft
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, d models.PostDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, d)
	return f.err
}

func (f *fakePublisher) published() []models.PostDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PostDraft(nil), f.posts...)
}

func newTestScheduler(t *testing.T, pub Publisher) (*Scheduler, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	s, err := New(pub, WithLogger(log))
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Shutdown() })
	return s, hook
}

func job(name, caption string, at time.Time) models.ScheduledJob {
	return models.ScheduledJob{
		Name:   name,
		Draft:  models.PostDraft{AuthorID: 1, TargetChatID: 1, PhotoRef: "p", Caption: caption, Buttons: []models.Button{}},
		FireAt: at,
		Delay:  time.Until(at),
	}
}

func TestPastJobFiresImmediately(t *testing.T) {
	pub := &fakePublisher{}
	s, _ := newTestScheduler(t, pub)

	require.NoError(t, s.Schedule(job("post:1", "late", time.Now().Add(-time.Hour))))

	assert.Eventually(t, func() bool { return len(pub.published()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "late", pub.published()[0].Caption)
	assert.False(t, s.Pending("post:1"))
	assert.Equal(t, 0, s.Len())
}

func TestFutureJobWaits(t *testing.T) {
	pub := &fakePublisher{}
	s, _ := newTestScheduler(t, pub)

	at := time.Now().Add(300 * time.Millisecond)
	require.NoError(t, s.Schedule(job("post:2", "soon", at)))
	assert.True(t, s.Pending("post:2"))
	got, ok := s.FireAt("post:2")
	require.True(t, ok)
	assert.True(t, got.Equal(at))

	assert.Never(t, func() bool { return len(pub.published()) > 0 }, 150*time.Millisecond, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return len(pub.published()) == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.False(t, time.Now().Before(at), "published before fire time")

	// fires once only
	assert.Never(t, func() bool { return len(pub.published()) > 1 }, 300*time.Millisecond, 20*time.Millisecond)
}

func TestSameNameReplaces(t *testing.T) {
	pub := &fakePublisher{}
	s, hook := newTestScheduler(t, pub)

	require.NoError(t, s.Schedule(job("post:3", "old", time.Now().Add(400*time.Millisecond))))
	require.NoError(t, s.Schedule(job("post:3", "new", time.Now().Add(100*time.Millisecond))))
	assert.Equal(t, 1, s.Len())

	assert.Eventually(t, func() bool { return len(pub.published()) == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return len(pub.published()) > 1 }, 700*time.Millisecond, 20*time.Millisecond)
	assert.Equal(t, "new", pub.published()[0].Caption)

	var replaced bool
	for _, e := range hook.AllEntries() {
		if e.Message == "pending post replaced" {
			replaced = true
		}
	}
	assert.True(t, replaced)
}

func TestDistinctNamesBothFire(t *testing.T) {
	pub := &fakePublisher{}
	s, _ := newTestScheduler(t, pub)

	now := time.Now()
	require.NoError(t, s.Schedule(job("post:4", "a", now)))
	require.NoError(t, s.Schedule(job("post:5", "b", now.Add(50*time.Millisecond))))

	assert.Eventually(t, func() bool { return len(pub.published()) == 2 }, 3*time.Second, 10*time.Millisecond)
}

func TestPublishFailureIsConsumed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("telegram: Bad Request: chat not found")}
	s, hook := newTestScheduler(t, pub)

	require.NoError(t, s.Schedule(job("post:6", "x", time.Now())))

	assert.Eventually(t, func() bool { return len(pub.published()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return len(pub.published()) > 1 }, 300*time.Millisecond, 20*time.Millisecond)
	assert.False(t, s.Pending("post:6"))
	assert.Eventually(t, func() bool { return len(s.cron.Jobs()) == 0 }, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.ErrorLevel && e.Message == "publish failed" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestScheduledDraftIsCopied(t *testing.T) {
	pub := &fakePublisher{}
	s, _ := newTestScheduler(t, pub)

	j := job("post:7", "c", time.Now().Add(100*time.Millisecond))
	j.Draft.Buttons = []models.Button{{Label: "a", URL: "https://a"}}
	require.NoError(t, s.Schedule(j))
	j.Draft.Buttons[0].Label = "mutated"

	assert.Eventually(t, func() bool { return len(pub.published()) == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "a", pub.published()[0].Buttons[0].Label)
}

func TestFiredJobsLeaveCron(t *testing.T) {
	pub := &fakePublisher{}
	s, _ := newTestScheduler(t, pub)

	now := time.Now()
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Schedule(job(fmt.Sprintf("post:%d", 100+i), "x", now)))
	}
	// replaced before firing
	require.NoError(t, s.Schedule(job("post:200", "old", now.Add(time.Hour))))
	require.NoError(t, s.Schedule(job("post:200", "new", now)))

	assert.Eventually(t, func() bool { return len(pub.published()) == 21 }, 3*time.Second, 10*time.Millisecond)
	assert.Zero(t, s.Len())
	assert.Eventually(t, func() bool { return len(s.cron.Jobs()) == 0 }, 2*time.Second, 10*time.Millisecond)
}
