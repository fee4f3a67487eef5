package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"telegram-post-guard/internal/metrics"
	"telegram-post-guard/internal/models"
)

// Publisher performs the actual post delivery when a job fires.
type Publisher interface {
	Publish(ctx context.Context, draft models.PostDraft) error
}

type pendingJob struct {
	id     uuid.UUID
	gen    uint64
	fireAt time.Time
}

// Scheduler fires each post once at (or after) its time. A new job under
// an existing name replaces the pending one. Nothing is persisted.
type Scheduler struct {
	cron    gocron.Scheduler
	pub     Publisher
	clock   clockwork.Clock
	log     logrus.FieldLogger
	timeout time.Duration

	mu      sync.Mutex
	gen     uint64
	pending map[string]pendingJob
}

type Option func(*Scheduler)

func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithPublishTimeout bounds a single publish attempt.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

func New(pub Publisher, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		pub:     pub,
		clock:   clockwork.NewRealClock(),
		log:     logrus.StandardLogger(),
		timeout: time.Minute,
		pending: make(map[string]pendingJob),
	}
	for _, o := range opts {
		o(s)
	}

	cron, err := gocron.NewScheduler(gocron.WithClock(s.clock))
	if err != nil {
		return nil, err
	}
	s.cron = cron
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.cron.Shutdown()
}

// Schedule registers job.Draft for publication at job.FireAt. Past fire
// times run immediately instead of being skipped.
func (s *Scheduler) Schedule(job models.ScheduledJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.pending[job.Name]; ok {
		if err := s.cron.RemoveJob(old.id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			s.log.WithError(err).WithField("job", job.Name).Warn("cannot remove replaced job")
		}
		delete(s.pending, job.Name)
		metrics.PostsReplaced.Inc()
		s.log.WithField("job", job.Name).Info("pending post replaced")
	}

	s.gen++
	gen := s.gen
	draft := job.Draft.Clone()

	start := gocron.OneTimeJobStartImmediately()
	if job.FireAt.After(s.clock.Now()) {
		start = gocron.OneTimeJobStartDateTime(job.FireAt)
	}
	j, err := s.newJob(job.Name, start, gen, draft)
	if errors.Is(err, gocron.ErrOneTimeJobStartDateTimePast) {
		// fire time passed while registering
		j, err = s.newJob(job.Name, gocron.OneTimeJobStartImmediately(), gen, draft)
	}
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name, err)
	}

	s.pending[job.Name] = pendingJob{id: j.ID(), gen: gen, fireAt: job.FireAt}
	metrics.PostsScheduled.Inc()
	metrics.PendingPosts.Set(float64(len(s.pending)))

	s.log.WithFields(logrus.Fields{
		"job":     job.Name,
		"fire_at": job.FireAt.Format(time.RFC3339),
		"delay":   job.Delay.String(),
	}).Info("post scheduled")
	return nil
}

func (s *Scheduler) newJob(name string, start gocron.OneTimeJobStartAtOption, gen uint64, draft models.PostDraft) (gocron.Job, error) {
	return s.cron.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(s.fire, name, gen, draft),
		gocron.WithName(name),
		gocron.WithTags(name),
		// one-time jobs stay registered after running unless limited
		gocron.WithLimitedRuns(1),
	)
}

// fire runs on a gocron worker. Only the current generation of a name
// publishes; failures are logged and the job is consumed anyway.
func (s *Scheduler) fire(name string, gen uint64, draft models.PostDraft) {
	s.mu.Lock()
	p, ok := s.pending[name]
	if !ok || p.gen != gen {
		s.mu.Unlock()
		s.log.WithField("job", name).Debug("superseded job skipped")
		return
	}
	delete(s.pending, name)
	metrics.PendingPosts.Set(float64(len(s.pending)))
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	log := s.log.WithFields(logrus.Fields{"job": name, "chat_id": draft.TargetChatID})
	if err := s.pub.Publish(ctx, draft); err != nil {
		metrics.PostsFailed.Inc()
		log.WithError(err).Error("publish failed")
		return
	}
	metrics.PostsPublished.Inc()
	log.Info("post published")
}

// Pending reports whether a job with that name is still waiting to fire.
func (s *Scheduler) Pending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[name]
	return ok
}

// FireAt returns the fire time of a pending job.
func (s *Scheduler) FireAt(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[name]
	return p.fireAt, ok
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
