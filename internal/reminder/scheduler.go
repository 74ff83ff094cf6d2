package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/notify"
)

// DefaultInterval is the tick period when none is configured.
const DefaultInterval = time.Minute

// Sources supplies the live task list and preferences.
type Sources interface {
	SubscribeTasks(ctx context.Context) (<-chan []model.Task, error)
	SubscribePreferences(ctx context.Context) (<-chan model.Preferences, error)
}

// Scheduler evaluates one user's reminders on a fixed period. A single
// goroutine owns both the ticker and the feed updates, so ticks never
// overlap.
//
// The checkpoint starts at construction (or Start) time and is kept in
// memory only: thresholds crossed while no scheduler runs are not replayed.
type Scheduler struct {
	user       string
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	interval   time.Duration
	loc        *time.Location
	now        func() time.Time

	mu          sync.Mutex
	tasks       []model.Task
	prefs       model.Preferences
	lastChecked time.Time
	running     bool
	stopped     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation sets the zone task wall-clock times are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New returns a scheduler for user that fires through d.
func New(user string, d notify.Dispatcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		user:       user,
		dispatcher: d,
		logger:     slog.Default(),
		interval:   DefaultInterval,
		loc:        time.Local,
		now:        time.Now,
		prefs:      model.Preferences{},
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "reminder", "user", user)
	s.lastChecked = s.now()
	return s
}

// User returns the username the scheduler evaluates.
func (s *Scheduler) User() string { return s.user }

// Start subscribes to src and runs the tick loop until ctx ends or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context, src Sources) error {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.lastChecked = s.now()
	s.mu.Unlock()

	feedCtx, cancel := context.WithCancel(ctx)

	taskCh, err := src.SubscribeTasks(feedCtx)
	if err != nil {
		cancel()
		s.abortStart()
		return fmt.Errorf("starting reminders for %s: %w", s.user, err)
	}
	prefCh, err := src.SubscribePreferences(feedCtx)
	if err != nil {
		cancel()
		s.abortStart()
		return fmt.Errorf("starting reminders for %s: %w", s.user, err)
	}

	go s.run(feedCtx, cancel, taskCh, prefCh)
	s.logger.Info("reminder scheduler started", "interval", s.interval)
	return nil
}

// abortStart undoes a failed Start. A Stop that arrived while subscribing
// is waiting on doneCh, and run will never close it.
func (s *Scheduler) abortStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if s.stopped {
		close(s.doneCh)
	}
}

func (s *Scheduler) run(
	ctx context.Context,
	cancel context.CancelFunc,
	taskCh <-chan []model.Task,
	prefCh <-chan model.Preferences,
) {
	defer close(s.doneCh)
	defer cancel()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case tasks, ok := <-taskCh:
			if !ok {
				taskCh = nil
				continue
			}
			s.SetTasks(tasks)
		case prefs, ok := <-prefCh:
			if !ok {
				prefCh = nil
				continue
			}
			s.SetPreferences(prefs)
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}

// Stop halts the tick loop and waits for it to exit. No dispatch happens
// after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	wasRunning := s.running
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	if wasRunning {
		<-s.doneCh
	}
	s.logger.Info("reminder scheduler stopped")
}

// SetTasks replaces the task snapshot.
func (s *Scheduler) SetTasks(tasks []model.Task) {
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
}

// SetCheckpoint moves the point after which thresholds count as new. It is
// used by one-shot runs that evaluate a past window without Start.
func (s *Scheduler) SetCheckpoint(t time.Time) {
	s.mu.Lock()
	s.lastChecked = t
	s.mu.Unlock()
}

// SetPreferences replaces the preference snapshot.
func (s *Scheduler) SetPreferences(prefs model.Preferences) {
	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()
}

// Tick evaluates the snapshot once at now and returns the number of
// reminders delivered. The checkpoint advances to now even when the user's
// reminders are disabled.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0
	}
	pref, ok := s.prefs.For(s.user)
	tasks := s.tasks
	lastChecked := s.lastChecked
	s.lastChecked = now
	s.mu.Unlock()

	if !ok || !pref.Enabled {
		return 0
	}

	due := DueTasks(tasks, s.user, pref.ReminderMinutes, lastChecked, now, s.loc)
	fired := 0
	for _, t := range due {
		if err := s.dispatcher.Fire(ctx, MessageFor(t, s.user, now)); err != nil {
			s.logger.Warn("dispatching reminder", "task_id", t.ID, "error", err)
			continue
		}
		fired++
	}
	if len(due) > 0 {
		s.logger.Debug("reminders evaluated", "due", len(due), "fired", fired)
	}
	return fired
}
