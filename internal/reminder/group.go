package reminder

import (
	"context"
	"time"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/notify"
)

// Group runs one scheduler per user.
type Group struct {
	schedulers []*Scheduler
}

// NewGroup builds a scheduler for every user, all firing through d.
func NewGroup(users []string, d notify.Dispatcher, opts ...Option) *Group {
	g := &Group{}
	for _, u := range users {
		g.schedulers = append(g.schedulers, New(u, d, opts...))
	}
	return g
}

// Users returns the usernames in the group.
func (g *Group) Users() []string {
	out := make([]string, len(g.schedulers))
	for i, s := range g.schedulers {
		out[i] = s.User()
	}
	return out
}

// Start starts every scheduler. On failure the ones already started are
// stopped.
func (g *Group) Start(ctx context.Context, src Sources) error {
	for i, s := range g.schedulers {
		if err := s.Start(ctx, src); err != nil {
			for _, started := range g.schedulers[:i] {
				started.Stop()
			}
			return err
		}
	}
	return nil
}

// Tick evaluates every scheduler at now and returns the total delivered.
func (g *Group) Tick(ctx context.Context, now time.Time) int {
	total := 0
	for _, s := range g.schedulers {
		total += s.Tick(ctx, now)
	}
	return total
}

// SetSnapshot hands the same tasks and preferences to every scheduler.
func (g *Group) SetSnapshot(tasks []model.Task, prefs model.Preferences) {
	for _, s := range g.schedulers {
		s.SetTasks(tasks)
		s.SetPreferences(prefs)
	}
}

// SetCheckpoint moves every scheduler's checkpoint to t.
func (g *Group) SetCheckpoint(t time.Time) {
	for _, s := range g.schedulers {
		s.SetCheckpoint(t)
	}
}

// Stop stops every scheduler.
func (g *Group) Stop() {
	for _, s := range g.schedulers {
		s.Stop()
	}
}
