package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"multipost_bot/internal/metrics"
	"multipost_bot/internal/model"
)

// ErrNotFound is returned by Cancel for an unknown entry.
var ErrNotFound = errors.New("scheduled entry not found")

// Store is the persistence the scheduler reads and updates.
type Store interface {
	LoadChannels(ctx context.Context) ([]model.Channel, error)
	LoadPosts(ctx context.Context) ([]model.Post, error)
	LoadScheduled(ctx context.Context) ([]model.ScheduledEntry, error)
	SaveScheduled(ctx context.Context, entries []model.ScheduledEntry) error
}

// Deliverer sends a post to channels and reports how many sends succeeded.
type Deliverer interface {
	Deliver(ctx context.Context, post model.Post, channels []model.Channel) int
}

// Scheduler periodically fires due scheduled posts.
type Scheduler struct {
	store     Store
	deliverer Deliverer
	log       *slog.Logger
	loc       *time.Location
	tick      time.Duration
	now       func() time.Time
}

// New creates a Scheduler that interprets schedule times in loc.
func New(store Store, deliverer Deliverer, loc *time.Location, log *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		store:     store,
		deliverer: deliverer,
		log:       log,
		loc:       loc,
		tick:      30 * time.Second,
		now:       time.Now,
	}
}

// SetTickInterval overrides the default 30-second check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Location returns the zone schedule times are interpreted in.
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// Run checks the schedule every tick, starting immediately, and blocks until
// ctx is cancelled. Overlapping checks are skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	cron := gocron.NewScheduler(s.loc)
	cron.SingletonModeAll()

	if _, err := cron.Every(s.tick).Do(func() { s.checkAll(ctx) }); err != nil {
		return fmt.Errorf("schedule check job: %w", err)
	}

	s.log.Info("scheduler started", "interval", s.tick.String(), "timezone", s.loc.String())
	cron.StartAsync()

	<-ctx.Done()
	cron.Stop()
	s.log.Info("scheduler stopped")
	return nil
}

// Add parses expr and schedules postID accordingly.
func (s *Scheduler) Add(ctx context.Context, postID int64, expr string) (model.ScheduledEntry, error) {
	entry, err := ParseSchedule(expr, s.now(), s.loc)
	if err != nil {
		return model.ScheduledEntry{}, err
	}

	entries, err := s.store.LoadScheduled(ctx)
	if err != nil {
		return model.ScheduledEntry{}, fmt.Errorf("load scheduled: %w", err)
	}
	entry.ID = model.NextScheduledID(entries)
	entry.PostID = postID

	if err := s.store.SaveScheduled(ctx, append(entries, entry)); err != nil {
		return model.ScheduledEntry{}, fmt.Errorf("save scheduled: %w", err)
	}
	s.log.Info("post scheduled", "entry_id", entry.ID, "post_id", postID, "mode", entry.Mode)
	return entry, nil
}

// List returns all scheduled entries. A load failure is logged and yields
// an empty list.
func (s *Scheduler) List(ctx context.Context) []model.ScheduledEntry {
	entries, err := s.store.LoadScheduled(ctx)
	if err != nil {
		s.log.Error("load scheduled", "error", err)
		return nil
	}
	return entries
}

// Cancel removes the entry with the given ID.
func (s *Scheduler) Cancel(ctx context.Context, id int64) error {
	entries, err := s.store.LoadScheduled(ctx)
	if err != nil {
		return fmt.Errorf("load scheduled: %w", err)
	}
	out := make([]model.ScheduledEntry, 0, len(entries))
	for _, e := range entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	if len(out) == len(entries) {
		return ErrNotFound
	}
	if err := s.store.SaveScheduled(ctx, out); err != nil {
		return fmt.Errorf("save scheduled: %w", err)
	}
	return nil
}

func (s *Scheduler) checkAll(ctx context.Context) {
	entries, err := s.store.LoadScheduled(ctx)
	if err != nil {
		s.log.Error("load scheduled", "error", err)
		return
	}

	now := s.now().In(s.loc)
	var due []model.ScheduledEntry
	for _, e := range entries {
		if isDue(e, now, s.loc) {
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		return
	}

	posts, err := s.store.LoadPosts(ctx)
	if err != nil {
		s.log.Error("load posts", "error", err)
		return
	}
	channels, err := s.store.LoadChannels(ctx)
	if err != nil {
		s.log.Error("load channels", "error", err)
		return
	}

	fired := make(map[int64]bool, len(due))
	for _, e := range due {
		if ctx.Err() != nil {
			break
		}
		s.fire(ctx, e, posts, channels)
		fired[e.ID] = true
	}

	stamp := now.UTC()
	out := make([]model.ScheduledEntry, 0, len(entries))
	for _, e := range entries {
		if !fired[e.ID] {
			out = append(out, e)
			continue
		}
		if e.Mode == model.ScheduleDaily && model.FindPost(posts, e.PostID) != nil {
			e.LastSent = &stamp
			out = append(out, e)
		}
	}
	if err := s.store.SaveScheduled(ctx, out); err != nil {
		s.log.Error("save scheduled", "error", err)
	}
}

func (s *Scheduler) fire(ctx context.Context, e model.ScheduledEntry, posts []model.Post, channels []model.Channel) {
	post := model.FindPost(posts, e.PostID)
	if post == nil {
		s.log.Warn("scheduled post missing, dropping entry", "entry_id", e.ID, "post_id", e.PostID)
		return
	}

	sent := s.deliverer.Deliver(ctx, *post, channels)
	metrics.RecordScheduledRun(string(e.Mode))
	s.log.Info("scheduled post fired", "entry_id", e.ID, "post_id", e.PostID, "sent", sent, "channels", len(channels))
}

// isDue reports whether e should fire at now. A daily entry fires once per
// day, on the first check at or after its time of day.
func isDue(e model.ScheduledEntry, now time.Time, loc *time.Location) bool {
	switch e.Mode {
	case model.ScheduleOnce:
		return e.RunAt != nil && !now.Before(*e.RunAt)
	case model.ScheduleDaily:
		tod, err := time.Parse(timeOfDayLayout, e.TimeOfDay)
		if err != nil {
			return false
		}
		occurrence := time.Date(now.Year(), now.Month(), now.Day(), tod.Hour(), tod.Minute(), 0, 0, loc)
		if now.Before(occurrence) {
			return false
		}
		return e.LastSent == nil || e.LastSent.Before(occurrence)
	}
	return false
}
