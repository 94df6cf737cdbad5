package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"multipost_bot/internal/model"
	"multipost_bot/internal/storage"
)

type delivery struct {
	PostID   int64
	Channels int
}

type mockDeliverer struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (m *mockDeliverer) Deliver(_ context.Context, post model.Post, channels []model.Channel) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, delivery{PostID: post.ID, Channels: len(channels)})
	return len(channels)
}

func (m *mockDeliverer) getDeliveries() []delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]delivery, len(m.deliveries))
	copy(cp, m.deliveries)
	return cp
}

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestScheduler(t *testing.T, now time.Time) (*Scheduler, *storage.SQLite, *mockDeliverer) {
	t.Helper()
	ctx := context.Background()
	store := newTestStore(t)
	if err := store.SaveChannels(ctx, []model.Channel{{ID: -1, Title: "A"}, {ID: -2, Title: "B"}}); err != nil {
		t.Fatalf("save channels: %v", err)
	}
	if err := store.SavePosts(ctx, []model.Post{{ID: 1, Text: "One"}, {ID: 2, Text: "Two"}}); err != nil {
		t.Fatalf("save posts: %v", err)
	}

	d := &mockDeliverer{}
	s := New(store, d, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return now }
	return s, store, d
}

func ptr(t time.Time) *time.Time { return &t }

func TestParseSchedule(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		expr    string
		want    model.ScheduledEntry
		wantErr error
	}{
		{
			name: "one time",
			expr: "2026-05-11 08:30",
			want: model.ScheduledEntry{Mode: model.ScheduleOnce, RunAt: ptr(time.Date(2026, 5, 11, 8, 30, 0, 0, time.UTC))},
		},
		{
			name: "daily",
			expr: "  daily 09:05 ",
			want: model.ScheduledEntry{Mode: model.ScheduleDaily, TimeOfDay: "09:05", LastSent: ptr(now)},
		},
		{
			name: "daily is case insensitive",
			expr: "Daily 18:00",
			want: model.ScheduledEntry{Mode: model.ScheduleDaily, TimeOfDay: "18:00", LastSent: ptr(now)},
		},
		{name: "past", expr: "2026-05-10 11:59", wantErr: ErrInPast},
		{name: "now is past", expr: "2026-05-10 12:00", wantErr: ErrInPast},
		{name: "garbage", expr: "tomorrow", wantErr: ErrBadSchedule},
		{name: "bad daily", expr: "daily 25:00", wantErr: ErrBadSchedule},
		{name: "empty", expr: "", wantErr: ErrBadSchedule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedule(tt.expr, now, time.UTC)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseSchedule(%q) error = %v, want %v", tt.expr, err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("entry mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseScheduleUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	got, err := ParseSchedule("2026-05-10 09:00", now, loc)
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}
	want := time.Date(2026, 5, 10, 6, 0, 0, 0, time.UTC)
	if !got.RunAt.Equal(want) {
		t.Errorf("RunAt = %v, want %v", got.RunAt, want)
	}
	if diff := cmp.Diff("2026-05-10 09:00", Describe(got, loc)); diff != "" {
		t.Errorf("Describe mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckAllFiresOnceEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s, store, d := newTestScheduler(t, now)

	entries := []model.ScheduledEntry{
		{ID: 1, PostID: 1, Mode: model.ScheduleOnce, RunAt: ptr(now.Add(-time.Minute))},
		{ID: 2, PostID: 2, Mode: model.ScheduleOnce, RunAt: ptr(now.Add(time.Hour))},
	}
	if err := store.SaveScheduled(ctx, entries); err != nil {
		t.Fatalf("save scheduled: %v", err)
	}

	s.checkAll(ctx)

	if diff := cmp.Diff([]delivery{{PostID: 1, Channels: 2}}, d.getDeliveries()); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}
	left, err := store.LoadScheduled(ctx)
	if err != nil {
		t.Fatalf("load scheduled: %v", err)
	}
	if diff := cmp.Diff(entries[1:], left); diff != "" {
		t.Errorf("fired once entry should be removed (-want +got):\n%s", diff)
	}

	s.checkAll(ctx)
	if len(d.getDeliveries()) != 1 {
		t.Errorf("once entry fired again: %v", d.getDeliveries())
	}
}

func TestCheckAllFiresDailyOncePerDay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 9, 0, 30, 0, time.UTC)
	s, store, d := newTestScheduler(t, now)

	yesterday := time.Date(2026, 5, 9, 9, 0, 10, 0, time.UTC)
	if err := store.SaveScheduled(ctx, []model.ScheduledEntry{
		{ID: 1, PostID: 2, Mode: model.ScheduleDaily, TimeOfDay: "09:00", LastSent: &yesterday},
		{ID: 2, PostID: 1, Mode: model.ScheduleDaily, TimeOfDay: "10:00", LastSent: &yesterday},
	}); err != nil {
		t.Fatalf("save scheduled: %v", err)
	}

	s.checkAll(ctx)
	s.checkAll(ctx)

	if diff := cmp.Diff([]delivery{{PostID: 2, Channels: 2}}, d.getDeliveries()); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}

	left, err := store.LoadScheduled(ctx)
	if err != nil {
		t.Fatalf("load scheduled: %v", err)
	}
	if len(left) != 2 {
		t.Fatalf("daily entries must stay, got %d", len(left))
	}
	if want := time.Date(2026, 5, 10, 9, 0, 30, 0, time.UTC); !left[0].LastSent.Equal(want) {
		t.Errorf("LastSent = %v, want %v", left[0].LastSent, want)
	}
	if !left[1].LastSent.Equal(yesterday) {
		t.Errorf("unfired entry LastSent changed to %v", left[1].LastSent)
	}

	s.now = func() time.Time { return now.Add(25 * time.Hour) }
	s.checkAll(ctx)
	if len(d.getDeliveries()) != 3 {
		t.Errorf("expected both daily entries to fire next day, got %v", d.getDeliveries())
	}
}

func TestCheckAllDropsEntriesForMissingPosts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s, store, d := newTestScheduler(t, now)

	if err := store.SaveScheduled(ctx, []model.ScheduledEntry{
		{ID: 1, PostID: 9, Mode: model.ScheduleDaily, TimeOfDay: "11:00"},
	}); err != nil {
		t.Fatalf("save scheduled: %v", err)
	}

	s.checkAll(ctx)

	if len(d.getDeliveries()) != 0 {
		t.Errorf("missing post must not be delivered: %v", d.getDeliveries())
	}
	left, err := store.LoadScheduled(ctx)
	if err != nil {
		t.Fatalf("load scheduled: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("entry for missing post should be dropped, got %v", left)
	}
}

func TestAddListCancel(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s, _, _ := newTestScheduler(t, now)

	first, err := s.Add(ctx, 1, "2026-05-11 10:00")
	if err != nil {
		t.Fatalf("add once: %v", err)
	}
	second, err := s.Add(ctx, 2, "daily 07:00")
	if err != nil {
		t.Fatalf("add daily: %v", err)
	}
	if _, err := s.Add(ctx, 2, "yesterday"); !errors.Is(err, ErrBadSchedule) {
		t.Errorf("bad expression error = %v, want ErrBadSchedule", err)
	}

	if diff := cmp.Diff([]int64{1, 2}, []int64{first.ID, second.ID}); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]model.ScheduledEntry{first, second}, s.List(ctx)); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}

	if err := s.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := s.Cancel(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second cancel error = %v, want ErrNotFound", err)
	}
	if diff := cmp.Diff([]model.ScheduledEntry{second}, s.List(ctx)); diff != "" {
		t.Errorf("list after cancel (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s, store, d := newTestScheduler(t, now)
	s.SetTickInterval(time.Hour)

	if err := store.SaveScheduled(context.Background(), []model.ScheduledEntry{
		{ID: 1, PostID: 1, Mode: model.ScheduleOnce, RunAt: ptr(now.Add(-time.Second))},
	}); err != nil {
		t.Fatalf("save scheduled: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for len(d.getDeliveries()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if diff := cmp.Diff([]delivery{{PostID: 1, Channels: 2}}, d.getDeliveries()); diff != "" {
		t.Errorf("first check should run immediately (-want +got):\n%s", diff)
	}
}
