// Package storage defines the persistence interface and its implementations.
//
// Every collection is loaded and saved as a whole. A save replaces the stored
// collection with the given slice, so concurrent writers are last-write-wins.
package storage

import (
	"context"

	"multipost_bot/internal/model"
)

// Storage is the interface for all persistence operations.
// Loading a collection that was never saved yields an empty slice.
type Storage interface {
	LoadChannels(ctx context.Context) ([]model.Channel, error)
	SaveChannels(ctx context.Context, channels []model.Channel) error

	LoadPosts(ctx context.Context) ([]model.Post, error)
	SavePosts(ctx context.Context, posts []model.Post) error

	LoadScheduled(ctx context.Context) ([]model.ScheduledEntry, error)
	SaveScheduled(ctx context.Context, entries []model.ScheduledEntry) error

	Close() error
}
