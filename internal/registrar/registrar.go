// Package registrar manages the list of broadcast channels.
package registrar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"multipost_bot/internal/model"
)

// Registration errors. ErrAlreadyRegistered is informational.
var (
	ErrNotForward        = errors.New("message is not forwarded from a chat")
	ErrNotChannel        = errors.New("forwarded message is not from a channel")
	ErrAlreadyRegistered = errors.New("channel already registered")
	ErrNotFound          = errors.New("channel not found")
)

// Store is the channel persistence used by Registrar.
type Store interface {
	LoadChannels(ctx context.Context) ([]model.Channel, error)
	SaveChannels(ctx context.Context, channels []model.Channel) error
}

// Registrar adds, lists and removes channels.
type Registrar struct {
	store Store
	log   *slog.Logger
}

// New creates a Registrar.
func New(store Store, log *slog.Logger) *Registrar {
	return &Registrar{store: store, log: log}
}

// Register adds the channel a message was forwarded from. The title falls
// back to the numeric ID when the channel has none.
func (r *Registrar) Register(ctx context.Context, origin *model.ForwardOrigin) (model.Channel, error) {
	if origin == nil {
		return model.Channel{}, ErrNotForward
	}
	if origin.Type != "channel" {
		return model.Channel{}, ErrNotChannel
	}

	channels, err := r.store.LoadChannels(ctx)
	if err != nil {
		return model.Channel{}, fmt.Errorf("load channels: %w", err)
	}
	if c := model.FindChannel(channels, origin.ChatID); c != nil {
		return *c, ErrAlreadyRegistered
	}

	ch := model.Channel{ID: origin.ChatID, Title: origin.Title}
	if ch.Title == "" {
		ch.Title = strconv.FormatInt(ch.ID, 10)
	}
	if err := r.store.SaveChannels(ctx, append(channels, ch)); err != nil {
		return model.Channel{}, fmt.Errorf("save channels: %w", err)
	}

	r.log.Info("channel registered", "chat_id", ch.ID, "title", ch.Title)
	return ch, nil
}

// List returns the registered channels. A load failure is logged and yields
// an empty list.
func (r *Registrar) List(ctx context.Context) []model.Channel {
	channels, err := r.store.LoadChannels(ctx)
	if err != nil {
		r.log.Error("load channels", "error", err)
		return nil
	}
	return channels
}

// Remove unregisters the channel with the given ID and returns it.
func (r *Registrar) Remove(ctx context.Context, id int64) (model.Channel, error) {
	channels, err := r.store.LoadChannels(ctx)
	if err != nil {
		return model.Channel{}, fmt.Errorf("load channels: %w", err)
	}
	out := make([]model.Channel, 0, len(channels))
	var removed *model.Channel
	for i := range channels {
		if channels[i].ID == id {
			removed = &channels[i]
			continue
		}
		out = append(out, channels[i])
	}
	if removed == nil {
		return model.Channel{}, ErrNotFound
	}
	if err := r.store.SaveChannels(ctx, out); err != nil {
		return model.Channel{}, fmt.Errorf("save channels: %w", err)
	}

	r.log.Info("channel removed", "chat_id", id)
	return *removed, nil
}
