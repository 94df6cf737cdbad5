// Package dispatch fans a post out to every registered channel.
package dispatch

import (
	"context"
	"log/slog"

	"go.uber.org/ratelimit"

	"multipost_bot/internal/buttons"
	"multipost_bot/internal/metrics"
	"multipost_bot/internal/model"
)

// NoText replaces the body of text-only posts that have none, since the
// platform rejects empty messages.
const NoText = "(No text)"

// Gateway sends content to a chat. Markup may be nil.
type Gateway interface {
	SendText(ctx context.Context, chatID int64, text string, markup [][]buttons.Button) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string, markup [][]buttons.Button) error
	SendVideo(ctx context.Context, chatID int64, fileID, caption string, markup [][]buttons.Button) error
	SendAnimation(ctx context.Context, chatID int64, fileID, caption string, markup [][]buttons.Button) error
}

// Dispatcher delivers posts through a Gateway, one channel at a time.
type Dispatcher struct {
	gw      Gateway
	limiter ratelimit.Limiter
	log     *slog.Logger
}

// New creates a Dispatcher. A nil limiter means no pacing.
func New(gw Gateway, limiter ratelimit.Limiter, log *slog.Logger) *Dispatcher {
	if limiter == nil {
		limiter = ratelimit.NewUnlimited()
	}
	return &Dispatcher{gw: gw, limiter: limiter, log: log}
}

// Deliver sends post to every channel in order and returns how many sends
// succeeded. A failed send is logged and does not stop the remaining ones.
func (d *Dispatcher) Deliver(ctx context.Context, post model.Post, channels []model.Channel) int {
	markup := buttons.Parse(post.ButtonsRaw)

	sent := 0
	for _, ch := range channels {
		d.limiter.Take()

		err := d.send(ctx, ch.ID, post, markup)
		metrics.RecordDelivery(string(post.MediaType), err)
		if err != nil {
			d.log.Error("send post", "post_id", post.ID, "chat_id", ch.ID, "error", err)
			continue
		}
		sent++
	}

	d.log.Info("post delivered", "post_id", post.ID, "sent", sent, "channels", len(channels))
	return sent
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, post model.Post, markup [][]buttons.Button) error {
	switch post.MediaType {
	case model.MediaPhoto:
		return d.gw.SendPhoto(ctx, chatID, post.MediaID, post.Text, markup)
	case model.MediaVideo:
		return d.gw.SendVideo(ctx, chatID, post.MediaID, post.Text, markup)
	case model.MediaAnimation:
		return d.gw.SendAnimation(ctx, chatID, post.MediaID, post.Text, markup)
	default:
		text := post.Text
		if text == "" {
			text = NoText
		}
		return d.gw.SendText(ctx, chatID, text, markup)
	}
}
