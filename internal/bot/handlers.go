package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"multipost_bot/internal/dialog"
	"multipost_bot/internal/model"
	"multipost_bot/internal/registrar"
	"multipost_bot/internal/scheduler"
	"multipost_bot/internal/state"
)

func (b *Bot) handleAddChannel(ctx context.Context, userID, chatID int64) {
	b.enterFresh(ctx, userID, chatID, dialog.State{Step: dialog.StepAwaitingForward})
}

func (b *Bot) handleChannelList(ctx context.Context, chatID int64) {
	channels := b.registrar.List(ctx)
	if len(channels) == 0 {
		b.reply(chatID, msgNoChannels, menuRow())
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(channels)+1)
	for _, ch := range channels {
		rows = append(rows, row(
			button(truncateRunes(ch.Title, 40), Callback{Action: actViewChannel, ID: ch.ID}),
			button("❌ Remove", Callback{Action: actRemoveChannel, ID: ch.ID}),
		))
	}
	rows = append(rows, menuRow())
	b.reply(chatID, "📜 Your channels:", rows...)
}

func (b *Bot) handleViewChannel(ctx context.Context, chatID, id int64) {
	ch := model.FindChannel(b.registrar.List(ctx), id)
	if ch == nil {
		b.reply(chatID, "Channel not found.", menuRow())
		return
	}
	b.reply(chatID, FormatChannel(*ch),
		row(button("❌ Remove", Callback{Action: actRemoveChannel, ID: ch.ID})),
		menuRow())
}

func (b *Bot) handleRemoveChannel(ctx context.Context, chatID, id int64) {
	ch, err := b.registrar.Remove(ctx, id)
	switch {
	case errors.Is(err, registrar.ErrNotFound):
		b.reply(chatID, "Channel not found.", menuRow())
	case err != nil:
		b.log.Error("remove channel", "channel_id", id, "error", err)
		b.reply(chatID, msgSaveFailed, mainMenu()...)
	default:
		b.reply(chatID, fmt.Sprintf("✅ Channel %s removed.", ch.Title), mainMenu()...)
	}
}

func (b *Bot) handleDeleteChannels(ctx context.Context, chatID int64) {
	channels := b.registrar.List(ctx)
	if len(channels) == 0 {
		b.reply(chatID, msgNoChannels, menuRow())
		return
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(channels)+1)
	for _, ch := range channels {
		rows = append(rows, row(button(truncateRunes(ch.Title, 30), Callback{Action: actRemoveChannel, ID: ch.ID})))
	}
	rows = append(rows, menuRow())
	b.reply(chatID, "Choose channel to remove:", rows...)
}

func (b *Bot) handleCreatePost(ctx context.Context, userID, chatID int64) {
	b.enterFresh(ctx, userID, chatID, dialog.State{Step: dialog.StepAwaitingContent})
}

func (b *Bot) handleMultipost(ctx context.Context, userID, chatID int64) {
	b.enterFresh(ctx, userID, chatID, dialog.State{Step: dialog.StepAwaitingContent, Multipost: true})
}

// handleMultipostSend delivers every post collected in the multipost
// session, in the order they were added.
func (b *Bot) handleMultipostSend(ctx context.Context, userID, chatID int64) {
	var ids []int64
	b.tracker.Update(userID, func(s *state.Session) {
		ids = append(ids, s.Int64s(dialog.KeyMultipostList)...)
	})
	if len(ids) == 0 {
		b.reply(chatID, "No posts collected yet. Send at least one post first.", multipostMenu()...)
		return
	}

	channels := b.registrar.List(ctx)
	if len(channels) == 0 {
		b.reply(chatID, msgNoChannels, menuRow())
		return
	}

	posts := b.loadPosts(ctx)
	b.tracker.Clear(userID)

	var delivered, sent int
	for _, id := range ids {
		p := model.FindPost(posts, id)
		if p == nil {
			b.log.Warn("multipost entry missing", "post_id", id)
			continue
		}
		sent += b.dispatcher.Deliver(ctx, *p, channels)
		delivered++
	}
	b.reply(chatID,
		fmt.Sprintf("✅ Sent %d post(s): %d of %d deliveries succeeded.", delivered, sent, delivered*len(channels)),
		mainMenu()...)
}

func (b *Bot) handleCaptionChoice(ctx context.Context, userID, chatID int64, add bool) {
	ev := dialog.Event{Kind: dialog.EventSkipCaption}
	if add {
		ev.Kind = dialog.EventAddCaption
	}
	b.advance(ctx, userID, chatID, ev)
}

// enterForPost starts st for an existing post.
func (b *Bot) enterForPost(ctx context.Context, userID, chatID int64, st dialog.State) {
	if model.FindPost(b.loadPosts(ctx), st.PostID) == nil {
		b.reply(chatID, msgPostNotFound, mainMenu()...)
		return
	}
	b.enterFresh(ctx, userID, chatID, st)
}

func (b *Bot) handleAddButtons(ctx context.Context, userID, chatID, id int64) {
	b.enterForPost(ctx, userID, chatID, dialog.State{Step: dialog.StepAwaitingButtons, PostID: id})
}

func (b *Bot) handleEditPost(ctx context.Context, userID, chatID, id int64) {
	b.enterForPost(ctx, userID, chatID, dialog.State{Step: dialog.StepAwaitingEdit, PostID: id})
}

func (b *Bot) handleSchedulePost(ctx context.Context, userID, chatID, id int64) {
	b.enterForPost(ctx, userID, chatID, dialog.State{Step: dialog.StepAwaitingSchedule, PostID: id})
}

func (b *Bot) handlePostList(ctx context.Context, chatID int64, title string, rowFor func(id int64) []tgbotapi.InlineKeyboardButton) {
	posts := b.loadPosts(ctx)
	if len(posts) == 0 {
		b.reply(chatID, msgNoPosts, menuRow())
		return
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(posts)+1)
	for _, p := range posts {
		rows = append(rows, rowFor(p.ID))
	}
	rows = append(rows, menuRow())
	b.reply(chatID, title, rows...)
}

func (b *Bot) handleViewPost(ctx context.Context, chatID, id int64) {
	p := model.FindPost(b.loadPosts(ctx), id)
	if p == nil {
		b.reply(chatID, msgPostNotFound, mainMenu()...)
		return
	}
	b.preview(ctx, chatID, *p)
	b.reply(chatID, fmt.Sprintf("☝️ Post #%d", id), savedPostMenu(id)...)
}

// handleDeletePost removes a post. Later posts move down one ID and their
// schedule entries follow them. If the schedule cannot be rewritten the
// posts are restored.
func (b *Bot) handleDeletePost(ctx context.Context, chatID, id int64) {
	posts, err := b.store.LoadPosts(ctx)
	if err != nil {
		b.log.Error("load posts", "error", err)
		b.reply(chatID, msgSaveFailed, mainMenu()...)
		return
	}
	entries, err := b.store.LoadScheduled(ctx)
	if err != nil {
		b.log.Error("load scheduled", "error", err)
		b.reply(chatID, msgSaveFailed, mainMenu()...)
		return
	}

	remaining, ok := model.DeletePost(posts, id)
	if !ok {
		b.reply(chatID, msgPostNotFound, mainMenu()...)
		return
	}
	if err := b.store.SavePosts(ctx, remaining); err != nil {
		b.log.Error("save posts", "error", err)
		b.reply(chatID, msgSaveFailed, mainMenu()...)
		return
	}
	if err := b.store.SaveScheduled(ctx, model.RemapScheduled(entries, id)); err != nil {
		b.log.Error("save scheduled", "error", err)
		if err := b.store.SavePosts(ctx, posts); err != nil {
			b.log.Error("restore posts", "post_id", id, "error", err)
			b.reply(chatID, "⚠️ Post deleted, but scheduled posts could not be updated. Check Scheduled.",
				row(button("⏰ Scheduled", Callback{Action: actScheduled})), menuRow())
			return
		}
		b.reply(chatID, msgSaveFailed, mainMenu()...)
		return
	}

	b.log.Info("post deleted", "post_id", id, "remaining", len(remaining))
	b.reply(chatID, fmt.Sprintf("✅ Post #%d deleted. Remaining posts were renumbered.", id), mainMenu()...)
}

func (b *Bot) handleSendMenu(ctx context.Context, chatID int64) {
	if len(b.registrar.List(ctx)) == 0 {
		b.reply(chatID, msgNoChannels, menuRow())
		return
	}
	b.handlePostList(ctx, chatID, "📤 Which post do you want to send?", singlePostRow("📄 Post %d", actSendPost))
}

func (b *Bot) handleSendPost(ctx context.Context, chatID, id int64) {
	p := model.FindPost(b.loadPosts(ctx), id)
	if p == nil {
		b.reply(chatID, msgPostNotFound, mainMenu()...)
		return
	}
	channels := b.registrar.List(ctx)
	if len(channels) == 0 {
		b.reply(chatID, msgNoChannels, menuRow())
		return
	}
	sent := b.dispatcher.Deliver(ctx, *p, channels)
	b.log.Info("post sent", "post_id", id, "sent", sent, "channels", len(channels))
	b.reply(chatID, FormatDelivery(sent, len(channels)), mainMenu()...)
}

func (b *Bot) handleScheduledList(ctx context.Context, chatID int64) {
	entries := b.scheduler.List(ctx)
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entries)+1)
	for _, e := range entries {
		rows = append(rows, row(button(fmt.Sprintf("❌ Cancel #%d", e.ID), Callback{Action: actCancelScheduled, ID: e.ID})))
	}
	rows = append(rows, menuRow())
	b.reply(chatID, FormatScheduled(entries, b.scheduler.Location()), rows...)
}

func (b *Bot) handleCancelScheduled(ctx context.Context, chatID, id int64) {
	err := b.scheduler.Cancel(ctx, id)
	switch {
	case errors.Is(err, scheduler.ErrNotFound):
		b.reply(chatID, "Scheduled entry not found.", menuRow())
	case err != nil:
		b.log.Error("cancel scheduled", "entry_id", id, "error", err)
		b.reply(chatID, msgSaveFailed, mainMenu()...)
	default:
		b.reply(chatID, fmt.Sprintf("✅ Schedule #%d cancelled.", id),
			row(button("⏰ Scheduled", Callback{Action: actScheduled})),
			menuRow())
	}
}
