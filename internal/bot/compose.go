package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"multipost_bot/internal/dialog"
	"multipost_bot/internal/metrics"
	"multipost_bot/internal/model"
	"multipost_bot/internal/registrar"
	"multipost_bot/internal/scheduler"
	"multipost_bot/internal/state"
)

var eventLabels = map[dialog.EventKind]string{
	dialog.EventText:    "text",
	dialog.EventMedia:   "media",
	dialog.EventForward: "forward",
}

// handleInput feeds a non-command private message into the conversation.
func (b *Bot) handleInput(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := senderID(msg)

	ev, ok := inputEvent(msg)
	if !ok {
		metrics.RecordUpdate("other")
		var step dialog.Step
		b.tracker.Update(userID, func(s *state.Session) { step = dialog.Load(s).Step })
		if step == dialog.StepAwaitingContent {
			b.reply(chatID, "Only text, photos, videos and GIFs are supported.", backRow())
		}
		return
	}

	metrics.RecordUpdate(eventLabels[ev.Kind])
	b.advance(ctx, userID, chatID, ev)
}

// inputEvent classifies a message. Any forward counts as a registration
// attempt; the registrar rejects those that are not from a channel.
func inputEvent(msg *tgbotapi.Message) (dialog.Event, bool) {
	switch {
	case msg.ForwardFromChat != nil:
		return dialog.Event{Kind: dialog.EventForward, Origin: &model.ForwardOrigin{
			ChatID: msg.ForwardFromChat.ID,
			Type:   msg.ForwardFromChat.Type,
			Title:  msg.ForwardFromChat.Title,
		}}, true
	case msg.ForwardFrom != nil || msg.ForwardSenderName != "":
		return dialog.Event{Kind: dialog.EventForward, Origin: &model.ForwardOrigin{Type: "private"}}, true
	case msg.Animation != nil:
		return mediaEvent(msg.Animation.FileID, model.MediaAnimation, msg.Caption), true
	case len(msg.Photo) > 0:
		// Sizes are ordered smallest first.
		return mediaEvent(msg.Photo[len(msg.Photo)-1].FileID, model.MediaPhoto, msg.Caption), true
	case msg.Video != nil:
		return mediaEvent(msg.Video.FileID, model.MediaVideo, msg.Caption), true
	case msg.Text != "":
		return dialog.Event{Kind: dialog.EventText, Text: msg.Text}, true
	}
	return dialog.Event{}, false
}

func mediaEvent(fileID string, t model.MediaType, caption string) dialog.Event {
	return dialog.Event{Kind: dialog.EventMedia, Media: dialog.Media{FileID: fileID, Type: t, Caption: caption}}
}

// advance runs one transition for userID and carries out its effect.
func (b *Bot) advance(ctx context.Context, userID, chatID int64, ev dialog.Event) {
	var (
		next dialog.State
		eff  dialog.Effect
	)
	b.tracker.Update(userID, func(s *state.Session) {
		next, eff = dialog.Next(dialog.Load(s), ev)
		if next.Step == dialog.StepIdle {
			s.Clear()
			return
		}
		dialog.Enter(s, next)
	})
	b.apply(ctx, userID, chatID, next, eff)
}

func (b *Bot) apply(ctx context.Context, userID, chatID int64, next dialog.State, eff dialog.Effect) {
	switch eff.Kind {
	case dialog.EffectNone:
		switch next.Step {
		case dialog.StepIdle:
			b.reply(chatID, "Use the menu to get started.", mainMenu()...)
		case dialog.StepAwaitingCaptionChoice:
			b.reply(chatID, promptCaption, captionChoiceMenu()...)
		}
	case dialog.EffectUnexpected:
		b.unknownOption(userID, chatID)
	case dialog.EffectAskCaption:
		b.reply(chatID, promptCaption, captionChoiceMenu()...)
	case dialog.EffectAskCaptionText:
		b.reply(chatID, promptCaptionText, backRow())
	case dialog.EffectSavePost:
		b.savePosts(ctx, userID, chatID, []model.Post{eff.Post}, next.Multipost)
	case dialog.EffectSaveBatch:
		b.savePosts(ctx, userID, chatID, eff.Posts, next.Multipost)
	case dialog.EffectSetButtons:
		b.updatePost(ctx, chatID, eff.PostID, "✅ Buttons saved for post #%d. You can send it now.", func(p *model.Post) {
			p.ButtonsRaw = eff.Text
		})
	case dialog.EffectEditPost:
		b.updatePost(ctx, chatID, eff.PostID, "✅ Post #%d updated!", func(p *model.Post) {
			if eff.Text != "" {
				p.Text = eff.Text
			}
			if eff.Buttons != "" {
				p.ButtonsRaw = eff.Buttons
			}
		})
	case dialog.EffectRegister:
		b.register(ctx, chatID, eff.Origin)
	case dialog.EffectSchedule:
		b.schedule(ctx, chatID, eff.PostID, eff.Text)
	}
}

func (b *Bot) savePosts(ctx context.Context, userID, chatID int64, added []model.Post, multipost bool) {
	posts, err := b.store.LoadPosts(ctx)
	if err != nil {
		b.log.Error("load posts", "error", err)
		b.reply(chatID, msgSaveFailed, mainMenu()...)
		return
	}

	ids := make([]int64, 0, len(added))
	for _, p := range added {
		var id int64
		posts, id = model.AppendPost(posts, p)
		ids = append(ids, id)
	}
	if err := b.store.SavePosts(ctx, posts); err != nil {
		b.log.Error("save posts", "error", err)
		b.reply(chatID, msgSaveFailed, mainMenu()...)
		return
	}
	b.log.Info("posts saved", "ids", ids, "user_id", userID)

	if multipost {
		var total int
		b.tracker.Update(userID, func(s *state.Session) {
			list := append(append([]int64(nil), s.Int64s(dialog.KeyMultipostList)...), ids...)
			s.Set(dialog.KeyMultipostList, list)
			total = len(list)
		})
		b.reply(chatID,
			fmt.Sprintf("✅ %d post(s) added, %d collected so far. Send more or press Send All.", len(ids), total),
			multipostMenu()...)
		return
	}

	id := ids[len(ids)-1]
	b.reply(chatID, fmt.Sprintf("✅ Post #%d saved! Add buttons, send it now or schedule it.", id), savedPostMenu(id)...)
}

func (b *Bot) updatePost(ctx context.Context, chatID, postID int64, done string, mutate func(p *model.Post)) {
	posts, err := b.store.LoadPosts(ctx)
	if err != nil {
		b.log.Error("load posts", "error", err)
		b.reply(chatID, msgSaveFailed, mainMenu()...)
		return
	}
	p := model.FindPost(posts, postID)
	if p == nil {
		b.reply(chatID, msgPostNotFound, mainMenu()...)
		return
	}
	mutate(p)
	if err := b.store.SavePosts(ctx, posts); err != nil {
		b.log.Error("save posts", "post_id", postID, "error", err)
		b.reply(chatID, msgSaveFailed, mainMenu()...)
		return
	}
	b.reply(chatID, fmt.Sprintf(done, postID), savedPostMenu(postID)...)
}

func (b *Bot) register(ctx context.Context, chatID int64, origin *model.ForwardOrigin) {
	ch, err := b.registrar.Register(ctx, origin)
	switch {
	case err == nil:
		b.reply(chatID, fmt.Sprintf("✅ Channel %s added!", ch.Title), mainMenu()...)
	case errors.Is(err, registrar.ErrAlreadyRegistered):
		b.reply(chatID, fmt.Sprintf("⚠️ Channel %s is already added.", ch.Title), mainMenu()...)
	case errors.Is(err, registrar.ErrNotForward):
		b.reply(chatID, "❌ This is not a message forwarded from a channel. Please forward one from your channel.", menuRow())
	case errors.Is(err, registrar.ErrNotChannel):
		b.reply(chatID, "❌ The forwarded message is not from a channel.", menuRow())
	default:
		b.log.Error("register channel", "error", err)
		b.reply(chatID, msgSaveFailed, mainMenu()...)
	}
}

func (b *Bot) schedule(ctx context.Context, chatID, postID int64, expr string) {
	if model.FindPost(b.loadPosts(ctx), postID) == nil {
		b.reply(chatID, msgPostNotFound, mainMenu()...)
		return
	}

	retry := row(button("⏰ Try again", Callback{Action: actSchedulePost, ID: postID}))
	entry, err := b.scheduler.Add(ctx, postID, expr)
	switch {
	case err == nil:
		loc := b.scheduler.Location()
		b.reply(chatID,
			fmt.Sprintf("⏰ Post #%d scheduled: %s (%s).", postID, scheduler.Describe(entry, loc), loc),
			row(button("⏰ Scheduled", Callback{Action: actScheduled})),
			menuRow())
	case errors.Is(err, scheduler.ErrBadSchedule):
		b.reply(chatID, "❌ Could not read that time. Use YYYY-MM-DD HH:MM or daily HH:MM.", retry, menuRow())
	case errors.Is(err, scheduler.ErrInPast):
		b.reply(chatID, "❌ That time is already in the past.", retry, menuRow())
	default:
		b.log.Error("schedule post", "post_id", postID, "error", err)
		b.reply(chatID, msgSaveFailed, mainMenu()...)
	}
}

// showStep displays the prompt of the given step.
func (b *Bot) showStep(ctx context.Context, chatID int64, st dialog.State) {
	guide := row(button("📘 Button Guide", Callback{Action: actGuide}))

	switch st.Step {
	case dialog.StepAwaitingContent:
		if st.Multipost {
			b.reply(chatID, promptMultipost, multipostMenu()...)
			return
		}
		b.reply(chatID, promptContent, guide, backRow())
	case dialog.StepAwaitingCaptionChoice:
		b.reply(chatID, promptCaption, captionChoiceMenu()...)
	case dialog.StepAwaitingCaptionText:
		b.reply(chatID, promptCaptionText, backRow())
	case dialog.StepAwaitingButtons:
		b.reply(chatID, promptButtons(st.PostID), guide, backRow())
	case dialog.StepAwaitingEdit:
		p := model.FindPost(b.loadPosts(ctx), st.PostID)
		if p == nil {
			b.reply(chatID, msgPostNotFound, mainMenu()...)
			return
		}
		b.reply(chatID, promptEdit(*p), guide, backRow())
	case dialog.StepAwaitingForward:
		b.reply(chatID, promptForward, backRow())
	case dialog.StepAwaitingSchedule:
		b.reply(chatID, fmt.Sprintf(promptSchedule, st.PostID, b.scheduler.Location()), backRow())
	default:
		b.reply(chatID, "Main menu:", mainMenu()...)
	}
}

// enterFresh abandons any flow in progress and starts st.
func (b *Bot) enterFresh(ctx context.Context, userID, chatID int64, st dialog.State) {
	b.tracker.Update(userID, func(s *state.Session) {
		s.Clear()
		dialog.Enter(s, st)
	})
	b.showStep(ctx, chatID, st)
}

func (b *Bot) handleBack(ctx context.Context, userID, chatID int64) {
	var (
		st dialog.State
		ok bool
	)
	b.tracker.Update(userID, func(s *state.Session) { st, ok = dialog.Back(s) })
	if !ok {
		b.reply(chatID, "↩️ Back to the main menu.", mainMenu()...)
		return
	}
	b.showStep(ctx, chatID, st)
}

func (b *Bot) loadPosts(ctx context.Context) []model.Post {
	posts, err := b.store.LoadPosts(ctx)
	if err != nil {
		b.log.Error("load posts", "error", err)
		return nil
	}
	return posts
}
