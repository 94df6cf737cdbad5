package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"multipost_bot/internal/buttons"
	"multipost_bot/internal/dispatch"
	"multipost_bot/internal/model"
)

// SendText sends a text message with optional inline buttons.
func (b *Bot) SendText(_ context.Context, chatID int64, text string, markup [][]buttons.Button) error {
	return b.sendText(chatID, text, b.cfg.ParseMode, markup)
}

func (b *Bot) sendText(chatID int64, text, parseMode string, markup [][]buttons.Button) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if kb := inlineKeyboard(markup); kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendPhoto sends a photo by file ID.
func (b *Bot) SendPhoto(_ context.Context, chatID int64, fileID, caption string, markup [][]buttons.Button) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	photo.ParseMode = b.cfg.ParseMode
	if kb := inlineKeyboard(markup); kb != nil {
		photo.ReplyMarkup = *kb
	}
	if _, err := b.api.Send(photo); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

// SendVideo sends a video by file ID.
func (b *Bot) SendVideo(_ context.Context, chatID int64, fileID, caption string, markup [][]buttons.Button) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(fileID))
	video.Caption = caption
	video.ParseMode = b.cfg.ParseMode
	if kb := inlineKeyboard(markup); kb != nil {
		video.ReplyMarkup = *kb
	}
	if _, err := b.api.Send(video); err != nil {
		return fmt.Errorf("send video: %w", err)
	}
	return nil
}

// SendAnimation sends a GIF or silent video by file ID.
func (b *Bot) SendAnimation(_ context.Context, chatID int64, fileID, caption string, markup [][]buttons.Button) error {
	anim := tgbotapi.NewAnimation(chatID, tgbotapi.FileID(fileID))
	anim.Caption = caption
	anim.ParseMode = b.cfg.ParseMode
	if kb := inlineKeyboard(markup); kb != nil {
		anim.ReplyMarkup = *kb
	}
	if _, err := b.api.Send(anim); err != nil {
		return fmt.Errorf("send animation: %w", err)
	}
	return nil
}

// inlineKeyboard converts parsed buttons to Telegram markup, or nil when
// there are none.
func inlineKeyboard(rows [][]buttons.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	kb := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, r := range rows {
		out := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, btn := range r {
			if btn.Kind == buttons.KindURL {
				out = append(out, tgbotapi.NewInlineKeyboardButtonURL(btn.Label, btn.Value))
				continue
			}
			out = append(out, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Value))
		}
		kb = append(kb, out)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(kb...)
	return &markup
}

// preview renders post into the operator's chat. If the media cannot be
// sent the text is shown instead.
func (b *Bot) preview(ctx context.Context, chatID int64, post model.Post) {
	markup := buttons.Parse(post.ButtonsRaw)

	var err error
	switch post.MediaType {
	case model.MediaPhoto:
		err = b.SendPhoto(ctx, chatID, post.MediaID, post.Text, markup)
	case model.MediaVideo:
		err = b.SendVideo(ctx, chatID, post.MediaID, post.Text, markup)
	case model.MediaAnimation:
		err = b.SendAnimation(ctx, chatID, post.MediaID, post.Text, markup)
	default:
		err = b.sendPreviewText(ctx, chatID, post.Text, markup)
	}
	if err == nil {
		return
	}

	// The fallback is sent without a parse mode.
	b.log.Warn("preview post", "post_id", post.ID, "error", err)
	text := post.Text
	if post.HasMedia() {
		text = fmt.Sprintf("[%s]\n%s", post.MediaType, post.Text)
	}
	if text == "" {
		text = dispatch.NoText
	}
	if err := b.sendText(chatID, text, "", markup); err != nil {
		b.log.Error("preview post as text", "post_id", post.ID, "error", err)
		b.reply(chatID, fmt.Sprintf("Could not render post #%d.", post.ID), menuRow())
	}
}

func (b *Bot) sendPreviewText(ctx context.Context, chatID int64, text string, markup [][]buttons.Button) error {
	if text == "" {
		text = dispatch.NoText
	}
	return b.SendText(ctx, chatID, text, markup)
}
