package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"multipost_bot/internal/buttons"
)

// Action names a menu operation carried in callback data.
type Action string

// Menu actions. Actions that target a record carry its ID.
const (
	actMenu            Action = "menu"
	actBack            Action = "back"
	actAddChannel      Action = "add_channel"
	actChannels        Action = "channels"
	actViewChannel     Action = "view_channel"
	actRemoveChannel   Action = "rm_channel"
	actCreatePost      Action = "create_post"
	actMyPosts         Action = "my_posts"
	actViewPost        Action = "view_post"
	actDeletePost      Action = "del_post"
	actSendMenu        Action = "send_menu"
	actSendAllMenu     Action = "send_all_menu"
	actSendPost        Action = "send_post"
	actMultipost       Action = "multipost"
	actMultipostSend   Action = "multipost_send"
	actEditMenu        Action = "edit_menu"
	actEditPost        Action = "edit_post"
	actDeleteMenu      Action = "delete_menu"
	actDeletePosts     Action = "delete_posts"
	actDeleteChannels  Action = "delete_channels"
	actGuide           Action = "guide"
	actAddButtons      Action = "add_buttons"
	actAddCaption      Action = "add_caption"
	actSkipCaption     Action = "skip_caption"
	actSchedulePost    Action = "schedule_post"
	actScheduled       Action = "scheduled"
	actCancelScheduled Action = "cancel_scheduled"
)

// withID lists the actions whose callback data must carry an ID.
var withID = map[Action]bool{
	actViewChannel:     true,
	actRemoveChannel:   true,
	actViewPost:        true,
	actDeletePost:      true,
	actSendPost:        true,
	actEditPost:        true,
	actAddButtons:      true,
	actSchedulePost:    true,
	actCancelScheduled: true,
}

var knownActions = map[Action]bool{
	actMenu: true, actBack: true, actAddChannel: true, actChannels: true,
	actCreatePost: true, actMyPosts: true, actSendMenu: true, actSendAllMenu: true,
	actMultipost: true, actMultipostSend: true, actEditMenu: true, actDeleteMenu: true,
	actDeletePosts: true, actDeleteChannels: true, actGuide: true, actAddCaption: true,
	actSkipCaption: true, actScheduled: true,
}

var (
	errUnknownAction = errors.New("unknown callback action")
	errBadCallbackID = errors.New("bad callback id")
)

// Callback is the decoded form of menu callback data, "action" or "action:id".
type Callback struct {
	Action Action
	ID     int64
}

// Encode renders c as callback data.
func (c Callback) Encode() string {
	if withID[c.Action] {
		return string(c.Action) + ":" + strconv.FormatInt(c.ID, 10)
	}
	return string(c.Action)
}

// DecodeCallback parses callback data produced by Encode.
func DecodeCallback(data string) (Callback, error) {
	name, idStr, hasID := strings.Cut(data, ":")
	action := Action(name)

	switch {
	case withID[action]:
		if !hasID {
			return Callback{}, fmt.Errorf("%w: %q", errBadCallbackID, data)
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return Callback{}, fmt.Errorf("%w: %q", errBadCallbackID, data)
		}
		return Callback{Action: action, ID: id}, nil
	case knownActions[action] && !hasID:
		return Callback{Action: action}, nil
	}
	return Callback{}, fmt.Errorf("%w: %q", errUnknownAction, data)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Presses on published posts arrive from channels and carry user payloads.
	if cb.Message == nil || cb.Message.Chat == nil || !cb.Message.Chat.IsPrivate() {
		b.answerPayload(cb)
		return
	}

	c, err := DecodeCallback(cb.Data)
	if errors.Is(err, errUnknownAction) {
		// Post previews in the private chat carry user payloads too.
		b.answerPayload(cb)
		return
	}

	b.answer(cb.ID, "", false)

	chatID := cb.Message.Chat.ID
	userID := chatID
	if cb.From != nil {
		userID = cb.From.ID
	}
	if err != nil {
		b.log.Warn("bad callback", "data", cb.Data, "error", err)
		b.unknownOption(userID, chatID)
		return
	}

	b.log.Info("callback", "action", c.Action, "id", c.ID, "chat_id", chatID)

	switch c.Action {
	case actMenu:
		b.showMenu(userID, chatID)
	case actBack:
		b.handleBack(ctx, userID, chatID)
	case actGuide:
		b.reply(chatID, guideText, menuRow())

	case actAddChannel:
		b.handleAddChannel(ctx, userID, chatID)
	case actChannels:
		b.handleChannelList(ctx, chatID)
	case actViewChannel:
		b.handleViewChannel(ctx, chatID, c.ID)
	case actRemoveChannel:
		b.handleRemoveChannel(ctx, chatID, c.ID)

	case actCreatePost:
		b.handleCreatePost(ctx, userID, chatID)
	case actMultipost:
		b.handleMultipost(ctx, userID, chatID)
	case actMultipostSend:
		b.handleMultipostSend(ctx, userID, chatID)
	case actAddCaption:
		b.handleCaptionChoice(ctx, userID, chatID, true)
	case actSkipCaption:
		b.handleCaptionChoice(ctx, userID, chatID, false)
	case actAddButtons:
		b.handleAddButtons(ctx, userID, chatID, c.ID)

	case actMyPosts:
		b.handlePostList(ctx, chatID, "Your posts:", func(id int64) []tgbotapi.InlineKeyboardButton {
			return row(
				button(fmt.Sprintf("📄 Post %d", id), Callback{Action: actViewPost, ID: id}),
				button("🗑 Delete", Callback{Action: actDeletePost, ID: id}),
			)
		})
	case actViewPost:
		b.handleViewPost(ctx, chatID, c.ID)
	case actDeletePost:
		b.handleDeletePost(ctx, chatID, c.ID)
	case actEditMenu:
		b.handlePostList(ctx, chatID, "Which post do you want to edit?", singlePostRow("✏️ Edit %d", actEditPost))
	case actEditPost:
		b.handleEditPost(ctx, userID, chatID, c.ID)

	case actSendMenu:
		b.handleSendMenu(ctx, chatID)
	case actSendAllMenu:
		b.handlePostList(ctx, chatID, "Which post should go to all channels?", singlePostRow("📄 Post %d", actSendPost))
	case actSendPost:
		b.handleSendPost(ctx, chatID, c.ID)

	case actDeleteMenu:
		b.reply(chatID, "Delete options:",
			[]tgbotapi.InlineKeyboardButton{
				button("🗑 Delete Post", Callback{Action: actDeletePosts}),
				button("🗑 Remove Channel", Callback{Action: actDeleteChannels}),
			},
			menuRow(),
		)
	case actDeletePosts:
		b.handlePostList(ctx, chatID, "Choose post to delete:", singlePostRow("Del %d", actDeletePost))
	case actDeleteChannels:
		b.handleDeleteChannels(ctx, chatID)

	case actSchedulePost:
		b.handleSchedulePost(ctx, userID, chatID, c.ID)
	case actScheduled:
		b.handleScheduledList(ctx, chatID)
	case actCancelScheduled:
		b.handleCancelScheduled(ctx, chatID, c.ID)
	}
}

// answerPayload answers a press on a button that came from post markup.
func (b *Bot) answerPayload(cb *tgbotapi.CallbackQuery) {
	p := buttons.ParsePayload(cb.Data)
	switch p.Kind {
	case buttons.PayloadAlert:
		b.answer(cb.ID, p.Text, true)
	case buttons.PayloadNoop:
		b.answer(cb.ID, "No action for this button.", false)
	default:
		b.answer(cb.ID, "Button: "+p.Text, false)
	}
}

func (b *Bot) answer(callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := b.api.Request(cfg); err != nil {
		b.log.Error("answer callback", "error", err)
	}
}

func (b *Bot) unknownOption(userID, chatID int64) {
	b.tracker.Clear(userID)
	b.reply(chatID, "Unknown option.", mainMenu()...)
}
