package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func button(label string, c Callback) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, c.Encode())
}

func row(btns ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(btns...)
}

func menuRow() []tgbotapi.InlineKeyboardButton {
	return row(button("↩️ Back to Menu", Callback{Action: actMenu}))
}

func backRow() []tgbotapi.InlineKeyboardButton {
	return row(
		button("⬅️ Back", Callback{Action: actBack}),
		button("↩️ Menu", Callback{Action: actMenu}),
	)
}

func mainMenu() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		row(button("➕ Add channel", Callback{Action: actAddChannel}),
			button("📜 Channel list", Callback{Action: actChannels})),
		row(button("✍️ Create post", Callback{Action: actCreatePost}),
			button("📂 My posts", Callback{Action: actMyPosts})),
		row(button("📤 Send post", Callback{Action: actSendMenu}),
			button("🌐 All Channels (Send)", Callback{Action: actSendAllMenu})),
		row(button("🧾 Multipost", Callback{Action: actMultipost}),
			button("✏️ Edit post", Callback{Action: actEditMenu})),
		row(button("⏰ Scheduled", Callback{Action: actScheduled}),
			button("🗑 Delete", Callback{Action: actDeleteMenu})),
		row(button("📘 Button Guide", Callback{Action: actGuide})),
	}
}

// savedPostMenu is offered after a post is saved or its buttons change.
func savedPostMenu(postID int64) [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		row(button("➕ Add Buttons", Callback{Action: actAddButtons, ID: postID}),
			button("📤 Send", Callback{Action: actSendPost, ID: postID})),
		row(button("⏰ Schedule", Callback{Action: actSchedulePost, ID: postID}),
			button("👁 Preview", Callback{Action: actViewPost, ID: postID})),
		menuRow(),
	}
}

func multipostMenu() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		row(button("🚀 Send All", Callback{Action: actMultipostSend})),
		backRow(),
	}
}

func captionChoiceMenu() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		row(button("✍️ Add Caption", Callback{Action: actAddCaption})),
		row(button("⏭️ Skip (no caption)", Callback{Action: actSkipCaption})),
		backRow(),
	}
}

func singlePostRow(format string, action Action) func(id int64) []tgbotapi.InlineKeyboardButton {
	return func(id int64) []tgbotapi.InlineKeyboardButton {
		return row(button(fmt.Sprintf(format, id), Callback{Action: action, ID: id}))
	}
}
