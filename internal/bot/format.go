package bot

import (
	"fmt"
	"strings"
	"time"

	"multipost_bot/internal/model"
	"multipost_bot/internal/scheduler"
)

const welcomeText = `Welcome to MultiPost Bot!

Register your channels, compose posts with media and inline buttons, then send them to every channel at once or on a schedule.

Quick start:
1. Add channel: forward any message from your channel here (the bot must be an admin there)
2. Create post: send text, a photo, a video or a GIF
3. Send post: pick a post and it goes to all channels

Use /help for the button format.`

const helpText = `Commands:
/start, /menu — open the main menu
/cancel — abandon the current step
/help — this message`

const guideText = `Button format guide

• Single button:
Button text - https://t.me/example

• Several buttons on one row:
Button 1 - https://t.me/a && Button 2 - https://t.me/b

• Several rows: one line per row
Button text - https://t.me/LinkExample
Button text - https://t.me/LinkExample

• A button that shows a popup:
Button text - popup: Text of the popup

• A label without " - " makes a button that does nothing.`

const (
	promptForward   = "Forward any message from the channel you want to add. The bot must be an admin of that channel."
	promptContent   = "Send the post: text with optional button lines at the end, or a photo, video or GIF."
	promptMultipost = `Multipost: send posts one by one, or several at once separated by a line with ---

Example:
Post text 1
button - https://t.me/a
---
Post text 2
button - https://t.me/b && button2 - https://t.me/c

Press Send All when you are done.`
	promptCaption     = "Do you want to add a caption?"
	promptCaptionText = "Send the caption text."
	promptSchedule    = "When should post #%d go out?\nSend YYYY-MM-DD HH:MM for one time or daily HH:MM for every day (%s)."

	msgSaveFailed   = "Could not save, please try again."
	msgPostNotFound = "Post not found."
	msgNoPosts      = "No posts yet. Use Create post to add one."
	msgNoChannels   = "No channels yet. Use Add channel to add one."
)

func promptButtons(postID int64) string {
	return fmt.Sprintf("Send the button lines for post #%d.\n\nExample:\nButton 1 - https://t.me/a && Button 2 - https://t.me/b", postID)
}

func promptEdit(post model.Post) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Send the new text and/or button lines for post #%d.\n", post.ID)
	b.WriteString("A new body replaces the text, new button lines replace the buttons.")
	if post.Text != "" {
		fmt.Fprintf(&b, "\n\nCurrent text:\n%s", post.Text)
	}
	if post.ButtonsRaw != "" {
		fmt.Fprintf(&b, "\n\nCurrent buttons:\n%s", post.ButtonsRaw)
	}
	return b.String()
}

// FormatChannel formats a single channel for display.
func FormatChannel(ch model.Channel) string {
	return fmt.Sprintf("📣 Channel: %s\nID: %d", ch.Title, ch.ID)
}

// FormatScheduled formats the schedule for display, times shown in loc.
func FormatScheduled(entries []model.ScheduledEntry, loc *time.Location) string {
	if len(entries) == 0 {
		return "Nothing is scheduled."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Scheduled posts (%s):\n", loc)
	for _, e := range entries {
		fmt.Fprintf(&b, "\n#%d  post %d  %s", e.ID, e.PostID, scheduler.Describe(e, loc))
		if e.Mode == model.ScheduleDaily && e.LastSent != nil {
			fmt.Fprintf(&b, "  (last sent %s)", e.LastSent.In(loc).Format("2006-01-02 15:04"))
		}
	}
	return b.String()
}

// FormatDelivery summarizes a fan-out result.
func FormatDelivery(sent, total int) string {
	if total == 0 {
		return msgNoChannels
	}
	return fmt.Sprintf("✅ Post sent to %d of %d channels.", sent, total)
}
