// Package dialog implements the per-user conversation flow as an explicit
// state machine. Next is pure: it maps the current State and an inbound Event
// to the following State and a single Effect that the caller carries out.
package dialog

import (
	"multipost_bot/internal/buttons"
	"multipost_bot/internal/model"
)

// Step is the prompt a user is currently answering.
type Step int

// Conversation steps.
const (
	StepIdle Step = iota
	StepAwaitingContent
	StepAwaitingCaptionChoice
	StepAwaitingCaptionText
	StepAwaitingButtons
	StepAwaitingEdit
	StepAwaitingForward
	StepAwaitingSchedule
)

var stepNames = map[Step]string{
	StepIdle:                  "idle",
	StepAwaitingContent:       "awaiting_content",
	StepAwaitingCaptionChoice: "awaiting_caption_choice",
	StepAwaitingCaptionText:   "awaiting_caption_text",
	StepAwaitingButtons:       "awaiting_buttons",
	StepAwaitingEdit:          "awaiting_edit",
	StepAwaitingForward:       "awaiting_forward",
	StepAwaitingSchedule:      "awaiting_schedule",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStep is the inverse of Step.String.
func ParseStep(name string) (Step, bool) {
	for step, n := range stepNames {
		if n == name {
			return step, true
		}
	}
	return StepIdle, false
}

// Media is an inbound or pending media attachment.
type Media struct {
	FileID  string
	Type    model.MediaType
	Caption string
}

// State is the conversation state of one user.
type State struct {
	Step Step
	// PostID is the post the current step operates on (buttons, edit, schedule).
	PostID int64
	// Pending is the uncaptioned media waiting for a caption decision.
	Pending   Media
	Multipost bool
}

// EventKind classifies inbound events.
type EventKind int

// Event kinds.
const (
	EventText EventKind = iota
	EventMedia
	EventForward
	EventAddCaption
	EventSkipCaption
)

// Event is one inbound user action relevant to the flow.
type Event struct {
	Kind   EventKind
	Text   string
	Media  Media
	Origin *model.ForwardOrigin
}

// EffectKind tells the caller what to do after a transition.
type EffectKind int

// Effect kinds.
const (
	// EffectNone means the event is not meaningful in the current step.
	EffectNone EffectKind = iota
	// EffectUnexpected means a button was pressed that the current step cannot handle.
	EffectUnexpected
	EffectAskCaption
	EffectAskCaptionText
	EffectSavePost
	EffectSaveBatch
	EffectSetButtons
	EffectEditPost
	EffectRegister
	EffectSchedule
)

// Effect is the side effect requested by a transition.
type Effect struct {
	Kind  EffectKind
	Post  model.Post
	Posts []model.Post
	// PostID targets SetButtons, EditPost and Schedule.
	PostID int64
	// Text is the raw buttons for SetButtons, the new body for EditPost and
	// the schedule expression for Schedule.
	Text    string
	Buttons string
	Origin  *model.ForwardOrigin
}

// Next computes the transition for ev in state st.
func Next(st State, ev Event) (State, Effect) {
	// Forwards register a channel from any step, matching the menu's
	// "forward a message here" instruction even mid-compose.
	if ev.Kind == EventForward {
		next := st
		if st.Step == StepAwaitingForward {
			next = State{}
		}
		return next, Effect{Kind: EffectRegister, Origin: ev.Origin}
	}

	switch st.Step {
	case StepAwaitingContent:
		switch ev.Kind {
		case EventMedia:
			if ev.Media.Caption != "" {
				return afterSave(st), Effect{Kind: EffectSavePost, Post: mediaPost(ev.Media, ev.Media.Caption)}
			}
			return State{
				Step:      StepAwaitingCaptionChoice,
				Pending:   Media{FileID: ev.Media.FileID, Type: ev.Media.Type},
				Multipost: st.Multipost,
			}, Effect{Kind: EffectAskCaption}
		case EventText:
			if st.Multipost {
				posts := batchPosts(ev.Text)
				if len(posts) == 0 {
					return st, Effect{Kind: EffectNone}
				}
				return afterSave(st), Effect{Kind: EffectSaveBatch, Posts: posts}
			}
			body, btns := buttons.SplitBody(ev.Text)
			return afterSave(st), Effect{Kind: EffectSavePost, Post: model.Post{Text: body, ButtonsRaw: btns}}
		}

	case StepAwaitingCaptionChoice:
		switch ev.Kind {
		case EventAddCaption:
			next := st
			next.Step = StepAwaitingCaptionText
			return next, Effect{Kind: EffectAskCaptionText}
		case EventSkipCaption:
			return afterSave(st), Effect{Kind: EffectSavePost, Post: mediaPost(st.Pending, "")}
		}

	case StepAwaitingCaptionText:
		if ev.Kind == EventText {
			return afterSave(st), Effect{Kind: EffectSavePost, Post: mediaPost(st.Pending, ev.Text)}
		}

	case StepAwaitingButtons:
		if ev.Kind == EventText {
			return afterSave(st), Effect{Kind: EffectSetButtons, PostID: st.PostID, Text: ev.Text}
		}

	case StepAwaitingEdit:
		if ev.Kind == EventText {
			body, btns := buttons.SplitBody(ev.Text)
			return State{}, Effect{Kind: EffectEditPost, PostID: st.PostID, Text: body, Buttons: btns}
		}

	case StepAwaitingForward:
		if ev.Kind == EventText || ev.Kind == EventMedia {
			return State{}, Effect{Kind: EffectRegister}
		}

	case StepAwaitingSchedule:
		if ev.Kind == EventText {
			return State{}, Effect{Kind: EffectSchedule, PostID: st.PostID, Text: ev.Text}
		}
	}

	if ev.Kind == EventAddCaption || ev.Kind == EventSkipCaption {
		return State{}, Effect{Kind: EffectUnexpected}
	}
	return st, Effect{Kind: EffectNone}
}

// afterSave is the state following a completed post: back to collecting
// content in multipost mode, idle otherwise.
func afterSave(st State) State {
	if st.Multipost {
		return State{Step: StepAwaitingContent, Multipost: true}
	}
	return State{}
}

func mediaPost(m Media, caption string) model.Post {
	return model.Post{Text: caption, MediaID: m.FileID, MediaType: m.Type}
}

func batchPosts(text string) []model.Post {
	parts := buttons.SplitBatch(text)
	posts := make([]model.Post, 0, len(parts))
	for _, part := range parts {
		body, btns := buttons.SplitBody(part)
		if body == "" {
			body = buttons.EmptyBody
		}
		posts = append(posts, model.Post{Text: body, ButtonsRaw: btns})
	}
	return posts
}
