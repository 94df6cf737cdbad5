package dialog

import (
	"strconv"

	"multipost_bot/internal/model"
	"multipost_bot/internal/state"
)

// Session keys used to persist State in a state.Session.
const (
	keyStep        = "step"
	keyPostID      = "post_id"
	keyPendingFile = "pending_file_id"
	keyPendingType = "pending_type"
	keyMultipost   = "multipost"

	// KeyMultipostList holds the IDs of posts saved during a multipost session.
	KeyMultipostList = "multipost_list"
)

// Load reads the dialog state from a session. Missing keys yield the zero State.
func Load(s *state.Session) State {
	step, _ := ParseStep(s.String(keyStep))
	return State{
		Step:   step,
		PostID: s.Int64(keyPostID),
		Pending: Media{
			FileID: s.String(keyPendingFile),
			Type:   model.MediaType(s.String(keyPendingType)),
		},
		Multipost: s.Bool(keyMultipost),
	}
}

// Save writes st into the session, removing keys that hold zero values.
func Save(s *state.Session, st State) {
	s.Set(keyStep, st.Step.String())
	setOrDelete(s, keyPostID, st.PostID, st.PostID != 0)
	setOrDelete(s, keyPendingFile, st.Pending.FileID, st.Pending.FileID != "")
	setOrDelete(s, keyPendingType, string(st.Pending.Type), st.Pending.Type != model.MediaNone)
	setOrDelete(s, keyMultipost, st.Multipost, st.Multipost)
}

func setOrDelete(s *state.Session, key string, value any, keep bool) {
	if keep {
		s.Set(key, value)
		return
	}
	s.Delete(key)
}

// Enter saves st and records its step on the stack. Returning to a step that
// is already on the stack unwinds to it instead of pushing a duplicate.
func Enter(s *state.Session, st State) {
	Save(s, st)
	if st.Step == StepIdle {
		return
	}
	f := state.Frame{Name: st.Step.String(), Info: frameInfo(st)}
	if s.Unwind(f) {
		return
	}
	s.Push(f.Name, f.Info)
}

// Back pops the current step and returns the state for the previous one.
// It reports false when there is nothing to go back to; the session is then
// cleared and the caller should show the main menu.
func Back(s *state.Session) (State, bool) {
	cur := Load(s)
	s.Pop()
	prev, ok := s.Peek()
	if !ok {
		s.Clear()
		return State{}, false
	}
	step, known := ParseStep(prev.Name)
	if !known {
		s.Clear()
		return State{}, false
	}

	next := State{Step: step, Multipost: cur.Multipost}
	if id, err := strconv.ParseInt(prev.Info, 10, 64); err == nil {
		next.PostID = id
	}
	switch step {
	case StepAwaitingCaptionChoice, StepAwaitingCaptionText:
		next.Pending = cur.Pending
		if next.Pending.FileID == "" {
			s.Clear()
			return State{}, false
		}
	}
	Save(s, next)
	return next, true
}

func frameInfo(st State) string {
	if st.PostID == 0 {
		return ""
	}
	return strconv.FormatInt(st.PostID, 10)
}
