// Package state keeps per-user conversation scratch space in process memory.
//
// Each user has a flat key/value map plus a LIFO stack of step frames. The
// stack records which prompt is on screen so a Back action can redisplay the
// previous one. Nothing here survives a restart.
package state

import "sync"

// Frame is one entry of the step stack.
type Frame struct {
	Name string
	Info string
}

// Session is the scratch space of a single user. It is not safe for
// concurrent use; the Tracker serializes access per call.
type Session struct {
	values map[string]any
	stack  []Frame
}

func newSession() *Session {
	return &Session{values: make(map[string]any)}
}

// Set stores value under key.
func (s *Session) Set(key string, value any) {
	s.values[key] = value
}

// Value returns the value stored under key.
func (s *Session) Value(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// String returns the string stored under key, or "".
func (s *Session) String(key string) string {
	v, _ := s.values[key].(string)
	return v
}

// Int64 returns the int64 stored under key, or 0.
func (s *Session) Int64(key string) int64 {
	v, _ := s.values[key].(int64)
	return v
}

// Bool returns the bool stored under key, or false.
func (s *Session) Bool(key string) bool {
	v, _ := s.values[key].(bool)
	return v
}

// Int64s returns the []int64 stored under key, or nil.
func (s *Session) Int64s(key string) []int64 {
	v, _ := s.values[key].([]int64)
	return v
}

// Delete removes key.
func (s *Session) Delete(key string) {
	delete(s.values, key)
}

// Clear drops all values and the step stack.
func (s *Session) Clear() {
	s.values = make(map[string]any)
	s.stack = nil
}

// Push records a newly displayed step.
func (s *Session) Push(name, info string) {
	s.stack = append(s.stack, Frame{Name: name, Info: info})
}

// Pop removes and returns the most recent step.
func (s *Session) Pop() (Frame, bool) {
	if len(s.stack) == 0 {
		return Frame{}, false
	}
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return f, true
}

// Peek returns the most recent step without removing it.
func (s *Session) Peek() (Frame, bool) {
	if len(s.stack) == 0 {
		return Frame{}, false
	}
	return s.stack[len(s.stack)-1], true
}

// Unwind pops every frame above the most recent occurrence of f and reports
// whether f was found. The stack is left untouched when it is not.
func (s *Session) Unwind(f Frame) bool {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i] == f {
			s.stack = s.stack[:i+1]
			return true
		}
	}
	return false
}

// Depth returns the number of frames on the step stack.
func (s *Session) Depth() int {
	return len(s.stack)
}

// Tracker owns the sessions of all users.
type Tracker struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[int64]*Session)}
}

// Update runs fn with the session of userID, creating it on first use.
// Calls for the same tracker are serialized.
func (t *Tracker) Update(userID int64, fn func(s *Session)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.session(userID))
}

func (t *Tracker) session(userID int64) *Session {
	s, ok := t.sessions[userID]
	if !ok {
		s = newSession()
		t.sessions[userID] = s
	}
	return s
}

// Set stores value under key for userID.
func (t *Tracker) Set(userID int64, key string, value any) {
	t.Update(userID, func(s *Session) { s.Set(key, value) })
}

// Value returns the value stored under key for userID.
func (t *Tracker) Value(userID int64, key string) (v any, ok bool) {
	t.Update(userID, func(s *Session) { v, ok = s.Value(key) })
	return v, ok
}

// Clear forgets everything about userID.
func (t *Tracker) Clear(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, userID)
}

// Push records a newly displayed step for userID.
func (t *Tracker) Push(userID int64, name, info string) {
	t.Update(userID, func(s *Session) { s.Push(name, info) })
}

// Pop removes and returns the most recent step of userID.
func (t *Tracker) Pop(userID int64) (f Frame, ok bool) {
	t.Update(userID, func(s *Session) { f, ok = s.Pop() })
	return f, ok
}

// Peek returns the most recent step of userID without removing it.
func (t *Tracker) Peek(userID int64) (f Frame, ok bool) {
	t.Update(userID, func(s *Session) { f, ok = s.Peek() })
	return f, ok
}
