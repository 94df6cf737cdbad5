// Package model defines the domain types used across the application.
package model

import "time"

// Channel is a broadcast destination registered by forwarding one of its messages.
type Channel struct {
	ID    int64
	Title string
}

// MediaType identifies the kind of media attached to a post.
type MediaType string

// Supported media types. An empty MediaType means a text-only post.
const (
	MediaNone      MediaType = ""
	MediaPhoto     MediaType = "photo"
	MediaVideo     MediaType = "video"
	MediaAnimation MediaType = "animation"
)

// Valid reports whether t is one of the supported media types or none.
func (t MediaType) Valid() bool {
	switch t {
	case MediaNone, MediaPhoto, MediaVideo, MediaAnimation:
		return true
	}
	return false
}

// Post is a composed unit of content awaiting dispatch.
// MediaID and MediaType are either both set or both empty.
type Post struct {
	ID         int64
	Text       string
	ButtonsRaw string
	MediaID    string
	MediaType  MediaType
}

// HasMedia reports whether the post carries a media attachment.
func (p Post) HasMedia() bool {
	return p.MediaID != "" && p.MediaType != MediaNone
}

// ScheduleMode defines how a scheduled entry repeats.
type ScheduleMode string

// Supported schedule modes.
const (
	ScheduleOnce  ScheduleMode = "once"
	ScheduleDaily ScheduleMode = "daily"
)

// ScheduledEntry binds a post to a point in time (once) or a time of day (daily).
type ScheduledEntry struct {
	ID        int64
	PostID    int64
	Mode      ScheduleMode
	RunAt     *time.Time
	TimeOfDay string
	LastSent  *time.Time
}

// ForwardOrigin describes the chat a forwarded message originally came from.
type ForwardOrigin struct {
	ChatID int64
	Type   string
	Title  string
}
