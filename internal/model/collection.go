package model

// AppendPost adds p to the end of posts, assigning it the next sequential ID.
func AppendPost(posts []Post, p Post) ([]Post, int64) {
	p.ID = int64(len(posts) + 1)
	return append(posts, p), p.ID
}

// FindPost returns a pointer into posts for the given ID, or nil.
func FindPost(posts []Post, id int64) *Post {
	for i := range posts {
		if posts[i].ID == id {
			return &posts[i]
		}
	}
	return nil
}

// DeletePost removes the post with the given ID and renumbers the remaining
// posts to 1..N, preserving their order. It reports whether a post was removed.
func DeletePost(posts []Post, id int64) ([]Post, bool) {
	out := make([]Post, 0, len(posts))
	found := false
	for _, p := range posts {
		if p.ID == id {
			found = true
			continue
		}
		out = append(out, p)
	}
	RenumberPosts(out)
	return out, found
}

// RenumberPosts rewrites post IDs to be contiguous in collection order.
func RenumberPosts(posts []Post) {
	for i := range posts {
		posts[i].ID = int64(i + 1)
	}
}

// RemapScheduled adjusts entries after the post deletedID was removed and the
// rest renumbered: entries for the deleted post are dropped and references to
// later posts shift down by one so they keep pointing at the same content.
func RemapScheduled(entries []ScheduledEntry, deletedID int64) []ScheduledEntry {
	out := make([]ScheduledEntry, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.PostID == deletedID:
			continue
		case e.PostID > deletedID:
			e.PostID--
		}
		out = append(out, e)
	}
	return out
}

// NextScheduledID returns an ID greater than every ID in entries.
func NextScheduledID(entries []ScheduledEntry) int64 {
	var maxID int64
	for _, e := range entries {
		if e.ID > maxID {
			maxID = e.ID
		}
	}
	return maxID + 1
}

// FindChannel returns a pointer into channels for the given ID, or nil.
func FindChannel(channels []Channel, id int64) *Channel {
	for i := range channels {
		if channels[i].ID == id {
			return &channels[i]
		}
	}
	return nil
}
