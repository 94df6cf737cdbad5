package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAppendPost(t *testing.T) {
	var posts []Post
	posts, id1 := AppendPost(posts, Post{Text: "a"})
	posts, id2 := AppendPost(posts, Post{Text: "b"})

	if diff := cmp.Diff([]int64{1, 2}, []int64{id1, id2}); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("b", FindPost(posts, 2).Text); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
	if FindPost(posts, 3) != nil {
		t.Error("expected nil for missing post")
	}
}

func TestDeletePost(t *testing.T) {
	tests := []struct {
		name      string
		posts     []Post
		id        int64
		want      []Post
		wantFound bool
	}{
		{
			name:      "middle post renumbers tail",
			posts:     []Post{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}, {ID: 3, Text: "c"}},
			id:        2,
			want:      []Post{{ID: 1, Text: "a"}, {ID: 2, Text: "c"}},
			wantFound: true,
		},
		{
			name:      "first post",
			posts:     []Post{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}},
			id:        1,
			want:      []Post{{ID: 1, Text: "b"}},
			wantFound: true,
		},
		{
			name:      "missing id keeps posts",
			posts:     []Post{{ID: 1, Text: "a"}},
			id:        9,
			want:      []Post{{ID: 1, Text: "a"}},
			wantFound: false,
		},
		{
			name:      "last remaining post",
			posts:     []Post{{ID: 1, Text: "a"}},
			id:        1,
			want:      []Post{},
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := DeletePost(tt.posts, tt.id)
			if diff := cmp.Diff(tt.wantFound, found); diff != "" {
				t.Errorf("found mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("posts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRemapScheduled(t *testing.T) {
	entries := []ScheduledEntry{
		{ID: 1, PostID: 1, Mode: ScheduleDaily, TimeOfDay: "09:00"},
		{ID: 2, PostID: 2, Mode: ScheduleDaily, TimeOfDay: "10:00"},
		{ID: 3, PostID: 3, Mode: ScheduleDaily, TimeOfDay: "11:00"},
	}

	got := RemapScheduled(entries, 2)

	want := []ScheduledEntry{
		{ID: 1, PostID: 1, Mode: ScheduleDaily, TimeOfDay: "09:00"},
		{ID: 3, PostID: 2, Mode: ScheduleDaily, TimeOfDay: "11:00"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RemapScheduled mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(int64(4), NextScheduledID(entries)); diff != "" {
		t.Errorf("NextScheduledID mismatch (-want +got):\n%s", diff)
	}
}

func TestMediaTypeValid(t *testing.T) {
	for _, mt := range []MediaType{MediaNone, MediaPhoto, MediaVideo, MediaAnimation} {
		if !mt.Valid() {
			t.Errorf("%q should be valid", mt)
		}
	}
	if MediaType("document").Valid() {
		t.Error("document should not be valid")
	}
}
