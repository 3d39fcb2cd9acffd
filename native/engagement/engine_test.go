package engagement

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"sessionsledger/native/registry"
)

type likeKey struct {
	videoID uint64
	user    [20]byte
}

type mockState struct {
	videos   map[uint64]*registry.Video
	likes    map[likeKey]bool
	comments map[uint64][]*Comment
}

func newMockState() *mockState {
	return &mockState{
		videos:   make(map[uint64]*registry.Video),
		likes:    make(map[likeKey]bool),
		comments: make(map[uint64][]*Comment),
	}
}

func (m *mockState) VideoGet(id uint64) (*registry.Video, bool, error) {
	video, ok := m.videos[id]
	if !ok {
		return nil, false, nil
	}
	return video.Clone(), true, nil
}

func (m *mockState) VideoPut(video *registry.Video) error {
	if video == nil {
		return nil
	}
	m.videos[video.ID] = video.Clone()
	return nil
}

func (m *mockState) LikeGet(videoID uint64, user [20]byte) (bool, error) {
	return m.likes[likeKey{videoID: videoID, user: user}], nil
}

func (m *mockState) LikeSet(videoID uint64, user [20]byte, liked bool) error {
	key := likeKey{videoID: videoID, user: user}
	if !liked {
		delete(m.likes, key)
		return nil
	}
	m.likes[key] = true
	return nil
}

func (m *mockState) CommentsGet(videoID uint64) ([]*Comment, error) {
	stored := m.comments[videoID]
	out := make([]*Comment, len(stored))
	for i, comment := range stored {
		out[i] = comment.Clone()
	}
	return out, nil
}

func (m *mockState) CommentsPut(videoID uint64, comments []*Comment) error {
	stored := make([]*Comment, len(comments))
	for i, comment := range comments {
		stored[i] = comment.Clone()
	}
	m.comments[videoID] = stored
	return nil
}

func (m *mockState) seedVideo(id uint64) {
	m.videos[id] = &registry.Video{ID: id, MintLimit: 10, Price: big.NewInt(1)}
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newEngine(state *mockState) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	state := newMockState()
	state.seedVideo(1)
	engine := newEngine(state)
	user := addr(0x01)

	if err := engine.LikeVideo(user, 1); err != nil {
		t.Fatalf("like failed: %v", err)
	}
	if state.videos[1].Likes != 1 {
		t.Fatalf("like counter not incremented: %d", state.videos[1].Likes)
	}
	liked, err := engine.HasLikedVideo(user, 1)
	if err != nil || !liked {
		t.Fatalf("expected hasLiked true, got %v err %v", liked, err)
	}

	if err := engine.UnlikeVideo(user, 1); err != nil {
		t.Fatalf("unlike failed: %v", err)
	}
	if state.videos[1].Likes != 0 {
		t.Fatalf("like counter not restored: %d", state.videos[1].Likes)
	}
	liked, _ = engine.HasLikedVideo(user, 1)
	if liked {
		t.Fatalf("expected hasLiked false after unlike")
	}
}

func TestDoubleLikeRejected(t *testing.T) {
	state := newMockState()
	state.seedVideo(1)
	engine := newEngine(state)
	user := addr(0x01)

	if err := engine.LikeVideo(user, 1); err != nil {
		t.Fatalf("like failed: %v", err)
	}
	err := engine.LikeVideo(user, 1)
	var engErr *InvalidEngagementError
	if !errors.As(err, &engErr) || engErr.Kind != KindLike {
		t.Fatalf("expected InvalidEngagementError(like), got %v", err)
	}
	if state.videos[1].Likes != 1 {
		t.Fatalf("rejected like changed counter: %d", state.videos[1].Likes)
	}
}

func TestUnlikeWithoutLikeRejected(t *testing.T) {
	state := newMockState()
	state.seedVideo(1)
	engine := newEngine(state)

	err := engine.UnlikeVideo(addr(0x01), 1)
	var engErr *InvalidEngagementError
	if !errors.As(err, &engErr) || engErr.Kind != KindUnlike {
		t.Fatalf("expected InvalidEngagementError(unlike), got %v", err)
	}
}

func TestLikeUnknownVideo(t *testing.T) {
	engine := newEngine(newMockState())
	if err := engine.LikeVideo(addr(0x01), 9); !errors.Is(err, registry.ErrVideoNotExist) {
		t.Fatalf("expected ErrVideoNotExist, got %v", err)
	}
}

func TestHasLikedUnsetKeyReadsFalse(t *testing.T) {
	engine := newEngine(newMockState())
	liked, err := engine.HasLikedVideo(addr(0x01), 42)
	if err != nil {
		t.Fatalf("hasLiked failed: %v", err)
	}
	if liked {
		t.Fatalf("unset key read as true")
	}
}

func TestCommentAppendOnly(t *testing.T) {
	state := newMockState()
	state.seedVideo(0)
	engine := newEngine(state)
	user := addr(0x01)

	for i := 0; i < 10; i++ {
		comment, err := engine.CommentOnVideo(user, 0, fmt.Sprintf("Nice video! %d", i))
		if err != nil {
			t.Fatalf("comment %d failed: %v", i, err)
		}
		if comment.Index != uint64(i) {
			t.Fatalf("comment %d assigned index %d", i, comment.Index)
		}
	}
	total, err := engine.GetTotalComments(0)
	if err != nil || total != 10 {
		t.Fatalf("expected 10 comments, got %d err %v", total, err)
	}

	if _, err := engine.CommentOnVideo(user, 8, "Nice video!"); !errors.Is(err, registry.ErrVideoNotExist) {
		t.Fatalf("expected ErrVideoNotExist, got %v", err)
	}
	total, _ = engine.GetTotalComments(8)
	if total != 0 {
		t.Fatalf("unknown video reports %d comments", total)
	}
}

func TestGetVideoCommentsOrdering(t *testing.T) {
	state := newMockState()
	state.seedVideo(0)
	engine := newEngine(state)
	user := addr(0x01)
	for i := 0; i < 10; i++ {
		if _, err := engine.CommentOnVideo(user, 0, fmt.Sprintf("Nice video! %d", i)); err != nil {
			t.Fatalf("comment %d failed: %v", i, err)
		}
	}

	comments, err := engine.GetVideoComments(0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(comments) != 10 {
		t.Fatalf("expected 10 comments, got %d", len(comments))
	}
	if comments[0].Text != "Nice video! 0" || comments[9].Text != "Nice video! 9" {
		t.Fatalf("insertion order not preserved: %q .. %q", comments[0].Text, comments[9].Text)
	}
	if comments[0].Commenter != user {
		t.Fatalf("commenter not recorded")
	}
}

func TestGetVideoCommentsPaginated(t *testing.T) {
	state := newMockState()
	state.seedVideo(0)
	engine := newEngine(state)
	for i := 0; i < 10; i++ {
		if _, err := engine.CommentOnVideo(addr(0x01), 0, fmt.Sprintf("Nice video! %d", i)); err != nil {
			t.Fatalf("comment %d failed: %v", i, err)
		}
	}

	cases := []struct {
		offset, limit uint64
		want          int
		firstText     string
	}{
		{0, 5, 5, "Nice video! 0"},
		{5, 5, 5, "Nice video! 5"},
		{8, 5, 2, "Nice video! 8"},
		{10, 5, 0, ""},
		{20, 5, 0, ""},
		{0, 0, 0, ""},
	}
	for _, tc := range cases {
		page, err := engine.GetVideoCommentsPaginated(0, tc.offset, tc.limit)
		if err != nil {
			t.Fatalf("paginate(%d,%d) failed: %v", tc.offset, tc.limit, err)
		}
		if len(page) != tc.want {
			t.Fatalf("paginate(%d,%d) returned %d items, want %d", tc.offset, tc.limit, len(page), tc.want)
		}
		if tc.want > 0 && page[0].Text != tc.firstText {
			t.Fatalf("paginate(%d,%d) first item %q, want %q", tc.offset, tc.limit, page[0].Text, tc.firstText)
		}
	}
}
