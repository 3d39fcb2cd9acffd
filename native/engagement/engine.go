package engagement

import (
	"errors"
	"fmt"
	"time"

	"sessionsledger/core/events"
	"sessionsledger/native/registry"
)

// Engagement kinds reported by InvalidEngagementError.
const (
	KindLike   = "like"
	KindUnlike = "unlike"
)

var errNilState = errors.New("engagement engine: state not configured")

// InvalidEngagementError reports a like or unlike attempted against an
// already-consistent record: liking twice, or unliking without a prior like.
type InvalidEngagementError struct {
	Kind string
}

func (e *InvalidEngagementError) Error() string {
	return fmt.Sprintf("engagement engine: invalid video engagement %q", e.Kind)
}

type engineState interface {
	VideoGet(id uint64) (*registry.Video, bool, error)
	VideoPut(video *registry.Video) error
	LikeGet(videoID uint64, user [20]byte) (bool, error)
	LikeSet(videoID uint64, user [20]byte, liked bool) error
	CommentsGet(videoID uint64) ([]*Comment, error)
	CommentsPut(videoID uint64, comments []*Comment) error
}

// Engine owns like records and comments, keyed to registry entries. It reads
// the registry's video records to validate existence and to maintain the
// per-video like counter, but the registry itself is never mutated beyond
// those counters.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs an engagement engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// LikeVideo sets the user's like record for the video and increments the
// video's like counter. Double likes are rejected, not silently ignored.
func (e *Engine) LikeVideo(user [20]byte, videoID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	video, ok, err := e.state.VideoGet(videoID)
	if err != nil {
		return err
	}
	if !ok || video == nil {
		return registry.ErrVideoNotExist
	}
	liked, err := e.state.LikeGet(videoID, user)
	if err != nil {
		return err
	}
	if liked {
		return &InvalidEngagementError{Kind: KindLike}
	}
	if err := e.state.LikeSet(videoID, user, true); err != nil {
		return err
	}
	video.Likes++
	if err := e.state.VideoPut(video); err != nil {
		return err
	}
	e.emit(WrapEvent(VideoLikedEvent(videoID, hexAddr(user), video.Likes)))
	return nil
}

// UnlikeVideo clears the user's like record and decrements the like counter.
// Unliking without a prior like is rejected.
func (e *Engine) UnlikeVideo(user [20]byte, videoID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	liked, err := e.state.LikeGet(videoID, user)
	if err != nil {
		return err
	}
	if !liked {
		return &InvalidEngagementError{Kind: KindUnlike}
	}
	video, ok, err := e.state.VideoGet(videoID)
	if err != nil {
		return err
	}
	if !ok || video == nil {
		return registry.ErrVideoNotExist
	}
	if err := e.state.LikeSet(videoID, user, false); err != nil {
		return err
	}
	if video.Likes > 0 {
		video.Likes--
	}
	if err := e.state.VideoPut(video); err != nil {
		return err
	}
	e.emit(WrapEvent(VideoUnlikedEvent(videoID, hexAddr(user), video.Likes)))
	return nil
}

// HasLikedVideo reports whether the user currently likes the video. Unset keys
// read as false; no existence check is performed against the registry.
func (e *Engine) HasLikedVideo(user [20]byte, videoID uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.LikeGet(videoID, user)
}

// CommentOnVideo appends a comment to the video's sequence.
func (e *Engine) CommentOnVideo(commenter [20]byte, videoID uint64, text string) (*Comment, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	_, ok, err := e.state.VideoGet(videoID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, registry.ErrVideoNotExist
	}
	comments, err := e.state.CommentsGet(videoID)
	if err != nil {
		return nil, err
	}
	comment := &Comment{
		VideoID:   videoID,
		Commenter: commenter,
		Text:      text,
		Index:     uint64(len(comments)),
		PostedAt:  e.now(),
	}
	comments = append(comments, comment)
	if err := e.state.CommentsPut(videoID, comments); err != nil {
		return nil, err
	}
	e.emit(WrapEvent(VideoCommentedEvent(videoID, hexAddr(commenter), comment.Index)))
	return comment.Clone(), nil
}

// GetTotalComments returns the number of comments recorded against the video.
// Unknown ids read as zero.
func (e *Engine) GetTotalComments(videoID uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	comments, err := e.state.CommentsGet(videoID)
	if err != nil {
		return 0, err
	}
	return uint64(len(comments)), nil
}

// GetVideoComments returns the full comment sequence in insertion order.
func (e *Engine) GetVideoComments(videoID uint64) ([]*Comment, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	comments, err := e.state.CommentsGet(videoID)
	if err != nil {
		return nil, err
	}
	out := make([]*Comment, len(comments))
	for i, comment := range comments {
		out[i] = comment.Clone()
	}
	return out, nil
}

// GetVideoCommentsPaginated returns the slice [offset, offset+limit) clamped
// to the available range. Requesting past the end yields a shorter, possibly
// empty, sequence rather than an error.
func (e *Engine) GetVideoCommentsPaginated(videoID uint64, offset, limit uint64) ([]*Comment, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	comments, err := e.state.CommentsGet(videoID)
	if err != nil {
		return nil, err
	}
	total := uint64(len(comments))
	if offset >= total {
		return []*Comment{}, nil
	}
	end := offset + limit
	if end > total || end < offset {
		end = total
	}
	out := make([]*Comment, 0, end-offset)
	for _, comment := range comments[offset:end] {
		out = append(out, comment.Clone())
	}
	return out, nil
}
