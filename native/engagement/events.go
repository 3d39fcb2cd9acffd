package engagement

import (
	"encoding/hex"
	"strconv"

	"sessionsledger/core/events"
	"sessionsledger/core/types"
)

const (
	// EventTypeVideoLiked is emitted when a user likes a video.
	EventTypeVideoLiked = "engagement.video.liked"
	// EventTypeVideoUnliked is emitted when a user removes a like.
	EventTypeVideoUnliked = "engagement.video.unliked"
	// EventTypeVideoCommented is emitted when a comment is appended.
	EventTypeVideoCommented = "engagement.video.commented"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// VideoLikedEvent returns the structured payload for like activity.
func VideoLikedEvent(videoID uint64, user string, likes uint64) *types.Event {
	return &types.Event{
		Type: EventTypeVideoLiked,
		Attributes: map[string]string{
			"videoId": strconv.FormatUint(videoID, 10),
			"user":    user,
			"likes":   strconv.FormatUint(likes, 10),
		},
	}
}

// VideoUnlikedEvent returns the structured payload for unlike activity.
func VideoUnlikedEvent(videoID uint64, user string, likes uint64) *types.Event {
	return &types.Event{
		Type: EventTypeVideoUnliked,
		Attributes: map[string]string{
			"videoId": strconv.FormatUint(videoID, 10),
			"user":    user,
			"likes":   strconv.FormatUint(likes, 10),
		},
	}
}

// VideoCommentedEvent returns the structured payload for comment activity.
func VideoCommentedEvent(videoID uint64, commenter string, index uint64) *types.Event {
	return &types.Event{
		Type: EventTypeVideoCommented,
		Attributes: map[string]string{
			"videoId":   strconv.FormatUint(videoID, 10),
			"commenter": commenter,
			"index":     strconv.FormatUint(index, 10),
		},
	}
}
