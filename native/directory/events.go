package directory

import (
	"encoding/hex"
	"strconv"

	"sessionsledger/core/events"
	"sessionsledger/core/types"
)

const (
	// EventTypeProfileUpdated is emitted when a creator edits their profile.
	EventTypeProfileUpdated = "directory.profile.updated"
	// EventTypeCreatorFollowed is emitted when a follow edge is created.
	EventTypeCreatorFollowed = "directory.creator.followed"
	// EventTypeCreatorUnfollowed is emitted when a follow edge is cleared.
	EventTypeCreatorUnfollowed = "directory.creator.unfollowed"
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

// ProfileUpdatedEvent returns the structured payload for profile edits.
func ProfileUpdatedEvent(creator string, metadataURI string) *types.Event {
	return &types.Event{
		Type: EventTypeProfileUpdated,
		Attributes: map[string]string{
			"creator":     creator,
			"metadataUri": metadataURI,
		},
	}
}

// CreatorFollowedEvent returns the structured payload for new follow edges.
func CreatorFollowedEvent(follower, followee string, totalFollowers uint64) *types.Event {
	return &types.Event{
		Type: EventTypeCreatorFollowed,
		Attributes: map[string]string{
			"follower":       follower,
			"followee":       followee,
			"totalFollowers": strconv.FormatUint(totalFollowers, 10),
		},
	}
}

// CreatorUnfollowedEvent returns the structured payload for cleared edges.
func CreatorUnfollowedEvent(follower, followee string, totalFollowers uint64) *types.Event {
	return &types.Event{
		Type: EventTypeCreatorUnfollowed,
		Attributes: map[string]string{
			"follower":       follower,
			"followee":       followee,
			"totalFollowers": strconv.FormatUint(totalFollowers, 10),
		},
	}
}
