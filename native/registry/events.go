package registry

import (
	"encoding/hex"
	"strconv"

	"sessionsledger/core/events"
	"sessionsledger/core/types"
)

const (
	// EventTypeVideoUploaded is emitted when a creator registers a new video.
	EventTypeVideoUploaded = "registry.video.uploaded"
	// EventTypeVideoMinted is emitted for each successful mint.
	EventTypeVideoMinted = "registry.video.minted"
	// EventTypeMintLimitUpdated is emitted when a creator edits the mint limit.
	EventTypeMintLimitUpdated = "registry.video.mint_limit_updated"
	// EventTypeMintPriceUpdated is emitted when a creator edits the mint price.
	EventTypeMintPriceUpdated = "registry.video.mint_price_updated"
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

// VideoUploadedEvent returns the structured payload for upload announcements.
func VideoUploadedEvent(videoID uint64, creator string, metadataURI string) *types.Event {
	return &types.Event{
		Type: EventTypeVideoUploaded,
		Attributes: map[string]string{
			"videoId":     strconv.FormatUint(videoID, 10),
			"creator":     creator,
			"metadataUri": metadataURI,
		},
	}
}

// VideoMintedEvent returns the structured payload for mint activity.
func VideoMintedEvent(videoID uint64, minter string, amount string, totalMints uint64) *types.Event {
	return &types.Event{
		Type: EventTypeVideoMinted,
		Attributes: map[string]string{
			"videoId":    strconv.FormatUint(videoID, 10),
			"minter":     minter,
			"amount":     amount,
			"totalMints": strconv.FormatUint(totalMints, 10),
		},
	}
}

// MintLimitUpdatedEvent captures a creator changing a video's mint limit.
func MintLimitUpdatedEvent(videoID uint64, newLimit uint64) *types.Event {
	return &types.Event{
		Type: EventTypeMintLimitUpdated,
		Attributes: map[string]string{
			"videoId":   strconv.FormatUint(videoID, 10),
			"mintLimit": strconv.FormatUint(newLimit, 10),
		},
	}
}

// MintPriceUpdatedEvent captures a creator changing a video's mint price.
func MintPriceUpdatedEvent(videoID uint64, newPrice string) *types.Event {
	return &types.Event{
		Type: EventTypeMintPriceUpdated,
		Attributes: map[string]string{
			"videoId": strconv.FormatUint(videoID, 10),
			"price":   newPrice,
		},
	}
}
