package treasury

import (
	"encoding/hex"
	"strconv"

	"sessionsledger/core/events"
	"sessionsledger/core/types"
)

const (
	// EventTypeFeeUpdated is emitted when the fee parameter changes.
	EventTypeFeeUpdated = "treasury.fee.updated"
	// EventTypeRevenueSplitUpdated is emitted when the split configuration changes.
	EventTypeRevenueSplitUpdated = "treasury.revenue_split.updated"
	// EventTypeProjectWalletUpdated is emitted when the project wallet changes.
	EventTypeProjectWalletUpdated = "treasury.project_wallet.updated"
	// EventTypeWithdrawn is emitted when the balance is settled out.
	EventTypeWithdrawn = "treasury.withdrawn"
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

// FeeUpdatedEvent returns the structured payload for fee changes.
func FeeUpdatedEvent(value uint64) *types.Event {
	return &types.Event{
		Type: EventTypeFeeUpdated,
		Attributes: map[string]string{
			"fee": strconv.FormatUint(value, 10),
		},
	}
}

// RevenueSplitUpdatedEvent returns the structured payload for split changes.
func RevenueSplitUpdatedEvent(split RevenueSplit) *types.Event {
	return &types.Event{
		Type: EventTypeRevenueSplitUpdated,
		Attributes: map[string]string{
			"creatorShare":  strconv.FormatUint(split.CreatorShare, 10),
			"projectShare":  strconv.FormatUint(split.ProjectShare, 10),
			"treasuryShare": strconv.FormatUint(split.TreasuryShare, 10),
		},
	}
}

// ProjectWalletUpdatedEvent returns the structured payload for wallet changes.
func ProjectWalletUpdatedEvent(wallet string) *types.Event {
	return &types.Event{
		Type: EventTypeProjectWalletUpdated,
		Attributes: map[string]string{
			"wallet": wallet,
		},
	}
}

// WithdrawnEvent returns the structured payload for withdrawal settlements.
func WithdrawnEvent(destination string, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawn,
		Attributes: map[string]string{
			"destination": destination,
			"amount":      amount,
		},
	}
}
