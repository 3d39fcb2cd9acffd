package events

import (
	"log/slog"

	"sessionsledger/core/types"
)

type payloadCarrier interface {
	Event() *types.Event
}

// LogEmitter writes every event to a structured logger. It is the default
// sink wired by the daemon; indexers can replace it with a real subscriber.
type LogEmitter struct {
	Logger *slog.Logger
}

// Emit implements the Emitter interface.
func (l LogEmitter) Emit(evt Event) {
	if evt == nil {
		return
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	args := []any{slog.String("event", evt.EventType())}
	if carrier, ok := evt.(payloadCarrier); ok {
		if payload := carrier.Event(); payload != nil {
			for key, value := range payload.Attributes {
				args = append(args, slog.String(key, value))
			}
		}
	}
	logger.Info("ledger event", args...)
}
