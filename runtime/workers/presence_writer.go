package workers

import (
	"context"
	"log/slog"

	"chat-hub/contract"
	"chat-hub/live"
)

// PresenceWriter drains the presence aggregator's write queue and applies
// the updates to the durable user store. Presence persistence is advisory:
// a failing write is logged and the update dropped, the in-memory state
// stays authoritative for the process lifetime.
type PresenceWriter struct {
	store  contract.IPresenceStore
	writes <-chan live.PresenceWrite
	log    *slog.Logger
}

func NewPresenceWriter(store contract.IPresenceStore, writes <-chan live.PresenceWrite, log *slog.Logger) *PresenceWriter {
	return &PresenceWriter{store: store, writes: writes, log: log}
}

func (w *PresenceWriter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case update, ok := <-w.writes:
			if !ok {
				return nil
			}
			if err := w.store.SetPresence(ctx, update.User, update.Online, update.LastSeen); err != nil {
				w.log.Warn("presence persistence failed",
					"user_id", update.User,
					"online", update.Online,
					"error", err)
			}
		}
	}
}
