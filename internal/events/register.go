// Package events provides a registry for organizing bot events.
// Events are organized by category (ready, guild, member)
package events

import (
	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/logger"
	"github.com/wardenlabs/warden/pkg/store"
)

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient, st *store.Store) {
	logger.System("Registering bot events...", "Events")

	// Ready event (bot startup)
	RegisterReadyEvent(client)

	// Guild events (server join/leave bookkeeping)
	RegisterGuildEvents(client, st)

	// Member events (rejoin mute re-application)
	RegisterMemberEvents(client, st)

	logger.Success("All events registered", "Events")
}
