// Package commands provides a registry for organizing bot commands.
// Commands are organized in subdirectories by category
package commands

import (
	"github.com/wardenlabs/warden/internal/commands/mod"
	"github.com/wardenlabs/warden/internal/commands/util"
	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/moderation"
)

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient, actions *moderation.Actions) {
	// Moderation commands (/ban, /unban, /mute, /unmute, /warning, /note)
	mod.RegisterModCommands(client, actions)

	// Utility commands (dev-guild only)
	util.RegisterUtilCommands(client, actions)
}
