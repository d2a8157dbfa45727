// Package util provides utility commands.
package util

import (
	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/moderation"
)

// RegisterUtilCommands registers the utility command set.
func RegisterUtilCommands(client *discord.ExtendedClient, actions *moderation.Actions) {
	client.CommandHandler.RegisterCommand(createBotStatusCommand(client, actions))
}
