// Package mod - /ban command
package mod

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/moderation"
	"github.com/wardenlabs/warden/pkg/permissions"
)

// createBanCommand creates the /ban command
func createBanCommand(actions *moderation.Actions) *discord.Command {
	return discord.NewCommand(
		"ban",
		"Ban a member from the server",
		"mod",
		banHandler(actions),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member to ban",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the ban",
			Required:    false,
		},
	).WithBotPermissions(discordgo.PermissionBanMembers).
		RequireTier(permissions.TierModerator)
}

// banHandler handles the /ban command
func banHandler(actions *moderation.Actions) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("You must specify a user.")
		}

		reason := reasonOrDefault(ctx.GetStringOption("reason"))

		res := actions.Ban(context.Background(), targetedRequest(ctx, user, reason))
		return ctx.ReplyResult(res.Content, res.Ephemeral)
	}
}
