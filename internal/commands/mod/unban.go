// Package mod - /unban command
package mod

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/moderation"
	"github.com/wardenlabs/warden/pkg/permissions"
)

// createUnbanCommand creates the /unban command
func createUnbanCommand(actions *moderation.Actions) *discord.Command {
	return discord.NewCommand(
		"unban",
		"Unban a user by their ID",
		"mod",
		unbanHandler(actions),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "user-id",
			Description: "ID of the user to unban",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the unban",
			Required:    false,
		},
	).WithBotPermissions(discordgo.PermissionBanMembers).
		RequireTier(permissions.TierModerator)
}

// unbanHandler handles the /unban command. The target is identified by a
// raw id because banned users are no longer members.
func unbanHandler(actions *moderation.Actions) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		res := actions.Unban(context.Background(), moderation.UnbanRequest{
			GuildID:   ctx.Interaction.GuildID,
			GuildName: guildName(ctx),
			Moderator: moderatorFrom(ctx),
			TargetID:  ctx.GetStringOption("user-id"),
			Reason:    reasonOrDefault(ctx.GetStringOption("reason")),
		})
		return ctx.ReplyResult(res.Content, res.Ephemeral)
	}
}
