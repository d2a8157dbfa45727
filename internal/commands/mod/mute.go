// Package mod - /mute and /unmute commands
package mod

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/moderation"
	"github.com/wardenlabs/warden/pkg/permissions"
	"github.com/wardenlabs/warden/pkg/validate"
)

// createMuteCommand creates the /mute command
func createMuteCommand(actions *moderation.Actions) *discord.Command {
	minDuration := float64(validate.MinMuteMinutes)

	return discord.NewCommand(
		"mute",
		"Time a member out",
		"mod",
		muteHandler(actions),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member to mute",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "duration",
			Description: "Duration in minutes (max 7 days)",
			Required:    true,
			MinValue:    &minDuration,
			MaxValue:    float64(validate.MaxMuteMinutes),
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the mute",
			Required:    false,
		},
	).WithBotPermissions(discordgo.PermissionModerateMembers).
		RequireTier(permissions.TierTrialModerator)
}

// muteHandler handles the /mute command
func muteHandler(actions *moderation.Actions) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("You must specify a user.")
		}

		reason := reasonOrDefault(ctx.GetStringOption("reason"))

		res := actions.Mute(context.Background(), moderation.MuteRequest{
			Request: targetedRequest(ctx, user, reason),
			Minutes: ctx.GetIntOption("duration"),
		})
		return ctx.ReplyResult(res.Content, res.Ephemeral)
	}
}

// createUnmuteCommand creates the /unmute command
func createUnmuteCommand(actions *moderation.Actions) *discord.Command {
	return discord.NewCommand(
		"unmute",
		"Remove a member's timeout",
		"mod",
		unmuteHandler(actions),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member to unmute",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the unmute",
			Required:    false,
		},
	).WithBotPermissions(discordgo.PermissionModerateMembers).
		RequireTier(permissions.TierTrialModerator)
}

// unmuteHandler handles the /unmute command
func unmuteHandler(actions *moderation.Actions) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("You must specify a user.")
		}

		reason := reasonOrDefault(ctx.GetStringOption("reason"))

		res := actions.Unmute(context.Background(), targetedRequest(ctx, user, reason))
		return ctx.ReplyResult(res.Content, res.Ephemeral)
	}
}
