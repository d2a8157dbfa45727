// Package mod - /note command group
package mod

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/config"
	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/moderation"
	"github.com/wardenlabs/warden/pkg/permissions"
	"github.com/wardenlabs/warden/pkg/sanitize"
)

// inModsChannel reports whether the interaction happened in the configured
// staff channel. Note replies are only shown publicly there.
func inModsChannel(ctx *discord.CommandContext) bool {
	mods := config.Get().ModsChannelID
	return mods != "" && ctx.Interaction.ChannelID == mods
}

func replyNoteResult(ctx *discord.CommandContext, res moderation.Result) error {
	if res.Ephemeral || !inModsChannel(ctx) {
		return ctx.ReplyEphemeral(res.Content)
	}
	return ctx.Reply(res.Content)
}

// createNoteAddCommand creates the /note add subcommand
func createNoteAddCommand(actions *moderation.Actions) *discord.Command {
	return discord.NewCommand(
		"add",
		"Add a staff note on a member",
		"mod",
		noteAddHandler(actions),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member the note is about",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "content",
			Description: "Note content",
			Required:    true,
		},
	).RequireTier(permissions.TierTrialModerator)
}

func noteAddHandler(actions *moderation.Actions) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("You must specify a user.")
		}

		content := ctx.GetStringOption("content")

		res := actions.NoteAdd(context.Background(), targetedRequest(ctx, user, content))
		return replyNoteResult(ctx, res)
	}
}

// createNoteRemoveCommand creates the /note remove subcommand
func createNoteRemoveCommand(actions *moderation.Actions) *discord.Command {
	return discord.NewCommand(
		"remove",
		"Remove a note by its ID",
		"mod",
		noteRemoveHandler(actions),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionNumber,
			Name:        "id",
			Description: "Note ID to remove",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for removing the note",
			Required:    true,
		},
	).RequireTier(permissions.TierTrialModerator)
}

func noteRemoveHandler(actions *moderation.Actions) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		raw := ctx.GetNumberOption("id")
		id, ok := sanitize.ValidateID(raw)
		if !ok {
			return ctx.ReplyEphemeral(caseIDMessage(raw))
		}

		res := actions.NoteRemove(context.Background(), moderation.RemoveRequest{
			GuildID:   ctx.Interaction.GuildID,
			GuildName: guildName(ctx),
			Moderator: moderatorFrom(ctx),
			CaseID:    id,
			Reason:    ctx.GetStringOption("reason"),
		})
		return replyNoteResult(ctx, res)
	}
}

// createNoteViewCommand creates the /note view subcommand
func createNoteViewCommand(actions *moderation.Actions) *discord.Command {
	return discord.NewCommand(
		"view",
		"View the notes on a member",
		"mod",
		noteViewHandler(actions),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member whose notes to view",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "page",
			Description: "Page number",
			Required:    false,
		},
	).RequireTier(permissions.TierTrialModerator)
}

func noteViewHandler(actions *moderation.Actions) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("You must specify a user.")
		}

		// Visibility is locked in at defer time.
		deferFn := ctx.DeferEphemeral
		if inModsChannel(ctx) {
			deferFn = ctx.Defer
		}
		if err := deferFn(); err != nil {
			return err
		}

		cases, err := actions.Notes(context.Background(), ctx.Interaction.GuildID, user.ID)
		if err != nil {
			return ctx.EditReply("An unexpected error occurred while fetching notes.")
		}
		if len(cases) == 0 {
			return ctx.EditReply("There are no notes for " + sanitize.UserTag(user.String()) + ".")
		}

		embed := caseListEmbed("Notes", user, cases, ctx.GetIntOption("page"))
		embed.Color = 0xFEE75C
		return ctx.EditReplyEmbed(embed)
	}
}
