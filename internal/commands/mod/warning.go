// Package mod - /warning command group
package mod

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/moderation"
	"github.com/wardenlabs/warden/pkg/permissions"
	"github.com/wardenlabs/warden/pkg/sanitize"
	"github.com/wardenlabs/warden/pkg/store"
)

const casesPerPage = 5

// createWarningAddCommand creates the /warning add subcommand
func createWarningAddCommand(actions *moderation.Actions) *discord.Command {
	return discord.NewCommand(
		"add",
		"Warn a member",
		"mod",
		warningAddHandler(actions),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member to warn",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the warning",
			Required:    true,
		},
	).RequireTier(permissions.TierTrialModerator)
}

func warningAddHandler(actions *moderation.Actions) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("You must specify a user.")
		}

		reason := ctx.GetStringOption("reason")

		res := actions.WarningAdd(context.Background(), targetedRequest(ctx, user, reason))
		return ctx.ReplyResult(res.Content, res.Ephemeral)
	}
}

// createWarningRemoveCommand creates the /warning remove subcommand
func createWarningRemoveCommand(actions *moderation.Actions) *discord.Command {
	return discord.NewCommand(
		"remove",
		"Remove a warning by its ID",
		"mod",
		warningRemoveHandler(actions),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionNumber,
			Name:        "id",
			Description: "Warning ID to remove",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for removing the warning",
			Required:    true,
		},
	).RequireTier(permissions.TierTrialModerator)
}

func warningRemoveHandler(actions *moderation.Actions) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		raw := ctx.GetNumberOption("id")
		id, ok := sanitize.ValidateID(raw)
		if !ok {
			return ctx.ReplyEphemeral(caseIDMessage(raw))
		}

		res := actions.WarningRemove(context.Background(), moderation.RemoveRequest{
			GuildID:   ctx.Interaction.GuildID,
			GuildName: guildName(ctx),
			Moderator: moderatorFrom(ctx),
			CaseID:    id,
			Reason:    ctx.GetStringOption("reason"),
		})
		return ctx.ReplyResult(res.Content, res.Ephemeral)
	}
}

// createWarningViewCommand creates the /warning view subcommand
func createWarningViewCommand(actions *moderation.Actions) *discord.Command {
	return discord.NewCommand(
		"view",
		"View a member's warnings",
		"mod",
		warningViewHandler(actions),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member whose warnings to view",
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

func warningViewHandler(actions *moderation.Actions) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("You must specify a user.")
		}

		if err := ctx.DeferEphemeral(); err != nil {
			return err
		}

		cases, err := actions.Warnings(context.Background(), ctx.Interaction.GuildID, user.ID)
		if err != nil {
			return ctx.EditReply("An unexpected error occurred while fetching warnings.")
		}
		if len(cases) == 0 {
			return ctx.EditReply(fmt.Sprintf("%s has no warnings.", sanitize.UserTag(user.String())))
		}

		embed := caseListEmbed("Warnings", user, cases, ctx.GetIntOption("page"))
		return ctx.EditReplyEmbed(embed)
	}
}

// caseListEmbed renders one page of a member's case list, newest first,
// casesPerPage entries per page. Out-of-range pages clamp to the last page.
func caseListEmbed(title string, user *discordgo.User, cases []store.Case, page int64) *discordgo.MessageEmbed {
	totalPages := (len(cases) + casesPerPage - 1) / casesPerPage
	p := int(page)
	if p < 1 {
		p = 1
	}
	if p > totalPages {
		p = totalPages
	}

	start := (p - 1) * casesPerPage
	end := start + casesPerPage
	if end > len(cases) {
		end = len(cases)
	}

	var b strings.Builder
	for _, c := range cases[start:end] {
		fmt.Fprintf(&b, "**ID %d** — <t:%d:f> by <@%s>\n%s\n\n",
			c.ID, c.CreatedAt.Unix(), c.CreatedBy, sanitize.ForDisplay(c.Body))
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s for %s", title, sanitize.UserTag(user.String())),
		Description: b.String(),
		Color:       0xFAA81A,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d • %d total", p, totalPages, len(cases)),
		},
	}
}
