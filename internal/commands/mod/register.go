// Package mod provides the moderation commands.
// Each command is in its own file for better organization
package mod

import (
	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/moderation"
	"github.com/wardenlabs/warden/pkg/sanitize"
)

// RegisterModCommands registers the moderation command set: /ban, /unban,
// /mute, /unmute and the /warning and /note groups.
func RegisterModCommands(client *discord.ExtendedClient, actions *moderation.Actions) {
	client.CommandHandler.RegisterCommand(createBanCommand(actions))
	client.CommandHandler.RegisterCommand(createUnbanCommand(actions))
	client.CommandHandler.RegisterCommand(createMuteCommand(actions))
	client.CommandHandler.RegisterCommand(createUnmuteCommand(actions))

	warningGroup := client.CommandHandler.BuildCommandGroup(
		"warning",
		"Manage member warnings",
		createWarningAddCommand(actions),
		createWarningRemoveCommand(actions),
		createWarningViewCommand(actions),
	)
	client.CommandHandler.AddGlobalCommand(warningGroup)

	noteGroup := client.CommandHandler.BuildCommandGroup(
		"note",
		"Manage staff notes on members",
		createNoteAddCommand(actions),
		createNoteRemoveCommand(actions),
		createNoteViewCommand(actions),
	)
	client.CommandHandler.AddGlobalCommand(noteGroup)
}

// subjectFromUser resolves the target the way the orchestrator expects:
// rank present only when the target is a current guild member.
func subjectFromUser(ctx *discord.CommandContext, user *discordgo.User) moderation.Subject {
	s := moderation.Subject{UserID: user.ID, Tag: user.String(), IsBot: user.Bot}
	if guild := ctx.Guild(); guild != nil {
		if m := resolveMember(ctx, guild.ID, user.ID); m != nil {
			s.Rank = discord.HighestRolePosition(guild, m)
		}
	}
	return s
}

// resolveMember finds the target's member record. The state cache only holds
// members whose events the session has seen, so a cache miss must not be
// read as "not a member" — the interaction's resolved data carries the
// member for user options, and the API is the final word. A nil return
// means the target genuinely is not in the guild.
func resolveMember(ctx *discord.CommandContext, guildID, userID string) *discordgo.Member {
	if m, err := ctx.Session.State.Member(guildID, userID); err == nil {
		return m
	}
	if ctx.Interaction.Type == discordgo.InteractionApplicationCommand {
		data := ctx.Interaction.ApplicationCommandData()
		if data.Resolved != nil {
			if m, ok := data.Resolved.Members[userID]; ok && m != nil {
				return m
			}
		}
	}
	m, err := ctx.Session.GuildMember(guildID, userID)
	if err != nil {
		return nil
	}
	return m
}

func moderatorFrom(ctx *discord.CommandContext) moderation.Moderator {
	user := ctx.User()
	m := moderation.Moderator{UserID: user.ID, Tag: user.String()}
	if guild := ctx.Guild(); guild != nil && ctx.Member() != nil {
		m.Rank = discord.HighestRolePosition(guild, ctx.Member())
	}
	return m
}

func guildName(ctx *discord.CommandContext) string {
	if guild := ctx.Guild(); guild != nil {
		return guild.Name
	}
	return ""
}

func targetedRequest(ctx *discord.CommandContext, user *discordgo.User, reason string) moderation.Request {
	return moderation.Request{
		GuildID:   ctx.Interaction.GuildID,
		GuildName: guildName(ctx),
		Moderator: moderatorFrom(ctx),
		Target:    subjectFromUser(ctx, user),
		Reason:    reason,
	}
}

func reasonOrDefault(reason string) string {
	if reason == "" {
		return "No reason provided"
	}
	return reason
}

// caseIDMessage explains a rejected id option: zero, negative and fractional
// garbage get the generic wording, ids past the 32-bit range the range one.
func caseIDMessage(raw float64) string {
	if raw > sanitize.MaxID {
		return "Invalid ID. The ID number is too large."
	}
	return "Please provide a valid positive number."
}
