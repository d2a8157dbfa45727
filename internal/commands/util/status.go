// Package util - /bot-status command
package util

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/moderation"
	"github.com/wardenlabs/warden/pkg/permissions"
	"github.com/wardenlabs/warden/pkg/store"
)

// createBotStatusCommand creates the /bot-status command. Registered only in
// the dev guild; it exposes internals ordinary servers have no use for.
func createBotStatusCommand(client *discord.ExtendedClient, actions *moderation.Actions) *discord.Command {
	return discord.NewCommand(
		"bot-status",
		"Show bot uptime and store statistics",
		"util",
		botStatusHandler(client, actions),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "detailed",
			Description: "Include case counts from the store",
			Required:    false,
		},
	).RequireTier(permissions.TierAdministrator).
		AsDev()
}

// botStatusHandler handles the /bot-status command
func botStatusHandler(client *discord.ExtendedClient, actions *moderation.Actions) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		uptime := time.Since(client.StartTime).Round(time.Second)

		fields := []*discordgo.MessageEmbedField{
			{Name: "Uptime", Value: uptime.String(), Inline: true},
			{Name: "Guilds", Value: fmt.Sprintf("%d", client.GuildCount()), Inline: true},
		}

		if ctx.GetBoolOption("detailed") && actions.Store != nil {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			counts, err := actions.Store.CountCases(cctx)
			if err != nil {
				return ctx.ReplyEphemeral("Could not load case counts from the store.")
			}
			fields = append(fields,
				&discordgo.MessageEmbedField{Name: "Notes", Value: fmt.Sprintf("%d", counts[store.CaseNote]), Inline: true},
				&discordgo.MessageEmbedField{Name: "Warnings", Value: fmt.Sprintf("%d", counts[store.CaseWarning]), Inline: true},
				&discordgo.MessageEmbedField{Name: "Mutes", Value: fmt.Sprintf("%d", counts[store.CaseMute]), Inline: true},
			)
		}

		return ctx.ReplyEphemeralEmbed(&discordgo.MessageEmbed{
			Title:     "Warden Status",
			Color:     0x5865F2,
			Fields:    fields,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}
