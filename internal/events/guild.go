// Package events provides event handlers for guild (server) events
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/logger"
	"github.com/wardenlabs/warden/pkg/store"
)

// RegisterGuildEvents registers all guild-related event handlers
func RegisterGuildEvents(client *discord.ExtendedClient, st *store.Store) {
	client.EventHandler.OnGuildCreate(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		onGuildCreate(s, g, st)
	})
	client.EventHandler.OnGuildDelete(onGuildDelete)
}

// onGuildCreate is called when a guild becomes available. Keeps the guild row
// current so cases created later always reference a known guild.
func onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate, st *store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := st.UpsertGuild(ctx, g.ID, g.Name); err != nil {
		logger.Error(fmt.Sprintf("Error recording guild %s: %v", g.ID, err), "Guild")
		return
	}

	logger.Info(fmt.Sprintf("Guild available: %s (ID: %s)", g.Name, g.ID), "Guild")
	logger.Debug(fmt.Sprintf("   Members: %d | Channels: %d", g.MemberCount, len(g.Channels)), "Guild")
}

// onGuildDelete is called when the bot is removed from a server
func onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	logger.Info(fmt.Sprintf("Bot removed from guild ID: %s", g.ID), "Guild")
}
