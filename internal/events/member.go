// Package events provides event handlers for member events
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/logger"
	"github.com/wardenlabs/warden/pkg/store"
)

// RegisterMemberEvents registers all member-related event handlers
func RegisterMemberEvents(client *discord.ExtendedClient, st *store.Store) {
	client.EventHandler.OnGuildMemberAdd(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		onGuildMemberAdd(s, m, st)
	})
	client.EventHandler.OnGuildMemberRemove(onGuildMemberRemove)
}

// onGuildMemberAdd re-applies an unexpired mute when a member rejoins.
// Leaving and rejoining clears Discord's timeout, so without this the
// timeout could be escaped by a quick leave/join cycle.
func onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd, st *store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mute, err := st.FindLatestActiveMute(ctx, m.User.ID, m.GuildID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Error(fmt.Sprintf("Error looking up mute for %s: %v", m.User.ID, err), "Member")
		}
		return
	}

	if mute.ExpiresAt == nil || mute.Expired(time.Now()) {
		return
	}

	err = s.GuildMemberTimeout(m.GuildID, m.User.ID, mute.ExpiresAt, discordgo.WithContext(ctx))
	if err != nil {
		logger.Error(fmt.Sprintf("Error re-applying mute for %s: %v", m.User.ID, err), "Member")
		return
	}

	logger.Info(fmt.Sprintf("Re-applied mute for %s until %s (case %d)",
		m.User.ID, mute.ExpiresAt.Format(time.RFC3339), mute.ID), "Member")
}

// onGuildMemberRemove is called when a member leaves the server
func onGuildMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	logger.Debug(fmt.Sprintf("Member left: %s (guild %s)", m.User.ID, m.GuildID), "Member")
}
