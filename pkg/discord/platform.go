package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/moderation"
)

// PlatformAdapter implements moderation.Platform over a discordgo session.
type PlatformAdapter struct {
	Session *discordgo.Session
}

// NewPlatformAdapter wraps a session for the moderation orchestrator.
func NewPlatformAdapter(session *discordgo.Session) *PlatformAdapter {
	return &PlatformAdapter{Session: session}
}

func (p *PlatformAdapter) BanMember(ctx context.Context, guildID, userID, reason string) error {
	return p.Session.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx))
}

func (p *PlatformAdapter) UnbanMember(ctx context.Context, guildID, userID, reason string) error {
	// The unban endpoint takes no reason; it only reaches the audit trail.
	return p.Session.GuildBanDelete(guildID, userID, discordgo.WithContext(ctx))
}

func (p *PlatformAdapter) TimeoutMember(ctx context.Context, guildID, userID string, until *time.Time, reason string) error {
	return p.Session.GuildMemberTimeout(guildID, userID, until, discordgo.WithContext(ctx))
}

func (p *PlatformAdapter) FetchMember(ctx context.Context, guildID, userID string) (*moderation.User, error) {
	m, err := p.Session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &moderation.User{ID: m.User.ID, Tag: m.User.String(), IsBot: m.User.Bot}, nil
}

func (p *PlatformAdapter) FetchBan(ctx context.Context, guildID, userID string) (*moderation.User, error) {
	ban, err := p.Session.GuildBan(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &moderation.User{ID: ban.User.ID, Tag: ban.User.String(), IsBot: ban.User.Bot}, nil
}

func (p *PlatformAdapter) FetchUser(ctx context.Context, userID string) (*moderation.User, error) {
	u, err := p.Session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &moderation.User{ID: u.ID, Tag: u.String(), IsBot: u.Bot}, nil
}

func (p *PlatformAdapter) SendDirectMessage(ctx context.Context, userID, text string) error {
	channel, err := p.Session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	_, err = p.Session.ChannelMessageSend(channel.ID, text, discordgo.WithContext(ctx))
	return err
}

// mapNotFound translates Discord "unknown X" API errors to the orchestrator's
// not-found sentinel.
func mapNotFound(err error) error {
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Message != nil {
		switch rerr.Message.Code {
		case discordgo.ErrCodeUnknownUser, discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownBan:
			return moderation.ErrNotFound
		}
	}
	return err
}

// HighestRolePosition returns the position of the member's highest role, or
// nil when the member or guild roles cannot be resolved. Used for hierarchy
// checks.
func HighestRolePosition(guild *discordgo.Guild, member *discordgo.Member) *int {
	if guild == nil || member == nil {
		return nil
	}
	byID := make(map[string]*discordgo.Role, len(guild.Roles))
	for _, r := range guild.Roles {
		byID[r.ID] = r
	}
	highest := 0
	for _, id := range member.Roles {
		if r, ok := byID[id]; ok && r.Position > highest {
			highest = r.Position
		}
	}
	return &highest
}
