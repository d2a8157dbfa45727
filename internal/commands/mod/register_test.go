package mod

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/discord"
)

func newTestSession(t *testing.T) *discordgo.Session {
	t.Helper()
	session, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("discordgo.New: %v", err)
	}
	guild := &discordgo.Guild{
		ID:      "g1",
		Name:    "Test Guild",
		OwnerID: "owner1",
		Roles: []*discordgo.Role{
			{ID: "r-admin", Position: 50},
			{ID: "r-member", Position: 5},
		},
	}
	if err := session.State.GuildAdd(guild); err != nil {
		t.Fatalf("GuildAdd: %v", err)
	}
	return session
}

func interactionWithResolvedMember(userID string, member *discordgo.Member) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "g1",
		Data: discordgo.ApplicationCommandInteractionData{
			Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
				Members: map[string]*discordgo.Member{userID: member},
			},
		},
	}}
}

// A member the state cache has never seen must still get a rank from the
// interaction's resolved data, so the hierarchy check cannot be skipped
// for members the session simply has not cached.
func TestSubjectFromUserUncachedMemberGetsRank(t *testing.T) {
	session := newTestSession(t)
	ctx := &discord.CommandContext{
		Session: session,
		Interaction: interactionWithResolvedMember("u1", &discordgo.Member{
			GuildID: "g1",
			Roles:   []string{"r-admin"},
		}),
	}

	subject := subjectFromUser(ctx, &discordgo.User{ID: "u1", Username: "target"})

	if subject.Rank == nil {
		t.Fatal("Rank is nil for a guild member present in resolved data")
	}
	if *subject.Rank != 50 {
		t.Errorf("Rank = %d, want 50", *subject.Rank)
	}
}

func TestSubjectFromUserPrefersStateCache(t *testing.T) {
	session := newTestSession(t)
	err := session.State.MemberAdd(&discordgo.Member{
		GuildID: "g1",
		User:    &discordgo.User{ID: "u2"},
		Roles:   []string{"r-member"},
	})
	if err != nil {
		t.Fatalf("MemberAdd: %v", err)
	}

	// Resolved data carries a stale admin role; the fresher cache entry
	// with the lower role must win.
	ctx := &discord.CommandContext{
		Session: session,
		Interaction: interactionWithResolvedMember("u2", &discordgo.Member{
			GuildID: "g1",
			Roles:   []string{"r-admin"},
		}),
	}

	subject := subjectFromUser(ctx, &discordgo.User{ID: "u2", Username: "cached"})

	if subject.Rank == nil {
		t.Fatal("Rank is nil for a cached member")
	}
	if *subject.Rank != 5 {
		t.Errorf("Rank = %d, want 5", *subject.Rank)
	}
}

func TestSubjectFromUserOutsideGuild(t *testing.T) {
	session := newTestSession(t)
	ctx := &discord.CommandContext{
		Session:     session,
		Interaction: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}},
	}

	subject := subjectFromUser(ctx, &discordgo.User{ID: "u3", Username: "dm-user"})

	if subject.Rank != nil {
		t.Errorf("Rank = %d, want nil outside a guild", *subject.Rank)
	}
}
